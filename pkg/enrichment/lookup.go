package enrichment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// ProfileURL builds the lookup URL for one identifier: {base}/{identifier}.json
func ProfileURL(baseURL, identifier string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(identifier) + ".json"
}

// FilingLink builds the public filing page for one identifier. No request is made.
func FilingLink(filingBaseURL, identifier string) string {
	return strings.TrimRight(filingBaseURL, "/") + "/" + url.PathEscape(identifier) + "/full"
}

type lookupResponse struct {
	Organization *lookupOrganization `json:"organization"`
	Officers     []lookupOfficer     `json:"officers"`
}

type lookupOrganization struct {
	EmployeeCount flexNumber      `json:"employee_count"`
	Website       flexString      `json:"website"`
	Mission       flexString      `json:"mission"`
	Officers      []lookupOfficer `json:"officers"`
}

type lookupOfficer struct {
	Name         flexString `json:"name"`
	Title        flexString `json:"title"`
	Compensation flexNumber `json:"compensation"`
}

// flexNumber accepts a JSON number, a numeric string or null. Anything else is left unset.
type flexNumber struct {
	value *float64
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	n.value = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	} else {
		raw = string(data)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n.value = &f
	return nil
}

// flexString accepts a JSON string or null. Non-string values are left unset.
type flexString struct {
	value *string
}

func (s *flexString) UnmarshalJSON(data []byte) error {
	s.value = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.value = &v
	return nil
}

// DecodeProfile projects a lookup response body into an EnrichmentRecord.
// A body that is not a JSON object is an error. A missing organization object
// yields a record with every optional field unset.
func DecodeProfile(identifier, filingBaseURL string, body []byte) (*models.EnrichmentRecord, error) {
	var resp lookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode lookup response: %w", err)
	}

	record := &models.EnrichmentRecord{
		Identifier: identifier,
		FilingLink: FilingLink(filingBaseURL, identifier),
	}

	officers := resp.Officers
	if org := resp.Organization; org != nil {
		if v := org.EmployeeCount.value; v != nil {
			record.EmployeeCount = roundCount(*v)
		}
		record.Website = org.Website.value
		record.Mission = org.Mission.value
		if org.Officers != nil {
			officers = org.Officers
		}
	}

	for _, o := range officers {
		record.Officers = append(record.Officers, models.Officer{
			Name:         o.Name.value,
			Title:        o.Title.value,
			Compensation: o.Compensation.value,
		})
	}
	record.KeyPersonnel = FormatKeyPersonnel(record.Officers)

	return record, nil
}

// FormatOfficer renders one officer as "Name (Title) - $Compensation", omitting absent parts.
func FormatOfficer(o models.Officer) string {
	var b strings.Builder
	if o.Name != nil {
		b.WriteString(strings.TrimSpace(*o.Name))
	}
	if o.Title != nil && strings.TrimSpace(*o.Title) != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("(" + strings.TrimSpace(*o.Title) + ")")
	}
	if o.Compensation != nil {
		if b.Len() > 0 {
			b.WriteString(" - ")
		}
		b.WriteString("$" + strconv.FormatFloat(*o.Compensation, 'f', -1, 64))
	}
	return b.String()
}

// FormatKeyPersonnel joins the officer tokens in service order with "; ".
// No usable officers yields models.NoPersonnelData.
func FormatKeyPersonnel(officers []models.Officer) string {
	tokens := make([]string, 0, len(officers))
	for _, o := range officers {
		if token := FormatOfficer(o); token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return models.NoPersonnelData
	}
	return strings.Join(tokens, "; ")
}

// roundCount rounds to the nearest integer; values outside the int64 range are unset
func roundCount(v float64) *int64 {
	r := math.Round(v)
	if math.IsNaN(r) || r < math.MinInt64 || r >= math.MaxInt64 {
		return nil
	}
	count := int64(r)
	return &count
}
