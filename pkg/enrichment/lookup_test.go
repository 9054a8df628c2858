package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

const filingBase = "https://example.org/nonprofits/organizations"

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://api.example.org/orgs/131624102.json", ProfileURL("https://api.example.org/orgs/", "131624102"))
	assert.Equal(t, "https://api.example.org/orgs/131624102.json", ProfileURL("https://api.example.org/orgs", "131624102"))
	assert.Equal(t, filingBase+"/131624102/full", FilingLink(filingBase, "131624102"))
}

func TestDecodeProfile(t *testing.T) {
	t.Run("full organization", func(t *testing.T) {
		body := []byte(`{"organization":{"employee_count":18000,"website":"redcross.org","mission":"disaster relief",
			"officers":[{"name":"Jane Doe","title":"CEO","compensation":500000}]}}`)

		record, err := DecodeProfile("131624102", filingBase, body)
		require.NoError(t, err)

		assert.Equal(t, "131624102", record.Identifier)
		require.NotNil(t, record.EmployeeCount)
		assert.Equal(t, int64(18000), *record.EmployeeCount)
		assert.Equal(t, "redcross.org", *record.Website)
		assert.Equal(t, "disaster relief", *record.Mission)
		assert.Contains(t, record.FilingLink, "131624102")
		assert.Equal(t, "Jane Doe (CEO) - $500000", record.KeyPersonnel)
		require.Len(t, record.Officers, 1)
	})

	t.Run("missing optional fields", func(t *testing.T) {
		record, err := DecodeProfile("1", filingBase, []byte(`{"organization":{}}`))
		require.NoError(t, err)
		assert.Nil(t, record.EmployeeCount)
		assert.Nil(t, record.Website)
		assert.Nil(t, record.Mission)
		assert.Equal(t, models.NoPersonnelData, record.KeyPersonnel)
		assert.Equal(t, filingBase+"/1/full", record.FilingLink)
	})

	t.Run("missing organization object", func(t *testing.T) {
		record, err := DecodeProfile("1", filingBase, []byte(`{}`))
		require.NoError(t, err)
		assert.Nil(t, record.Website)
		assert.Equal(t, models.NoPersonnelData, record.KeyPersonnel)
	})

	t.Run("top level officers", func(t *testing.T) {
		body := []byte(`{"organization":{},"officers":[{"name":"A"},{"title":"Treasurer"}]}`)
		record, err := DecodeProfile("1", filingBase, body)
		require.NoError(t, err)
		assert.Equal(t, "A; (Treasurer)", record.KeyPersonnel)
	})

	t.Run("lenient field types", func(t *testing.T) {
		body := []byte(`{"organization":{"employee_count":"1,200","website":42,"mission":null,
			"officers":[{"name":"B","compensation":"75000.5"}]}}`)
		record, err := DecodeProfile("1", filingBase, body)
		require.NoError(t, err)
		require.NotNil(t, record.EmployeeCount)
		assert.Equal(t, int64(1200), *record.EmployeeCount)
		assert.Nil(t, record.Website)
		assert.Nil(t, record.Mission)
		assert.Equal(t, "B - $75000.5", record.KeyPersonnel)
	})

	t.Run("employee count out of range", func(t *testing.T) {
		for _, raw := range []string{`1e30`, `-1e30`, `"9.3e18"`} {
			body := []byte(`{"organization":{"employee_count":` + raw + `,"website":"x.org"}}`)
			record, err := DecodeProfile("1", filingBase, body)
			require.NoError(t, err, raw)
			assert.Nil(t, record.EmployeeCount, raw)
			require.NotNil(t, record.Website)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := DecodeProfile("1", filingBase, []byte(`<html>oops</html>`))
		assert.Error(t, err)

		_, err = DecodeProfile("1", filingBase, []byte(`[]`))
		assert.Error(t, err)
	})
}

func TestFormatKeyPersonnel(t *testing.T) {
	tests := []struct {
		name     string
		officers []models.Officer
		expected string
	}{
		{
			name:     "empty list",
			officers: nil,
			expected: models.NoPersonnelData,
		},
		{
			name: "all parts",
			officers: []models.Officer{
				{Name: strPtr("Jane Doe"), Title: strPtr("CEO"), Compensation: floatPtr(500000)},
			},
			expected: "Jane Doe (CEO) - $500000",
		},
		{
			name: "service order kept",
			officers: []models.Officer{
				{Name: strPtr("Zed"), Title: strPtr("Chair")},
				{Name: strPtr("Amy"), Compensation: floatPtr(1500000)},
			},
			expected: "Zed (Chair); Amy - $1500000",
		},
		{
			name: "compensation only",
			officers: []models.Officer{
				{Compensation: floatPtr(0)},
			},
			expected: "$0",
		},
		{
			name: "entries with nothing usable",
			officers: []models.Officer{
				{},
				{Title: strPtr("  ")},
			},
			expected: models.NoPersonnelData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatKeyPersonnel(tt.officers))
		})
	}
}
