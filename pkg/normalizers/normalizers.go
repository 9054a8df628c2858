// Package normalizers provides string normalization for name comparison and column headers
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// OrgName is the registry key of the organization-name normalizer
const OrgName = "norgname"

var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("casefold", CaseFold)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("alnum_spaces", AlphanumericSpaces)
	Register("header", NormalizeHeader)
	Register(OrgName, NormalizeOrgName)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value; unknown names leave it untouched
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// CaseFold applies Unicode full case folding.
// A Caser carries state, so each call gets its own.
func CaseFold(s string) string {
	return cases.Fold().String(s)
}

// CollapseWhitespace replaces every whitespace run with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// AlphanumericSpaces lowercases, replaces every non letter/digit with a space and
// collapses the result. This is the form similarity scoring works on.
func AlphanumericSpaces(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	prevSpace := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(unicode.ToLower(r))
			prevSpace = false
		} else if !prevSpace {
			result.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimRight(result.String(), " ")
}

// NormalizeHeader normalizes a tabular column name: trimmed and lowercased.
// A leading byte-order mark left over from decoding is dropped as well.
func NormalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
}

// NormalizeOrgName is the comparison form of an organization name: case folded and
// trimmed. Empty and whitespace-only input yields "".
func NormalizeOrgName(s string) string {
	return strings.TrimSpace(CaseFold(s))
}
