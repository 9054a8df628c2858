package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	columns := []string{"Name", "EIN", "Mission"}
	rows := [][]string{
		{"american red cross", "131624102", "disaster relief"},
		{"unknown org", "", ""},
	}
	require.NoError(t, WriteXLSX(&buf, columns, rows))

	table, err := ReadXLSX(&buf)
	require.NoError(t, err)
	assert.Equal(t, columns, table.Columns)
	assert.Equal(t, rows, table.Rows)
}

func TestReadXLSX_HeaderNormalizers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, []string{" EIN ", "NAME"}, [][]string{{"1", "a"}}))

	table, err := ReadXLSX(&buf, "header")
	require.NoError(t, err)
	assert.Equal(t, []string{"ein", "name"}, table.Columns)
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("name\nacme\n"))
	assert.Error(t, err)
}
