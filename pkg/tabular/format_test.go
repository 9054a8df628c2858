package tabular

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestReadUpload(t *testing.T) {
	t.Run("csv by content", func(t *testing.T) {
		table, err := ReadUpload([]byte("Org Name ;City\nacme;x\n"), "")
		require.NoError(t, err)
		assert.Equal(t, []string{"org name", "city"}, table.Columns)
	})

	t.Run("xlsx by magic bytes", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteXLSX(&buf, []string{"NAME"}, [][]string{{"acme"}}))

		assert.Equal(t, FormatXLSX, DetectFormat("upload", buf.Bytes()))
		table, err := ReadUpload(buf.Bytes(), "upload")
		require.NoError(t, err)
		assert.Equal(t, []string{"name"}, table.Columns)
		assert.Equal(t, [][]string{{"acme"}}, table.Rows)
	})

	t.Run("extension wins", func(t *testing.T) {
		assert.Equal(t, FormatCSV, DetectFormat("list.csv", []byte("PK\x03\x04")))
		assert.Equal(t, FormatXLSX, DetectFormat("list.XLSX", nil))
	})
}

func TestWriteTable(t *testing.T) {
	table := &Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}}

	var csvBuf bytes.Buffer
	require.NoError(t, WriteTable(&csvBuf, FormatCSV, table))
	assert.Equal(t, "a,b\n1,2\n", csvBuf.String())

	var xlsxBuf bytes.Buffer
	require.NoError(t, WriteTable(&xlsxBuf, FormatXLSX, table))
	assert.True(t, bytes.HasPrefix(xlsxBuf.Bytes(), zipMagic))

	assert.Error(t, WriteTable(&csvBuf, Format("pdf"), table))
}
