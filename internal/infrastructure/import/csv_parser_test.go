package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFcode,name\n03-100,Concrete"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"code", "name"}, parser.Headers())
	})

	t.Run("empty file returns error", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("  \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding returns error", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("code,name\n03-100,\xff\xfe"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("code;name\n03-100;Concrete"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"code", "name"}, parser.Headers())
	})
}

func TestParseHeader_NormalizesNames(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader(" Code , NAME \n03-100,Concrete"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	assert.True(t, parser.HasHeader("code"))
	assert.True(t, parser.HasHeader("name"))
	assert.Equal(t, []string{"division"}, parser.ValidateHeaders([]string{"code", "division"}))
}

func TestReadRow(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("code,name,unit\n03-100, Concrete \n\n,,\n05-100,Steel,t"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	first, err := parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 2, first.LineNumber)
	assert.Equal(t, "Concrete", first.Get("name"))
	assert.Equal(t, "", first.Get("unit"))
	assert.Equal(t, "each", first.GetOrDefault("unit", "each"))

	rest, err := parser.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "t", rest[0].Get("unit"))

	_, err = parser.ReadRow()
	assert.Equal(t, io.EOF, err)
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection(2)
	assert.False(t, ec.HasErrors())
	assert.Equal(t, "no errors", ec.String())

	ec.AddRequiredError(2, "code")
	ec.AddDuplicateError(3, "code", "03-100")
	ec.AddRequiredError(4, "name")

	assert.True(t, ec.HasErrors())
	assert.True(t, ec.IsTruncated())
	assert.Equal(t, 3, ec.TotalCount())
	require.Len(t, ec.Errors(), 2)
	assert.Equal(t, "row 2, column 'code': field 'code' is required", ec.Errors()[0].Error())
	assert.Contains(t, ec.String(), "3 error(s) found (showing first 2)")
}
