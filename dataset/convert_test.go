package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		input    string
		expected string
		lines    int
	}{
		{
			name:     "sequence",
			format:   FormatSequence,
			input:    "# bms\n12 -1 7 -1 12 -1 -2\n3 -1 -2\n-2\n",
			expected: "12 7 12:3:1 1 1\n3:1:1",
			lines:    2,
		},
		{
			name:     "item list",
			format:   FormatItemList,
			input:    "1 2 3\n\n4 5\n",
			expected: "1 2 3:3:1 1 1\n4 5:2:1 1",
			lines:    2,
		},
		{
			name:     "timestamped",
			format:   FormatTimestamped,
			input:    "a b:10:6 4:1001\nb c:10:5 5:1002",
			expected: "a b:10:6 4\nb c:10:5 5",
			lines:    2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			n, err := Convert(strings.NewReader(tt.input), &out, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.lines, n)
			assert.Equal(t, tt.expected, out.String())

			// the converted text loads
			d, err := ReadDatasetFromReader(tt.name, &out, " ")
			require.NoError(t, err)
			assert.Len(t, d.Transactions, tt.lines)
		})
	}
}

func TestConvertErrors(t *testing.T) {
	_, err := Convert(strings.NewReader("a b c\n"), &bytes.Buffer{}, FormatTimestamped)
	assert.Error(t, err)

	_, err = Convert(strings.NewReader("a b c\n"), &bytes.Buffer{}, Format("xml"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Sequence ")
	require.NoError(t, err)
	assert.Equal(t, FormatSequence, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestConvertedFileName(t *testing.T) {
	assert.Equal(t, "BMS.ds", ConvertedFileName("data/BMS.txt"))
	assert.Equal(t, "mushroom.ds", ConvertedFileName("mushroom.txt"))
}
