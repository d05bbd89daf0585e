package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUUID(t *testing.T) {
	id := GetUUID()
	assert.True(t, IsValidUUID(id))
	assert.NotEqual(t, id, GetUUID())
	assert.False(t, IsValidUUID("not-a-uuid"))
}

func TestRandomString(t *testing.T) {
	assert.Len(t, RandomString(8), 8)
	assert.Empty(t, RandomString(0))
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input    string
		sep      string
		expected []string
	}{
		{"chess, mushroom ,,BMS", ",", []string{"chess", "mushroom", "BMS"}},
		{"", ",", []string{}},
		{"a  b", " ", []string{"a", "b"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SplitAndTrim(tt.input, tt.sep))
	}
}
