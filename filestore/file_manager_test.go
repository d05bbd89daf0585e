package filestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "runs/chess/r1/patterns_10.txt", ObjectKey("runs/chess/r1/", "patterns_10.txt"))
	assert.Equal(t, "runs/chess/r1/patterns_10.txt", ObjectKey("/runs/chess/r1", "patterns_10.txt"))
	assert.Equal(t, "chess.txt", ObjectKey("", "chess.txt"))
	assert.Equal(t, "chess.txt", ObjectKey("/", "chess.txt"))
}
