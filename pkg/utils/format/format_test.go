package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "-"},
		{-4, "-"},
		{5, "0:05"},
		{65.9, "1:05"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Duration(tt.seconds), "seconds=%v", tt.seconds)
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, "0:00.0", Offset(0))
	assert.Equal(t, "0:04.0", Offset(4))
	assert.Equal(t, "1:02.5", Offset(62.5))
	assert.Equal(t, "0:00.0", Offset(-1))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Processing...", Truncate("Processing was cancelled", 13))
	assert.Equal(t, "crème...", Truncate("crème brûlée", 8))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
