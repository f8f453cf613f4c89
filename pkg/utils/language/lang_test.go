package language

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBestMatch(t *testing.T) {
	got, ok := BestMatch([]string{"de", "en-GB", "fr"}, "en")
	require.True(t, ok)
	require.Equal(t, "en-GB", got)

	got, ok = BestMatch([]string{"en-orig", "es", "en"})
	require.True(t, ok)
	require.Equal(t, "en", got)

	_, ok = BestMatch([]string{"ja", "ko"}, "en")
	require.False(t, ok)

	_, ok = BestMatch(nil, "en")
	require.False(t, ok)
}
