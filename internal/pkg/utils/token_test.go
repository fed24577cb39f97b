package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShareTokenFormat(t *testing.T) {
	token, err := GenerateShareToken()
	require.NoError(t, err)

	assert.Len(t, token, ShareTokenBytes*2)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+$`), token)
}

func TestGenerateShareTokenUniqueness(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		token, err := GenerateShareToken()
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "令牌重复: %s", token)
		seen[token] = struct{}{}
	}
}
