package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashTokenRoundTrip(t *testing.T) {
	hash, err := HashToken("abc123")
	require.NoError(t, err)

	assert.NotEqual(t, "abc123", hash)
	assert.True(t, VerifyToken(hash, "abc123"))
	assert.False(t, VerifyToken(hash, "abc124"))
}

func TestHashTokenSalted(t *testing.T) {
	a, err := HashToken("same")
	require.NoError(t, err)
	b, err := HashToken("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, VerifyToken(a, "same"))
	assert.True(t, VerifyToken(b, "same"))
}

func TestVerifyTokenGarbageHash(t *testing.T) {
	assert.False(t, VerifyToken("not-a-hash", "token"))
}
