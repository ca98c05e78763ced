package auth_test

import (
	"strings"
	"testing"

	"github.com/rosterapp/roster/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSecret_RoundTrip(t *testing.T) {
	hash, err := auth.HashSecret("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := auth.VerifySecret(hash, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifySecret_WrongSecret(t *testing.T) {
	hash, err := auth.HashSecret("right")
	require.NoError(t, err)

	ok, err := auth.VerifySecret(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashSecret_EmptyRejected(t *testing.T) {
	_, err := auth.HashSecret("")
	assert.Error(t, err)
}

func TestHashSecret_SaltVaries(t *testing.T) {
	h1, err := auth.HashSecret("same secret")
	require.NoError(t, err)
	h2, err := auth.HashSecret("same secret")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestVerifySecret_MalformedHashIsFalseNotError(t *testing.T) {
	ok, err := auth.VerifySecret("not-a-hash", "anything")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = auth.VerifySecret("$bcrypt$whatever", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashSecret_NoDelimiterCollision(t *testing.T) {
	// The credential file splits lines on ':'; the encoding must never contain one.
	hash, err := auth.HashSecret("secret")
	require.NoError(t, err)
	assert.NotContains(t, hash, ":")
}
