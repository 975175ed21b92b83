package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := hashPassword("some long and secure password")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=131072,t=3,p=4$"))
	parts := strings.Split(hash, "$")
	assert.Len(t, parts, 6)
}

func TestHashPassword_SaltsAreUnique(t *testing.T) {
	first, err := hashPassword("some long and secure password")
	require.NoError(t, err)
	second, err := hashPassword("some long and secure password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestComparePasswords(t *testing.T) {
	hash, err := hashPassword("some long and secure password")
	require.NoError(t, err)

	match, err := comparePasswords(hash, "some long and secure password")
	require.NoError(t, err)
	assert.True(t, match)

	match, err = comparePasswords(hash, "a different password entirely")
	require.NoError(t, err)
	assert.False(t, match)
}

func TestComparePasswords_InvalidHash(t *testing.T) {
	_, err := comparePasswords("not-a-hash", "password")

	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid password hash")
}

func TestComparePasswords_InvalidSalt(t *testing.T) {
	_, err := comparePasswords("$argon2id$v=19$m=131072,t=3,p=4$!!!$aGFzaA", "password")

	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to decode salt")
}
