package helper

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheduleshare/event-manager/pkg/model"
)

func TestGenerateAccessToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	user := &model.User{ID: 123, Email: "someone@something.org"}

	signed, err := GenerateAccessToken(user, key, 300)

	require.NoError(t, err)
	token, err := jwt.Parse([]byte(signed), jwt.WithKey(jwa.RS256, key.PublicKey))
	require.NoError(t, err)
	claim, ok := token.Get("user")
	require.True(t, ok)
	userClaim, ok := claim.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(123), userClaim["id"])
	assert.Equal(t, "someone@something.org", userClaim["email"])
}

func TestGenerateAndValidateRefreshToken(t *testing.T) {
	user := &model.User{ID: 123}
	secretKey := "some-secret-key"

	refreshToken, err := GenerateRefreshToken(user, secretKey, 3600)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshToken.SignedString)
	assert.NotEmpty(t, refreshToken.TokenId)

	claims, err := ValidateRefreshToken(refreshToken.SignedString, secretKey)
	require.NoError(t, err)
	assert.Equal(t, uint(123), claims.UserId)
	assert.Equal(t, refreshToken.TokenId, claims.ID)
	assert.Positive(t, claims.ExpiresIn)
}

func TestValidateRefreshToken_WrongKey(t *testing.T) {
	user := &model.User{ID: 123}

	refreshToken, err := GenerateRefreshToken(user, "some-secret-key", 3600)
	require.NoError(t, err)

	_, err = ValidateRefreshToken(refreshToken.SignedString, "another-secret-key")
	assert.Error(t, err)
}
