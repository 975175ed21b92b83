package helper

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/scheduleshare/event-manager/pkg/model"
)

// GenerateAccessToken signs an RS256 token carrying the user under the "user" claim,
// which the authentication middleware extracts on every request.
func GenerateAccessToken(user *model.User, key *rsa.PrivateKey, expirationInSeconds int) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		IssuedAt(now).
		Expiration(now.Add(time.Duration(expirationInSeconds) * time.Second)).
		Claim("user", user).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build access token: %v", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, key))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %v", err)
	}

	return string(signed), nil
}

type refreshToken struct {
	SignedString string
	TokenId      string
	ExpiresIn    time.Duration
}

// GenerateRefreshToken signs an HS256 token whose jti doubles as the whitelist key in
// redis. Only the user id travels in the token; everything else is looked up on refresh.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func GenerateRefreshToken(user *model.User, secretKey string, expirationInSeconds int) (*refreshToken, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(expirationInSeconds) * time.Second)
	tokenId := uuid.NewString()

	token, err := jwt.NewBuilder().
		JwtID(tokenId).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim("userId", user.ID).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh token: %v", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(secretKey)))
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %v", err)
	}

	return &refreshToken{
		SignedString: string(signed),
		TokenId:      tokenId,
		ExpiresIn:    expiresAt.Sub(now),
	}, nil
}

type refreshTokenClaims struct {
	UserId    uint
	ID        string
	ExpiresIn time.Duration
	IssuedAt  int64
}

//goland:noinspection GoExportedFuncWithUnexportedType
func ValidateRefreshToken(tokenString string, secretKey string) (*refreshTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256, []byte(secretKey)),
	)
	if err != nil {
		return nil, err
	}

	claim, ok := token.Get("userId")
	if !ok {
		return nil, errors.New("userId not found in claims")
	}
	userId, ok := claim.(float64)
	if !ok {
		return nil, fmt.Errorf("unexpected userId claim type %T", claim)
	}

	if token.JwtID() == "" {
		return nil, fmt.Errorf("%s not found in claims", jwt.JwtIDKey)
	}

	return &refreshTokenClaims{
		UserId:    uint(userId),
		ID:        token.JwtID(),
		ExpiresIn: time.Until(token.Expiration()),
		IssuedAt:  token.IssuedAt().Unix(),
	}, nil
}
