package handler

import (
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken(t *testing.T) {
	secret := []byte("s3cret")

	tok, err := IssueToken(secret, model.Identity{UserID: "u-1", Role: model.RoleOrganizer, Email: "o@example.com"}, time.Minute)
	require.NoError(t, err)

	id, err := ParseToken(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, model.Identity{UserID: "u-1", Role: model.RoleOrganizer, Email: "o@example.com"}, id)
}

func TestParseToken_Rejects(t *testing.T) {
	secret := []byte("s3cret")

	sign := func(method jwt.SigningMethod, key any, claims Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := Claims{UserID: "u-1", Role: "USER"}

	tests := []struct {
		name  string
		token string
	}{
		{
			name: "expired",
			token: sign(jwt.SigningMethodHS256, secret, Claims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
				UserID:           "u-1",
				Role:             "USER",
			}),
		},
		{name: "wrong algorithm", token: sign(jwt.SigningMethodHS512, secret, valid)},
		{name: "unsigned", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{name: "unknown role", token: sign(jwt.SigningMethodHS256, secret, Claims{UserID: "u-1", Role: "ADMIN"})},
		{name: "missing user", token: sign(jwt.SigningMethodHS256, secret, Claims{Role: "USER"})},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("nope"), valid)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(secret, tt.token)
			assert.Error(t, err)
		})
	}
}
