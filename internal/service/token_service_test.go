package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims models.JWTClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, &claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims(role models.UserRole) models.JWTClaims {
	return models.JWTClaims{
		UserID:    "user-1",
		Role:      role,
		TeacherID: "T1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "uniroom",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestTokenServiceAuthenticate(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "uniroom"})

	actor, claims, err := svc.Authenticate(signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims(models.RoleTeacher)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.TeacherActor{ID: "user-1", TeacherID: "T1"}, actor)

	actor, _, err = svc.Authenticate(signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims(models.RoleAdmin)))
	require.NoError(t, err)
	assert.True(t, actor.Can(models.CapabilityReviewRequest))
}

func TestTokenServiceRejectsBadTokens(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "uniroom"})

	expired := validClaims(models.RoleAdmin)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	foreign := validClaims(models.RoleAdmin)
	foreign.Issuer = "elsewhere"
	noTeacher := validClaims(models.RoleTeacher)
	noTeacher.TeacherID = ""

	cases := map[string]string{
		"garbage":        "not-a-token",
		"wrong secret":   signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims(models.RoleAdmin)),
		"wrong method":   signToken(t, jwt.SigningMethodHS512, []byte("secret"), validClaims(models.RoleAdmin)),
		"expired":        signToken(t, jwt.SigningMethodHS256, []byte("secret"), expired),
		"foreign issuer": signToken(t, jwt.SigningMethodHS256, []byte("secret"), foreign),
		"teacher no id":  signToken(t, jwt.SigningMethodHS256, []byte("secret"), noTeacher),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Authenticate(token)
			assert.True(t, errors.Is(err, appErrors.ErrUnauthorized), "got %v", err)
		})
	}
}
