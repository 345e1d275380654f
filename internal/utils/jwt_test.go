package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "notch", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "notch", claims.Username)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestJWTRejectsForeignSignature(t *testing.T) {
	SetJWTSecret("secret-a")
	token, err := GenerateJWT(uuid.New(), "notch", 1)
	require.NoError(t, err)

	SetJWTSecret("secret-b")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
	assert.False(t, IsTokenExpired(err))
}

func TestJWTExpired(t *testing.T) {
	SetJWTSecret("test-secret")
	claims := JWTClaims{
		UserID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	require.NoError(t, err)

	_, err = ValidateJWT(token)
	require.Error(t, err)
	assert.True(t, IsTokenExpired(err))
}

func TestJWTRejectsNonUUIDSubject(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{UserID: "admin"}).SignedString(jwtSecret)
	require.NoError(t, err)

	_, err = ValidateJWT(token)
	assert.Error(t, err)
}
