package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(tk *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestNewFamilyToken(t *testing.T) {
	id := FamilyIdentity{
		GuardianName: "Maria Souza",
		StudentName:  "Pedro Souza",
		Grade:        "3",
		ClassName:    "Morning",
	}
	tok, err := NewFamilyToken(testSecret, id, 30)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), tok.Exp, 5*time.Second)

	claims := parseClaims(t, tok.Token)
	assert.Equal(t, RoleFamily, claims["role"])
	assert.Equal(t, "Maria Souza", claims["guardian"])
	assert.Equal(t, "Pedro Souza", claims["student"])
	assert.Equal(t, "3", claims["grade"])
	assert.Equal(t, "Morning", claims["class"])
}

func TestNewAdminToken(t *testing.T) {
	tok, err := NewAdminToken(testSecret, 15)
	require.NoError(t, err)

	claims := parseClaims(t, tok.Token)
	assert.Equal(t, RoleAdmin, claims["role"])
	assert.Equal(t, "admin", claims["sub"])
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewAdminToken("some-other-secret", 15)
	require.NoError(t, err)

	_, err = jwt.Parse(tok.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	assert.Error(t, err)
}
