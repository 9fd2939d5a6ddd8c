package utils // package utils provides helper functions for token creation

import (
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Role values carried in the "role" claim.
const (
	RoleFamily = "FAMILY"
	RoleAdmin  = "ADMIN"
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short-lived and encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// FamilyIdentity is the identity a family token asserts.  There are no
// user accounts: the token simply carries the names and placement the
// family entered or the roster resolved, so handlers can enforce the
// holder checks without a database lookup.
type FamilyIdentity struct {
	GuardianName string
	StudentName  string
	Grade        string
	ClassName    string
}

// NewFamilyToken builds and signs an HS256 JWT asserting a family
// identity.  The JWT includes the standard exp and iat claims plus the
// role and the four identity claims.
func NewFamilyToken(secret string, id FamilyIdentity, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"role":     RoleFamily,
		"guardian": id.GuardianName,
		"student":  id.StudentName,
		"grade":    id.Grade,
		"class":    id.ClassName,
		"exp":      exp.Unix(),
		"iat":      time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewAdminToken builds and signs an HS256 JWT for an authenticated admin
// session.  Admins have no identity beyond the shared secret, so the
// token carries only the role.
func NewAdminToken(secret string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"role": RoleAdmin,
		"sub":  "admin",
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
