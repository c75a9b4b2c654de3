package testhelpers

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/gipoly/gipoly-engine/pkg/auth"
)

// GenerateTestJWT creates an unsigned token for use when verification is disabled.
func GenerateTestJWT(sub, email string) string {
	return auth.GenerateUnsignedToken(&auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub},
		Email:            email,
	})
}

// GenerateTestJWTWithBearer returns the token with "Bearer " prefix for the Authorization header.
func GenerateTestJWTWithBearer(sub, email string) string {
	return "Bearer " + GenerateTestJWT(sub, email)
}
