package auth

import (
	"encoding/base64"
	"encoding/json"
)

// GenerateUnsignedToken builds an "alg: none" token for local development
// and tests, accepted only when verification is disabled.
func GenerateUnsignedToken(claims *Claims) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, _ := json.Marshal(claims)
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "."
}
