package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gipoly/gipoly-engine/pkg/config"
)

// TokenValidator validates a JWT token string and returns its claims.
// This abstraction enables testing with mock implementations.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
	Close()
}

var errInvalidClaims = errors.New("invalid claims type")

// NewTokenValidator picks the validator for cfg: unverified parsing when
// verification is disabled, RS256 over JWKS when a JWKS URL is set, and
// HS256 with the shared secret otherwise.
func NewTokenValidator(ctx context.Context, cfg config.AuthConfig) (TokenValidator, error) {
	switch {
	case !cfg.EnableVerification:
		return unverifiedValidator{}, nil
	case cfg.JWKSURL != "":
		return NewJWKSClient(ctx, cfg.JWKSURL)
	case cfg.JWTSecret != "":
		return NewHMACValidator([]byte(cfg.JWTSecret)), nil
	}
	return nil, fmt.Errorf("auth verification is enabled but neither AUTH_JWKS_URL nor AUTH_JWT_SECRET is set")
}

// JWKSClient validates RS256 tokens against keys fetched from a JWKS endpoint.
// keyfunc refreshes the key set in the background.
type JWKSClient struct {
	jwks keyfunc.Keyfunc
}

// NewJWKSClient fetches the key set at jwksURL.
func NewJWKSClient(ctx context.Context, jwksURL string) (*JWKSClient, error) {
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client for %s: %w", jwksURL, err)
	}
	return &JWKSClient{jwks: jwks}, nil
}

// ValidateToken implements TokenValidator.
func (c *JWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	return parseClaims(tokenString, c.jwks.Keyfunc, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
}

// Close is a no-op; keyfunc v3 stops refreshing when its context ends.
func (c *JWKSClient) Close() {}

// HMACValidator validates HS256 tokens signed with a shared secret.
type HMACValidator struct {
	secret []byte
}

// NewHMACValidator creates a validator for the shared secret.
func NewHMACValidator(secret []byte) *HMACValidator {
	return &HMACValidator{secret: secret}
}

// ValidateToken implements TokenValidator.
func (v *HMACValidator) ValidateToken(tokenString string) (*Claims, error) {
	return parseClaims(tokenString, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
}

// Close implements TokenValidator.
func (v *HMACValidator) Close() {}

func parseClaims(tokenString string, keyFunc jwt.Keyfunc, opts ...jwt.ParserOption) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errInvalidClaims
	}
	return claims, nil
}

// unverifiedValidator parses tokens without checking the signature.
// Used in local development when verification is disabled.
type unverifiedValidator struct{}

func (unverifiedValidator) ValidateToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errInvalidClaims
	}
	return claims, nil
}

func (unverifiedValidator) Close() {}

var (
	_ TokenValidator = (*JWKSClient)(nil)
	_ TokenValidator = (*HMACValidator)(nil)
	_ TokenValidator = unverifiedValidator{}
)
