package app

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	"github.com/shiftstory/shiftstory/internal/onboarding"
)

// verifierEnv holds raw env values before post-parse validation.
type verifierEnv struct {
	Issuer    string `env:"SHIFTSTORY_AUTH_ISSUER"`
	Audience  string `env:"SHIFTSTORY_AUTH_AUDIENCE"`
	PublicKey string `env:"SHIFTSTORY_AUTH_PUBLIC_KEY"`
}

// Verifier validates bearer tokens on finalize. A zero Verifier is
// disabled: finalize then reports the backend as unavailable rather than
// accepting unauthenticated writes.
type Verifier struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// tokenClaims is the internal claims type used for JWT parsing.
type tokenClaims struct {
	jwt.RegisteredClaims
}

// LoadVerifierFromEnv reads bearer token verification configuration. All
// three variables unset yields a disabled verifier; a partial set is a
// configuration error.
func LoadVerifierFromEnv(now func() time.Time) (Verifier, error) {
	var raw verifierEnv
	if err := env.Parse(&raw); err != nil {
		return Verifier{}, fmt.Errorf("parse auth env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" && audience == "" && publicKey == "" {
		return Verifier{}, nil
	}
	if issuer == "" {
		return Verifier{}, fmt.Errorf("SHIFTSTORY_AUTH_ISSUER is required")
	}
	if audience == "" {
		return Verifier{}, fmt.Errorf("SHIFTSTORY_AUTH_AUDIENCE is required")
	}
	if publicKey == "" {
		return Verifier{}, fmt.Errorf("SHIFTSTORY_AUTH_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return Verifier{}, fmt.Errorf("decode auth public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Verifier{}, fmt.Errorf("auth public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return Verifier{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// Enabled reports whether the verifier carries a usable key.
func (v Verifier) Enabled() bool {
	return len(v.Key) == ed25519.PublicKeySize
}

// Verify validates a bearer token and returns the subject user id.
func (v Verifier) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", onboarding.ErrAuthRequired
	}
	if !v.Enabled() {
		return "", onboarding.ErrBackendUnavailable
	}
	now := v.Now
	if now == nil {
		now = time.Now
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return v.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", onboarding.ErrAuthRequired
	}

	if parsed.Issuer == "" || parsed.Issuer != v.Issuer {
		return "", onboarding.ErrAuthRequired
	}
	if !audienceContains(parsed.Audience, v.Audience) {
		return "", onboarding.ErrAuthRequired
	}
	if parsed.ExpiresAt == nil || !parsed.ExpiresAt.Time.UTC().After(now().UTC()) {
		return "", onboarding.ErrAuthRequired
	}
	if parsed.NotBefore != nil && now().UTC().Before(parsed.NotBefore.Time.UTC()) {
		return "", onboarding.ErrAuthRequired
	}
	subject := strings.TrimSpace(parsed.Subject)
	if subject == "" {
		return "", onboarding.ErrAuthRequired
	}
	return subject, nil
}

// bearerToken extracts the bearer token from an Authorization header.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
