// Package callergrant verifies and mints caller grants: short-lived EdDSA JWTs
// whose subject is the caller identity presented to the admin service.
package callergrant

import (
	"crypto/ed25519"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fruitbox12/Subscription/internal/platform/config"
	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
)

// verifierEnv holds raw env values before post-parse validation.
type verifierEnv struct {
	Issuer    string `env:"SUBSCRIPTION_CALLER_GRANT_ISSUER"`
	Audience  string `env:"SUBSCRIPTION_CALLER_GRANT_AUDIENCE"`
	PublicKey string `env:"SUBSCRIPTION_CALLER_GRANT_PUBLIC_KEY"`
}

// VerifierConfig defines how caller grants are verified.
type VerifierConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Enabled reports whether the config can verify grants.
func (c VerifierConfig) Enabled() bool {
	return c.Issuer != "" && c.Audience != "" && len(c.Key) == ed25519.PublicKeySize
}

// Claims captures validated caller grant claims.
type Claims struct {
	Caller    principal.ID
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	JWTID     string
}

// LoadVerifierConfigFromEnv reads caller grant verification settings. When
// none of the variables are set it returns a disabled config; a partial
// configuration is an error.
func LoadVerifierConfigFromEnv(now func() time.Time) (VerifierConfig, error) {
	var raw verifierEnv
	if err := config.ParseEnv(&raw); err != nil {
		return VerifierConfig{}, fmt.Errorf("parse caller grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" && audience == "" && publicKey == "" {
		return VerifierConfig{}, nil
	}
	if issuer == "" {
		return VerifierConfig{}, fmt.Errorf("SUBSCRIPTION_CALLER_GRANT_ISSUER is required")
	}
	if audience == "" {
		return VerifierConfig{}, fmt.Errorf("SUBSCRIPTION_CALLER_GRANT_AUDIENCE is required")
	}
	if publicKey == "" {
		return VerifierConfig{}, fmt.Errorf("SUBSCRIPTION_CALLER_GRANT_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return VerifierConfig{}, fmt.Errorf("decode caller grant public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return VerifierConfig{}, fmt.Errorf("caller grant public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return VerifierConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// Verify checks the grant signature and claims and returns the caller it
// names.
func Verify(grant string, cfg VerifierConfig) (Claims, error) {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return Claims{}, errors.New(errors.CodeCallerRequired, "caller grant is required")
	}
	if !cfg.Enabled() {
		return Claims{}, stderrors.New("caller grant verifier is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(grant, &parsed, func(*jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer != cfg.Issuer {
		return Claims{}, invalid("caller grant issuer mismatch", "issuer")
	}
	if !slices.Contains(parsed.Audience, cfg.Audience) {
		return Claims{}, invalid("caller grant audience mismatch", "audience")
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Claims{}, invalid("caller grant sub is required", "sub")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, invalid("caller grant exp is required", "exp")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, errors.New(errors.CodeCallerGrantExpired, "caller grant is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Claims{}, invalid("caller grant not active yet", "nbf")
	}

	claims := Claims{
		Caller:    principal.ID(parsed.Subject),
		Issuer:    parsed.Issuer,
		Audience:  []string(parsed.Audience),
		ExpiresAt: exp,
		JWTID:     parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

func invalid(message, field string) error {
	return errors.WithMetadata(errors.CodeCallerGrantInvalid, message, map[string]string{"Field": field})
}

// mapJWTError translates jwt library errors to domain errors.
func mapJWTError(err error) error {
	if stderrors.Is(err, jwt.ErrTokenSignatureInvalid) || stderrors.Is(err, jwt.ErrEd25519Verification) {
		return errors.Wrap(errors.CodeCallerGrantInvalid, "caller grant signature is invalid", err)
	}
	if stderrors.Is(err, jwt.ErrTokenUnverifiable) {
		return errors.Wrap(errors.CodeCallerGrantInvalid, "caller grant alg is invalid", err)
	}
	return errors.Wrap(errors.CodeCallerGrantInvalid, "caller grant is invalid", err)
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, stderrors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
