package callergrant

import (
	"crypto/ed25519"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fruitbox12/Subscription/internal/platform/config"
	"github.com/fruitbox12/Subscription/internal/platform/id"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
)

// signerEnv holds raw env values before post-parse validation.
type signerEnv struct {
	Issuer     string        `env:"SUBSCRIPTION_CALLER_GRANT_ISSUER"`
	Audience   string        `env:"SUBSCRIPTION_CALLER_GRANT_AUDIENCE"`
	PrivateKey string        `env:"SUBSCRIPTION_CALLER_GRANT_PRIVATE_KEY"`
	TTL        time.Duration `env:"SUBSCRIPTION_CALLER_GRANT_TTL"         envDefault:"5m"`
}

// SignerConfig defines how caller grants are minted.
type SignerConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// Enabled reports whether the config can mint grants.
func (c SignerConfig) Enabled() bool {
	return c.Issuer != "" && c.Audience != "" && len(c.Key) == ed25519.PrivateKeySize && c.TTL > 0
}

// LoadSignerConfigFromEnv reads caller grant signing settings. It returns a
// disabled config when no private key is set.
func LoadSignerConfigFromEnv() (SignerConfig, error) {
	var raw signerEnv
	if err := config.ParseEnv(&raw); err != nil {
		return SignerConfig{}, fmt.Errorf("parse caller grant env: %w", err)
	}
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if privateKey == "" {
		return SignerConfig{}, nil
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	if issuer == "" {
		return SignerConfig{}, fmt.Errorf("SUBSCRIPTION_CALLER_GRANT_ISSUER is required")
	}
	if audience == "" {
		return SignerConfig{}, fmt.Errorf("SUBSCRIPTION_CALLER_GRANT_AUDIENCE is required")
	}
	keyBytes, err := decodeBase64(privateKey)
	if err != nil {
		return SignerConfig{}, fmt.Errorf("decode caller grant private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return SignerConfig{}, fmt.Errorf("caller grant private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if raw.TTL <= 0 {
		return SignerConfig{}, fmt.Errorf("caller grant ttl must be positive")
	}
	return SignerConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PrivateKey(keyBytes),
		TTL:      raw.TTL,
		Now:      time.Now,
	}, nil
}

// Sign mints a grant naming caller.
func Sign(cfg SignerConfig, caller principal.ID) (string, error) {
	if !cfg.Enabled() {
		return "", stderrors.New("caller grant signer is not configured")
	}
	if caller.IsZero() {
		return "", stderrors.New("caller is required")
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	jti, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate caller grant id: %w", err)
	}

	issuedAt := now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Subject:   string(caller),
		Audience:  jwt.ClaimStrings{cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(cfg.TTL)),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ID:        jti,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign caller grant: %w", err)
	}
	return token, nil
}
