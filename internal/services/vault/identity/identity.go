// Package identity verifies tokens and webhook events from the external
// identity provider.
package identity

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docvault/docvault/internal/platform/config"
	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/services/vault/user"
)

// identityEnv holds raw env values before post-parse validation.
type identityEnv struct {
	Issuer    string `env:"DOCVAULT_IDENTITY_ISSUER"`
	Audience  string `env:"DOCVAULT_IDENTITY_AUDIENCE"`
	PublicKey string `env:"DOCVAULT_IDENTITY_PUBLIC_KEY"`
}

// Config defines how identity tokens are verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Claim carries the verified identity fields from a bearer token. ExternalID
// is the provider's subject and never empty on a successful verification.
type Claim struct {
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// tokenClaims is the internal claims type used for JWT parsing.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// LoadConfigFromEnv reads identity token verification configuration.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw identityEnv
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, fmt.Errorf("parse identity env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return Config{}, fmt.Errorf("DOCVAULT_IDENTITY_ISSUER is required")
	}
	if audience == "" {
		return Config{}, fmt.Errorf("DOCVAULT_IDENTITY_AUDIENCE is required")
	}
	if publicKey == "" {
		return Config{}, fmt.Errorf("DOCVAULT_IDENTITY_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode identity public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Config{}, fmt.Errorf("identity public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// VerifyToken verifies a bearer token and extracts the identity claim. Every
// failure maps to UNAUTHENTICATED; callers never learn which check failed.
func VerifyToken(token string, cfg Config) (Claim, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claim{}, apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return Claim{}, errors.New("identity verifier is not configured")
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claim{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return Claim{}, apperrors.New(apperrors.CodeUnauthenticated, "token issuer mismatch")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Claim{}, apperrors.New(apperrors.CodeUnauthenticated, "token audience mismatch")
	}
	if parsed.ExpiresAt == nil {
		return Claim{}, apperrors.New(apperrors.CodeUnauthenticated, "token exp is required")
	}

	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return Claim{}, apperrors.New(apperrors.CodeUnauthenticated, "token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Claim{}, apperrors.New(apperrors.CodeUnauthenticated, "token not active yet")
	}

	subject := strings.TrimSpace(parsed.Subject)
	if subject == "" {
		return Claim{}, apperrors.New(apperrors.CodeUnauthenticated, "token subject is required")
	}

	return Claim{
		ExternalID:  subject,
		Email:       strings.TrimSpace(parsed.Email),
		DisplayName: strings.TrimSpace(parsed.Name),
		AvatarURL:   strings.TrimSpace(parsed.AvatarURL),
	}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeUnauthenticated, "token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeUnauthenticated, "token alg is invalid")
	}
	return apperrors.New(apperrors.CodeUnauthenticated, "token is invalid")
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

// ProvisionInput converts a verified claim into user provisioning input.
func (c Claim) ProvisionInput() user.ProvisionInput {
	return user.ProvisionInput{
		ExternalID:  c.ExternalID,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		AvatarURL:   c.AvatarURL,
	}
}
