package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/pkg/config"
	"github.com/zycart/zycart-backend/pkg/enums"
)

const clockLeeway = 30 * time.Second

var (
	signingMethod     = jwt.SigningMethodHS256
	errMissingSecret  = errors.New("jwt secret is required")
	errMissingSubject = errors.New("token subject is not a user id")
)

type unknownRoleError struct {
	role enums.Role
}

func (e *unknownRoleError) Error() string {
	return fmt.Sprintf("token carries unknown role %q", e.role)
}

// Tokens mints and verifies HS256 access tokens for one issuer.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
}

func NewTokens(cfg config.JWTConfig) *Tokens {
	return &Tokens{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.ExpirationMinutes) * time.Minute,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockLeeway),
		),
	}
}

// Mint signs a token for p issued at now. An empty TokenID gets a fresh uuid.
func (t *Tokens) Mint(now time.Time, p Principal) (string, error) {
	switch {
	case len(t.secret) == 0:
		return "", errMissingSecret
	case t.issuer == "":
		return "", errors.New("jwt issuer is required")
	case t.ttl <= 0:
		return "", errors.New("jwt expiration must be positive")
	case p.UserID == uuid.Nil:
		return "", errors.New("user id is required")
	case !p.Role.IsValid():
		return "", &unknownRoleError{role: p.Role}
	}

	jti := strings.TrimSpace(p.TokenID)
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := accessClaims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        jti,
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the caller.
func (t *Tokens) Verify(raw string) (*Principal, error) {
	if len(t.secret) == 0 {
		return nil, errMissingSecret
	}
	var claims accessClaims
	if _, err := t.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}); err != nil {
		return nil, err
	}
	return claims.principal()
}
