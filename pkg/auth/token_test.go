package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zycart/zycart-backend/pkg/config"
	"github.com/zycart/zycart-backend/pkg/enums"
)

func testTokens(minutes int) *Tokens {
	return NewTokens(config.JWTConfig{Secret: "secret", Issuer: "zycart", ExpirationMinutes: minutes})
}

func TestMintAndVerify(t *testing.T) {
	tokens := testTokens(30)
	now := time.Now().UTC()
	userID := uuid.New()

	raw, err := tokens.Mint(now, Principal{UserID: userID, Role: enums.RoleSeller})
	require.NoError(t, err)

	p, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, enums.RoleSeller, p.Role)
	assert.NotEmpty(t, p.TokenID)
}

func TestMintKeepsExplicitTokenID(t *testing.T) {
	tokens := testTokens(5)
	raw, err := tokens.Mint(time.Now(), Principal{UserID: uuid.New(), Role: enums.RoleAdmin, TokenID: " access-1 "})
	require.NoError(t, err)
	p, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "access-1", p.TokenID)
}

func TestVerifyRejections(t *testing.T) {
	tokens := testTokens(10)
	raw, err := tokens.Mint(time.Now(), Principal{UserID: uuid.New(), Role: enums.RoleCustomer})
	require.NoError(t, err)

	_, err = tokens.Verify(raw + "x")
	assert.Error(t, err, "tampered signature")

	other := NewTokens(config.JWTConfig{Secret: "secret", Issuer: "someone-else", ExpirationMinutes: 10})
	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	_, err = NewTokens(config.JWTConfig{Issuer: "zycart"}).Verify(raw)
	assert.ErrorIs(t, err, errMissingSecret)
}

func TestVerifyExpired(t *testing.T) {
	tokens := testTokens(15)
	raw, err := tokens.Mint(time.Now().Add(-time.Hour), Principal{UserID: uuid.New(), Role: enums.RoleCustomer})
	require.NoError(t, err)

	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyAllowsClockSkew(t *testing.T) {
	tokens := testTokens(1)
	raw, err := tokens.Mint(time.Now().Add(-time.Minute-10*time.Second), Principal{UserID: uuid.New(), Role: enums.RoleCustomer})
	require.NoError(t, err)
	_, err = tokens.Verify(raw)
	assert.NoError(t, err)
}

func TestVerifyRejectsBadClaims(t *testing.T) {
	now := time.Now()
	sign := func(claims accessClaims) string {
		claims.Issuer = "zycart"
		claims.IssuedAt = jwt.NewNumericDate(now)
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Minute))
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return signed
	}
	tokens := testTokens(10)

	_, err := tokens.Verify(sign(accessClaims{Role: "owner", RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}))
	var roleErr *unknownRoleError
	assert.True(t, errors.As(err, &roleErr))

	_, err = tokens.Verify(sign(accessClaims{Role: enums.RoleCustomer, RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"}}))
	assert.ErrorIs(t, err, errMissingSubject)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := accessClaims{
		Role: enums.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "zycart",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = testTokens(10).Verify(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestMintValidatesInput(t *testing.T) {
	now := time.Now()
	tokens := testTokens(5)

	_, err := tokens.Mint(now, Principal{UserID: uuid.New()})
	assert.Error(t, err)
	_, err = tokens.Mint(now, Principal{Role: enums.RoleCustomer})
	assert.Error(t, err)
	_, err = NewTokens(config.JWTConfig{Issuer: "zycart", ExpirationMinutes: 5}).Mint(now, Principal{UserID: uuid.New(), Role: enums.RoleCustomer})
	assert.ErrorIs(t, err, errMissingSecret)
	_, err = NewTokens(config.JWTConfig{Secret: "s", Issuer: "zycart"}).Mint(now, Principal{UserID: uuid.New(), Role: enums.RoleCustomer})
	assert.Error(t, err)
}
