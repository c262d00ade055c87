package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/pkg/enums"
)

// Principal is the authenticated caller extracted from a verified token.
type Principal struct {
	UserID  uuid.UUID
	Role    enums.Role
	TokenID string
}

// accessClaims carries the user id in sub and the role as a private claim.
type accessClaims struct {
	Role enums.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c accessClaims) principal() (*Principal, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, errMissingSubject
	}
	if !c.Role.IsValid() {
		return nil, &unknownRoleError{role: c.Role}
	}
	return &Principal{UserID: userID, Role: c.Role, TokenID: c.ID}, nil
}
