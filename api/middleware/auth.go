package middleware

import (
	"net/http"
	"strings"

	"github.com/zycart/zycart-backend/api/responses"
	"github.com/zycart/zycart-backend/pkg/auth"
	pkgerrors "github.com/zycart/zycart-backend/pkg/errors"
	"github.com/zycart/zycart-backend/pkg/logger"
)

// TokenVerifier turns a raw access token into the calling principal.
type TokenVerifier interface {
	Verify(raw string) (*auth.Principal, error)
}

// Auth requires an access token in the Authorization header, with or without
// the Bearer scheme, and seeds the context with the caller's id and role.
func Auth(verifier TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			userID, role := principal.UserID.String(), principal.Role.String()
			ctx := WithRole(WithUserID(r.Context(), userID), role)
			ctx = logg.WithActorRole(logg.WithUserID(ctx, userID), role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, rest, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	if found {
		return ""
	}
	return header
}
