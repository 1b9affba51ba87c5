package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/pkg/utils"
)

type ContextKey string

const PrincipalKey ContextKey = "principal"

// Middleware validates the bearer token and puts the caller's Principal into
// the request context. Everything behind it can trust PrincipalFromContext.
func Middleware(jwtService JWTServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			principal := domain.Principal{ID: claims.UserID, Kind: domain.OwnerKind(claims.Kind)}
			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(domain.Principal)
	return principal, ok
}
