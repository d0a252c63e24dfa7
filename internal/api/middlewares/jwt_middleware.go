package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Context keys for the authenticated caller.
const (
	CtxUserID = "user_id"
	CtxOrgID  = "organization_id"
)

// JWT validates the Authorization header and attaches user_id and
// organization_id to the request context. Tokens are issued by the external
// identity service; this service only verifies them.
func JWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing or invalid token", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(auth, "Bearer ")
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}
			orgID, ok := claims["organization_id"].(string)
			if !ok || orgID == "" {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), CtxUserID, userID)
			ctx = context.WithValue(ctx, CtxOrgID, orgID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OrgID pulls the tenant out of a request context populated by JWT.
func OrgID(ctx context.Context) (string, bool) {
	orgID, ok := ctx.Value(CtxOrgID).(string)
	return orgID, ok
}
