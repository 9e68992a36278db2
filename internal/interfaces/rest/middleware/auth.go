package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/domain"
	"github.com/minhlq/charterdesk/internal/interfaces/rest"
)

type principalKey struct{}

// Auth verifies the bearer token issued by the auth collaborator and
// attaches the authenticated principal to the request context. Token
// issuance lives outside this service; only HS256 verification happens
// here.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				rest.RespondWithError(w, domain.NewAuthorizationError("missing bearer token"))
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				rest.RespondWithError(w, domain.NewAuthorizationError("invalid token"))
				return
			}

			sub, _ := claims["sub"].(string)
			customerID, err := uuid.Parse(sub)
			if err != nil {
				rest.RespondWithError(w, domain.NewAuthorizationError("invalid token subject"))
				return
			}
			role, _ := claims["role"].(string)
			if role == "" {
				role = application.RoleCustomer
			}

			principal := application.Principal{
				CustomerID: customerID,
				Role:       role,
			}
			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom extracts the authenticated principal set by Auth.
func PrincipalFrom(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(application.Principal)
	return principal, ok
}
