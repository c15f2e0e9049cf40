package mwAuth

import (
	"context"
	"net/http"
	"strings"

	"github.com/wassimhassan/backend/internal/auth"
	"github.com/wassimhassan/backend/pkg/response"

	"github.com/go-chi/render"
)

type ctxKey struct{}

// New verifies the bearer token and stores the decoded identity in the
// request context. Routes behind it can rely on Identity() being present.
func New(tokens *auth.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "access denied, no token provided"))
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error(string(response.FORBIDDEN), "invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

func Identity(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*auth.Claims)
	return claims, ok
}
