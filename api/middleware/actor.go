package middleware

import (
	"net/http"
	"strings"

	"github.com/avilesmedina/tiendita-backend/pkg/logger"
)

const actorHeader = "X-Actor"

// Actor lifts the acting clerk from the request header into the context so
// services can attribute ledger entries and audit rows. Unattributed requests
// fall through to the service defaults.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(actorHeader))
			if actor == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActor(ctx, actor)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
