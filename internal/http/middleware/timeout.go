package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/clinicare/pkg/log"
)

// Timeout ограничивает обработку запроса бюджетом d, если у запроса ещё
// нет своего deadline. Бюджет попадает в логгер запроса атрибутом budget,
// так что его видят и записи клиента клиники. d <= 0 — мидлвар ничего не делает.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			ctx, _ = logctx.With(ctx, slog.Duration("budget", d))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
