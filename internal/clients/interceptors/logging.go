package interceptors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	logctx "github.com/pribylovaa/clinicare/pkg/log"
)

// Logging — логирование исходящих запросов.
// Поведение:
//   - берёт X-Request-Id из заголовка/контекста или генерирует UUID и проставляет его;
//   - прокладывает обогащённый логгер (request_id, method, path) в контекст запроса;
//   - пишет одну итоговую запись: msg="http_client", status (0 при ошибке транспорта), dur.
//
// Заголовки и тела не логируются: в них токены и пароли.
func Logging(base *slog.Logger) Interceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			rid := r.Header.Get("X-Request-Id")
			if rid == "" {
				rid = RequestIDFrom(r.Context())
			}
			if rid == "" {
				rid = uuid.NewString()
			}

			l := base.With(
				slog.String("request_id", rid),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			r = r.Clone(logctx.Into(r.Context(), l))
			r.Header.Set("X-Request-Id", rid)

			resp, err := next.RoundTrip(r)

			status := 0
			if resp != nil {
				status = resp.StatusCode
			}

			attrs := []slog.Attr{
				slog.Int("status", status),
				slog.Duration("dur", time.Since(start)),
			}
			level := slog.LevelInfo
			if err != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("err", err.Error()))
			}

			l.LogAttrs(r.Context(), level, "http_client", attrs...)

			return resp, err
		})
	}
}
