package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pribylovaa/clinicare/internal/clients/interceptors"
)

// RequestID обеспечивает наличие X-Request-Id:
//  1. берёт заголовок X-Request-Id, если он есть;
//  2. иначе генерирует UUID и дописывает его в заголовки запроса;
//  3. отдаёт id в заголовке ответа и кладёт в контекст, откуда его
//     подхватывает исходящий клиент к API клиники.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
				r.Header.Set("X-Request-Id", id)
			}
			w.Header().Set("X-Request-Id", id)

			next.ServeHTTP(w, r.WithContext(interceptors.WithRequestID(r.Context(), id)))
		})
	}
}
