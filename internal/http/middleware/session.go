package middleware

import (
	"net/http"

	apierrors "github.com/pribylovaa/clinicare/internal/http/errors"
)

// RequireSession пропускает запрос только при активной сессии; иначе
// отвечает 401 с переадресацией на стартовую страницу UI.
func RequireSession(authenticated func() bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authenticated() {
				apierrors.WriteResponse(w, r, http.StatusUnauthorized, apierrors.ErrorResponse{
					Error: apierrors.APIError{
						Code:     apierrors.CodeUnauthenticated,
						Message:  "login required",
						Redirect: "/",
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
