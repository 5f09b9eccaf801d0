package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/clinicare/internal/http/handlers"
	"github.com/pribylovaa/clinicare/internal/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // по умолчанию "/api".
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	base := opts.BasePath
	if base == "" {
		base = "/api"
	}

	root.Route(base, func(r chi.Router) {
		registerRoutes(r, h)
	})

	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// session
	r.Get("/session", h.GetSession)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/route", h.ResolveRoute)

	// clinic (только с активной сессией)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(func() bool { return h.Session.State().Authenticated }))

		r.Get("/doctors", h.ListDoctors)
		r.Get("/doctors/{id}", h.GetDoctor)
		r.Get("/doctors/{id}/booking", h.BookingForm)
		r.Get("/appointments", h.ListAppointments)
		r.Post("/appointments", h.CreateAppointment)
	})
}
