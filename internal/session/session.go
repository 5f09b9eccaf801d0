// session хранит представление процесса о том, вошёл ли пользователь:
// состояние Anonymous / Authenticated(user), вход, выход, восстановление
// сессии при старте и реакцию на потерю сессии в HTTP-клиенте.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/pribylovaa/clinicare/internal/clients"
	"github.com/pribylovaa/clinicare/internal/forms"
	"github.com/pribylovaa/clinicare/internal/models"
	"github.com/pribylovaa/clinicare/internal/storage"
	"github.com/pribylovaa/clinicare/pkg/redact"
)

// API — то, что контроллеру нужно от клиента клиники. Запись учётных
// данных идёт через клиент, чтобы идущее обновление токена не затёрло её.
type API interface {
	Me(ctx context.Context) (models.User, error)
	Login(ctx context.Context, email, password string) (models.TokenPair, error)
	OnInvalidate(fn func(clients.Invalidation))

	SaveCredentials(ctx context.Context, creds models.Credentials) error
	ClearCredentials(ctx context.Context) error
	DeleteCredentials(ctx context.Context) error
}

// State — снимок состояния сессии. Redirect — куда увести UI после
// последнего перехода в Anonymous (пусто, если уводить не нужно).
type State struct {
	Authenticated bool        `json:"authenticated"`
	User          models.User `json:"user,omitempty"`
	Redirect      string      `json:"redirect,omitempty"`
}

// Controller — конечный автомат сессии. Безопасен для конкурентного использования.
type Controller struct {
	api   API
	store storage.Store
	log   *slog.Logger

	mu    sync.RWMutex
	state State
	subs  []func(State)
}

// New создаёт контроллер в состоянии Anonymous и подписывает его на
// инвалидацию сессии в клиенте.
func New(api API, store storage.Store, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}

	c := &Controller{api: api, store: store, log: log}
	api.OnInvalidate(c.onInvalidate)

	return c
}

// State возвращает текущее состояние.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// Subscribe подписывает fn на каждый переход состояния.
func (c *Controller) Subscribe(fn func(State)) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Bootstrap восстанавливает сессию при старте: есть сохранённый access —
// запрашивается текущий пользователь. Любая ошибка запроса трактуется как
// недействительная сессия: токены удаляются, состояние Anonymous.
func (c *Controller) Bootstrap(ctx context.Context) error {
	const op = "session.Bootstrap"

	creds, err := storage.LoadCredentials(ctx, c.store)
	if err != nil {
		c.set(State{})
		return fmt.Errorf("%s: %w", op, err)
	}

	if creds.AccessToken == "" {
		c.set(State{})
		return nil
	}

	return c.fetchUser(ctx, op)
}

// Login проверяет форму, обменивает учётные данные на пару токенов,
// сохраняет её и запрашивает текущего пользователя.
//
// Ошибки формы и отказ сервера возвращаются как forms.Errors; отказ
// сервера дополнительно оборачивает исходную ошибку клиента.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	const op = "session.Login"

	log := c.log.With(slog.String("op", op), slog.String("email", redact.Email(email)))

	if err := forms.ValidateLogin(email, password); err != nil {
		return err
	}

	pair, err := c.api.Login(ctx, email, password)
	if err != nil {
		log.Info("login_rejected", slog.Int("status", clients.StatusCode(err)))
		fe := forms.Errors{General: forms.GeneralMessage(clients.ErrorBody(err), forms.MsgLoginFailed)}
		return fmt.Errorf("%w: %w", fe, err)
	}

	if err := c.api.SaveCredentials(ctx, models.Credentials{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.fetchUser(ctx, op); err != nil {
		return err
	}

	log.Info("login_succeeded")

	return nil
}

// Logout безусловно удаляет сохранённые учётные данные и переводит сессию
// в Anonymous с переходом на стартовую страницу.
func (c *Controller) Logout(ctx context.Context) error {
	const op = "session.Logout"

	err := c.api.ClearCredentials(ctx)
	c.set(State{Redirect: clients.RouteEntry})

	if err != nil {
		c.log.Error("logout_clear_failed", slog.String("op", op), slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info("logout", slog.String("op", op))

	return nil
}

func (c *Controller) fetchUser(ctx context.Context, op string) error {
	user, err := c.api.Me(ctx)
	if err != nil {
		c.log.Warn("session_fetch_failed",
			slog.String("op", op),
			slog.Int("status", clients.StatusCode(err)),
			slog.String("err", err.Error()),
		)

		derr := c.api.DeleteCredentials(context.WithoutCancel(ctx))
		c.set(State{Redirect: c.State().Redirect})

		return fmt.Errorf("%s: %w", op, errors.Join(err, derr))
	}

	c.set(State{Authenticated: true, User: user})

	return nil
}

func (c *Controller) onInvalidate(ev clients.Invalidation) {
	c.log.Info("session_invalidated",
		slog.String("reason", ev.Reason),
		slog.String("redirect", ev.Redirect),
	)

	c.set(State{Redirect: ev.Redirect})
}

func (c *Controller) set(s State) {
	c.mu.Lock()
	c.state = s
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
