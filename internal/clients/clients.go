// clients реализует HTTP-клиент к REST API клиники: подставляет bearer-токен
// из хранилища профиля и при отказе в авторизации один раз обновляет access
// через refresh-эндпойнт, повторяя исходный запрос с новым токеном.
//
// Конкурентные запросы, получившие 401, пока обновление уже идёт, не запускают
// собственное обновление, а ждут его исхода в очереди (см. пакет refresh).
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/clinicare/internal/clients/interceptors"
	"github.com/pribylovaa/clinicare/internal/clients/refresh"
	"github.com/pribylovaa/clinicare/internal/models"
	"github.com/pribylovaa/clinicare/internal/storage"
	logctx "github.com/pribylovaa/clinicare/pkg/log"
	"github.com/pribylovaa/clinicare/pkg/redact"
)

const (
	DefaultRefreshPath = "/token/refresh/"
	DefaultTimeout     = 10 * time.Second
	DefaultUserAgent   = "clinicare"

	// maxBodySize ограничивает чтение тела ответа апстрима.
	maxBodySize = 4 << 20
)

// Точки входа UI, куда уводит потеря сессии.
const (
	RouteEntry = "/"
	RouteLogin = "/login"
)

// Причины инвалидации сессии.
const (
	ReasonNoRefreshToken = "no_refresh_token"
	ReasonRefreshFailed  = "refresh_failed"
)

// Invalidation — событие "сессия потеряна": хранилище уже очищено.
// Redirect пуст, если уводить пользователя не нужно (обновление упало не по 401).
type Invalidation struct {
	Reason   string
	Redirect string
}

// Options — параметры клиента.
type Options struct {
	BaseURL     string
	RefreshPath string
	// Timeout ограничивает каждый исходящий запрос и обновление токена целиком.
	Timeout   time.Duration
	UserAgent string
	// RotateRefresh — сохранять refresh из ответа обновления, если сервер его прислал.
	RotateRefresh bool
	Registerer    prometheus.Registerer
	Transport     http.RoundTripper
}

// Request — исходящий запрос. Тело хранится байтами, чтобы запрос можно
// было повторить после обновления токена.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Header http.Header
}

// NewJSONRequest сериализует body в JSON и собирает Request.
func NewJSONRequest(method, path string, body any) (*Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("clients.NewJSONRequest: %w", err)
	}

	return &Request{Method: method, Path: path, Body: data}, nil
}

// Response — успешный (2xx) ответ апстрима.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode разбирает JSON-тело ответа в v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("clients.Response.Decode: %w", err)
	}

	return nil
}

// Client — HTTP-клиент с прозрачным обновлением токена. Безопасен для
// конкурентного использования; хранилище профиля принадлежит клиенту.
type Client struct {
	opts    Options
	base    *url.URL
	http    *http.Client
	store   storage.Store
	log     *slog.Logger
	coord   refresh.Coordinator
	metrics *metrics

	mu   sync.RWMutex
	subs []func(Invalidation)

	// credMu упорядочивает записи учётных данных; gen растёт при каждой
	// их замене или удалении.
	credMu sync.Mutex
	gen    uint64
}

// New собирает клиент. Транспорт оборачивается цепочкой интерсепторов:
// metadata -> timeout -> logging.
func New(opts Options, store storage.Store, log *slog.Logger) (*Client, error) {
	const op = "clients.New"

	if store == nil {
		return nil, fmt.Errorf("%s: nil store", op)
	}
	if log == nil {
		log = slog.Default()
	}

	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("%s: base url: %w", op, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: base url %q must be absolute", op, opts.BaseURL)
	}

	if opts.RefreshPath == "" {
		opts.RefreshPath = DefaultRefreshPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	transport := interceptors.Chain(opts.Transport,
		interceptors.WithMetadata(opts.UserAgent),
		interceptors.WithTimeout(opts.Timeout),
		interceptors.Logging(log),
	)

	return &Client{
		opts:    opts,
		base:    base,
		http:    &http.Client{Transport: transport},
		store:   store,
		log:     log,
		metrics: newMetrics(opts.Registerer),
	}, nil
}

// Store — хранилище профиля, с которым работает клиент.
func (c *Client) Store() storage.Store { return c.store }

// OnInvalidate подписывает fn на событие потери сессии. Подписчики
// вызываются синхронно, в порядке подписки.
func (c *Client) OnInvalidate(fn func(Invalidation)) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// RefreshInFlight сообщает, выполняется ли сейчас обновление токена.
func (c *Client) RefreshInFlight() bool { return c.coord.InFlight() }

// RefreshWaiters — число запросов в очереди на исход обновления.
func (c *Client) RefreshWaiters() int { return c.coord.Pending() }

// Do выполняет запрос с access-токеном из хранилища. Ответ вне 2xx
// возвращается как *StatusError, сетевые ошибки — как есть.
//
// При 401 запрос, ещё не повторявшийся, либо запускает обновление токена,
// либо встаёт в очередь к уже идущему, и затем повторяется ровно один раз.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	const op = "clients.Do"

	if req == nil {
		return nil, fmt.Errorf("%s: nil request", op)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c.attempt(ctx, req, token, false)
}

// attempt — одна попытка запроса; retried помечает повтор после обновления.
func (c *Client) attempt(ctx context.Context, req *Request, token string, retried bool) (*Response, error) {
	resp, err := c.send(ctx, req, token)
	if err == nil {
		return resp, nil
	}

	if !IsUnauthorized(err) || retried {
		return nil, err
	}

	return c.recoverAuth(ctx, req, err)
}

// recoverAuth добывает новый access (сам или дождавшись лидера) и повторяет запрос.
func (c *Client) recoverAuth(ctx context.Context, req *Request, cause error) (*Response, error) {
	leader, wait := c.coord.Acquire()
	if !leader {
		c.metrics.waiters.Inc()
		token, err := refresh.Wait(ctx, wait)
		c.metrics.waiters.Dec()
		if err != nil {
			return nil, err
		}

		return c.attempt(ctx, req, token, true)
	}

	token, err := c.refreshAccess(ctx, cause)
	if err != nil {
		return nil, err
	}

	return c.attempt(ctx, req, token, true)
}

// refreshAccess выполняется только лидером и ровно один раз вызывает Settle.
// Обновление отвязано от отмены ctx вызывающего: очередь не должна падать
// из-за того, что лидер перестал ждать. Сверху его ограничивает Options.Timeout.
func (c *Client) refreshAccess(ctx context.Context, cause error) (string, error) {
	const op = "clients.refreshAccess"

	ctx, log := logctx.With(ctx, slog.String("op", op))

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
	defer cancel()

	gen := c.generation()

	refreshToken, err := c.store.Get(rctx, storage.KeyRefresh)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		err = fmt.Errorf("%s: load refresh token: %w", op, err)
		n := c.coord.Settle("", err)
		c.metrics.refreshes.WithLabelValues(refreshStore).Inc()
		log.Error("refresh_failed", slog.Int("waiters", n), slog.String("err", err.Error()))
		return "", err
	}

	if refreshToken == "" {
		if !c.invalidate(rctx, gen, ReasonNoRefreshToken, RouteEntry) {
			return "", c.discard(log, ErrCredentialsChanged)
		}

		n := c.coord.Settle("", ErrNoRefreshToken)
		c.metrics.refreshes.WithLabelValues(refreshNoToken).Inc()
		log.Warn("refresh_skipped", slog.String("reason", ReasonNoRefreshToken), slog.Int("waiters", n))
		return "", cause
	}

	log.Debug("refresh_started",
		slog.String("refresh", redact.Token(refreshToken)),
		slog.Int("waiters", c.coord.Pending()),
	)

	pair, err := c.postRefresh(rctx, refreshToken)
	if err != nil {
		redirect := ""
		if IsUnauthorized(err) {
			redirect = RouteLogin
		}
		if !c.invalidate(rctx, gen, ReasonRefreshFailed, redirect) {
			return "", c.discard(log, ErrCredentialsChanged)
		}

		n := c.coord.Settle("", err)
		c.metrics.refreshes.WithLabelValues(refreshFailed).Inc()
		log.Warn("refresh_failed",
			slog.Int("status", StatusCode(err)),
			slog.Int("waiters", n),
			slog.String("err", err.Error()),
		)

		return "", err
	}

	values := map[string]string{storage.KeyAccess: pair.Access}
	if c.opts.RotateRefresh && pair.Refresh != "" {
		values[storage.KeyRefresh] = pair.Refresh
	}

	if err := c.commitRefresh(rctx, gen, values); err != nil {
		if errors.Is(err, ErrCredentialsChanged) {
			return "", c.discard(log, err)
		}

		err = fmt.Errorf("%s: save access token: %w", op, err)
		n := c.coord.Settle("", err)
		c.metrics.refreshes.WithLabelValues(refreshStore).Inc()
		log.Error("refresh_failed", slog.Int("waiters", n), slog.String("err", err.Error()))
		return "", err
	}

	n := c.coord.Settle(pair.Access, nil)
	c.metrics.refreshes.WithLabelValues(refreshOK).Inc()
	log.Info("refresh_succeeded",
		slog.Int("waiters", n),
		slog.Bool("rotated", len(values) > 1),
	)

	return pair.Access, nil
}

// postRefresh обращается к refresh-эндпойнту напрямую, без bearer и без
// логики повторов Do.
func (c *Client) postRefresh(ctx context.Context, refreshToken string) (models.RefreshResponse, error) {
	req, err := NewJSONRequest(http.MethodPost, c.opts.RefreshPath, models.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return models.RefreshResponse{}, err
	}

	resp, err := c.send(ctx, req, "")
	if err != nil {
		return models.RefreshResponse{}, err
	}

	var out models.RefreshResponse
	if err := resp.Decode(&out); err != nil {
		return models.RefreshResponse{}, err
	}
	if out.Access == "" {
		return models.RefreshResponse{}, ErrEmptyAccessToken
	}

	return out, nil
}

// discard завершает обновление, чей результат устарел: учётные данные
// сменились, пока оно шло. Хранилище не трогается, событий нет.
func (c *Client) discard(log *slog.Logger, err error) error {
	n := c.coord.Settle("", err)
	c.metrics.refreshes.WithLabelValues(refreshStale).Inc()
	log.Info("refresh_discarded", slog.Int("waiters", n), slog.String("reason", err.Error()))

	return err
}

// invalidate очищает хранилище и оповещает подписчиков, если с поколения
// gen учётные данные никто не менял. Иначе возвращает false и ничего не делает.
func (c *Client) invalidate(ctx context.Context, gen uint64, reason, redirect string) bool {
	const op = "clients.invalidate"

	ctx, log := logctx.With(ctx, slog.String("op", op))

	current, err := c.clearIfCurrent(ctx, gen)
	if !current {
		return false
	}
	if err != nil {
		log.Error("store_clear_failed", slog.String("err", err.Error()))
	}

	label := redirect
	if label == "" {
		label = "none"
	}
	c.metrics.invalidations.WithLabelValues(label).Inc()

	log.Info("session_invalidated",
		slog.String("reason", reason),
		slog.String("redirect", redirect),
	)

	c.mu.RLock()
	subs := slices.Clone(c.subs)
	c.mu.RUnlock()

	ev := Invalidation{Reason: reason, Redirect: redirect}
	for _, fn := range subs {
		fn(ev)
	}

	return true
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	token, err := c.store.Get(ctx, storage.KeyAccess)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}

	return token, err
}

// send выполняет один HTTP-обмен без какой-либо логики повторов.
func (c *Client) send(ctx context.Context, req *Request, token string) (*Response, error) {
	const op = "clients.send"

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u := c.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	hr, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	if req.Body != nil && hr.Header.Get("Content-Type") == "" {
		hr.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		hr.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		c.metrics.requests.WithLabelValues(method, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	c.metrics.requests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Body:       data,
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
