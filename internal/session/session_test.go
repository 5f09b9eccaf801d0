package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/clinicare/internal/clients"
	"github.com/pribylovaa/clinicare/internal/forms"
	"github.com/pribylovaa/clinicare/internal/models"
	"github.com/pribylovaa/clinicare/internal/storage"
	"github.com/pribylovaa/clinicare/internal/storage/memory"
)

type fakeAPI struct {
	me    func(ctx context.Context) (models.User, error)
	login func(ctx context.Context, email, password string) (models.TokenPair, error)

	meCalls    atomic.Int32
	loginCalls atomic.Int32

	// store — куда пишут методы *Credentials, как у настоящего клиента.
	store storage.Store

	mu   sync.Mutex
	subs []func(clients.Invalidation)
}

func newController(api *fakeAPI, store storage.Store) *Controller {
	api.store = store
	return New(api, store, nil)
}

func (f *fakeAPI) Me(ctx context.Context) (models.User, error) {
	f.meCalls.Add(1)
	return f.me(ctx)
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	f.loginCalls.Add(1)
	return f.login(ctx, email, password)
}

func (f *fakeAPI) OnInvalidate(fn func(clients.Invalidation)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
}

func (f *fakeAPI) SaveCredentials(ctx context.Context, creds models.Credentials) error {
	return storage.SaveCredentials(ctx, f.store, creds)
}

func (f *fakeAPI) ClearCredentials(ctx context.Context) error {
	return f.store.Clear(ctx)
}

func (f *fakeAPI) DeleteCredentials(ctx context.Context) error {
	return storage.DeleteCredentials(ctx, f.store)
}

func (f *fakeAPI) invalidate(ev clients.Invalidation) {
	f.mu.Lock()
	subs := slices.Clone(f.subs)
	f.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

var alice = models.User{"id": float64(7), "username": "alice", "email": "alice@clinic.org"}

func okAPI() *fakeAPI {
	return &fakeAPI{
		me: func(context.Context) (models.User, error) { return alice, nil },
		login: func(context.Context, string, string) (models.TokenPair, error) {
			return models.TokenPair{Access: "A1", Refresh: "R1"}, nil
		},
	}
}

func seeded(t *testing.T, creds models.Credentials) storage.Store {
	t.Helper()

	st := memory.New()
	if !creds.Empty() {
		require.NoError(t, storage.SaveCredentials(context.Background(), st, creds))
	}

	return st
}

func TestBootstrap_NoAccessStaysAnonymous(t *testing.T) {
	t.Parallel()

	api := okAPI()
	c := newController(api, memory.New())

	require.NoError(t, c.Bootstrap(context.Background()))
	require.False(t, c.State().Authenticated)
	require.Zero(t, api.meCalls.Load())
}

func TestBootstrap_StoredAccessAuthenticates(t *testing.T) {
	t.Parallel()

	api := okAPI()
	c := newController(api, seeded(t, models.Credentials{AccessToken: "A1", RefreshToken: "R1"}))

	require.NoError(t, c.Bootstrap(context.Background()))

	st := c.State()
	require.True(t, st.Authenticated)
	require.Equal(t, "alice", st.User.Username())
}

func TestBootstrap_FetchFailureClearsCredentials(t *testing.T) {
	t.Parallel()

	api := okAPI()
	errNet := errors.New("network unreachable")
	api.me = func(context.Context) (models.User, error) { return nil, errNet }

	store := seeded(t, models.Credentials{AccessToken: "A1", RefreshToken: "R1"})
	c := newController(api, store)

	err := c.Bootstrap(context.Background())
	require.ErrorIs(t, err, errNet)
	require.False(t, c.State().Authenticated)

	creds, err := storage.LoadCredentials(context.Background(), store)
	require.NoError(t, err)
	require.True(t, creds.Empty())
}

func TestLogin_InvalidFormSkipsNetwork(t *testing.T) {
	t.Parallel()

	api := okAPI()
	c := newController(api, memory.New())

	err := c.Login(context.Background(), "not-an-email", "secret")

	fe, ok := forms.AsErrors(err)
	require.True(t, ok)
	require.Equal(t, forms.MsgEmailInvalid, fe.Fields["email"])
	require.Zero(t, api.loginCalls.Load())
	require.False(t, c.State().Authenticated)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	api := okAPI()
	store := memory.New()
	c := newController(api, store)

	var seen []State
	c.Subscribe(func(s State) { seen = append(seen, s) })

	require.NoError(t, c.Login(context.Background(), "alice@clinic.org", "secret"))
	require.True(t, c.State().Authenticated)
	require.Len(t, seen, 1)
	require.True(t, seen[0].Authenticated)

	creds, err := storage.LoadCredentials(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, models.Credentials{AccessToken: "A1", RefreshToken: "R1"}, creds)
}

func TestLogin_RejectedSurfacesServerMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "detail",
			err:  &clients.StatusError{StatusCode: http.StatusUnauthorized, Body: []byte(`{"detail":"No active account found with the given credentials"}`)},
			want: "No active account found with the given credentials",
		},
		{
			name: "message",
			err:  &clients.StatusError{StatusCode: http.StatusBadRequest, Body: []byte(`{"message":"Account locked"}`)},
			want: "Account locked",
		},
		{
			name: "no body",
			err:  errors.New("connection refused"),
			want: forms.MsgLoginFailed,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := okAPI()
			api.login = func(context.Context, string, string) (models.TokenPair, error) { return models.TokenPair{}, tt.err }
			c := newController(api, memory.New())

			err := c.Login(context.Background(), "alice@clinic.org", "wrong")

			fe, ok := forms.AsErrors(err)
			require.True(t, ok)
			require.Equal(t, tt.want, fe.General)
			require.ErrorIs(t, err, tt.err)
			require.Zero(t, api.meCalls.Load())
			require.False(t, c.State().Authenticated)
		})
	}
}

func TestLogin_MeFailureRevertsToAnonymous(t *testing.T) {
	t.Parallel()

	api := okAPI()
	api.me = func(context.Context) (models.User, error) {
		return nil, &clients.StatusError{StatusCode: http.StatusInternalServerError}
	}
	store := memory.New()
	c := newController(api, store)

	err := c.Login(context.Background(), "alice@clinic.org", "secret")
	require.Equal(t, http.StatusInternalServerError, clients.StatusCode(err))
	require.False(t, c.State().Authenticated)

	creds, lerr := storage.LoadCredentials(context.Background(), store)
	require.NoError(t, lerr)
	require.True(t, creds.Empty())
}

func TestLogout_ClearsUnconditionally(t *testing.T) {
	t.Parallel()

	api := okAPI()
	store := seeded(t, models.Credentials{AccessToken: "A1", RefreshToken: "R1"})
	require.NoError(t, store.Put(context.Background(), map[string]string{"theme": "dark"}))

	c := newController(api, store)
	require.NoError(t, c.Bootstrap(context.Background()))
	require.True(t, c.State().Authenticated)

	require.NoError(t, c.Logout(context.Background()))
	require.Equal(t, State{Redirect: "/"}, c.State())

	_, err := store.Get(context.Background(), "theme")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInvalidation_FlipsToAnonymous(t *testing.T) {
	t.Parallel()

	api := okAPI()
	c := newController(api, seeded(t, models.Credentials{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, c.Bootstrap(context.Background()))

	api.invalidate(clients.Invalidation{Reason: clients.ReasonRefreshFailed, Redirect: clients.RouteLogin})

	st := c.State()
	require.False(t, st.Authenticated)
	require.Equal(t, clients.RouteLogin, st.Redirect)
	require.Equal(t, Route{View: ViewLogin}, c.Resolve("/login"))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		authed bool
		want   Route
	}{
		{"/", true, Route{View: ViewDoctors}},
		{"/", false, Route{View: ViewLogin}},
		{"", false, Route{View: ViewLogin}},
		{"/appointments", true, Route{View: ViewAppointments}},
		{"/appointments/", true, Route{View: ViewAppointments}},
		{"/appointments", false, Route{Redirect: "/"}},
		{"/book/3", true, Route{View: ViewBook, DoctorID: "3"}},
		{"/book/3", false, Route{Redirect: "/"}},
		{"/book/", true, Route{Redirect: "/"}},
		{"/book/3/extra", true, Route{Redirect: "/"}},
		{"/login", false, Route{View: ViewLogin}},
		{"/login", true, Route{Redirect: "/"}},
		{"/nowhere", true, Route{Redirect: "/"}},
		{"/nowhere", false, Route{Redirect: "/"}},
	}

	for _, tt := range tests {
		tt := tt
		require.Equal(t, tt.want, resolve(tt.path, tt.authed), "%s authed=%v", tt.path, tt.authed)
	}
}

// Сквозной сценарий с настоящим клиентом: оба токена протухли.
func TestBootstrap_WithClientExpiredRefresh(t *testing.T) {
	t.Parallel()

	var refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/token/refresh/" {
			refreshCalls.Add(1)
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
	}))
	t.Cleanup(srv.Close)

	store := seeded(t, models.Credentials{AccessToken: "A-old", RefreshToken: "R-old"})
	cl, err := clients.New(clients.Options{BaseURL: srv.URL + "/api"}, store, nil)
	require.NoError(t, err)

	c := New(cl, store, nil)

	err = c.Bootstrap(context.Background())
	require.True(t, clients.IsUnauthorized(err))
	require.EqualValues(t, 1, refreshCalls.Load())

	st := c.State()
	require.False(t, st.Authenticated)
	require.Equal(t, clients.RouteLogin, st.Redirect)

	creds, err := storage.LoadCredentials(context.Background(), store)
	require.NoError(t, err)
	require.True(t, creds.Empty())
}

// Выход во время обновления токена: поздний ответ refresh не возвращает сессию.
func TestLogout_DuringRefreshStaysLoggedOut(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	var refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/token/refresh/":
			refreshCalls.Add(1)
			<-gate
			_, _ = w.Write([]byte(`{"access":"A2"}`))
		case "/api/users/me/":
			if r.Header.Get("Authorization") != "Bearer A2" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"Given token not valid"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":7,"username":"alice"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	store := seeded(t, models.Credentials{AccessToken: "A1", RefreshToken: "R1"})
	cl, err := clients.New(clients.Options{BaseURL: srv.URL + "/api"}, store, nil)
	require.NoError(t, err)

	c := New(cl, store, nil)

	bootErr := make(chan error, 1)
	go func() { bootErr <- c.Bootstrap(context.Background()) }()

	require.Eventually(t, func() bool { return refreshCalls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Logout(context.Background()))
	close(gate)

	require.ErrorIs(t, <-bootErr, clients.ErrCredentialsChanged)
	require.False(t, c.State().Authenticated)

	creds, err := storage.LoadCredentials(context.Background(), store)
	require.NoError(t, err)
	require.True(t, creds.Empty())

	require.NoError(t, c.Bootstrap(context.Background()))
	require.False(t, c.State().Authenticated)
}
