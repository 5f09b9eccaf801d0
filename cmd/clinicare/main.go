package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/clinicare/internal/clients"
	"github.com/pribylovaa/clinicare/internal/config"
	gwhttp "github.com/pribylovaa/clinicare/internal/http"
	"github.com/pribylovaa/clinicare/internal/http/handlers"
	"github.com/pribylovaa/clinicare/internal/session"
	"github.com/pribylovaa/clinicare/internal/storage"
	"github.com/pribylovaa/clinicare/internal/storage/memory"
	"github.com/pribylovaa/clinicare/internal/storage/mongo"
	"github.com/pribylovaa/clinicare/internal/storage/postgres"
	"github.com/pribylovaa/clinicare/internal/storage/redis"
	"github.com/pribylovaa/clinicare/internal/storage/sqlite"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting clinicare", "env", cfg.Env, "storage", cfg.Storage.Driver, "profile", cfg.Storage.Profile)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	store, err := openStore(rootCtx, cfg.Storage)
	if err != nil {
		log.Error("storage_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("storage_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	cl, err := clients.New(clients.Options{
		BaseURL:       cfg.Upstream.BaseURL,
		RefreshPath:   cfg.Upstream.RefreshPath,
		Timeout:       cfg.Upstream.Timeout,
		UserAgent:     cfg.Upstream.UserAgent,
		RotateRefresh: cfg.Upstream.RotateRefresh,
		Registerer:    prometheus.DefaultRegisterer,
	}, store, log)
	if err != nil {
		log.Error("client_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ses := session.New(cl, store, log)
	ses.Subscribe(func(st session.State) {
		log.Info("session_changed",
			slog.Bool("authenticated", st.Authenticated),
			slog.String("redirect", st.Redirect),
		)
	})

	bootCtx, bootCancel := context.WithTimeout(rootCtx, cfg.Timeouts.Service)
	if err := ses.Bootstrap(bootCtx); err != nil {
		log.Warn("session_bootstrap_failed", slog.String("err", err.Error()))
	}
	bootCancel()

	apiHandler := gwhttp.NewRouter(handlers.New(ses, cl, store), gwhttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("clinicare_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// openStore открывает хранилище профиля по storage.driver.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg.SQLitePath, cfg.Profile)
	case config.DriverRedis:
		return redis.New(ctx, cfg.RedisURL, cfg.RedisPrefix, cfg.Profile)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.PostgresURL, cfg.Profile)
	case config.DriverMongo:
		return mongo.New(ctx, cfg.MongoURL, cfg.Profile)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
