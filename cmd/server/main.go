// Command server runs the study dashboard HTTP API together with the
// optional scheduled jobs (morning digest, nightly streak rebuild).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studydeck/studydeck/config"
	"github.com/studydeck/studydeck/internal/application/dashboard"
	"github.com/studydeck/studydeck/internal/infrastructure/docstore"
	"github.com/studydeck/studydeck/internal/infrastructure/docstore/postgres"
	"github.com/studydeck/studydeck/internal/infrastructure/docstore/sqlite"
	"github.com/studydeck/studydeck/internal/infrastructure/notify/telegram"
	"github.com/studydeck/studydeck/internal/infrastructure/repository"
	"github.com/studydeck/studydeck/internal/infrastructure/scheduler"
	"github.com/studydeck/studydeck/internal/infrastructure/session"
	httpserver "github.com/studydeck/studydeck/internal/interface/http"
	"github.com/studydeck/studydeck/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.App.LogLevel)
	log := logger.New(opts).With(
		logger.String("service", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
	log.Info("starting study dashboard",
		logger.String("version", cfg.App.Version),
		logger.String("backend", string(cfg.DocStore.Backend)),
		logger.String("timezone", cfg.App.Timezone),
	)

	store, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init document store: %w", err)
	}
	defer closeStore()

	sessions, err := session.NewManager(ctx, session.Config{
		RedisAddr:     cfg.Session.RedisAddr,
		RedisPassword: cfg.Session.RedisPassword,
		RedisDB:       cfg.Session.RedisDB,
		Secret:        cfg.Session.Secret,
		Issuer:        cfg.App.Name,
		TTL:           cfg.Session.TTL,
	}, log)
	if err != nil {
		return fmt.Errorf("init session manager: %w", err)
	}
	defer sessions.Close()

	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	srv := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		Store:    store,
		Sessions: sessions,
		Logger:   log,
		Version:  cfg.App.Version,
	})

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = setupJobs(cfg, store, log)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := srv.StartAsync()
	log.Info("http server listening",
		logger.String("host", cfg.HTTP.Host),
		logger.Int("port", cfg.HTTP.Port),
	)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

// buildStore constructs the configured document store backend. The
// returned func releases the backend's resources.
func buildStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (docstore.Store, func(), error) {
	switch cfg.DocStore.Backend {
	case config.BackendJSONBin:
		jbCfg := docstore.DefaultJSONBinConfig(cfg.DocStore.JSONBinID, cfg.DocStore.JSONBinMasterKey)
		jbCfg.BaseURL = cfg.DocStore.JSONBinBaseURL
		jbCfg.Timeout = cfg.DocStore.Timeout
		jbCfg.Logger = log
		return docstore.NewJSONBin(jbCfg), func() {}, nil
	case config.BackendPostgres:
		st, err := postgres.Connect(ctx, cfg.DocStore.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case config.BackendSQLite:
		st, err := sqlite.Open(cfg.DocStore.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown docstore backend %q", cfg.DocStore.Backend)
	}
}

// jobTimeout bounds a single scheduled job run.
const jobTimeout = 2 * time.Minute

// setupJobs registers the daily digest push and the nightly streak
// rebuild on a cron scheduler.
func setupJobs(cfg *config.Config, store docstore.Store, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(cfg.App.Location, log)

	if cfg.Telegram.DigestUser == "" {
		log.Info("no digest user configured, scheduled jobs disabled")
		return sched, nil
	}

	repo := repository.New(store, cfg.Telegram.DigestUser, log)
	svc := dashboard.NewService(repo, log)

	if cfg.Telegram.Enabled {
		notifier, err := telegram.New(telegram.Config{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("init telegram notifier: %w", err)
		}

		_, err = sched.ScheduleDaily("morning-digest", cfg.Scheduler.DigestTime, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			overview, err := svc.Overview(ctx)
			if err != nil {
				log.Error("digest overview failed", logger.Err(err))
				return
			}
			if err := notifier.SendDigest(overview); err != nil {
				log.Error("digest send failed", logger.Err(err))
			}
		})
		if err != nil {
			return nil, err
		}
	}

	_, err := sched.ScheduleDaily("streak-rebuild", cfg.Scheduler.StreakRefreshTime, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := svc.RebuildStreaks(ctx); err != nil {
			log.Error("streak rebuild failed", logger.Err(err))
		}
	})
	if err != nil {
		return nil, err
	}

	return sched, nil
}
