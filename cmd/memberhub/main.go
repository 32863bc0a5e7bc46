package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/oakmont-labs/memberhub/pkg/api"
	"github.com/oakmont-labs/memberhub/pkg/auth"
	"github.com/oakmont-labs/memberhub/pkg/avatar"
	"github.com/oakmont-labs/memberhub/pkg/config"
	"github.com/oakmont-labs/memberhub/pkg/lineauth"
	"github.com/oakmont-labs/memberhub/pkg/observability"
	"github.com/oakmont-labs/memberhub/pkg/session"
	"github.com/oakmont-labs/memberhub/pkg/store"
	"github.com/oakmont-labs/memberhub/pkg/webhooks"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "memberhub: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(observability.ParseLogLevel(cfg.LogLevel), os.Stdout)
	metrics := observability.InitMetrics(nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	st := store.NewStore(db)
	if err := store.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("database ready")

	var redisClient *redis.Client
	var sessionStore session.Store
	sweeper := cron.New()
	switch cfg.Session.Backend {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisURL,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		sessionStore = session.NewRedisStore(redisClient)
		logger.Info("session backend: redis")
	default:
		mem := session.NewMemoryStore()
		sessionStore = mem
		if _, err := sweeper.AddFunc("@every 5m", func() {
			removed := mem.Sweep(time.Now())
			metrics.ActiveSessions.Set(float64(mem.Len()))
			if removed > 0 {
				logger.WithField("removed", removed).Debug("swept expired sessions")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule session sweep: %w", err)
		}
		logger.Info("session backend: memory")
	}
	sweeper.Start()
	defer sweeper.Stop()

	sessions := session.NewManager(sessionStore, cfg.Session.CookieName, cfg.Session.CookieSecure, cfg.Session.TTL)
	authenticator := auth.NewAuthenticator(st, auth.NewResolver(st), cfg.Session.TTL)

	avatars, err := avatar.NewStore(cfg.Avatar.Dir, cfg.Avatar.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize avatar storage: %w", err)
	}

	var notifier *webhooks.Notifier
	if cfg.Webhook.URL != "" {
		notifier = webhooks.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Timeout, logger, metrics)
		logger.WithField("url", cfg.Webhook.URL).Info("workflow webhook enabled")
	}

	var lineFlow *lineauth.Flow
	if cfg.LineEnabled() {
		provider, err := lineauth.NewProvider(ctx, cfg.Line)
		if err != nil {
			return fmt.Errorf("failed to initialize LINE login: %w", err)
		}
		lineFlow = lineauth.NewFlow(provider, authenticator, st, sessions, avatars, notifier, logger, metrics)
		logger.Info("LINE login enabled")
	}

	server := api.NewServer(st, sessions, authenticator, lineFlow, notifier, avatars, logger, metrics)
	checker := observability.NewHealthChecker(db, redisClient)

	appSrv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthSrv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: server.HealthRouter(checker),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", appSrv.Addr).Info("portal listening")
		if err := appSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("portal server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", healthSrv.Addr).Info("health listening")
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := appSrv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("portal shutdown incomplete")
		}
		return healthSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
