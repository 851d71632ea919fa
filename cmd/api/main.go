// @title        User Admin API
// @version      1.0
// @description  User management backend: registration, login with role-based redirect, and admin user CRUD.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/user-admin/internal/api"
	"github.com/99minutos/user-admin/internal/core/ports"
	"github.com/99minutos/user-admin/internal/core/service"
	"github.com/99minutos/user-admin/internal/infrastructure/config"
	"github.com/99minutos/user-admin/internal/infrastructure/db/mongo"
	"github.com/99minutos/user-admin/internal/infrastructure/db/postgres"
	"github.com/99minutos/user-admin/internal/infrastructure/db/redis"
	"github.com/99minutos/user-admin/internal/infrastructure/http/handlers"
	"github.com/99minutos/user-admin/internal/infrastructure/queue"
	"github.com/99minutos/user-admin/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "user-admin: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "user-admin",
	})
	if cfg.UsesDevSecret() {
		log.Warn().Msg("JWT_SECRET not set, using the insecure development secret")
	}

	// --- Relational store ---
	db, err := postgres.Open(ctx, postgres.Config{
		Driver:      cfg.DB.Driver,
		DSN:         cfg.DB.DSN,
		MaxOpen:     cfg.DB.MaxOpen,
		MaxIdle:     cfg.DB.MaxIdle,
		MaxLifetime: cfg.DB.MaxLifetime,
	})
	if err != nil {
		return err
	}
	defer func() { _ = postgres.Close(db) }()

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("database connected and migrated")

	// --- Sessions ---
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	// --- Audit trail (optional) ---
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()

	var (
		auditSink   service.AuditSink = service.DiscardAudit
		auditReader ports.AuditReader
		mdb         *mongodriver.Database
		dispatcher  *queue.Dispatcher
	)
	if cfg.AuditEnabled() {
		var client *mongodriver.Client
		client, mdb, err = mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "user-admin",
		})
		if err != nil {
			return err
		}
		defer func() { _ = mongo.Disconnect(client) }()

		auditRepo := mongo.NewAuditRepository(mdb)
		if err := auditRepo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("could not create audit indexes")
		}
		dispatcher = queue.NewDispatcher(cfg.AuditWorkers, auditRepo, logger.Component("audit"))
		dispatcher.Start(auditCtx)
		auditSink = dispatcher
		auditReader = auditRepo
		log.Info().Str("database", cfg.Mongo.Database).Int("workers", cfg.AuditWorkers).Msg("audit trail enabled")
	} else {
		log.Info().Msg("MONGO_URI not set, audit trail disabled")
	}

	// --- Core services ---
	encoder, err := service.NewPasswordEncoder(cfg.BcryptCost, service.DefaultPasswords)
	if err != nil {
		return err
	}

	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	sessions := redis.NewSessionStore(rdb)
	redirects := service.NewRedirectPolicy(logger.Component("redirect"))

	users := service.NewUserService(userRepo, roleRepo, encoder, sessions, auditSink, logger.Component("users"))
	roles := service.NewRoleService(roleRepo)
	auth := service.NewAuthService(userRepo, encoder, sessions, redirects, cfg.JWTSecret, cfg.TokenTTL, logger.Component("auth"))

	if err := bootstrap(ctx, cfg, service.NewSeeder(roleRepo, userRepo, encoder, auditSink, logger.Component("seeder")), log); err != nil {
		return err
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Users:         users,
		Roles:         roles,
		Auth:          auth,
		Redirects:     redirects,
		Audit:         auditReader,
		Readiness:     handlers.NewHealthDependenciesHandler(db, rdb, mdb),
		Log:           log,
		SecureCookies: !cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	if dispatcher != nil {
		stopAudit()
		dispatcher.Wait()
	}

	log.Info().Msg("server exited")
	return nil
}

// bootstrap seeds baseline data and encodes legacy plaintext passwords.
func bootstrap(ctx context.Context, cfg *config.Config, seeder *service.Seeder, log zerolog.Logger) error {
	if cfg.SeedEnabled {
		if err := seeder.Run(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	if cfg.MigratePasswords {
		n, err := seeder.MigratePasswords(ctx)
		if err != nil {
			return fmt.Errorf("migrate passwords: %w", err)
		}
		log.Info().Int("migrated", n).Msg("password migration finished")
	}
	return nil
}
