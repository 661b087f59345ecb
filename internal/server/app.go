// Package server wires configuration, storage, services and transports
// together and runs the todokeeper server until it is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/captcha"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/notify"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/revocation"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/dmitrijs2005/todokeeper/internal/telemetry"
	redislib "github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/todokeeper/internal/server/grpc"
	hs "github.com/dmitrijs2005/todokeeper/internal/server/http"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redislib.Client
	http     *hs.Server
	grpc     *gs.GRPCServer
	shutdown []func(context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	app := &App{config: c, logger: logger}

	traceShutdown, err := telemetry.Setup(ctx, telemetry.ServiceName, c.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}
	app.shutdown = append(app.shutdown, traceShutdown)

	tokens, err := auth.NewTokenIssuer(c.SecretKey, c.SessionTokenTTL)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	app.db, err = repomanager.Open(ctx, c.DatabaseDSN, c.DBTimeout)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	denylist, err := app.denylist(ctx)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("redis init error: %w", err)
	}

	hasher := auth.NewPasswordHasher(c.BcryptCost)

	svc := hs.Services{
		Accounts: services.NewAccountService(app.db, rm, c, logger, hasher, tokens, denylist),
		Resets:   services.NewResetService(app.db, rm, c, logger, hasher, app.notifier()),
		Deleter:  services.NewDeletionService(app.db, rm, c, logger),
		Snoozer:  services.NewSnoozeService(app.db, rm, c, logger),
		Tasks:    services.NewTaskService(app.db, rm, c, logger),
		Projects: services.NewProjectService(app.db, rm, c, logger),
		Settings: services.NewPreferencesService(app.db, rm, c, logger),
		Captcha:  app.captcha(),
	}

	app.http = hs.NewServer(c.HTTPAddr, logger, svc, hs.Options{
		UniformResetResponse: c.UniformResetResponse,
		ShutdownTimeout:      c.ShutdownTimeout,
	})
	app.grpc = gs.NewGRPCServer(c.GRPCAddr, logger)

	return app, nil
}

func (app *App) denylist(ctx context.Context) (revocation.Denylist, error) {
	if app.config.RedisURL == "" {
		return revocation.NopDenylist{}, nil
	}
	client, err := revocation.NewClient(ctx, app.config.RedisURL, app.config.DBTimeout)
	if err != nil {
		return nil, err
	}
	app.redis = client
	return revocation.NewRedisDenylist(client), nil
}

func (app *App) captcha() captcha.Verifier {
	if app.config.RecaptchaSecret == "" {
		app.logger.Warn(context.Background(), "reCAPTCHA is not configured, registration is not bot-checked")
		return captcha.NopVerifier{}
	}
	return captcha.NewRecaptchaVerifier(app.config.RecaptchaSecret, app.config.DBTimeout)
}

func (app *App) notifier() notify.Notifier {
	c := app.config
	if c.SMTPHost == "" {
		app.logger.Warn(context.Background(), "SMTP is not configured, reset links are not delivered")
		return notify.NewLogNotifier(app.logger)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
		LinkBase: c.ResetLinkBaseURL,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)
	app.grpc.SetServing(true)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.WithoutCancel(ctx))
	app.logger.Info(ctx, "App stopped")
}

// close releases everything NewApp acquired. Safe on a partially built App.
func (app *App) close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, app.config.ShutdownTimeout)
	defer cancel()

	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	for _, fn := range app.shutdown {
		errs = append(errs, fn(shutdownCtx))
	}
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}

	if err := errors.Join(errs...); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}
}
