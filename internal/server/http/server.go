// Package http exposes the todokeeper REST API over echo.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/captcha"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Accounts interface {
	Register(ctx context.Context, username, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Me(ctx context.Context, accountID string) (*models.Account, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) (revoked bool, err error)
}

type Resets interface {
	RequestReset(ctx context.Context, email string) (string, error)
	ConsumeReset(ctx context.Context, token, newPassword string) error
}

type Deleter interface {
	DeleteAccount(ctx context.Context, accountID string) error
}

type Snoozer interface {
	Snooze(ctx context.Context, ownerID, taskID string, d services.SnoozeDuration) (time.Time, error)
	Unsnooze(ctx context.Context, ownerID, taskID string) error
	ListDeferred(ctx context.Context, ownerID string) ([]*models.Task, error)
	CountDeferred(ctx context.Context, ownerID string) (int, error)
}

type Tasks interface {
	Create(ctx context.Context, ownerID string, in services.TaskInput) (*models.Task, error)
	List(ctx context.Context, ownerID string, includeAll bool) ([]*models.Task, error)
	Update(ctx context.Context, ownerID, id string, patch services.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type Projects interface {
	Create(ctx context.Context, ownerID, name string, description *string) (*models.Project, error)
	List(ctx context.Context, ownerID string) ([]*models.Project, error)
	Update(ctx context.Context, ownerID, id string, name, description *string) (*models.Project, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type Settings interface {
	Get(ctx context.Context, ownerID string) (*models.Preferences, error)
	Update(ctx context.Context, ownerID string, patch services.PreferencesPatch) (*models.Preferences, error)
}

// Services bundles the business operations the API is built on.
type Services struct {
	Accounts Accounts
	Resets   Resets
	Deleter  Deleter
	Snoozer  Snoozer
	Tasks    Tasks
	Projects Projects
	Settings Settings
	// Captcha gates registration. Nil accepts every request.
	Captcha captcha.Verifier
}

// Options tunes server behaviour.
type Options struct {
	// UniformResetResponse answers reset requests for unknown emails with
	// the same 200 as for known ones.
	UniformResetResponse bool
	ShutdownTimeout      time.Duration
	// Now is the clock used to flag deferred todos. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	address string
	echo    *echo.Echo
	svc     Services
	opts    Options
	logger  logging.Logger
	now     func() time.Time
}

func NewServer(address string, l logging.Logger, svc Services, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		address: address,
		svc:     svc,
		opts:    opts,
		logger:  l.With("module", "http_server"),
		now:     opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.svc.Captcha == nil {
		s.svc.Captcha = captcha.NopVerifier{}
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := logging.ContextWithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))
	e.Use(s.requestLogger)
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)

	api := e.Group("/api")

	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/reset-password/request", s.handleResetRequest)
	api.POST("/reset-password/reset", s.handleResetConsume)

	protected := api.Group("")
	protected.Use(s.authMiddleware)

	protected.GET("/auth/me", s.handleMe)
	protected.POST("/auth/logout", s.handleLogout)
	protected.DELETE("/auth/delete", s.handleDeleteAccount)

	protected.GET("/todos", s.handleListTodos)
	protected.POST("/todos", s.handleCreateTodo)
	protected.GET("/todos/snoozed", s.handleListSnoozed)
	protected.GET("/todos/snoozed/count", s.handleCountSnoozed)
	protected.PUT("/todos/:id", s.handleUpdateTodo)
	protected.DELETE("/todos/:id", s.handleDeleteTodo)
	protected.POST("/todos/:id/snooze", s.handleSnooze)
	protected.POST("/todos/:id/unsnooze", s.handleUnsnooze)

	protected.GET("/projects", s.handleListProjects)
	protected.POST("/projects", s.handleCreateProject)
	protected.PUT("/projects/:id", s.handleUpdateProject)
	protected.DELETE("/projects/:id", s.handleDeleteProject)

	protected.GET("/settings", s.handleGetSettings)
	protected.PUT("/settings", s.handleUpdateSettings)

	s.echo = e
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.echo.Listener = listen

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
