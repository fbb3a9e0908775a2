package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/access"
	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/stats"
)

const metricsNamespace = "shepherd"

type (
	ServerDeps struct {
		Conf      *core.Config
		Logger    core.Logger
		Members   *member.Service
		Orgs      *org.Service
		Access    *access.Service
		Insighter stats.Insighter // optional
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authConfig
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthConfig(deps.Conf),
		metrics:  newMetrics(metricsNamespace),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.metrics.middleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/metrics", s.metrics.handler())

	v1 := s.app.Group("/v1")
	jwt := s.auth.middleware()
	mbr := memberMiddleware(s.deps.Members)
	management := managementMiddleware()
	rateLimit := newTokenBucket(0, conf.Server.LoginRateLimitPerMin).middleware()

	registerMemberAPI(v1, jwt, mbr, management, rateLimit, &memberApi{
		svc:     s.deps.Members,
		access:  s.deps.Access,
		auth:    s.auth,
		metrics: s.metrics,
	})
	registerOrgAPI(v1, jwt, mbr, management, &orgApi{svc: s.deps.Orgs, access: s.deps.Access})
	registerStudentAPI(v1, jwt, mbr, management, &studentApi{access: s.deps.Access, metrics: s.metrics})
	registerStatsAPI(v1, jwt, mbr, management, &statsApi{access: s.deps.Access, insighter: s.deps.Insighter})
}

// Start listens on the configured address. Listening errors are reported on Errors.
func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
