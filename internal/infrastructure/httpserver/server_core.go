package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/ports"
	customMiddleware "github.com/reviewdeck/reviewdeck/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
}

type ServerDeps struct {
	UserService    ports.UserService
	AuthService    ports.AuthService
	BillingService ports.BillingService
	ReviewService  ports.ReviewService
	UnansweredSvc  ports.UnansweredReviewService
	ReplyComposer  ports.ReplyComposer
	UpstreamCache  ports.TTLCache
	HealthCheckers []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	userService    ports.UserService
	authSvc        ports.AuthService
	billingSvc     ports.BillingService
	reviewSvc      ports.ReviewService
	unansweredSvc  ports.UnansweredReviewService
	composer       ports.ReplyComposer
	upstreamCache  ports.TTLCache
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		userService:    deps.UserService,
		authSvc:        deps.AuthService,
		billingSvc:     deps.BillingService,
		reviewSvc:      deps.ReviewService,
		unansweredSvc:  deps.UnansweredSvc,
		composer:       deps.ReplyComposer,
		upstreamCache:  deps.UpstreamCache,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.AuthService,
			deps.BillingService,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
