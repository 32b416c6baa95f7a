package server

import (
	"context"
	"net/http"
	"time"

	"github.com/hongminglow/carecrate/internal/auth"
	"github.com/hongminglow/carecrate/internal/config"
	"github.com/hongminglow/carecrate/internal/http/handlers"
	"github.com/hongminglow/carecrate/internal/middleware"
	"github.com/hongminglow/carecrate/internal/navbar"
	"github.com/hongminglow/carecrate/internal/pantry"
	"github.com/hongminglow/carecrate/internal/report"
	"github.com/hongminglow/carecrate/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// Deps are the collaborators built by the caller from config.
type Deps struct {
	Store  storage.Store
	Navbar *navbar.Registry
	Mailer *report.Mailer
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// Handler builds the routed, middleware-wrapped API.
func Handler(cfg config.Config, deps Deps) http.Handler {
	mux := http.NewServeMux()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	mw := middleware.NewAuth(tokens)
	svc := pantry.NewService(deps.Store)

	handlers.NewHealthHandler(time.Now(), cfg.StoreDriver).Register(mux)
	handlers.NewAuthHandler(deps.Store, tokens).Register(mux, mw)
	handlers.NewNavbarHandler(deps.Navbar, cfg.NavbarVariant).Register(mux, mw)
	handlers.NewFamilyHandler(svc).Register(mux, mw)
	handlers.NewVisitHandler(svc, cfg.FeedLocation).Register(mux, mw)
	handlers.NewLiveHandler(deps.Store, cfg.FeedLocation, cfg.CORSOrigins).Register(mux, mw)
	handlers.NewWasteHandler(svc).Register(mux, mw)
	handlers.NewReportHandler(deps.Store, deps.Mailer, cfg.ReportRecipients, cfg.FeedLocation).Register(mux, mw)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(mux))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
