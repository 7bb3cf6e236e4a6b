package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/markusbegerow/feeddeck/pkg/deck"
	"github.com/markusbegerow/feeddeck/pkg/domain"
	"github.com/markusbegerow/feeddeck/pkg/feed"
	"github.com/markusbegerow/feeddeck/pkg/notify"
)

// Deck is the orchestrator's command/query interface the server exposes.
type Deck interface {
	Projects() map[string][]string
	CreateProject(name string) error
	DeleteProject(name string) error
	AddFeed(project, feedURL string) error
	RemoveFeed(project, feedURL string) error
	MoveFeed(project string, index int, up bool) error
	MarkRead(project, feedURL, link, title string) error
	Refresh(ctx context.Context, scope deck.Scope) (*domain.PassResult, error)
	Notifications() []domain.Notification
	ClearNotifications()
}

// Discoverer probes a website for feed URLs.
type Discoverer interface {
	Discover(ctx context.Context, siteURL string) []feed.Candidate
}

// Webhook posts article payloads to an external endpoint.
type Webhook interface {
	Send(ctx context.Context, url string, p notify.Payload) error
}

// Languages provides the static translation table.
type Languages interface {
	Languages() map[string]map[string]string
}

// Config holds server settings.
type Config struct {
	Listen     string
	Timeout    time.Duration
	WebhookURL string
	Version    string
	Debug      bool
}

// Server is the thin HTTP consumer of the deck API.
type Server struct {
	cfg        Config
	deck       Deck
	discoverer Discoverer
	webhook    Webhook
	languages  Languages

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a new server instance
func New(cfg Config, d Deck, disc Discoverer, wh Webhook, langs Languages) *Server {
	s := &Server{
		cfg:        cfg,
		deck:       d,
		discoverer: disc,
		webhook:    wh,
		languages:  langs,
		router:     routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.cfg.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Timeout,
		WriteTimeout: s.cfg.Timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("feeddeck", "markusbegerow", s.cfg.Version))
	s.router.Use(rest.Ping)

	if s.cfg.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)

		r.HandleFunc("GET /projects", s.listProjectsHandler)
		r.HandleFunc("POST /projects", s.createProjectHandler)
		r.HandleFunc("DELETE /projects/{name}", s.deleteProjectHandler)

		r.HandleFunc("POST /projects/{name}/feeds", s.addFeedHandler)
		r.HandleFunc("DELETE /projects/{name}/feeds", s.removeFeedHandler)
		r.HandleFunc("POST /projects/{name}/feeds/move", s.moveFeedHandler)

		r.HandleFunc("POST /projects/{name}/refresh", s.refreshHandler)
		r.HandleFunc("POST /read", s.markReadHandler)
		r.HandleFunc("GET /discover", s.discoverHandler)
		r.HandleFunc("POST /webhook", s.webhookHandler)

		r.HandleFunc("GET /notifications", s.notificationsHandler)
		r.HandleFunc("DELETE /notifications", s.clearNotificationsHandler)

		r.HandleFunc("GET /languages", s.languagesHandler)
	})
}
