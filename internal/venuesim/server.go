package venuesim

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"venue-client/internal/metrics"
)

// ServerConfig configures the dev server.
type ServerConfig struct {
	Addr          string
	Release       bool
	ExposeMetrics bool
	Store         Options
}

// NewRouter builds the gin engine with every route mounted under /api.
func NewRouter(h *Handler, exposeMetrics bool) *gin.Engine {
	router := gin.New()
	router.Use(Recovery())
	router.Use(RequestLogger())
	router.Use(CORS())

	router.GET("/health", func(c *gin.Context) {
		Success(c, gin.H{"status": "up"})
	})
	if exposeMetrics {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	v1 := router.Group("/api")
	{
		v1.GET("/tables/:id", h.GetTable)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.StartSession)
			sessions.POST("/start", h.StartSession)
			sessions.GET("/by-table/:id", h.ActiveSession)
			sessions.POST("/:id/ping", h.Ping)
			sessions.POST("/:id/close", h.CloseSession)
		}

		music := v1.Group("/music")
		{
			music.GET("/search", h.Search)
			music.GET("/requests", h.ListRequests)
			music.POST("/requests", h.CreateRequest)
			music.PATCH("/requests/:id", h.UpdateRequest)
		}
	}

	return router
}

// Server is the dev backend process.
type Server struct {
	cfg   ServerConfig
	store *Store
	http  *http.Server
}

// NewServer wires a store, handler and router.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	store := NewStore(cfg.Store)
	return &Server{
		cfg:   cfg,
		store: store,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(NewHandler(store), cfg.ExposeMetrics),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Store exposes the backing store.
func (s *Server) Store() *Store { return s.store }

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("venue dev server starting")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down venue dev server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info().Msg("venue dev server exited")
	return nil
}
