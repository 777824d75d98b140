// Package server exposes generation and read-only story queries over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/PiazzaSanPietro/agvn/internal/story"
	"github.com/PiazzaSanPietro/agvn/internal/workflow"
)

// Reader is the read side of the store served by the API.
type Reader interface {
	AllChapters(ctx context.Context) ([]story.Chapter, error)
	GetChapter(ctx context.Context, id int64) (story.Chapter, error)
	SearchLinesByRole(ctx context.Context, substring string) ([]story.RoleMatch, error)
	Stats(ctx context.Context) (story.Stats, error)
	Continuity(ctx context.Context) (string, error)
}

// Generator runs one chapter generation.
type Generator interface {
	Generate(ctx context.Context, requestIndex int) (workflow.Result, error)
}

// Deps are the collaborators of a Server. Generator may be nil, in which
// case generation requests are answered with 503.
type Deps struct {
	Store          Reader
	Generator      Generator
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// Server is the HTTP API.
type Server struct {
	deps   Deps
	engine *gin.Engine
}

// New builds the router.
func New(deps Deps) *Server {
	s := &Server{deps: deps}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(deps.Logger))
	r.Use(corsMiddleware(deps.AllowedOrigins))

	r.POST("/generate", s.generate)
	r.POST("/generate script", s.generate)

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/chapters", s.listChapters)
		api.GET("/chapters/:id", s.getChapter)
		api.GET("/search", s.search)
		api.GET("/stats", s.stats)
		api.GET("/continuity", s.continuity)
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.deps.Logger.Info().Msg("server stopped")
	return nil
}
