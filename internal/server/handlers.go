package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PiazzaSanPietro/agvn/internal/store"
	"github.com/PiazzaSanPietro/agvn/internal/story"
	"github.com/PiazzaSanPietro/agvn/internal/workflow"
)

// Error codes in the JSON error body.
const (
	ErrorBadRequest       = "BAD_REQUEST"
	ErrorNotFound         = "NOT_FOUND"
	ErrorGenerationFailed = "GENERATION_FAILED"
	ErrorUnavailable      = "GENERATOR_UNAVAILABLE"
	ErrorInternal         = "INTERNAL_ERROR"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Stage     string `json:"stage,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// generateResponse is the chapter as returned by the generation endpoint.
type generateResponse struct {
	RequestID       string           `json:"request_id"`
	ChapterID       int64            `json:"chapter_id"`
	SceneBackground story.Background `json:"scene_background"`
	Scripts         []story.Line     `json:"scripts"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) generate(c *gin.Context) {
	index, err := strconv.Atoi(c.Query("index"))
	if err != nil || index < 0 {
		s.abort(c, http.StatusBadRequest, errorDetail{Code: ErrorBadRequest, Message: "index must be a non-negative integer"})
		return
	}
	if s.deps.Generator == nil {
		s.abort(c, http.StatusServiceUnavailable, errorDetail{Code: ErrorUnavailable, Message: "generator is not configured"})
		return
	}

	res, err := s.deps.Generator.Generate(c.Request.Context(), index)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		RequestID:       res.RequestID,
		ChapterID:       res.ChapterID,
		SceneBackground: res.Chapter.SceneBackground,
		Scripts:         res.Chapter.Scripts,
	})
}

func (s *Server) listChapters(c *gin.Context) {
	chapters, err := s.deps.Store.AllChapters(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}

func (s *Server) getChapter(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.abort(c, http.StatusBadRequest, errorDetail{Code: ErrorBadRequest, Message: "chapter id must be an integer"})
		return
	}

	chapter, err := s.deps.Store.GetChapter(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

func (s *Server) search(c *gin.Context) {
	matches, err := s.deps.Store.SearchLinesByRole(c.Request.Context(), c.Query("role"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.deps.Store.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) continuity(c *gin.Context) {
	text, err := s.deps.Store.Continuity(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

// fail maps err to a status code and writes the error body.
func (s *Server) fail(c *gin.Context, err error) {
	var ge *workflow.GenerationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.abort(c, http.StatusNotFound, errorDetail{Code: ErrorNotFound, Message: err.Error()})
	case errors.As(err, &ge):
		s.abort(c, http.StatusBadGateway, errorDetail{
			Code:      ErrorGenerationFailed,
			Message:   "failed to generate content from the generator",
			Stage:     string(ge.Stage),
			RequestID: ge.RequestID,
		})
	default:
		s.deps.Logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		s.abort(c, http.StatusInternalServerError, errorDetail{Code: ErrorInternal, Message: "internal error"})
	}
}

func (s *Server) abort(c *gin.Context, status int, detail errorDetail) {
	c.AbortWithStatusJSON(status, errorBody{Error: detail})
}
