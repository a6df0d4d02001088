package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bibharvest/bibharvest/internal/engine"
	"github.com/bibharvest/bibharvest/internal/record"
)

// extractRequest is the POST /extract body.
type extractRequest struct {
	URL       string            `json:"url" binding:"required"`
	HTML      string            `json:"html"`
	Headers   map[string]string `json:"headers"`
	TimeoutMS int               `json:"timeout_ms"`
}

// extractResponse is the orchestration result shape.
type extractResponse struct {
	Success    bool              `json:"success"`
	Translator string            `json:"translator,omitempty"`
	Records    []record.Snapshot `json:"records,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// translatorView is the catalog listing shape.
type translatorView struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	URLPattern string `json:"urlPattern"`
	Priority   int    `json:"priority"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"translators": s.catalog.Len(),
	})
}

func (s *Server) handleListTranslators(c *gin.Context) {
	all := s.catalog.All()
	views := make([]translatorView, 0, len(all))
	for _, t := range all {
		views = append(views, translatorView{
			ID:         t.ID,
			Label:      t.Label,
			URLPattern: t.URLPattern,
			Priority:   t.Priority,
		})
	}
	c.JSON(http.StatusOK, gin.H{"translators": views, "count": len(views)})
}

func (s *Server) handleGetTranslator(c *gin.Context) {
	t := s.catalog.Get(c.Param("id"))
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "translator not found"})
		return
	}
	c.JSON(http.StatusOK, translatorView{
		ID:         t.ID,
		Label:      t.Label,
		URLPattern: t.URLPattern,
		Priority:   t.Priority,
	})
}

func (s *Server) handleExtract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, extractResponse{Success: false, Error: "url required"})
		return
	}

	outcome, err := s.engine.Extract(c.Request.Context(), engine.Request{
		URL:     req.URL,
		HTML:    req.HTML,
		Headers: req.Headers,
		Timeout: time.Duration(req.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, engine.ErrNoMatch):
			status = http.StatusNotFound
		case errors.Is(err, engine.ErrNoExtraction):
			status = http.StatusUnprocessableEntity
		default:
			s.log.Warn("extraction failed upstream", zap.String("url", req.URL), zap.Error(err))
		}
		c.JSON(status, extractResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, extractResponse{
		Success:    true,
		Translator: outcome.Translator,
		Records:    outcome.Records,
	})
}
