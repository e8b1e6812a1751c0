// Package proxy is the HTTP service that turns a diff into a commit message
// suggestion by calling the configured language model.
package proxy

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/commitcoach/commitcoach/internal/pkg/ai"
	"github.com/commitcoach/commitcoach/internal/pkg/security"
)

// SuggestRequest is the JSON body of POST /v1/commitcoach.
type SuggestRequest struct {
	Diff  string `json:"diff"`
	Style string `json:"style"`
}

// SuggestResponse is the success body.
type SuggestResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-success reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves suggestion requests.
type Handler struct {
	completer ai.Completer
}

// NewHandler creates a Handler calling completer.
func NewHandler(completer ai.Completer) *Handler {
	return &Handler{completer: completer}
}

// RegisterRoutes mounts the suggestion route on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST(ai.SuggestPath, h.Suggest)
}

// Suggest answers one request with exactly one upstream call, or none when
// the body carries no diff.
func (h *Handler) Suggest(c *gin.Context) {
	logger := zerolog.Ctx(c.Request.Context())

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Diff == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "diff required"})
		return
	}

	style := requestStyle(req.Style)

	text, err := h.completer.Complete(c.Request.Context(), ai.SystemPrompt(style), ai.Compose(style, req.Diff))
	if err != nil {
		var upErr *ai.UpstreamError
		if errors.As(err, &upErr) {
			logger.Warn().
				Str("provider", upErr.Provider).
				Int("upstream_status", upErr.StatusCode).
				Msg(security.SanitizeForLogging(upErr.Error()))
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: upErr.Error()})
			return
		}

		logger.Error().Err(errors.New(security.SanitizeForLogging(err.Error()))).Msg("completion failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "server error"})
		return
	}

	logger.Debug().
		Str("style", string(style)).
		Int("diff_length", len(req.Diff)).
		Int("response_length", len(text)).
		Msg("suggestion served")

	c.JSON(http.StatusOK, SuggestResponse{Message: ai.NormalizeMessage(text)})
}

// requestStyle defaults a missing style to conventional. A style the composer
// does not know is passed through and gets the generic hint.
func requestStyle(raw string) ai.Style {
	if strings.TrimSpace(raw) == "" {
		return ai.DefaultStyle
	}
	if style, err := ai.ParseStyle(raw); err == nil {
		return style
	}
	return ai.Style(strings.TrimSpace(raw))
}
