package handlers

import (
	"context"
	"net/http"

	"github.com/Conceptual-Machines/story-assistant/internal/llm"
	"github.com/Conceptual-Machines/story-assistant/internal/logger"
	"github.com/Conceptual-Machines/story-assistant/internal/models"
	"github.com/Conceptual-Machines/story-assistant/internal/story"
	"github.com/gin-gonic/gin"
)

// Generator produces story content for validated parameters
type Generator interface {
	Generate(ctx context.Context, params models.GenerationParams) story.Result
	Catalog() *models.Catalog
}

type GenerationHandler struct {
	generator Generator
}

func NewGenerationHandler(generator Generator) *GenerationHandler {
	return &GenerationHandler{generator: generator}
}

type GenerateResponse struct {
	RequestID  string     `json:"request_id"`
	Content    string     `json:"content,omitempty"`
	Model      string     `json:"model,omitempty"`
	Usage      *UsageInfo `json:"usage,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	Error      string     `json:"error,omitempty"`
	Kind       string     `json:"kind,omitempty"`
}

type UsageInfo struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Generate accepts GenerationParams as JSON. Omitted fields take the
// catalog defaults; assistance_type is the display label.
func (h *GenerationHandler) Generate(c *gin.Context) {
	requestID := c.GetString("request_id")

	params := h.generator.Catalog().Defaults()
	if err := c.ShouldBindJSON(&params); err != nil {
		logger.Warn("Invalid generate request", logger.Fields{"request_id": requestID, "error": err.Error()})
		c.JSON(http.StatusBadRequest, GenerateResponse{
			RequestID: requestID,
			Error:     "Error: " + err.Error(),
			Kind:      llm.KindInvalidRequest.String(),
		})
		return
	}

	result := h.generator.Generate(c.Request.Context(), params)

	resp := GenerateResponse{
		RequestID:  requestID,
		DurationMS: result.Duration.Milliseconds(),
	}
	if !result.OK() {
		resp.Error = result.Text()
		resp.Kind = result.Err.Kind.String()
		c.JSON(StatusForKind(result.Err.Kind), resp)
		return
	}

	resp.Content = result.Content
	resp.Model = result.Model
	resp.Usage = &UsageInfo{
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
		TotalTokens:  result.Usage.Total(),
	}
	c.JSON(http.StatusOK, resp)
}

// StatusForKind maps an error kind to the HTTP status returned by the API
func StatusForKind(kind llm.Kind) int {
	switch kind {
	case llm.KindInvalidRequest:
		return http.StatusBadRequest
	case llm.KindUnreachable:
		return http.StatusServiceUnavailable
	case llm.KindTimeout:
		return http.StatusGatewayTimeout
	case llm.KindBadStatus, llm.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
