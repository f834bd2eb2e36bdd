package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/story-assistant/internal/llm"
	"github.com/Conceptual-Machines/story-assistant/internal/logger"
	"github.com/Conceptual-Machines/story-assistant/internal/models"
	"github.com/Conceptual-Machines/story-assistant/internal/story"
	"github.com/Conceptual-Machines/story-assistant/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	sessionName   = "story-assistant"
	sessionMaxAge = 30 * 24 * 60 * 60

	// session keys for the remembered selections
	keyModel          = "model"
	keyAssistanceType = "assistance_type"
	keyGenre          = "genre"
	keyWritingStyle   = "writing_style"
	keyTone           = "tone"
	keyWordLimit      = "word_limit"
)

// Generator produces story content for validated parameters
type Generator interface {
	Generate(ctx context.Context, params models.GenerationParams) story.Result
	Catalog() *models.Catalog
}

type WebHandler struct {
	generator Generator
	store     sessions.Store
}

func NewWebHandler(generator Generator, store sessions.Store) *WebHandler {
	return &WebHandler{
		generator: generator,
		store:     store,
	}
}

// NewSessionStore creates the signed cookie store that remembers form selections
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options.Path = "/"
	store.Options.MaxAge = sessionMaxAge
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// Home renders the form with the visitor's last selections
func (h *WebHandler) Home(c *gin.Context) {
	h.render(c, templates.Page(templates.PageView{
		Catalog: h.generator.Catalog(),
		Params:  h.lastSelections(c),
	}))
}

// Generate handles the plain form post and re-renders the whole page
func (h *WebHandler) Generate(c *gin.Context) {
	params, output := h.generate(c)
	h.render(c, templates.Page(templates.PageView{
		Catalog: h.generator.Catalog(),
		Params:  params,
		Output:  output,
	}))
}

// HTMXGenerate returns only the output fragment
func (h *WebHandler) HTMXGenerate(c *gin.Context) {
	_, output := h.generate(c)
	h.render(c, templates.Output(output))
}

func (h *WebHandler) generate(c *gin.Context) (models.GenerationParams, templates.OutputView) {
	params, err := h.parseForm(c)
	if err != nil {
		logger.Warn("Invalid generate form", logger.Fields{"request_id": c.GetString("request_id"), "error": err.Error()})
		result := story.Result{Err: llm.NewInvalidRequestError(err)}
		return params, templates.OutputView{Text: result.Text(), IsError: true}
	}

	h.saveSelections(c, params)

	result := h.generator.Generate(c.Request.Context(), params)
	return params, templates.OutputView{Text: result.Text(), IsError: !result.OK()}
}

// parseForm reads the posted fields. Missing fields keep the defaults so the
// page can be re-rendered with what was sent.
func (h *WebHandler) parseForm(c *gin.Context) (models.GenerationParams, error) {
	params := h.generator.Catalog().Defaults()

	params.Model = c.DefaultPostForm("model", params.Model)
	params.Genre = c.DefaultPostForm("genre", params.Genre)
	params.WritingStyle = c.DefaultPostForm("writing_style", params.WritingStyle)
	params.Tone = c.DefaultPostForm("tone", params.Tone)
	params.AdditionalPrompt = c.PostForm("additional_prompt")

	if raw, ok := c.GetPostForm("word_limit"); ok {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return params, fmt.Errorf("word limit %q is not a number", raw)
		}
		params.WordLimit = limit
	}

	if label, ok := c.GetPostForm("assistance_type"); ok {
		assistance, err := models.ParseAssistanceType(label)
		if err != nil {
			return params, err
		}
		params.AssistanceType = assistance
	}

	return params, nil
}

func (h *WebHandler) lastSelections(c *gin.Context) models.GenerationParams {
	catalog := h.generator.Catalog()
	params := catalog.Defaults()

	session, err := h.store.Get(c.Request, sessionName)
	if err != nil {
		return params
	}

	if v, ok := session.Values[keyModel].(string); ok {
		params.Model = v
	}
	if v, ok := session.Values[keyAssistanceType].(string); ok {
		if assistance, err := models.ParseAssistanceType(v); err == nil {
			params.AssistanceType = assistance
		}
	}
	if v, ok := session.Values[keyGenre].(string); ok {
		params.Genre = v
	}
	if v, ok := session.Values[keyWritingStyle].(string); ok {
		params.WritingStyle = v
	}
	if v, ok := session.Values[keyTone].(string); ok {
		params.Tone = v
	}
	if v, ok := session.Values[keyWordLimit].(int); ok {
		params.WordLimit = v
	}

	// a stale cookie may reference a model that is no longer offered
	if params.Validate(catalog) != nil {
		return catalog.Defaults()
	}
	return params
}

func (h *WebHandler) saveSelections(c *gin.Context, params models.GenerationParams) {
	session, err := h.store.Get(c.Request, sessionName)
	if err != nil && session == nil {
		return
	}

	session.Values[keyModel] = params.Model
	session.Values[keyAssistanceType] = params.AssistanceType.String()
	session.Values[keyGenre] = params.Genre
	session.Values[keyWritingStyle] = params.WritingStyle
	session.Values[keyTone] = params.Tone
	session.Values[keyWordLimit] = params.WordLimit

	if err := session.Save(c.Request, c.Writer); err != nil {
		logger.Warn("Failed to save session", logger.Fields{"error": err.Error()})
	}
}

func (h *WebHandler) render(c *gin.Context, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		logger.Error("Failed to render template", err, logger.Fields{"request_id": c.GetString("request_id")})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render template"})
	}
}
