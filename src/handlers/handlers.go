package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentbase/nl2sql/src/llm"
	"github.com/talentbase/nl2sql/src/models"
	"github.com/talentbase/nl2sql/src/translator"
	"github.com/talentbase/nl2sql/src/validation"
)

type TranslationHandler struct {
	translator *translator.Service
	registry   *llm.Registry
	validator  *validation.Service
	schemas    interface {
		ListAvailable() ([]string, error)
	}
}

func NewTranslationHandler(
	svc *translator.Service,
	registry *llm.Registry,
	validator *validation.Service,
	schemas interface{ ListAvailable() ([]string, error) },
) *TranslationHandler {
	return &TranslationHandler{
		translator: svc,
		registry:   registry,
		validator:  validator,
		schemas:    schemas,
	}
}

// HandleTranslate processes one natural language to SQL translation.
func (h *TranslationHandler) HandleTranslate(c *gin.Context) {
	var req models.TranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID := uuid.New().String()
	c.Header("X-Request-ID", requestID)

	result, err := h.translator.Translate(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": requestID})
		return
	}

	status := http.StatusOK
	if result.Status == models.StatusError {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"request_id": requestID, "result": result})
}

type validateRequest struct {
	SQL      string `json:"sql" binding:"required"`
	Question string `json:"question"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Semantic bool   `json:"semantic"`
}

// HandleValidate runs the validation passes over caller-supplied SQL
// without going through generation.
func (h *TranslationHandler) HandleValidate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.validator.ValidateComplete(c.Request.Context(), req.SQL, req.Question, req.Provider, req.Model, req.Semantic)
	if err != nil {
		var fwErr *models.FrameworkError
		if errors.As(err, &fwErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"report": report, "error": fwErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// HandleHealth reports aggregated collaborator health.
func (h *TranslationHandler) HandleHealth(c *gin.Context) {
	status := h.translator.HealthStatus(c.Request.Context())
	status["stats"] = h.registry.Stats().Snapshot()
	c.JSON(http.StatusOK, status)
}

// HandleModels lists the model catalogs of every configured provider.
func (h *TranslationHandler) HandleModels(c *gin.Context) {
	catalogs, failures := h.registry.AvailableModels(c.Request.Context())
	resp := gin.H{"models": catalogs}
	if len(failures) > 0 {
		resp["errors"] = failures
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSchemas lists the schema files available for translation requests.
func (h *TranslationHandler) HandleSchemas(c *gin.Context) {
	names, err := h.schemas.ListAvailable()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schemas": names})
}

type invalidateRequest struct {
	Pattern string `json:"pattern" binding:"required"`
}

// HandleInvalidateCache removes cached translations matching a pattern.
func (h *TranslationHandler) HandleInvalidateCache(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count, err := h.translator.InvalidateCache(c.Request.Context(), req.Pattern)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "deleted": count})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}
