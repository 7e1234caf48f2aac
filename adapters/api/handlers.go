package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicegen/app"
	"invoicegen/domain/layout"
	"invoicegen/internal/errors"
)

// GenerateRequest is the JSON body of POST /api/generate. Either the data
// payload is inlined or data_path points at a JSON file the server can
// read; the path is required either way since it names the invoice.
type GenerateRequest struct {
	DataPath     string         `json:"data_path" binding:"required"`
	Data         map[string]any `json:"data"`
	OutputPath   string         `json:"output_path,omitempty"`
	DAF          bool           `json:"daf"`
	Custom       bool           `json:"custom"`
	ConfigPath   string         `json:"config_path,omitempty"`
	TemplatePath string         `json:"template_path,omitempty"`
}

// BatchRequest is the JSON body of POST /api/generate/batch.
type BatchRequest struct {
	Items []GenerateRequest `json:"items" binding:"required,min=1"`
}

func (r GenerateRequest) toRequest() app.GenerationRequest {
	return app.GenerationRequest{
		DataPath:             r.DataPath,
		Data:                 r.Data,
		OutputPath:           r.OutputPath,
		Mode:                 layout.Mode{DAF: r.DAF, Custom: r.Custom},
		ExplicitConfigPath:   r.ConfigPath,
		ExplicitTemplatePath: r.TemplatePath,
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": s.container.Config.Database.Enabled(),
	})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.container.Generation.Generate(c.Request.Context(), req.toRequest())
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error": err.Error(),
			"code":  errors.GetCode(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":  result.Session.ID,
		"status":      result.Session.Status,
		"output_path": result.OutputPath,
		"report":      result.Report,
	})
}

func (s *Server) handleGenerateBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requests := make([]app.GenerationRequest, len(req.Items))
	for i, item := range req.Items {
		requests[i] = item.toRequest()
	}

	results := s.container.Batch.Run(c.Request.Context(), requests)

	items := make([]gin.H, len(results))
	succeeded := 0
	for i, r := range results {
		item := gin.H{"data_path": r.Request.DataPath}
		if r.Err != nil {
			item["error"] = r.Err.Error()
			item["code"] = errors.GetCode(r.Err)
		} else if r.Result != nil {
			succeeded++
			item["session_id"] = r.Result.Session.ID
			item["status"] = r.Result.Session.Status
			item["output_path"] = r.Result.OutputPath
		}
		items[i] = item
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     len(results),
		"succeeded": succeeded,
		"items":     items,
	})
}

func (s *Server) handleListSessions(c *gin.Context) {
	if s.container.AuditRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit trail not configured"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	sessions, err := s.container.AuditRepo.ListSessions(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) handleGetSession(c *gin.Context) {
	if s.container.AuditRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit trail not configured"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	session, err := s.container.AuditRepo.GetSession(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

// statusForError maps application error codes onto HTTP statuses.
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound, errors.CodeBundleNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeValidationError, errors.CodeConfigInvalid:
		return http.StatusBadRequest
	case errors.CodeFooterNotFound, errors.CodeContentLoss, errors.CodeTemplateInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
