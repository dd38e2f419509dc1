package handler

import (
	"fmt"
	"io"
	"net/http"

	billingapp "github.com/byununivn-max/eximuni-debit-note/internal/application/billing"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler handles spreadsheet export API endpoints
type ExportHandler struct {
	BaseHandler
	exportService *billingapp.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exportService *billingapp.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// RegisterRoutes registers export routes under the debit note resource
func (h *ExportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notes := rg.Group("/debit-notes")
	{
		notes.POST(":id/export-excel", h.Export)
		notes.GET(":id/download", h.Download)
		notes.GET(":id/exports", h.ListExports)
	}
}

// Export renders the debit note workbook and stores the artifact
func (h *ExportHandler) Export(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actor, ok := h.actorID(c)
	if !ok {
		return
	}

	resp, err := h.exportService.Export(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Download streams the latest completed workbook for a debit note
func (h *ExportHandler) Download(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	content, record, err := h.exportService.Download(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer content.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.FileName))
	c.Header("Content-Type", xlsxContentType)
	if record.FileSize > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", record.FileSize))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, content); err != nil {
		// Headers are already written, all we can do is log
		h.logger.Warn("workbook download interrupted",
			zap.String("file_name", record.FileName),
			zap.Error(err))
	}
}

// ListExports returns all export attempts for a debit note
func (h *ExportHandler) ListExports(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	responses, err := h.exportService.ListExports(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, responses)
}
