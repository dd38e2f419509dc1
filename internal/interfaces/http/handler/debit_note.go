package handler

import (
	billingapp "github.com/byununivn-max/eximuni-debit-note/internal/application/billing"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DebitNoteHandler handles debit note API endpoints
type DebitNoteHandler struct {
	BaseHandler
	debitNoteService *billingapp.DebitNoteService
}

// NewDebitNoteHandler creates a new DebitNoteHandler
func NewDebitNoteHandler(debitNoteService *billingapp.DebitNoteService, logger *zap.Logger) *DebitNoteHandler {
	return &DebitNoteHandler{
		BaseHandler:      NewBaseHandler(logger),
		debitNoteService: debitNoteService,
	}
}

// RegisterRoutes registers debit note routes
func (h *DebitNoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notes := rg.Group("/debit-notes")
	{
		notes.POST("", h.Create)
		notes.GET("", h.List)
		notes.GET(":id", h.Get)
		notes.GET(":id/workflows", h.WorkflowHistory)
		notes.POST(":id/submit-for-review", h.Submit)
		notes.POST(":id/approve", h.Approve)
		notes.POST(":id/reject", h.Reject)
	}
}

// Create assembles a debit note from the client's billable shipments
func (h *DebitNoteHandler) Create(c *gin.Context) {
	actor, ok := h.actorID(c)
	if !ok {
		return
	}

	var req billingapp.CreateDebitNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	req.CreatedBy = &actor

	resp, err := h.debitNoteService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns a debit note with its lines and workflow history
func (h *DebitNoteHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.debitNoteService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns debit notes matching the query filter
func (h *DebitNoteHandler) List(c *gin.Context) {
	var filter billingapp.DebitNoteListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	responses, total, err := h.debitNoteService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Offset/limit + 1
	h.SuccessWithMeta(c, responses, page, limit, total)
}

// WorkflowHistory returns the audit trail of a debit note
func (h *DebitNoteHandler) WorkflowHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	events, err := h.debitNoteService.WorkflowHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, events)
}

// Submit moves a draft debit note to review
func (h *DebitNoteHandler) Submit(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actor, ok := h.actorID(c)
	if !ok {
		return
	}

	// Comment body is optional
	var req billingapp.WorkflowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.HandleBindingError(c, err)
			return
		}
	}

	resp, err := h.debitNoteService.Submit(c.Request.Context(), id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve clears a debit note for export
func (h *DebitNoteHandler) Approve(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actor, ok := h.actorID(c)
	if !ok {
		return
	}

	var req billingapp.WorkflowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.HandleBindingError(c, err)
			return
		}
	}

	resp, err := h.debitNoteService.Approve(c.Request.Context(), id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reject sends a debit note back and releases its shipments
func (h *DebitNoteHandler) Reject(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actor, ok := h.actorID(c)
	if !ok {
		return
	}

	var req billingapp.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	resp, err := h.debitNoteService.Reject(c.Request.Context(), id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
