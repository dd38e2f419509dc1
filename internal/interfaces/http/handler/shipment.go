package handler

import (
	"errors"
	"io"

	shipmentapp "github.com/byununivn-max/eximuni-debit-note/internal/application/shipment"
	csvimport "github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/import"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShipmentHandler handles shipment API endpoints
type ShipmentHandler struct {
	BaseHandler
	shipmentService *shipmentapp.Service
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(shipmentService *shipmentapp.Service, logger *zap.Logger) *ShipmentHandler {
	return &ShipmentHandler{
		BaseHandler:     NewBaseHandler(logger),
		shipmentService: shipmentService,
	}
}

// RegisterRoutes registers shipment routes
func (h *ShipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	shipments := rg.Group("/shipments")
	{
		shipments.POST("", h.Create)
		shipments.POST("/import", h.Import)
		shipments.GET("", h.List)
		shipments.GET(":id", h.Get)
		shipments.PUT(":id", h.Update)
		shipments.DELETE(":id", h.Cancel)
	}
}

// Create registers a new shipment with its fee amounts
func (h *ShipmentHandler) Create(c *gin.Context) {
	actor, ok := h.actorID(c)
	if !ok {
		return
	}

	var req shipmentapp.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	req.CreatedBy = &actor

	resp, err := h.shipmentService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Import registers shipments in bulk from an uploaded CSV file. The
// file comes either as a multipart "file" field or as the raw body.
func (h *ShipmentHandler) Import(c *gin.Context) {
	actor, ok := h.actorID(c)
	if !ok {
		return
	}

	reader, err := importFileReader(c)
	if err != nil {
		h.BadRequest(c, "CSV file required")
		return
	}
	defer reader.Close()

	summary, err := h.shipmentService.ImportCSV(c.Request.Context(), reader, &actor)
	if err != nil {
		switch {
		case errors.Is(err, csvimport.ErrEmptyFile),
			errors.Is(err, csvimport.ErrNoDataRows),
			errors.Is(err, csvimport.ErrMissingColumns),
			errors.Is(err, csvimport.ErrInvalidEncoding):
			h.BadRequest(c, err.Error())
		default:
			h.HandleError(c, err)
		}
		return
	}
	h.Success(c, summary)
}

func importFileReader(c *gin.Context) (io.ReadCloser, error) {
	if file, err := c.FormFile("file"); err == nil {
		return file.Open()
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil, errors.New("empty request body")
	}
	return c.Request.Body, nil
}

// Get returns a single shipment with fresh duplicate warnings
func (h *ShipmentHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.shipmentService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns shipments matching the query filter
func (h *ShipmentHandler) List(c *gin.Context) {
	var filter shipmentapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	responses, total, err := h.shipmentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, responses, filter.Page, filter.PageSize, total)
}

// Update edits an active shipment
func (h *ShipmentHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req shipmentapp.UpdateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	resp, err := h.shipmentService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel voids a shipment that has not been billed
func (h *ShipmentHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.shipmentService.Cancel(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
