package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/shipment-service/internal/application"
	"github.com/wms-platform/shipment-service/pkg/api"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/middleware"
)

// ShipmentHandler handles HTTP requests for shipments
type ShipmentHandler struct {
	service ShipmentService
	logger  *logging.Logger
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(service ShipmentService, logger *logging.Logger) *ShipmentHandler {
	return &ShipmentHandler{
		service: service,
		logger:  logger,
	}
}

// CreateShipment handles POST /api/v1/shipments
func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreateShipmentCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.CreatedBy = middleware.GetActorID(c)

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"customer.id":    cmd.CustomerID.String(),
		"packages.count": len(cmd.Packages) + len(cmd.PackageIDs),
	})

	result, err := h.service.CreateShipment(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.Created(c, "Shipment created", result)
}

// CreateShipments handles POST /api/v1/shipments/batch. Items succeed or fail
// independently, so the batch itself answers 200 with per-item results.
func (h *ShipmentHandler) CreateShipments(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreateShipmentsCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.CreatedBy = middleware.GetActorID(c)

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"shipments.count": len(cmd.Shipments),
	})

	result, err := h.service.CreateShipments(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Shipments processed", result)
}

// GetShipment handles GET /api/v1/shipments/:id
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"shipment.id": id.String(),
	})

	result, err := h.service.GetShipment(c.Request.Context(), id)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Shipment found", result)
}

// ListShipments handles GET /api/v1/shipments
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.ListShipmentsQuery{PageRequest: api.DefaultPageRequest()}
	if appErr := middleware.BindQueryAndValidate(c, &query); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.ListShipments(c.Request.Context(), query)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Shipments found", result)
}

// UpdateShipment handles PUT /api/v1/shipments/:id
func (h *ShipmentHandler) UpdateShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var cmd application.UpdateShipmentCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.ID = id
	cmd.UpdatedBy = middleware.GetActorID(c)

	result, err := h.service.UpdateShipment(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Shipment updated", result)
}

// UpdateShipmentStatus handles PUT /api/v1/shipments/:id/status
func (h *ShipmentHandler) UpdateShipmentStatus(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var cmd application.UpdateShipmentStatusCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.ID = id
	cmd.UpdatedBy = middleware.GetActorID(c)

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"shipment.id":     id.String(),
		"shipment.status": string(cmd.Status),
	})

	result, err := h.service.UpdateShipmentStatus(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Shipment status updated", result)
}

// DeleteShipment handles DELETE /api/v1/shipments/:id
func (h *ShipmentHandler) DeleteShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	if err := h.service.DeleteShipment(c.Request.Context(), id); err != nil {
		responder.RespondWithError(err)
		return
	}

	h.logger.Audit(c.Request.Context(), "delete", "shipment", id.String(), middleware.GetActorID(c), nil)
	api.OK(c, "Shipment deleted", nil)
}
