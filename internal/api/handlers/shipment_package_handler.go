package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/shipment-service/internal/application"
	"github.com/wms-platform/shipment-service/pkg/api"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/middleware"
)

// ShipmentPackageHandler handles HTTP requests for shipment/package links
type ShipmentPackageHandler struct {
	service ShipmentPackageService
	logger  *logging.Logger
}

// NewShipmentPackageHandler creates a new ShipmentPackageHandler
func NewShipmentPackageHandler(service ShipmentPackageService, logger *logging.Logger) *ShipmentPackageHandler {
	return &ShipmentPackageHandler{
		service: service,
		logger:  logger,
	}
}

// CreateShipmentPackages handles POST /api/v1/shipment-packages
func (h *ShipmentPackageHandler) CreateShipmentPackages(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreateShipmentPackagesCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.CreatedBy = middleware.GetActorID(c)

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"shipment.id":    cmd.ShipmentID.String(),
		"packages.count": len(cmd.PackageIDs),
	})

	result, err := h.service.CreateShipmentPackages(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.Created(c, "Packages linked", result)
}

// GetShipmentPackage handles GET /api/v1/shipment-packages/:id
func (h *ShipmentPackageHandler) GetShipmentPackage(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.GetShipmentPackage(c.Request.Context(), id)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Shipment package found", result)
}

// ListShipmentPackages handles GET /api/v1/shipments/:id/packages
func (h *ShipmentPackageHandler) ListShipmentPackages(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	shipmentID, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.ListShipmentPackages(c.Request.Context(), shipmentID)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Shipment packages found", result)
}

// DeleteShipmentPackage handles DELETE /api/v1/shipment-packages/:id
func (h *ShipmentPackageHandler) DeleteShipmentPackage(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	if err := h.service.DeleteShipmentPackage(c.Request.Context(), id); err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Package unlinked", nil)
}
