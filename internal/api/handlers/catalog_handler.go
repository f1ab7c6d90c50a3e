package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/shipment-service/internal/application"
	"github.com/wms-platform/shipment-service/pkg/api"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/middleware"
)

// CatalogHandler handles HTTP requests for carriers, warehouses and products
type CatalogHandler struct {
	service CatalogService
	logger  *logging.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(service CatalogService, logger *logging.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
	}
}

// CreateCarrier handles POST /api/v1/carriers
func (h *CatalogHandler) CreateCarrier(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreateCarrierCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.CreatedBy = middleware.GetActorID(c)

	result, err := h.service.CreateCarrier(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.Created(c, "Carrier created", result)
}

// GetCarrier handles GET /api/v1/carriers/:id
func (h *CatalogHandler) GetCarrier(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.GetCarrier(c.Request.Context(), id)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Carrier found", result)
}

// ListCarriers handles GET /api/v1/carriers
func (h *CatalogHandler) ListCarriers(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.service.ListCarriers(c.Request.Context(), api.ParsePagination(c))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Carriers found", result)
}

// UpdateCarrier handles PUT /api/v1/carriers/:id
func (h *CatalogHandler) UpdateCarrier(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var cmd application.UpdateCarrierCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.ID = id
	cmd.UpdatedBy = middleware.GetActorID(c)

	result, err := h.service.UpdateCarrier(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Carrier updated", result)
}

// DeleteCarrier handles DELETE /api/v1/carriers/:id
func (h *CatalogHandler) DeleteCarrier(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	actor := middleware.GetActorID(c)
	if err := h.service.DeleteCarrier(c.Request.Context(), id, actor); err != nil {
		responder.RespondWithError(err)
		return
	}

	h.logger.Audit(c.Request.Context(), "delete", "carrier", id.String(), actor, nil)
	api.OK(c, "Carrier deleted", nil)
}

// CreateWarehouse handles POST /api/v1/warehouses
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreateWarehouseCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.CreatedBy = middleware.GetActorID(c)

	result, err := h.service.CreateWarehouse(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.Created(c, "Warehouse created", result)
}

// GetWarehouse handles GET /api/v1/warehouses/:id
func (h *CatalogHandler) GetWarehouse(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.GetWarehouse(c.Request.Context(), id)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Warehouse found", result)
}

// ListWarehouses handles GET /api/v1/warehouses
func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.service.ListWarehouses(c.Request.Context(), api.ParsePagination(c))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Warehouses found", result)
}

// UpdateWarehouse handles PUT /api/v1/warehouses/:id
func (h *CatalogHandler) UpdateWarehouse(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var cmd application.UpdateWarehouseCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.ID = id
	cmd.UpdatedBy = middleware.GetActorID(c)

	result, err := h.service.UpdateWarehouse(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Warehouse updated", result)
}

// DeleteWarehouse handles DELETE /api/v1/warehouses/:id
func (h *CatalogHandler) DeleteWarehouse(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	actor := middleware.GetActorID(c)
	if err := h.service.DeleteWarehouse(c.Request.Context(), id, actor); err != nil {
		responder.RespondWithError(err)
		return
	}

	h.logger.Audit(c.Request.Context(), "delete", "warehouse", id.String(), actor, nil)
	api.OK(c, "Warehouse deleted", nil)
}

// CreateProduct handles POST /api/v1/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreateProductCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.CreatedBy = middleware.GetActorID(c)

	result, err := h.service.CreateProduct(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.Created(c, "Product created", result)
}

// GetProduct handles GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Product found", result)
}
