package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/shipment-service/internal/application"
	"github.com/wms-platform/shipment-service/pkg/api"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/middleware"
)

// PackageHandler handles HTTP requests for packages
type PackageHandler struct {
	service PackageService
	logger  *logging.Logger
}

// NewPackageHandler creates a new PackageHandler
func NewPackageHandler(service PackageService, logger *logging.Logger) *PackageHandler {
	return &PackageHandler{
		service: service,
		logger:  logger,
	}
}

// CreatePackage handles POST /api/v1/packages
func (h *PackageHandler) CreatePackage(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreatePackageCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.CreatedBy = middleware.GetActorID(c)

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"customer.id": cmd.CustomerID.String(),
	})

	result, err := h.service.CreatePackage(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.Created(c, "Package created", result)
}

// CreatePackages handles POST /api/v1/packages/batch. All packages are
// written together or not at all.
func (h *PackageHandler) CreatePackages(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreatePackagesCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.CreatedBy = middleware.GetActorID(c)

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"customer.id":    cmd.CustomerID.String(),
		"packages.count": len(cmd.Packages),
	})

	result, err := h.service.CreatePackages(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.Created(c, "Packages created", result)
}

// GetPackage handles GET /api/v1/packages/:id
func (h *PackageHandler) GetPackage(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.GetPackage(c.Request.Context(), id)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Package found", result)
}

// ListPackages handles GET /api/v1/packages
func (h *PackageHandler) ListPackages(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.ListPackagesQuery{PageRequest: api.DefaultPageRequest()}
	if appErr := middleware.BindQueryAndValidate(c, &query); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.ListPackages(c.Request.Context(), query)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Packages found", result)
}

// UpdatePackage handles PUT /api/v1/packages/:id
func (h *PackageHandler) UpdatePackage(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var cmd application.UpdatePackageCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.ID = id
	cmd.UpdatedBy = middleware.GetActorID(c)

	result, err := h.service.UpdatePackage(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Package updated", result)
}

// UpdatePackageStatus handles PUT /api/v1/packages/:id/status
func (h *PackageHandler) UpdatePackageStatus(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var cmd application.UpdatePackageStatusCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.ID = id
	cmd.UpdatedBy = middleware.GetActorID(c)

	result, err := h.service.UpdatePackageStatus(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.OK(c, "Package status updated", result)
}

// DeletePackage handles DELETE /api/v1/packages/:id
func (h *PackageHandler) DeletePackage(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	if err := h.service.DeletePackage(c.Request.Context(), id); err != nil {
		responder.RespondWithError(err)
		return
	}

	h.logger.Audit(c.Request.Context(), "delete", "package", id.String(), middleware.GetActorID(c), nil)
	api.OK(c, "Package deleted", nil)
}

// AddPackageProduct handles POST /api/v1/package-products
func (h *PackageHandler) AddPackageProduct(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreatePackageProductCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.CreatedBy = middleware.GetActorID(c)

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"package.id": cmd.PackageID.String(),
	})

	result, err := h.service.AddPackageProduct(c.Request.Context(), cmd)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	api.Created(c, "Package product created", result)
}
