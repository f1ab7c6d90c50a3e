package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wms-platform/shipment-service/internal/application"
	"github.com/wms-platform/shipment-service/pkg/api"
	"github.com/wms-platform/shipment-service/pkg/errors"
	"github.com/wms-platform/shipment-service/pkg/middleware"
)

// ShipmentService is the use-case surface behind the shipment endpoints
type ShipmentService interface {
	CreateShipment(ctx context.Context, cmd application.CreateShipmentCommand) (*application.CreatedShipmentDTO, error)
	CreateShipments(ctx context.Context, cmd application.CreateShipmentsCommand) (*application.BatchResultDTO, error)
	GetShipment(ctx context.Context, id uuid.UUID) (*application.ShipmentDetailDTO, error)
	ListShipments(ctx context.Context, query application.ListShipmentsQuery) (*api.Page[application.ShipmentDTO], error)
	UpdateShipment(ctx context.Context, cmd application.UpdateShipmentCommand) (*application.ShipmentDTO, error)
	UpdateShipmentStatus(ctx context.Context, cmd application.UpdateShipmentStatusCommand) (*application.ShipmentDTO, error)
	DeleteShipment(ctx context.Context, id uuid.UUID) error
}

// PackageService is the use-case surface behind the package endpoints
type PackageService interface {
	CreatePackage(ctx context.Context, cmd application.CreatePackageCommand) (*application.PackageDTO, error)
	CreatePackages(ctx context.Context, cmd application.CreatePackagesCommand) ([]application.PackageDTO, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*application.PackageDTO, error)
	ListPackages(ctx context.Context, query application.ListPackagesQuery) (*api.Page[application.PackageDTO], error)
	UpdatePackage(ctx context.Context, cmd application.UpdatePackageCommand) (*application.PackageDTO, error)
	UpdatePackageStatus(ctx context.Context, cmd application.UpdatePackageStatusCommand) (*application.PackageDTO, error)
	DeletePackage(ctx context.Context, id uuid.UUID) error
	AddPackageProduct(ctx context.Context, cmd application.CreatePackageProductCommand) (*application.PackageDTO, error)
}

// ShipmentPackageService is the use-case surface behind the link endpoints
type ShipmentPackageService interface {
	CreateShipmentPackages(ctx context.Context, cmd application.CreateShipmentPackagesCommand) ([]application.ShipmentPackageDTO, error)
	GetShipmentPackage(ctx context.Context, id uuid.UUID) (*application.ShipmentPackageDTO, error)
	ListShipmentPackages(ctx context.Context, shipmentID uuid.UUID) ([]application.ShipmentPackageDTO, error)
	DeleteShipmentPackage(ctx context.Context, id uuid.UUID) error
}

// CatalogService is the use-case surface behind carriers, warehouses and products
type CatalogService interface {
	CreateCarrier(ctx context.Context, cmd application.CreateCarrierCommand) (*application.CarrierDTO, error)
	GetCarrier(ctx context.Context, id uuid.UUID) (*application.CarrierDTO, error)
	ListCarriers(ctx context.Context, req api.PageRequest) (*api.Page[application.CarrierDTO], error)
	UpdateCarrier(ctx context.Context, cmd application.UpdateCarrierCommand) (*application.CarrierDTO, error)
	DeleteCarrier(ctx context.Context, id uuid.UUID, actor string) error

	CreateWarehouse(ctx context.Context, cmd application.CreateWarehouseCommand) (*application.WarehouseDTO, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*application.WarehouseDTO, error)
	ListWarehouses(ctx context.Context, req api.PageRequest) (*api.Page[application.WarehouseDTO], error)
	UpdateWarehouse(ctx context.Context, cmd application.UpdateWarehouseCommand) (*application.WarehouseDTO, error)
	DeleteWarehouse(ctx context.Context, id uuid.UUID, actor string) error

	CreateProduct(ctx context.Context, cmd application.CreateProductCommand) (*application.ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*application.ProductDTO, error)
}

var (
	_ ShipmentService        = (*application.ShipmentService)(nil)
	_ PackageService         = (*application.PackageService)(nil)
	_ ShipmentPackageService = (*application.ShipmentPackageService)(nil)
	_ CatalogService         = (*application.CatalogService)(nil)
)

// RegisterValidators registers the enum binding tags used by the request types
func RegisterValidators() {
	for tag, values := range application.EnumTags() {
		middleware.RegisterEnum(tag, values...)
	}
}

func pathID(c *gin.Context, param string) (uuid.UUID, *errors.AppError) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, errors.ErrValidation(param+" must be a valid UUID").WithDetail(param, c.Param(param))
	}
	return id, nil
}
