package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/api"
	pkgerrors "github.com/wms-platform/shipment-service/pkg/errors"
	"github.com/wms-platform/shipment-service/pkg/logging"
)

// CatalogService manages carriers, warehouses and products
type CatalogService struct {
	carriers   domain.CarrierRepository
	warehouses domain.WarehouseRepository
	products   domain.ProductRepository
	logger     *logging.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	carriers domain.CarrierRepository,
	warehouses domain.WarehouseRepository,
	products domain.ProductRepository,
	logger *logging.Logger,
) *CatalogService {
	return &CatalogService{
		carriers:   carriers,
		warehouses: warehouses,
		products:   products,
		logger:     logger,
	}
}

// CreateCarrier registers a carrier; codes are unique
func (s *CatalogService) CreateCarrier(ctx context.Context, cmd CreateCarrierCommand) (*CarrierDTO, error) {
	code := strings.TrimSpace(cmd.Code)
	existing, err := s.carriers.FindByCode(ctx, code)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to look up carrier", err, "code", code)
	}
	if existing != nil {
		return nil, toAppError(domain.ErrDuplicateCarrier)
	}

	now := time.Now().UTC()
	carrier := &domain.Carrier{
		ID:               uuid.New(),
		Code:             code,
		Name:             cmd.Name,
		Type:             cmd.Type,
		ShippingMethod:   cmd.ShippingMethod,
		LastmileTracking: cmd.LastmileTracking,
		Logo:             cmd.Logo,
		Audit:            domain.Audit{CreatedAt: now, CreatedBy: cmd.CreatedBy, UpdatedAt: now},
	}
	if err := s.carriers.Create(ctx, carrier); err != nil {
		return nil, fail(ctx, s.logger, "Failed to create carrier", err, "code", code)
	}

	s.logger.WithContext(ctx).Info("Carrier created", "carrierId", carrier.ID, "code", carrier.Code)
	return ToCarrierDTO(carrier), nil
}

func (s *CatalogService) GetCarrier(ctx context.Context, id uuid.UUID) (*CarrierDTO, error) {
	carrier, err := s.loadCarrier(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCarrierDTO(carrier), nil
}

func (s *CatalogService) ListCarriers(ctx context.Context, req api.PageRequest) (*api.Page[CarrierDTO], error) {
	page := req.Normalize()
	carriers, total, err := s.carriers.List(ctx, toListQuery(page))
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to list carriers", err)
	}

	content := make([]CarrierDTO, len(carriers))
	for i, c := range carriers {
		content[i] = *ToCarrierDTO(c)
	}
	result := api.NewPage(content, page, total)
	return &result, nil
}

func (s *CatalogService) UpdateCarrier(ctx context.Context, cmd UpdateCarrierCommand) (*CarrierDTO, error) {
	carrier, err := s.loadCarrier(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		carrier.Name = *cmd.Name
	}
	if cmd.Type != nil {
		carrier.Type = *cmd.Type
	}
	if cmd.ShippingMethod != nil {
		carrier.ShippingMethod = *cmd.ShippingMethod
	}
	if cmd.LastmileTracking != nil {
		carrier.LastmileTracking = *cmd.LastmileTracking
	}
	if cmd.Logo != nil {
		carrier.Logo = *cmd.Logo
	}
	carrier.Touch(cmd.UpdatedBy, time.Now().UTC())

	if err := s.carriers.Update(ctx, carrier); err != nil {
		return nil, fail(ctx, s.logger, "Failed to update carrier", err, "carrierId", carrier.ID)
	}
	return ToCarrierDTO(carrier), nil
}

// DeleteCarrier soft-deletes a carrier
func (s *CatalogService) DeleteCarrier(ctx context.Context, id uuid.UUID, actor string) error {
	if _, err := s.loadCarrier(ctx, id); err != nil {
		return err
	}
	if err := s.carriers.Delete(ctx, id, actor); err != nil {
		return fail(ctx, s.logger, "Failed to delete carrier", err, "carrierId", id)
	}
	s.logger.WithContext(ctx).Info("Carrier deleted", "carrierId", id)
	return nil
}

func (s *CatalogService) loadCarrier(ctx context.Context, id uuid.UUID) (*domain.Carrier, error) {
	carrier, err := s.carriers.FindByID(ctx, id)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load carrier", err, "carrierId", id)
	}
	if carrier == nil {
		return nil, pkgerrors.ErrNotFound("Carrier")
	}
	return carrier, nil
}

// CreateWarehouse registers a warehouse; the (code, name) pair is unique
func (s *CatalogService) CreateWarehouse(ctx context.Context, cmd CreateWarehouseCommand) (*WarehouseDTO, error) {
	code, name := strings.TrimSpace(cmd.Code), strings.TrimSpace(cmd.Name)
	existing, err := s.warehouses.FindByCodeAndName(ctx, code, name)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to look up warehouse", err, "code", code)
	}
	if existing != nil {
		return nil, toAppError(domain.ErrDuplicateWarehouse)
	}

	now := time.Now().UTC()
	warehouse := &domain.Warehouse{
		ID:          uuid.New(),
		Name:        name,
		Code:        code,
		Logo:        cmd.Logo,
		PrefixPhone: cmd.PrefixPhone,
		PhoneNumber: cmd.PhoneNumber,
		Phone:       cmd.Phone,
		City:        cmd.City,
		District:    cmd.District,
		Ward:        cmd.Ward,
		PostCode:    cmd.PostCode,
		Address:     cmd.Address,
		Country:     cmd.Country,
		Latitude:    cmd.Latitude,
		Longitude:   cmd.Longitude,
		Audit:       domain.Audit{CreatedAt: now, CreatedBy: cmd.CreatedBy, UpdatedAt: now},
	}
	if err := s.warehouses.Create(ctx, warehouse); err != nil {
		return nil, fail(ctx, s.logger, "Failed to create warehouse", err, "code", code)
	}

	s.logger.WithContext(ctx).Info("Warehouse created", "warehouseId", warehouse.ID, "code", warehouse.Code)
	return ToWarehouseDTO(warehouse), nil
}

func (s *CatalogService) GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseDTO, error) {
	warehouse, err := s.loadWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToWarehouseDTO(warehouse), nil
}

func (s *CatalogService) ListWarehouses(ctx context.Context, req api.PageRequest) (*api.Page[WarehouseDTO], error) {
	page := req.Normalize()
	warehouses, total, err := s.warehouses.List(ctx, toListQuery(page))
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to list warehouses", err)
	}

	content := make([]WarehouseDTO, len(warehouses))
	for i, w := range warehouses {
		content[i] = *ToWarehouseDTO(w)
	}
	result := api.NewPage(content, page, total)
	return &result, nil
}

func (s *CatalogService) UpdateWarehouse(ctx context.Context, cmd UpdateWarehouseCommand) (*WarehouseDTO, error) {
	warehouse, err := s.loadWarehouse(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setString(&warehouse.Logo, cmd.Logo)
	setString(&warehouse.PrefixPhone, cmd.PrefixPhone)
	setString(&warehouse.PhoneNumber, cmd.PhoneNumber)
	setString(&warehouse.Phone, cmd.Phone)
	setString(&warehouse.City, cmd.City)
	setString(&warehouse.District, cmd.District)
	setString(&warehouse.Ward, cmd.Ward)
	setString(&warehouse.PostCode, cmd.PostCode)
	setString(&warehouse.Address, cmd.Address)
	setString(&warehouse.Country, cmd.Country)
	if cmd.Latitude != nil {
		warehouse.Latitude = cmd.Latitude
	}
	if cmd.Longitude != nil {
		warehouse.Longitude = cmd.Longitude
	}
	warehouse.Touch(cmd.UpdatedBy, time.Now().UTC())

	if err := s.warehouses.Update(ctx, warehouse); err != nil {
		return nil, fail(ctx, s.logger, "Failed to update warehouse", err, "warehouseId", warehouse.ID)
	}
	return ToWarehouseDTO(warehouse), nil
}

// DeleteWarehouse soft-deletes a warehouse
func (s *CatalogService) DeleteWarehouse(ctx context.Context, id uuid.UUID, actor string) error {
	if _, err := s.loadWarehouse(ctx, id); err != nil {
		return err
	}
	if err := s.warehouses.Delete(ctx, id, actor); err != nil {
		return fail(ctx, s.logger, "Failed to delete warehouse", err, "warehouseId", id)
	}
	s.logger.WithContext(ctx).Info("Warehouse deleted", "warehouseId", id)
	return nil
}

func (s *CatalogService) loadWarehouse(ctx context.Context, id uuid.UUID) (*domain.Warehouse, error) {
	warehouse, err := s.warehouses.FindByID(ctx, id)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load warehouse", err, "warehouseId", id)
	}
	if warehouse == nil {
		return nil, pkgerrors.ErrNotFound("Warehouse")
	}
	return warehouse, nil
}

// CreateProduct stores a product with its attributes and variants. Code and
// SKU must not be taken by another product.
func (s *CatalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*ProductDTO, error) {
	existing, err := s.products.FindByCodeOrSKU(ctx, cmd.Code, cmd.SKU)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to look up product", err, "code", cmd.Code)
	}
	if existing != nil {
		return nil, toAppError(domain.ErrDuplicateProduct)
	}

	product, err := domain.NewProduct(toProductSpec(cmd), cmd.CreatedBy)
	if err != nil {
		return nil, toAppError(err)
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fail(ctx, s.logger, "Failed to create product", err, "code", cmd.Code)
	}

	s.logger.WithContext(ctx).Info("Product created",
		"productId", product.ID,
		"code", product.Code,
		"variants", len(product.Variants),
	)
	return ToProductDTO(product), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load product", err, "productId", id)
	}
	if product == nil {
		return nil, toAppError(domain.ErrProductNotFound)
	}
	return ToProductDTO(product), nil
}
