package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/api"
	pkgerrors "github.com/wms-platform/shipment-service/pkg/errors"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
	"github.com/wms-platform/shipment-service/pkg/tracing"
)

// PackageService handles standalone package use cases
type PackageService struct {
	packages   domain.PackageRepository
	shipments  domain.ShipmentRepository
	aggregator *PackageAggregator
	numbers    *domain.IdentifierGenerator
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// NewPackageService creates a new PackageService
func NewPackageService(
	packages domain.PackageRepository,
	shipments domain.ShipmentRepository,
	aggregator *PackageAggregator,
	numbers *domain.IdentifierGenerator,
	logger *logging.Logger,
	m *metrics.Metrics,
) *PackageService {
	return &PackageService{
		packages:   packages,
		shipments:  shipments,
		aggregator: aggregator,
		numbers:    numbers,
		logger:     logger,
		metrics:    m,
	}
}

// CreatePackage creates one package for a customer
func (s *PackageService) CreatePackage(ctx context.Context, cmd CreatePackageCommand) (*PackageDTO, error) {
	dtos, err := s.CreatePackages(ctx, CreatePackagesCommand{
		CustomerID:  cmd.CustomerID,
		WarehouseID: cmd.WarehouseID,
		CarrierID:   cmd.CarrierID,
		Packages:    []PackageSpec{cmd.PackageSpec},
		CreatedBy:   cmd.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

// CreatePackages creates several packages for one customer in a single
// transaction. Specs naming an existing package of the customer reuse it.
func (s *PackageService) CreatePackages(ctx context.Context, cmd CreatePackagesCommand) ([]PackageDTO, error) {
	refs, err := s.aggregator.ResolveReferences(ctx, cmd.WarehouseID, cmd.CarrierID, cmd.CustomerID)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to resolve package references", err, "customerId", cmd.CustomerID)
	}

	agg, err := s.aggregator.Build(ctx, refs, cmd.Packages, cmd.CreatedBy, true)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to build packages", err, "customerId", cmd.CustomerID)
	}

	if len(agg.Created) > 0 {
		if err := s.persist(ctx, agg.Created); err != nil {
			return nil, fail(ctx, s.logger, "Failed to save packages", err, "customerId", cmd.CustomerID)
		}
		s.metrics.RecordPackagesCreated("package", len(agg.Created))
	}

	dtos := make([]PackageDTO, len(agg.Packages))
	for i, p := range agg.Packages {
		dtos[i] = *ToPackageDTO(p)
	}

	s.logger.WithContext(ctx).Info("Packages created",
		"customerId", cmd.CustomerID,
		"created", len(agg.Created),
		"reused", len(agg.Reused),
	)
	return dtos, nil
}

// persist inserts packages, renumbering them when a concurrent writer took one
// of their numbers first
func (s *PackageService) persist(ctx context.Context, created []*domain.Package) error {
	for attempt := 1; ; attempt++ {
		err := s.packages.CreateAll(ctx, created)
		if err == nil || !errors.Is(err, domain.ErrDuplicateNumber) {
			return err
		}
		if attempt >= s.numbers.MaxAttempts() {
			return fmt.Errorf("%w: %v", domain.ErrIdentifierExhausted, err)
		}
		s.metrics.RecordIdentifierCollision("package")
		if err := s.aggregator.Renumber(ctx, created); err != nil {
			return err
		}
	}
}

// GetPackage retrieves a package by ID
func (s *PackageService) GetPackage(ctx context.Context, id uuid.UUID) (*PackageDTO, error) {
	pkg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToPackageDTO(pkg), nil
}

// ListPackages returns one page of packages, oldest first unless sort=desc
func (s *PackageService) ListPackages(ctx context.Context, query ListPackagesQuery) (*api.Page[PackageDTO], error) {
	page := query.PageRequest.Normalize()

	filter := domain.PackageFilter{Keyword: query.Keyword}
	var err error
	if filter.CustomerID, err = parseOptionalID("customerId", query.CustomerID); err != nil {
		return nil, err
	}
	if filter.CarrierID, err = parseOptionalID("carrierId", query.CarrierID); err != nil {
		return nil, err
	}
	if filter.WarehouseID, err = parseOptionalID("warehouseId", query.WarehouseID); err != nil {
		return nil, err
	}
	if query.Status != "" {
		status := query.Status
		filter.Status = &status
	}

	packages, total, err := s.packages.List(ctx, filter, toListQuery(page))
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to list packages", err)
	}

	content := make([]PackageDTO, len(packages))
	for i, p := range packages {
		content[i] = *ToPackageDTO(p)
	}
	result := api.NewPage(content, page, total)
	return &result, nil
}

// UpdatePackage applies a partial update. Delivered packages are locked.
func (s *PackageService) UpdatePackage(ctx context.Context, cmd UpdatePackageCommand) (*PackageDTO, error) {
	pkg, err := s.load(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if err := pkg.EnsureEditable(); err != nil {
		return nil, toAppError(err)
	}

	if cmd.ShipmentAddressID != nil {
		addr, err := s.shipments.FindAddress(ctx, *cmd.ShipmentAddressID)
		if err != nil {
			return nil, fail(ctx, s.logger, "Failed to load shipment address", err, "addressId", cmd.ShipmentAddressID)
		}
		if addr == nil {
			return nil, toAppError(domain.ErrShipmentAddressNotFound)
		}
	}

	changes := domain.PackageChanges{
		Status: cmd.Status,
		Note:   cmd.Note,
		Length: cmd.Length,
		Width:  cmd.Width,
		Height: cmd.Height,
		Weight: cmd.Weight,
	}
	if err := pkg.Apply(changes, cmd.UpdatedBy, time.Now().UTC()); err != nil {
		return nil, toAppError(err)
	}

	if err := s.packages.Update(ctx, pkg); err != nil {
		return nil, fail(ctx, s.logger, "Failed to update package", err, "packageId", pkg.ID)
	}

	s.logger.WithContext(ctx).Info("Package updated", "packageId", pkg.ID, "status", pkg.Status)
	return ToPackageDTO(pkg), nil
}

// UpdatePackageStatus sets any status value on a package that is not delivered
func (s *PackageService) UpdatePackageStatus(ctx context.Context, cmd UpdatePackageStatusCommand) (*PackageDTO, error) {
	if !cmd.Status.IsValid() {
		return nil, pkgerrors.ErrValidation(fmt.Sprintf("invalid package status: %s", cmd.Status))
	}

	pkg, err := s.load(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	previous := pkg.Status
	if err := pkg.ChangeStatus(cmd.Status, cmd.UpdatedBy, time.Now().UTC()); err != nil {
		return nil, toAppError(err)
	}

	if err := s.packages.Update(ctx, pkg); err != nil {
		return nil, fail(ctx, s.logger, "Failed to update package status", err, "packageId", pkg.ID)
	}

	s.logger.WithContext(ctx).Info("Package status changed",
		"packageId", pkg.ID,
		"from", previous,
		"to", pkg.Status,
	)
	return ToPackageDTO(pkg), nil
}

// AddPackageProduct appends a line item with Total = OriginPrice * Quantity to
// a package that is not delivered. The package amount and its shipment's
// totals are updated with the line.
func (s *PackageService) AddPackageProduct(ctx context.Context, cmd CreatePackageProductCommand) (*PackageDTO, error) {
	pkg, err := s.load(ctx, cmd.PackageID)
	if err != nil {
		return nil, err
	}

	line, err := pkg.AppendLine(toLineItem(cmd.LineItemInput), cmd.CreatedBy, time.Now().UTC())
	if err != nil {
		return nil, toAppError(err)
	}

	_, err = tracing.Traced(ctx, tracer, "package.add_product", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.packages.AddProduct(ctx, pkg, line)
	}, attribute.String("package.id", pkg.ID.String()))
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to add package product", err, "packageId", pkg.ID)
	}

	s.logger.WithContext(ctx).Info("Package product added",
		"packageId", pkg.ID,
		"lineId", line.ID,
		"total", line.Total.String(),
	)
	return ToPackageDTO(pkg), nil
}

// DeletePackage removes a package with its addresses, lines and link
func (s *PackageService) DeletePackage(ctx context.Context, id uuid.UUID) error {
	pkg, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := pkg.EnsureEditable(); err != nil {
		return toAppError(err)
	}

	if err := s.packages.Delete(ctx, id); err != nil {
		return fail(ctx, s.logger, "Failed to delete package", err, "packageId", id)
	}

	s.logger.WithContext(ctx).Info("Package deleted", "packageId", id)
	return nil
}

func (s *PackageService) load(ctx context.Context, id uuid.UUID) (*domain.Package, error) {
	pkg, err := s.packages.FindByID(ctx, id)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load package", err, "packageId", id)
	}
	if pkg == nil {
		return nil, toAppError(domain.ErrPackageNotFound)
	}
	return pkg, nil
}

func toListQuery(page api.PageRequest) domain.ListQuery {
	return domain.ListQuery{
		Offset:     page.Offset(),
		Limit:      page.Size,
		Descending: page.Descending(),
	}
}

func parseOptionalID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.ErrValidationWithFields("Invalid filter", map[string]string{field: "must be a valid UUID"})
	}
	return &id, nil
}
