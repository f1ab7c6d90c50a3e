package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/wms-platform/shipment-service/internal/domain"
	pkgerrors "github.com/wms-platform/shipment-service/pkg/errors"
	"github.com/wms-platform/shipment-service/pkg/logging"
)

// ShipmentPackageService manages which packages a shipment carries
type ShipmentPackageService struct {
	links     domain.ShipmentPackageRepository
	shipments domain.ShipmentRepository
	packages  domain.PackageRepository
	logger    *logging.Logger
}

// NewShipmentPackageService creates a new ShipmentPackageService
func NewShipmentPackageService(
	links domain.ShipmentPackageRepository,
	shipments domain.ShipmentRepository,
	packages domain.PackageRepository,
	logger *logging.Logger,
) *ShipmentPackageService {
	return &ShipmentPackageService{
		links:     links,
		shipments: shipments,
		packages:  packages,
		logger:    logger,
	}
}

// CreateShipmentPackages links existing packages of the shipment's customer to
// the shipment; the shipment totals are refreshed with the links
func (s *ShipmentPackageService) CreateShipmentPackages(ctx context.Context, cmd CreateShipmentPackagesCommand) ([]ShipmentPackageDTO, error) {
	shipment, err := s.loadShipment(ctx, cmd.ShipmentID)
	if err != nil {
		return nil, err
	}
	if err := shipment.EnsureEditable(); err != nil {
		return nil, toAppError(err)
	}

	ids := dedupe(cmd.PackageIDs)
	found, err := s.packages.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load packages", err, "shipmentId", shipment.ID)
	}
	byID := make(map[uuid.UUID]*domain.Package, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	links := make([]domain.ShipmentPackage, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, pkgerrors.ErrValidation("Package not found").
				WithReason("PackageNotFound").
				WithDetail("packageId", id.String())
		}
		if p.CustomerID != shipment.CustomerID {
			return nil, toAppError(domain.ErrPackageOtherCustomer).WithDetail("packageId", id.String())
		}
		links = append(links, domain.NewShipmentPackage(shipment.ID, id, cmd.CreatedBy))
	}

	linked, err := s.links.FindByPackageIDs(ctx, ids)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to check package links", err, "shipmentId", shipment.ID)
	}
	if len(linked) > 0 {
		return nil, toAppError(domain.ErrPackageAlreadyLinked).WithDetail("packageId", linked[0].PackageID.String())
	}

	if err := s.links.Attach(ctx, shipment.ID, links); err != nil {
		return nil, fail(ctx, s.logger, "Failed to link packages", err, "shipmentId", shipment.ID)
	}

	dtos := make([]ShipmentPackageDTO, len(links))
	for i := range links {
		links[i].Package = byID[links[i].PackageID]
		dtos[i] = *ToShipmentPackageDTO(&links[i])
	}

	s.logger.WithContext(ctx).Info("Packages linked to shipment",
		"shipmentId", shipment.ID,
		"count", len(links),
	)
	return dtos, nil
}

// GetShipmentPackage retrieves a link by ID with its package
func (s *ShipmentPackageService) GetShipmentPackage(ctx context.Context, id uuid.UUID) (*ShipmentPackageDTO, error) {
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load shipment package", err, "shipmentPackageId", id)
	}
	if link == nil {
		return nil, toAppError(domain.ErrShipmentPackageNotFound)
	}
	return ToShipmentPackageDTO(link), nil
}

// ListShipmentPackages returns the links of one shipment
func (s *ShipmentPackageService) ListShipmentPackages(ctx context.Context, shipmentID uuid.UUID) ([]ShipmentPackageDTO, error) {
	if _, err := s.loadShipment(ctx, shipmentID); err != nil {
		return nil, err
	}

	links, err := s.links.FindByShipmentID(ctx, shipmentID)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to list shipment packages", err, "shipmentId", shipmentID)
	}

	dtos := make([]ShipmentPackageDTO, len(links))
	for i, l := range links {
		dtos[i] = *ToShipmentPackageDTO(l)
	}
	return dtos, nil
}

// DeleteShipmentPackage unlinks a package; the package itself is kept
func (s *ShipmentPackageService) DeleteShipmentPackage(ctx context.Context, id uuid.UUID) error {
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		return fail(ctx, s.logger, "Failed to load shipment package", err, "shipmentPackageId", id)
	}
	if link == nil {
		return toAppError(domain.ErrShipmentPackageNotFound)
	}

	shipment, err := s.loadShipment(ctx, link.ShipmentID)
	if err != nil {
		return err
	}
	if err := shipment.EnsureEditable(); err != nil {
		return toAppError(err)
	}

	if err := s.links.Detach(ctx, id); err != nil {
		return fail(ctx, s.logger, "Failed to unlink package", err, "shipmentPackageId", id)
	}

	s.logger.WithContext(ctx).Info("Package unlinked from shipment",
		"shipmentId", link.ShipmentID,
		"packageId", link.PackageID,
	)
	return nil
}

func (s *ShipmentPackageService) loadShipment(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load shipment", err, "shipmentId", id)
	}
	if shipment == nil {
		return nil, toAppError(domain.ErrShipmentNotFound)
	}
	return shipment, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
