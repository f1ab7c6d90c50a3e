package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/api"
	pkgerrors "github.com/wms-platform/shipment-service/pkg/errors"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
	"github.com/wms-platform/shipment-service/pkg/tracing"
)

var tracer = otel.Tracer("shipment-service/application")

// ShipmentService handles shipment assembly and lifecycle use cases
type ShipmentService struct {
	shipments  domain.ShipmentRepository
	packages   domain.PackageRepository
	links      domain.ShipmentPackageRepository
	carriers   domain.CarrierRepository
	warehouses domain.WarehouseRepository
	customers  domain.CustomerGateway
	aggregator *PackageAggregator
	numbers    *domain.IdentifierGenerator
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(
	shipments domain.ShipmentRepository,
	packages domain.PackageRepository,
	links domain.ShipmentPackageRepository,
	carriers domain.CarrierRepository,
	warehouses domain.WarehouseRepository,
	customers domain.CustomerGateway,
	aggregator *PackageAggregator,
	numbers *domain.IdentifierGenerator,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ShipmentService {
	return &ShipmentService{
		shipments:  shipments,
		packages:   packages,
		links:      links,
		carriers:   carriers,
		warehouses: warehouses,
		customers:  customers,
		aggregator: aggregator,
		numbers:    numbers,
		logger:     logger,
		metrics:    m,
	}
}

// CreateShipment assembles a shipment from new package specs and/or ids of
// existing unlinked packages. Weight, height and amount are the sums over all
// packages. New packages, the shipment, its addresses, its links and the
// creation event are written in one transaction.
func (s *ShipmentService) CreateShipment(ctx context.Context, cmd CreateShipmentCommand) (*CreatedShipmentDTO, error) {
	if len(cmd.Packages) == 0 && len(cmd.PackageIDs) == 0 {
		return nil, toAppError(domain.ErrNoPackages)
	}

	refs, err := s.aggregator.ResolveReferences(ctx, cmd.WarehouseID, cmd.CarrierID, cmd.CustomerID)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to resolve shipment references", err, "customerId", cmd.CustomerID)
	}

	agg := &Aggregation{}
	if len(cmd.Packages) > 0 {
		if agg, err = s.aggregator.Build(ctx, refs, cmd.Packages, cmd.CreatedBy, false); err != nil {
			return nil, fail(ctx, s.logger, "Failed to build packages", err, "customerId", cmd.CustomerID)
		}
	}

	existing, err := s.loadExisting(ctx, refs.Customer.ID, cmd.PackageIDs, agg.Packages)
	if err != nil {
		return nil, err
	}
	packages := append(agg.Packages, existing...)

	if err := s.ensureUnlinked(ctx, append(agg.Reused, existing...)); err != nil {
		return nil, err
	}

	shipment, err := tracing.Traced(ctx, tracer, "shipment.insert", func(ctx context.Context) (*domain.Shipment, error) {
		return s.insert(ctx, cmd, refs, packages, agg.Created)
	}, attribute.Int("shipment.packages", len(packages)), attribute.Int("shipment.new_packages", len(agg.Created)))
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to save shipment", err, "customerId", cmd.CustomerID)
	}

	s.metrics.RecordShipmentCreated(string(refs.Carrier.Type))
	if len(agg.Created) > 0 {
		s.metrics.RecordPackagesCreated("shipment", len(agg.Created))
	}

	s.logger.WithContext(ctx).Info("Shipment created",
		"shipmentId", shipment.ID,
		"shipmentNumber", shipment.ShipmentNumber,
		"customerId", shipment.CustomerID,
		"packages", len(packages),
		"newPackages", len(agg.Created),
	)
	s.logger.Audit(ctx, "create", "shipment", shipment.ID.String(), cmd.CreatedBy, map[string]any{
		"shipmentNumber": shipment.ShipmentNumber,
		"amount":         shipment.Amount.String(),
	})

	dto := &CreatedShipmentDTO{
		ID:             shipment.ID,
		ShipmentNumber: shipment.ShipmentNumber,
		Status:         string(shipment.Status),
		Weight:         shipment.Weight,
		Height:         shipment.Height,
		Amount:         shipment.Amount,
		PackageIDs:     make([]uuid.UUID, 0, len(packages)),
		PackageNumbers: make([]string, 0, len(packages)),
	}
	for _, p := range packages {
		dto.PackageIDs = append(dto.PackageIDs, p.ID)
		dto.PackageNumbers = append(dto.PackageNumbers, p.PackageNumber)
	}
	return dto, nil
}

// insert allocates a shipment number and writes the shipment. When the insert
// loses a race on a shipment or package number, all numbers are regenerated
// and the write is retried up to the generator's attempt limit.
func (s *ShipmentService) insert(ctx context.Context, cmd CreateShipmentCommand, refs *References, packages, created []*domain.Package) (*domain.Shipment, error) {
	shipmentID := uuid.New()
	for attempt := 1; ; attempt++ {
		number, err := s.numbers.NextShipmentNumber(ctx)
		if err != nil {
			return nil, err
		}

		shipment, err := domain.AssembleShipment(domain.AssembleParams{
			ID:          shipmentID,
			Number:      number,
			CustomerID:  refs.Customer.ID,
			CarrierID:   refs.Carrier.ID,
			WarehouseID: refs.Warehouse.ID,
			Note:        cmd.Note,
			CreatedBy:   cmd.CreatedBy,
			Packages:    packages,
			Now:         time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}

		err = s.shipments.Create(ctx, shipment, created)
		if err == nil {
			return shipment, nil
		}
		if !errors.Is(err, domain.ErrDuplicateNumber) {
			return nil, err
		}
		if attempt >= s.numbers.MaxAttempts() {
			return nil, fmt.Errorf("%w: %v", domain.ErrIdentifierExhausted, err)
		}

		s.metrics.RecordIdentifierCollision("insert")
		s.logger.WithContext(ctx).Warn("Number clash on insert, retrying",
			"shipmentNumber", number,
			"attempt", attempt,
		)
		if err := s.aggregator.Renumber(ctx, created); err != nil {
			return nil, err
		}
	}
}

// loadExisting resolves explicit package ids. Every id must exist and belong
// to the customer; ids already covered by a spec are skipped.
func (s *ShipmentService) loadExisting(ctx context.Context, customerID uuid.UUID, ids []uuid.UUID, have []*domain.Package) ([]*domain.Package, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	seen := make(map[uuid.UUID]bool, len(have)+len(ids))
	for _, p := range have {
		seen[p.ID] = true
	}
	wanted := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			wanted = append(wanted, id)
		}
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	found, err := s.packages.FindByIDs(ctx, wanted)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load packages", err)
	}
	byID := make(map[uuid.UUID]*domain.Package, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	out := make([]*domain.Package, 0, len(wanted))
	for _, id := range wanted {
		p, ok := byID[id]
		if !ok {
			return nil, pkgerrors.ErrValidation("Package not found").
				WithReason("PackageNotFound").
				WithDetail("packageId", id.String())
		}
		if p.CustomerID != customerID {
			return nil, toAppError(domain.ErrPackageOtherCustomer).WithDetail("packageId", id.String())
		}
		out = append(out, p)
	}
	return out, nil
}

// ensureUnlinked rejects packages that already belong to a shipment
func (s *ShipmentService) ensureUnlinked(ctx context.Context, packages []*domain.Package) error {
	if len(packages) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(packages))
	for i, p := range packages {
		ids[i] = p.ID
	}

	links, err := s.links.FindByPackageIDs(ctx, ids)
	if err != nil {
		return fail(ctx, s.logger, "Failed to check package links", err)
	}
	if len(links) > 0 {
		return toAppError(domain.ErrPackageAlreadyLinked).WithDetail("packageId", links[0].PackageID.String())
	}
	return nil
}

// CreateShipments creates each shipment independently and reports per-item
// outcomes; one failing item does not roll back the others.
func (s *ShipmentService) CreateShipments(ctx context.Context, cmd CreateShipmentsCommand) (*BatchResultDTO, error) {
	result := &BatchResultDTO{Results: make([]BatchItemResult, 0, len(cmd.Shipments))}

	for i, item := range cmd.Shipments {
		item.CreatedBy = cmd.CreatedBy
		created, err := s.CreateShipment(ctx, item)
		if err != nil {
			result.Failed++
			message := err.Error()
			if appErr, ok := pkgerrors.AsAppError(err); ok {
				message = appErr.Message
			}
			result.Results = append(result.Results, BatchItemResult{Index: i, Status: false, Message: message})
			continue
		}

		result.Succeeded++
		id := created.ID
		result.Results = append(result.Results, BatchItemResult{
			Index:          i,
			Status:         true,
			Message:        "Created",
			ID:             &id,
			ShipmentNumber: created.ShipmentNumber,
		})
	}

	s.logger.WithContext(ctx).Info("Shipment batch processed",
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

// GetShipment returns a shipment with its packages, addresses and references.
// Customer details are best effort.
func (s *ShipmentService) GetShipment(ctx context.Context, id uuid.UUID) (*ShipmentDetailDTO, error) {
	shipment, err := s.shipments.FindDetail(ctx, id)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load shipment", err, "shipmentId", id)
	}
	if shipment == nil {
		return nil, toAppError(domain.ErrShipmentNotFound)
	}

	dto := ToShipmentDetailDTO(shipment)

	carrier, err := s.carriers.FindByID(ctx, shipment.CarrierID)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load carrier", err, "carrierId", shipment.CarrierID)
	}
	if carrier != nil {
		dto.Carrier = ToCarrierDTO(carrier)
		dto.CarrierCode = carrier.Code
	}

	warehouse, err := s.warehouses.FindByID(ctx, shipment.WarehouseID)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load warehouse", err, "warehouseId", shipment.WarehouseID)
	}
	if warehouse != nil {
		dto.Warehouse = ToWarehouseDTO(warehouse)
		dto.WarehouseName = warehouse.Name
	}

	customer, err := s.customers.GetCustomerDetail(ctx, shipment.CustomerID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Customer lookup failed, returning shipment without customer",
			"shipmentId", id,
			"customerId", shipment.CustomerID,
		)
	} else if customer != nil {
		dto.Customer = ToCustomerDTO(customer)
		dto.CustomerName = customer.FullName
	}

	return dto, nil
}

// ListShipments returns one page of shipments enriched with carrier code,
// warehouse name and, when the customer service answers, customer name
func (s *ShipmentService) ListShipments(ctx context.Context, query ListShipmentsQuery) (*api.Page[ShipmentDTO], error) {
	page := query.PageRequest.Normalize()

	filter := domain.ShipmentFilter{Keyword: query.Keyword}
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

	shipments, total, err := s.shipments.List(ctx, filter, toListQuery(page))
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to list shipments", err)
	}

	content := make([]ShipmentDTO, len(shipments))
	for i, sh := range shipments {
		content[i] = ToShipmentDTO(sh)
	}
	if err := s.enrich(ctx, shipments, content); err != nil {
		return nil, fail(ctx, s.logger, "Failed to enrich shipments", err)
	}

	result := api.NewPage(content, page, total)
	return &result, nil
}

func (s *ShipmentService) enrich(ctx context.Context, shipments []*domain.Shipment, content []ShipmentDTO) error {
	if len(shipments) == 0 {
		return nil
	}

	carrierIDs, warehouseIDs, customerIDs := distinctRefs(shipments)

	carriers, err := s.carriers.FindByIDs(ctx, carrierIDs)
	if err != nil {
		return err
	}
	carrierCodes := make(map[uuid.UUID]string, len(carriers))
	for _, c := range carriers {
		carrierCodes[c.ID] = c.Code
	}

	warehouses, err := s.warehouses.FindByIDs(ctx, warehouseIDs)
	if err != nil {
		return err
	}
	warehouseNames := make(map[uuid.UUID]string, len(warehouses))
	for _, w := range warehouses {
		warehouseNames[w.ID] = w.Name
	}

	customers, err := s.customers.GetCustomersByIds(ctx, customerIDs)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Customer lookup failed, listing without customer names",
			"customers", len(customerIDs),
		)
		customers = nil
	}

	for i := range content {
		content[i].CarrierCode = carrierCodes[content[i].CarrierID]
		content[i].WarehouseName = warehouseNames[content[i].WarehouseID]
		if c, ok := customers[content[i].CustomerID]; ok && c != nil {
			content[i].CustomerName = c.FullName
		}
	}
	return nil
}

func distinctRefs(shipments []*domain.Shipment) (carriers, warehouses, customers []uuid.UUID) {
	seen := map[uuid.UUID]bool{}
	add := func(list []uuid.UUID, id uuid.UUID) []uuid.UUID {
		if seen[id] {
			return list
		}
		seen[id] = true
		return append(list, id)
	}
	for _, sh := range shipments {
		carriers = add(carriers, sh.CarrierID)
		warehouses = add(warehouses, sh.WarehouseID)
		customers = add(customers, sh.CustomerID)
	}
	return carriers, warehouses, customers
}

// UpdateShipment applies a partial update. Delivered shipments are locked.
func (s *ShipmentService) UpdateShipment(ctx context.Context, cmd UpdateShipmentCommand) (*ShipmentDTO, error) {
	shipment, err := s.load(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	changes := domain.ShipmentChanges{
		Note:   cmd.Note,
		Weight: cmd.Weight,
		Height: cmd.Height,
		Amount: cmd.Amount,
	}
	if err := shipment.Apply(changes, cmd.UpdatedBy, time.Now().UTC()); err != nil {
		return nil, toAppError(err)
	}

	if err := s.shipments.Save(ctx, shipment); err != nil {
		return nil, fail(ctx, s.logger, "Failed to update shipment", err, "shipmentId", shipment.ID)
	}

	s.logger.WithContext(ctx).Info("Shipment updated", "shipmentId", shipment.ID)
	dto := ToShipmentDTO(shipment)
	return &dto, nil
}

// UpdateShipmentStatus sets any status value on a shipment that is not
// delivered and emits a status-changed event through the outbox
func (s *ShipmentService) UpdateShipmentStatus(ctx context.Context, cmd UpdateShipmentStatusCommand) (*ShipmentDTO, error) {
	if !cmd.Status.IsValid() {
		return nil, pkgerrors.ErrValidation(fmt.Sprintf("invalid shipment status: %s", cmd.Status))
	}

	shipment, err := s.load(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	previous := shipment.Status
	if err := shipment.ChangeStatus(cmd.Status, cmd.UpdatedBy, time.Now().UTC()); err != nil {
		return nil, toAppError(err)
	}

	if err := s.shipments.Save(ctx, shipment); err != nil {
		return nil, fail(ctx, s.logger, "Failed to update shipment status", err, "shipmentId", shipment.ID)
	}

	s.logger.WithContext(ctx).Info("Shipment status changed",
		"shipmentId", shipment.ID,
		"from", previous,
		"to", shipment.Status,
	)
	dto := ToShipmentDTO(shipment)
	return &dto, nil
}

// DeleteShipment removes a shipment with its addresses and links. The linked
// packages themselves are kept.
func (s *ShipmentService) DeleteShipment(ctx context.Context, id uuid.UUID) error {
	shipment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := shipment.EnsureEditable(); err != nil {
		return toAppError(err)
	}

	if err := s.shipments.Delete(ctx, id); err != nil {
		return fail(ctx, s.logger, "Failed to delete shipment", err, "shipmentId", id)
	}

	s.logger.WithContext(ctx).Info("Shipment deleted", "shipmentId", id, "shipmentNumber", shipment.ShipmentNumber)
	return nil
}

func (s *ShipmentService) load(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, fail(ctx, s.logger, "Failed to load shipment", err, "shipmentId", id)
	}
	if shipment == nil {
		return nil, toAppError(domain.ErrShipmentNotFound)
	}
	return shipment, nil
}
