package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
)

// References are the validated parties of a create request
type References struct {
	Warehouse *domain.Warehouse
	Carrier   *domain.Carrier
	Customer  *domain.CustomerProfile
}

// Aggregation is the outcome of turning package specs into packages
type Aggregation struct {
	// Packages holds every package in request order
	Packages []*domain.Package
	// Created are packages built by this request and not yet persisted
	Created []*domain.Package
	Reused  []*domain.Package
}

// PackageAggregator resolves references and builds or reuses packages. It is
// shared by standalone package creation and shipment assembly.
type PackageAggregator struct {
	warehouses domain.WarehouseRepository
	carriers   domain.CarrierRepository
	packages   domain.PackageRepository
	customers  domain.CustomerGateway
	numbers    *domain.IdentifierGenerator
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

func NewPackageAggregator(
	warehouses domain.WarehouseRepository,
	carriers domain.CarrierRepository,
	packages domain.PackageRepository,
	customers domain.CustomerGateway,
	numbers *domain.IdentifierGenerator,
	logger *logging.Logger,
	m *metrics.Metrics,
) *PackageAggregator {
	return &PackageAggregator{
		warehouses: warehouses,
		carriers:   carriers,
		packages:   packages,
		customers:  customers,
		numbers:    numbers,
		logger:     logger,
		metrics:    m,
	}
}

// ResolveReferences loads warehouse, carrier and customer in that order and
// checks the customer has a default address. The first missing reference wins.
func (a *PackageAggregator) ResolveReferences(ctx context.Context, warehouseID, carrierID, customerID uuid.UUID) (*References, error) {
	warehouse, err := a.warehouses.FindByID(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouse: %w", err)
	}
	if warehouse == nil {
		return nil, domain.ErrWarehouseNotFound
	}

	carrier, err := a.carriers.FindByID(ctx, carrierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load carrier: %w", err)
	}
	if carrier == nil {
		return nil, domain.ErrCarrierNotFound
	}

	customer, err := a.customers.GetCustomerDetail(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}
	if customer == nil {
		return nil, domain.ErrCustomerNotFound
	}
	if customer.DefaultAddress() == nil {
		return nil, domain.ErrNoDefaultAddress
	}

	return &References{Warehouse: warehouse, Carrier: carrier, Customer: customer}, nil
}

// Build turns specs into packages. A spec whose ID names an existing package of
// the same customer reuses it unchanged; anything else becomes a new package
// under the given ID (or a fresh one) with warehouse and customer addresses
// attached. An ID held by another customer's package is a conflict. When
// requireLines is set a new package must carry at least one line item.
func (a *PackageAggregator) Build(ctx context.Context, refs *References, specs []PackageSpec, actor string, requireLines bool) (*Aggregation, error) {
	agg := &Aggregation{}
	seen := make(map[uuid.UUID]bool, len(specs))

	for _, spec := range specs {
		if spec.ID != nil && *spec.ID != uuid.Nil {
			if seen[*spec.ID] {
				continue
			}
			seen[*spec.ID] = true

			existing, err := a.packages.FindByIDAndCustomer(ctx, *spec.ID, refs.Customer.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load package %s: %w", spec.ID, err)
			}
			if existing != nil {
				agg.Packages = append(agg.Packages, existing)
				agg.Reused = append(agg.Reused, existing)
				a.metrics.RecordPackageReused()
				continue
			}

			taken, err := a.packages.FindByID(ctx, *spec.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load package %s: %w", spec.ID, err)
			}
			if taken != nil {
				return nil, domain.ErrPackageIDInUse
			}
		}

		pkg, err := a.newPackage(ctx, refs, spec, actor, requireLines)
		if err != nil {
			return nil, err
		}
		agg.Packages = append(agg.Packages, pkg)
		agg.Created = append(agg.Created, pkg)
	}

	return agg, nil
}

func (a *PackageAggregator) newPackage(ctx context.Context, refs *References, spec PackageSpec, actor string, requireLines bool) (*domain.Package, error) {
	if requireLines && len(spec.Products) == 0 && len(spec.PackageProducts) == 0 {
		return nil, domain.ErrNoLineItems
	}

	number, err := a.numbers.NextPackageNumber(ctx)
	if err != nil {
		return nil, err
	}

	params := domain.NewPackageParams{
		Number:      number,
		CustomerID:  refs.Customer.ID,
		CarrierID:   refs.Carrier.ID,
		WarehouseID: refs.Warehouse.ID,
		Note:        spec.Note,
		Status:      spec.Status,
		Dimensions: domain.Dimensions{
			Length: spec.Length,
			Width:  spec.Width,
			Height: spec.Height,
			Weight: spec.Weight,
		},
		CubitUnit:  spec.CubitUnit,
		WeightUnit: spec.WeightUnit,
		CreatedBy:  actor,
	}
	if spec.ID != nil {
		params.ID = *spec.ID
	}
	pkg, err := domain.NewPackage(params)
	if err != nil {
		return nil, err
	}

	receiver, err := refs.Customer.ReceiverAddress()
	if err != nil {
		return nil, err
	}
	pkg.AttachAddresses(refs.Warehouse.SenderAddress(), receiver)

	if len(spec.Products) > 0 {
		for _, p := range spec.Products {
			product, err := domain.NewProduct(toProductSpec(p), actor)
			if err != nil {
				return nil, err
			}
			pkg.AddCatalogProduct(product)
		}
	} else {
		for _, line := range spec.PackageProducts {
			if err := pkg.AddLine(toLineItem(line)); err != nil {
				return nil, err
			}
		}
	}

	if err := pkg.SettleAmount(spec.Amount); err != nil {
		return nil, err
	}
	return pkg, nil
}

// Renumber gives packages fresh numbers after a number clash on insert
func (a *PackageAggregator) Renumber(ctx context.Context, packages []*domain.Package) error {
	for _, pkg := range packages {
		number, err := a.numbers.NextPackageNumber(ctx)
		if err != nil {
			return err
		}
		pkg.PackageNumber = number
	}
	return nil
}
