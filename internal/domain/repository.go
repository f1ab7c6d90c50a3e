package domain

import (
	"context"

	"github.com/google/uuid"
)

// ListQuery is a storage-level page window ordered by creation time
type ListQuery struct {
	Offset     int
	Limit      int
	Descending bool
}

type ShipmentFilter struct {
	CustomerID  *uuid.UUID
	CarrierID   *uuid.UUID
	WarehouseID *uuid.UUID
	Status      *ShipmentStatus
	Keyword     string // matched against the shipment number
}

type PackageFilter struct {
	CustomerID  *uuid.UUID
	CarrierID   *uuid.UUID
	WarehouseID *uuid.UUID
	Status      *PackageStatus
	Keyword     string // matched against the package number
}

// Lookups return (nil, nil) when the record does not exist.

// ShipmentRepository persists shipments together with their addresses, links
// and pending domain events.
type ShipmentRepository interface {
	// Create inserts newPackages, then the shipment graph and its outbox events,
	// in one transaction. A number clash surfaces as ErrDuplicateNumber and a
	// package already linked elsewhere as ErrPackageAlreadyLinked.
	Create(ctx context.Context, shipment *Shipment, newPackages []*Package) error
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)
	// FindDetail also loads linked packages with their addresses and products
	FindDetail(ctx context.Context, id uuid.UUID) (*Shipment, error)
	List(ctx context.Context, filter ShipmentFilter, q ListQuery) ([]*Shipment, int64, error)
	// Save updates scalar fields and writes pending domain events to the outbox
	Save(ctx context.Context, shipment *Shipment) error
	// Delete hard-deletes the shipment; addresses and links cascade
	Delete(ctx context.Context, id uuid.UUID) error
	FindAddress(ctx context.Context, addressID uuid.UUID) (*ShipmentAddress, error)
}

// PackageRepository persists packages with their addresses and line items
type PackageRepository interface {
	// CreateAll inserts packages and their new catalog products in one transaction
	CreateAll(ctx context.Context, packages []*Package) error
	FindByID(ctx context.Context, id uuid.UUID) (*Package, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Package, error)
	FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*Package, error)
	List(ctx context.Context, filter PackageFilter, q ListQuery) ([]*Package, int64, error)
	// Update saves scalar fields and refreshes the weight and height of the
	// shipment the package is linked to, in one transaction
	Update(ctx context.Context, pkg *Package) error
	// AddProduct inserts line, saves the package amount and refreshes the
	// linked shipment's totals in one transaction
	AddProduct(ctx context.Context, pkg *Package, line *PackageProduct) error
	// Delete hard-deletes the package; addresses, products and its link cascade
	Delete(ctx context.Context, id uuid.UUID) error
}

// ShipmentPackageRepository manages package-to-shipment links. Attach and
// Detach refresh the owning shipment's totals in the same transaction.
type ShipmentPackageRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ShipmentPackage, error)
	FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) ([]*ShipmentPackage, error)
	FindByPackageIDs(ctx context.Context, packageIDs []uuid.UUID) ([]*ShipmentPackage, error)
	Attach(ctx context.Context, shipmentID uuid.UUID, links []ShipmentPackage) error
	Detach(ctx context.Context, id uuid.UUID) error
}

type CarrierRepository interface {
	Create(ctx context.Context, carrier *Carrier) error
	FindByID(ctx context.Context, id uuid.UUID) (*Carrier, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Carrier, error)
	FindByCode(ctx context.Context, code string) (*Carrier, error)
	List(ctx context.Context, q ListQuery) ([]*Carrier, int64, error)
	Update(ctx context.Context, carrier *Carrier) error
	Delete(ctx context.Context, id uuid.UUID, actor string) error
}

type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *Warehouse) error
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Warehouse, error)
	FindByCodeAndName(ctx context.Context, code, name string) (*Warehouse, error)
	List(ctx context.Context, q ListQuery) ([]*Warehouse, int64, error)
	Update(ctx context.Context, warehouse *Warehouse) error
	Delete(ctx context.Context, id uuid.UUID, actor string) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByCodeOrSKU(ctx context.Context, code, sku string) (*Product, error)
}
