package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/cloudevents"
)

// ShipmentRepository implements domain.ShipmentRepository using gorm
type ShipmentRepository struct {
	db     *gorm.DB
	events *eventWriter
}

// NewShipmentRepository creates a new ShipmentRepository
func NewShipmentRepository(db *gorm.DB, eventFactory *cloudevents.EventFactory) *ShipmentRepository {
	return &ShipmentRepository{db: db, events: newEventWriter(db, eventFactory)}
}

// WithContract makes the repository reject events that break the published contract
func (r *ShipmentRepository) WithContract(contract EventContract) *ShipmentRepository {
	r.events.contract = contract
	return r
}

// Create persists the new packages, the shipment with its addresses and links,
// and the pending domain events in a single transaction
func (r *ShipmentRepository) Create(ctx context.Context, shipment *domain.Shipment, newPackages []*domain.Package) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertPackages(tx, newPackages); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(shipment).Error; err != nil {
			return err
		}
		if len(shipment.Addresses) > 0 {
			if err := tx.Create(&shipment.Addresses).Error; err != nil {
				return err
			}
		}
		if len(shipment.Packages) > 0 {
			if err := tx.Omit(clause.Associations).Create(&shipment.Packages).Error; err != nil {
				return err
			}
		}

		return r.events.write(ctx, tx, shipment.ID.String(), shipment.GetDomainEvents())
	})
	if err != nil {
		return translate("create shipment", err)
	}

	shipment.ClearDomainEvents()
	return nil
}

// FindByID loads a shipment with its links
func (r *ShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	var shipment domain.Shipment
	err := r.db.WithContext(ctx).
		Preload("Packages").
		First(&shipment, "id = ?", id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("find shipment", err)
	}
	return &shipment, nil
}

// FindDetail loads a shipment with addresses and linked packages
func (r *ShipmentRepository) FindDetail(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	var shipment domain.Shipment
	err := r.db.WithContext(ctx).
		Preload("Addresses", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Packages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Packages.Package").
		Preload("Packages.Package.Addresses").
		Preload("Packages.Package.Products").
		First(&shipment, "id = ?", id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("find shipment detail", err)
	}
	return &shipment, nil
}

// List returns one page of shipments and the total matching count
func (r *ShipmentRepository) List(ctx context.Context, filter domain.ShipmentFilter, q domain.ListQuery) ([]*domain.Shipment, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Shipment{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.CarrierID != nil {
		query = query.Where("carrier_id = ?", *filter.CarrierID)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Keyword != "" {
		query = query.Where("shipment_number ILIKE ?", "%"+filter.Keyword+"%")
	}

	// safe to reuse for the count and the page query
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count shipments", err)
	}

	var shipments []*domain.Shipment
	err := query.
		Preload("Packages").
		Order(creationOrder(q)).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&shipments).Error
	if err != nil {
		return nil, 0, translate("list shipments", err)
	}
	return shipments, total, nil
}

// Save updates the mutable columns and stores pending domain events in the
// outbox within the same transaction
func (r *ShipmentRepository) Save(ctx context.Context, shipment *domain.Shipment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(shipment).
			Select("note", "status", "weight", "height", "amount", "updated_at", "updated_by").
			Updates(shipment)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrShipmentNotFound
		}
		return r.events.write(ctx, tx, shipment.ID.String(), shipment.GetDomainEvents())
	})
	if err != nil {
		return translate("save shipment", err)
	}

	shipment.ClearDomainEvents()
	return nil
}

// Delete removes the shipment row; addresses and links cascade
func (r *ShipmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Unscoped().
		Delete(&domain.Shipment{}, "id = ?", id).Error
	return translate("delete shipment", err)
}

func (r *ShipmentRepository) FindAddress(ctx context.Context, addressID uuid.UUID) (*domain.ShipmentAddress, error) {
	var address domain.ShipmentAddress
	err := r.db.WithContext(ctx).First(&address, "id = ?", addressID).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("find shipment address", err)
	}
	return &address, nil
}

// refreshShipmentTotals recomputes weight, height and amount of a shipment
// from the packages currently linked to it
func refreshShipmentTotals(tx *gorm.DB, shipmentID uuid.UUID) error {
	var packages []*domain.Package
	err := tx.
		Joins("JOIN shipment_packages ON shipment_packages.package_id = packages.id").
		Where("shipment_packages.shipment_id = ?", shipmentID).
		Find(&packages).Error
	if err != nil {
		return fmt.Errorf("failed to load linked packages: %w", err)
	}

	weight, height, amount := domain.SumMetrics(packages)
	return tx.Model(&domain.Shipment{}).
		Where("id = ?", shipmentID).
		Updates(map[string]interface{}{
			"weight":     weight,
			"height":     height,
			"amount":     amount,
			"updated_at": time.Now().UTC(),
		}).Error
}

func creationOrder(q domain.ListQuery) string {
	if q.Descending {
		return "created_at DESC, id DESC"
	}
	return "created_at ASC, id ASC"
}
