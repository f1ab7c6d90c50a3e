package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wms-platform/shipment-service/internal/domain"
)

// ShipmentPackageRepository implements domain.ShipmentPackageRepository using gorm
type ShipmentPackageRepository struct {
	db *gorm.DB
}

// NewShipmentPackageRepository creates a new ShipmentPackageRepository
func NewShipmentPackageRepository(db *gorm.DB) *ShipmentPackageRepository {
	return &ShipmentPackageRepository{db: db}
}

func (r *ShipmentPackageRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ShipmentPackage, error) {
	var link domain.ShipmentPackage
	err := r.db.WithContext(ctx).
		Preload("Package").
		Preload("Package.Addresses").
		Preload("Package.Products").
		First(&link, "id = ?", id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("find shipment package", err)
	}
	return &link, nil
}

func (r *ShipmentPackageRepository) FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) ([]*domain.ShipmentPackage, error) {
	var links []*domain.ShipmentPackage
	err := r.db.WithContext(ctx).
		Preload("Package").
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, translate("list shipment packages", err)
	}
	return links, nil
}

// FindByPackageIDs returns the existing links of any of the given packages
func (r *ShipmentPackageRepository) FindByPackageIDs(ctx context.Context, packageIDs []uuid.UUID) ([]*domain.ShipmentPackage, error) {
	if len(packageIDs) == 0 {
		return nil, nil
	}
	var links []*domain.ShipmentPackage
	if err := r.db.WithContext(ctx).Where("package_id IN ?", packageIDs).Find(&links).Error; err != nil {
		return nil, translate("find package links", err)
	}
	return links, nil
}

// Attach inserts links and refreshes the shipment totals. A package linked
// concurrently elsewhere fails with ErrPackageAlreadyLinked.
func (r *ShipmentPackageRepository) Attach(ctx context.Context, shipmentID uuid.UUID, links []domain.ShipmentPackage) error {
	if len(links) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
			return err
		}
		return refreshShipmentTotals(tx, shipmentID)
	})
	return translate("attach packages", err)
}

// Detach deletes a link and refreshes the totals of its shipment
func (r *ShipmentPackageRepository) Detach(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link domain.ShipmentPackage
		if err := tx.First(&link, "id = ?", id).Error; err != nil {
			if notFound(err) {
				return domain.ErrShipmentPackageNotFound
			}
			return err
		}
		// hard delete so the package can be linked again
		if err := tx.Unscoped().Delete(&link).Error; err != nil {
			return err
		}
		return refreshShipmentTotals(tx, link.ShipmentID)
	})
	return translate("detach package", err)
}
