package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/internal/domain"
)

// PackageRepository implements domain.PackageRepository using gorm
type PackageRepository struct {
	db *gorm.DB
}

// NewPackageRepository creates a new PackageRepository
func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

// CreateAll inserts packages with their addresses, line items and any catalog
// products created for them
func (r *PackageRepository) CreateAll(ctx context.Context, packages []*domain.Package) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertPackages(tx, packages)
	})
	return translate("create packages", err)
}

// insertPackages writes catalog products first so line items can reference them
func insertPackages(tx *gorm.DB, packages []*domain.Package) error {
	if len(packages) == 0 {
		return nil
	}
	for _, p := range packages {
		for _, product := range p.NewProducts() {
			if err := tx.Create(product).Error; err != nil {
				return err
			}
		}
	}
	return tx.Create(&packages).Error
}

func (r *PackageRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Package, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByIDAndCustomer returns the package only when it belongs to customerID
func (r *PackageRepository) FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*domain.Package, error) {
	return r.findOne(ctx, "id = ? AND customer_id = ?", id, customerID)
}

func (r *PackageRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Package, error) {
	var pkg domain.Package
	err := r.withGraph(ctx).Where(query, args...).First(&pkg).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("find package", err)
	}
	return &pkg, nil
}

func (r *PackageRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Package, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var packages []*domain.Package
	if err := r.withGraph(ctx).Where("id IN ?", ids).Find(&packages).Error; err != nil {
		return nil, translate("find packages", err)
	}
	return packages, nil
}

// List returns one page of packages and the total matching count
func (r *PackageRepository) List(ctx context.Context, filter domain.PackageFilter, q domain.ListQuery) ([]*domain.Package, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Package{})
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
		query = query.Where("package_number ILIKE ?", "%"+filter.Keyword+"%")
	}

	// safe to reuse for the count and the page query
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count packages", err)
	}

	var packages []*domain.Package
	err := query.
		Preload("Addresses").
		Preload("Products").
		Order(creationOrder(q)).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&packages).Error
	if err != nil {
		return nil, 0, translate("list packages", err)
	}
	return packages, total, nil
}

// Update saves the mutable columns and refreshes the totals of the shipment
// the package is linked to
func (r *PackageRepository) Update(ctx context.Context, pkg *domain.Package) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(pkg).
			Select("status", "note", "length", "width", "height", "weight", "updated_at", "updated_by").
			Updates(pkg)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrPackageNotFound
		}
		return refreshLinkedShipment(tx, pkg.ID)
	})
	return translate("update package", err)
}

func (r *PackageRepository) AddProduct(ctx context.Context, pkg *domain.Package, line *domain.PackageProduct) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(line).Error; err != nil {
			return err
		}
		res := tx.Model(pkg).
			Select("amount", "updated_at", "updated_by").
			Updates(pkg)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrPackageNotFound
		}
		return refreshLinkedShipment(tx, pkg.ID)
	})
	return translate("add package product", err)
}

// Delete removes the package; its addresses, line items and link cascade
func (r *PackageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link domain.ShipmentPackage
		err := tx.Where("package_id = ?", id).First(&link).Error
		if err != nil && !notFound(err) {
			return err
		}

		if err := tx.Unscoped().Delete(&domain.Package{}, "id = ?", id).Error; err != nil {
			return err
		}
		if link.ShipmentID == uuid.Nil {
			return nil
		}
		return refreshShipmentTotals(tx, link.ShipmentID)
	})
	return translate("delete package", err)
}

func (r *PackageRepository) withGraph(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Addresses").
		Preload("Products")
}

func refreshLinkedShipment(tx *gorm.DB, packageID uuid.UUID) error {
	var link domain.ShipmentPackage
	err := tx.Where("package_id = ?", packageID).First(&link).Error
	if notFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return refreshShipmentTotals(tx, link.ShipmentID)
}
