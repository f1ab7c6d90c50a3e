package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/internal/domain"
)

// CarrierRepository implements domain.CarrierRepository using gorm
type CarrierRepository struct {
	db *gorm.DB
}

func NewCarrierRepository(db *gorm.DB) *CarrierRepository {
	return &CarrierRepository{db: db}
}

func (r *CarrierRepository) Create(ctx context.Context, carrier *domain.Carrier) error {
	return translate("create carrier", r.db.WithContext(ctx).Create(carrier).Error)
}

func (r *CarrierRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Carrier, error) {
	return findFirst[domain.Carrier](r.db.WithContext(ctx).Where("id = ?", id), "find carrier")
}

func (r *CarrierRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Carrier, error) {
	return findIn[domain.Carrier](r.db.WithContext(ctx), ids, "find carriers")
}

func (r *CarrierRepository) FindByCode(ctx context.Context, code string) (*domain.Carrier, error) {
	return findFirst[domain.Carrier](r.db.WithContext(ctx).Where("code = ?", code), "find carrier by code")
}

func (r *CarrierRepository) List(ctx context.Context, q domain.ListQuery) ([]*domain.Carrier, int64, error) {
	return listPage[domain.Carrier](r.db.WithContext(ctx), q, "list carriers")
}

func (r *CarrierRepository) Update(ctx context.Context, carrier *domain.Carrier) error {
	err := r.db.WithContext(ctx).Model(carrier).
		Select("name", "type", "shipping_method", "lastmile_tracking", "logo", "updated_at", "updated_by").
		Updates(carrier).Error
	return translate("update carrier", err)
}

// Delete soft-deletes the carrier and records who removed it
func (r *CarrierRepository) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	return translate("delete carrier", softDelete(r.db.WithContext(ctx), &domain.Carrier{}, id, actor))
}

// WarehouseRepository implements domain.WarehouseRepository using gorm
type WarehouseRepository struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

func (r *WarehouseRepository) Create(ctx context.Context, warehouse *domain.Warehouse) error {
	return translate("create warehouse", r.db.WithContext(ctx).Create(warehouse).Error)
}

func (r *WarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Warehouse, error) {
	return findFirst[domain.Warehouse](r.db.WithContext(ctx).Where("id = ?", id), "find warehouse")
}

func (r *WarehouseRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Warehouse, error) {
	return findIn[domain.Warehouse](r.db.WithContext(ctx), ids, "find warehouses")
}

func (r *WarehouseRepository) FindByCodeAndName(ctx context.Context, code, name string) (*domain.Warehouse, error) {
	return findFirst[domain.Warehouse](
		r.db.WithContext(ctx).Where("code = ? AND name = ?", code, name),
		"find warehouse by code",
	)
}

func (r *WarehouseRepository) List(ctx context.Context, q domain.ListQuery) ([]*domain.Warehouse, int64, error) {
	return listPage[domain.Warehouse](r.db.WithContext(ctx), q, "list warehouses")
}

func (r *WarehouseRepository) Update(ctx context.Context, warehouse *domain.Warehouse) error {
	err := r.db.WithContext(ctx).Model(warehouse).
		Select("logo", "prefix_phone", "phone_number", "phone", "city", "district", "ward",
			"post_code", "address", "country", "latitude", "longitude", "updated_at", "updated_by").
		Updates(warehouse).Error
	return translate("update warehouse", err)
}

func (r *WarehouseRepository) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	return translate("delete warehouse", softDelete(r.db.WithContext(ctx), &domain.Warehouse{}, id, actor))
}

// ProductRepository implements domain.ProductRepository using gorm
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts the product with attributes, values, variants and images
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return translate("create product", r.db.WithContext(ctx).Create(product).Error)
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Attributes.Values").
		Preload("Variants.Images").
		Preload("Variants.AttributeValues").
		Where("id = ?", id)
	return findFirst[domain.Product](query, "find product")
}

func (r *ProductRepository) FindByCodeOrSKU(ctx context.Context, code, sku string) (*domain.Product, error) {
	query := r.db.WithContext(ctx).Where("code = ?", code)
	if sku != "" {
		query = query.Or("sku = ?", sku)
	}
	return findFirst[domain.Product](query, "find product by code")
}

func findFirst[T any](query *gorm.DB, op string) (*T, error) {
	var row T
	err := query.First(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(op, err)
	}
	return &row, nil
}

func findIn[T any](db *gorm.DB, ids []uuid.UUID, op string) ([]*T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []*T
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translate(op, err)
	}
	return rows, nil
}

func listPage[T any](db *gorm.DB, q domain.ListQuery, op string) ([]*T, int64, error) {
	var total int64
	if err := db.Model(new(T)).Count(&total).Error; err != nil {
		return nil, 0, translate(op, err)
	}
	var rows []*T
	err := db.Model(new(T)).
		Order(creationOrder(q)).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, translate(op, err)
	}
	return rows, total, nil
}

func softDelete(db *gorm.DB, model interface{}, id uuid.UUID, actor string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(model).
			Where("id = ?", id).
			Updates(map[string]interface{}{"deleted_by": actor, "updated_at": time.Now().UTC()}).Error
		if err != nil {
			return err
		}
		return tx.Delete(model, "id = ?", id).Error
	})
}
