package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/idempotency"
	"github.com/wms-platform/shipment-service/pkg/outbox"
)

// Models lists every table owned by the service
func Models() []interface{} {
	return []interface{}{
		&domain.Carrier{},
		&domain.Warehouse{},
		&domain.Product{},
		&domain.ProductAttribute{},
		&domain.ProductAttributeValue{},
		&domain.ProductVariant{},
		&domain.ProductVariantImage{},
		&domain.ProductVariantAttributeValue{},
		&domain.Package{},
		&domain.PackageAddress{},
		&domain.PackageProduct{},
		&domain.Shipment{},
		&domain.ShipmentAddress{},
		&domain.ShipmentPackage{},
		&outbox.OutboxEvent{},
		&idempotency.Key{},
	}
}

// Migrate creates or updates the schema, including unique constraints and
// foreign keys with their cascade rules
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
