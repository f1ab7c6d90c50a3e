package postgres

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/internal/domain"
)

// NumberStore implements domain.NumberStore. Soft-deleted rows are included
// because they still hold their unique index entries.
type NumberStore struct {
	db *gorm.DB
}

func NewNumberStore(db *gorm.DB) *NumberStore {
	return &NumberStore{db: db}
}

func (s *NumberStore) ShipmentNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Unscoped().
		Model(&domain.Shipment{}).
		Where("shipment_number = ?", number).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, translate("check shipment number", err)
	}
	return count > 0, nil
}

func (s *NumberStore) CountPackageNumbers(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Unscoped().
		Model(&domain.Package{}).
		Where("package_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return 0, translate("count package numbers", err)
	}
	return count, nil
}

func (s *NumberStore) MaxPackageNumber(ctx context.Context, prefix string) (string, error) {
	var latest sql.NullString
	err := s.db.WithContext(ctx).Unscoped().
		Model(&domain.Package{}).
		Select("MAX(package_number)").
		Where("package_number LIKE ?", prefix+"%").
		Scan(&latest).Error
	if err != nil {
		return "", translate("read latest package number", err)
	}
	return latest.String, nil
}

var _ domain.NumberStore = (*NumberStore)(nil)
