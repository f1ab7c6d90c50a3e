package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/internal/domain"
)

const uniqueViolation = "23505"

// unique constraint name -> domain error
var constraintErrors = map[string]error{
	"uq_shipments_number":          domain.ErrDuplicateNumber,
	"uq_packages_number":           domain.ErrDuplicateNumber,
	"packages_pkey":                domain.ErrPackageIDInUse,
	"uq_shipment_packages_package": domain.ErrPackageAlreadyLinked,
	"uq_carriers_code":             domain.ErrDuplicateCarrier,
	"uq_warehouses_code_name":      domain.ErrDuplicateWarehouse,
	"uq_products_code":             domain.ErrDuplicateProduct,
}

// translate turns unique violations into domain errors and wraps everything
// else with op for context
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if target, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %s", target, pgErr.ConstraintName)
		}
	}
	// domain errors raised inside a transaction pass through unchanged
	for _, target := range constraintErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
