package application

import (
	"context"
	"net/http"

	"github.com/wms-platform/shipment-service/internal/domain"
	pkgerrors "github.com/wms-platform/shipment-service/pkg/errors"
	"github.com/wms-platform/shipment-service/pkg/logging"
)

func validation(message, reason string) func() *pkgerrors.AppError {
	return func() *pkgerrors.AppError {
		return pkgerrors.ErrValidation(message).WithReason(reason)
	}
}

func notFound(resource string) func() *pkgerrors.AppError {
	return func() *pkgerrors.AppError {
		return pkgerrors.ErrNotFound(resource)
	}
}

func conflict(message, reason string) func() *pkgerrors.AppError {
	return func() *pkgerrors.AppError {
		return pkgerrors.ErrConflict(message).WithReason(reason)
	}
}

var errorMappings = []pkgerrors.Mapping{
	{Target: domain.ErrWarehouseNotFound, Build: validation("Warehouse not found", "WarehouseNotFound")},
	{Target: domain.ErrCarrierNotFound, Build: validation("Carrier not found", "CarrierNotFound")},
	{Target: domain.ErrCustomerNotFound, Build: validation("Customer not found", "CustomerNotFound")},
	{Target: domain.ErrNoDefaultAddress, Build: validation("Customer has no default shipping address", "NoDefaultAddress")},
	{Target: domain.ErrNoPackages, Build: validation("At least one package is required", "NoPackages")},
	{Target: domain.ErrNoLineItems, Build: validation("Package products are required", "NoLineItems")},
	{Target: domain.ErrInvalidQuantity, Build: validation("Quantities and dimensions must not be negative", "InvalidQuantity")},
	{Target: domain.ErrUnknownAttributeValue, Build: validation("Variant references an unknown attribute value", "UnknownAttributeValue")},
	{Target: domain.ErrShipmentAddressNotFound, Build: validation("Shipment address not found", "ShipmentAddressNotFound")},
	{Target: domain.ErrPackageOtherCustomer, Build: validation("Package belongs to another customer", "PackageOtherCustomer")},

	{Target: domain.ErrShipmentNotFound, Build: notFound("Shipment")},
	{Target: domain.ErrPackageNotFound, Build: notFound("Package")},
	{Target: domain.ErrProductNotFound, Build: notFound("Product")},
	{Target: domain.ErrShipmentPackageNotFound, Build: notFound("Shipment package")},

	{Target: domain.ErrShipmentDelivered, Build: conflict("Cannot change a shipment that has been delivered", "ShipmentDelivered")},
	{Target: domain.ErrPackageDelivered, Build: conflict("Cannot change a package that has been delivered", "PackageDelivered")},
	{Target: domain.ErrPackageIDInUse, Build: conflict("Package id is already in use", "PackageIDInUse")},
	{Target: domain.ErrPackageAlreadyLinked, Build: conflict("Package is already linked to a shipment", "PackageAlreadyLinked")},
	{Target: domain.ErrDuplicateCarrier, Build: conflict("Carrier with the same code already exists", "DuplicateCarrier")},
	{Target: domain.ErrDuplicateWarehouse, Build: conflict("Warehouse with the same code and name already exists", "DuplicateWarehouse")},
	{Target: domain.ErrDuplicateProduct, Build: conflict("Product with the same code or SKU already exists", "DuplicateProduct")},
	{Target: domain.ErrIdentifierExhausted, Build: conflict("Could not allocate a unique number, retry later", "IdentifierExhausted")},
	{Target: domain.ErrDuplicateNumber, Build: conflict("Generated number already in use, retry later", "DuplicateNumber")},
}

// toAppError maps domain errors onto the response taxonomy. Anything unmapped
// becomes a generic internal error.
func toAppError(err error) *pkgerrors.AppError {
	return pkgerrors.Translate(err, errorMappings)
}

// fail translates err and logs it when it is an infrastructure failure, so the
// cause is recorded even though the caller only sees a generic message.
func fail(ctx context.Context, logger *logging.Logger, msg string, err error, attrs ...any) error {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.WithContext(ctx).WithError(err).Error(msg, attrs...)
	}
	return appErr
}
