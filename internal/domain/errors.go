package domain

import "errors"

// Reference validation errors
var (
	ErrWarehouseNotFound = errors.New("warehouse not found")
	ErrCarrierNotFound   = errors.New("carrier not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrNoDefaultAddress  = errors.New("customer has no default shipping address")
	ErrNoPackages        = errors.New("shipment requires at least one package")
	ErrNoLineItems       = errors.New("package requires products or package products")
	ErrInvalidQuantity   = errors.New("quantities and dimensions must not be negative")
)

// Lookup errors
var (
	ErrShipmentNotFound        = errors.New("shipment not found")
	ErrPackageNotFound         = errors.New("package not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrShipmentPackageNotFound = errors.New("shipment package not found")
	ErrShipmentAddressNotFound = errors.New("shipment address not found")
)

// Conflict errors
var (
	ErrShipmentDelivered     = errors.New("shipment has been delivered and can no longer be changed")
	ErrPackageDelivered      = errors.New("package has been delivered and can no longer be changed")
	ErrPackageAlreadyLinked  = errors.New("package is already linked to a shipment")
	ErrPackageOtherCustomer  = errors.New("package belongs to another customer")
	ErrPackageIDInUse        = errors.New("package id is already used by another customer")
	ErrDuplicateCarrier      = errors.New("carrier with the same code already exists")
	ErrDuplicateWarehouse    = errors.New("warehouse with the same code and name already exists")
	ErrDuplicateProduct      = errors.New("product with the same code or SKU already exists")
	ErrDuplicateNumber       = errors.New("generated number already in use")
	ErrIdentifierExhausted   = errors.New("could not allocate a unique identifier")
	ErrUnknownAttributeValue = errors.New("variant references an attribute value the product does not define")
)
