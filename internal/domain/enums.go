package domain

// ShipmentStatus represents the lifecycle status of a shipment
type ShipmentStatus string

const (
	ShipmentStatusCreated    ShipmentStatus = "ShipmentCreated"
	ShipmentStatusInStorage  ShipmentStatus = "InStorage"
	ShipmentStatusProcessing ShipmentStatus = "Processing"
	ShipmentStatusProcessed  ShipmentStatus = "Processed"
	ShipmentStatusDelivering ShipmentStatus = "Delivering"
	ShipmentStatusDelivered  ShipmentStatus = "Delivered"
)

// ShipmentStatuses lists every shipment status in lifecycle order
var ShipmentStatuses = []ShipmentStatus{
	ShipmentStatusCreated,
	ShipmentStatusInStorage,
	ShipmentStatusProcessing,
	ShipmentStatusProcessed,
	ShipmentStatusDelivering,
	ShipmentStatusDelivered,
}

func (s ShipmentStatus) IsValid() bool {
	for _, v := range ShipmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether edits are no longer accepted
func (s ShipmentStatus) IsTerminal() bool {
	return s == ShipmentStatusDelivered
}

// PackageStatus represents the lifecycle status of a package
type PackageStatus string

const (
	PackageStatusCreated    PackageStatus = "Created"
	PackageStatusInStorage  PackageStatus = "InStorage"
	PackageStatusProcessing PackageStatus = "Processing"
	PackageStatusProcessed  PackageStatus = "Processed"
	PackageStatusDelivering PackageStatus = "Delivering"
	PackageStatusDelivered  PackageStatus = "Delivered"
)

var PackageStatuses = []PackageStatus{
	PackageStatusCreated,
	PackageStatusInStorage,
	PackageStatusProcessing,
	PackageStatusProcessed,
	PackageStatusDelivering,
	PackageStatusDelivered,
}

func (s PackageStatus) IsValid() bool {
	for _, v := range PackageStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s PackageStatus) IsTerminal() bool {
	return s == PackageStatusDelivered
}

// AddressType tags an address as the sending or receiving end
type AddressType string

const (
	AddressTypeSender   AddressType = "SenderAddress"
	AddressTypeReceiver AddressType = "ReceiveAddress"
)

// AddressStatus tracks whether a stored address is usable
type AddressStatus string

const (
	AddressStatusActive   AddressStatus = "Active"
	AddressStatusInactive AddressStatus = "Inactive"
	AddressStatusInvalid  AddressStatus = "Invalid"
	AddressStatusPending  AddressStatus = "Pending"
)

// CubitUnit is the unit for package dimensions
type CubitUnit string

const (
	CubitUnitCm CubitUnit = "Cm"
	CubitUnitM  CubitUnit = "M"
)

var CubitUnits = []CubitUnit{CubitUnitCm, CubitUnitM}

// WeightUnit is the unit for package weight
type WeightUnit string

const (
	WeightUnitKg  WeightUnit = "Kg"
	WeightUnitGam WeightUnit = "Gam"
)

var WeightUnits = []WeightUnit{WeightUnitKg, WeightUnitGam}

// CarrierType classifies a carrier's service level
type CarrierType string

const (
	CarrierTypeExpress CarrierType = "Express"
	CarrierTypeEconomy CarrierType = "Economy"
)

var CarrierTypes = []CarrierType{CarrierTypeExpress, CarrierTypeEconomy}

// ShippingMethod is the transport mode a carrier uses
type ShippingMethod string

const (
	ShippingMethodAir    ShippingMethod = "Air"
	ShippingMethodOcean  ShippingMethod = "Ocean"
	ShippingMethodInland ShippingMethod = "Inland"
)

var ShippingMethods = []ShippingMethod{ShippingMethodAir, ShippingMethodOcean, ShippingMethodInland}

// EnumValues converts a typed enum slice to strings, e.g. for validator registration
func EnumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
