package application

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/api"
)

// Enum validation tags registered with the binding validator
const (
	TagShipmentStatus = "shipment_status"
	TagPackageStatus  = "package_status"
	TagCubitUnit      = "cubit_unit"
	TagWeightUnit     = "weight_unit"
	TagCarrierType    = "carrier_type"
	TagShippingMethod = "shipping_method"
)

// EnumTags maps each enum validation tag to its accepted values
func EnumTags() map[string][]string {
	return map[string][]string{
		TagShipmentStatus: domain.EnumValues(domain.ShipmentStatuses),
		TagPackageStatus:  domain.EnumValues(domain.PackageStatuses),
		TagCubitUnit:      domain.EnumValues(domain.CubitUnits),
		TagWeightUnit:     domain.EnumValues(domain.WeightUnits),
		TagCarrierType:    domain.EnumValues(domain.CarrierTypes),
		TagShippingMethod: domain.EnumValues(domain.ShippingMethods),
	}
}

// LineItemInput is an ad-hoc package line
type LineItemInput struct {
	ProductID   *uuid.UUID       `json:"productId,omitempty"`
	ProductName string           `json:"productName" binding:"required,max=300"`
	Origin      string           `json:"origin" binding:"max=200"`
	OriginPrice decimal.Decimal  `json:"originPrice" binding:"gte=0"`
	Quantity    int64            `json:"quantity" binding:"gte=0"`
	Unit        string           `json:"unit" binding:"max=50"`
	ProductLink string           `json:"productLink" binding:"max=1000"`
	Tax         *decimal.Decimal `json:"tax,omitempty" binding:"omitempty,gte=0"`
}

type AttributeInput struct {
	Name   string   `json:"name" binding:"required,max=100"`
	Values []string `json:"values" binding:"required,min=1,dive,required,max=200"`
}

type VariantInput struct {
	SKU             string            `json:"sku" binding:"max=100"`
	Price           decimal.Decimal   `json:"price" binding:"gte=0"`
	Weight          decimal.Decimal   `json:"weight" binding:"gte=0"`
	Length          decimal.Decimal   `json:"length" binding:"gte=0"`
	Width           decimal.Decimal   `json:"width" binding:"gte=0"`
	Height          decimal.Decimal   `json:"height" binding:"gte=0"`
	StockQty        int64             `json:"stockQty" binding:"gte=0"`
	AttributeValues map[string]string `json:"attributeValues"`
	ImageURLs       []string          `json:"imageUrls" binding:"omitempty,dive,max=500"`
}

// CreateProductCommand creates a catalog product with its attributes and variants.
// It is also accepted inline when creating packages.
type CreateProductCommand struct {
	Code        string           `json:"code" binding:"required,max=100"`
	SKU         string           `json:"sku" binding:"max=100"`
	Name        string           `json:"name" binding:"required,max=300"`
	MetaTitle   string           `json:"metaTitle" binding:"max=300"`
	Description string           `json:"description"`
	Category    string           `json:"category" binding:"max=200"`
	Brand       string           `json:"brand" binding:"max=200"`
	ImageURL    string           `json:"imageUrl" binding:"max=500"`
	Price       *decimal.Decimal `json:"price,omitempty" binding:"omitempty,gte=0"`
	HasVariants bool             `json:"hasVariants"`
	Attributes  []AttributeInput `json:"attributes" binding:"omitempty,dive"`
	Variants    []VariantInput   `json:"variants" binding:"omitempty,dive"`
	CreatedBy   string           `json:"-"`
}

// PackageSpec describes one package of a create request. When ID names an
// existing package of the same customer, that package is reused as is.
type PackageSpec struct {
	ID              *uuid.UUID             `json:"id,omitempty"`
	Note            string                 `json:"note"`
	Status          domain.PackageStatus   `json:"status" binding:"omitempty,package_status"`
	Length          decimal.Decimal        `json:"length" binding:"gte=0"`
	Width           decimal.Decimal        `json:"width" binding:"gte=0"`
	Height          decimal.Decimal        `json:"height" binding:"gte=0"`
	Weight          decimal.Decimal        `json:"weight" binding:"gte=0"`
	Amount          *decimal.Decimal       `json:"amount,omitempty" binding:"omitempty,gte=0"`
	CubitUnit       domain.CubitUnit       `json:"cubitUnit" binding:"omitempty,cubit_unit"`
	WeightUnit      domain.WeightUnit      `json:"weightUnit" binding:"omitempty,weight_unit"`
	Products        []CreateProductCommand `json:"products" binding:"omitempty,dive"`
	PackageProducts []LineItemInput        `json:"packageProducts" binding:"omitempty,dive"`
}

// CreateShipmentCommand assembles a shipment from new or existing packages
type CreateShipmentCommand struct {
	CustomerID  uuid.UUID     `json:"customerId" binding:"required"`
	WarehouseID uuid.UUID     `json:"warehouseId" binding:"required"`
	CarrierID   uuid.UUID     `json:"carrierId" binding:"required"`
	Note        string        `json:"note"`
	Packages    []PackageSpec `json:"packages" binding:"omitempty,dive"`
	PackageIDs  []uuid.UUID   `json:"packageIds"`
	CreatedBy   string        `json:"-"`
}

// CreateShipmentsCommand creates several shipments, each independently
type CreateShipmentsCommand struct {
	Shipments []CreateShipmentCommand `json:"shipments" binding:"required,min=1,max=100,dive"`
	CreatedBy string                  `json:"-"`
}

type UpdateShipmentCommand struct {
	ID        uuid.UUID        `json:"-"`
	Note      *string          `json:"note"`
	Weight    *decimal.Decimal `json:"weight" binding:"omitempty,gte=0"`
	Height    *decimal.Decimal `json:"height" binding:"omitempty,gte=0"`
	Amount    *decimal.Decimal `json:"amount" binding:"omitempty,gte=0"`
	UpdatedBy string           `json:"-"`
}

type UpdateShipmentStatusCommand struct {
	ID        uuid.UUID             `json:"-"`
	Status    domain.ShipmentStatus `json:"status" binding:"required,shipment_status"`
	UpdatedBy string                `json:"-"`
}

// ListShipmentsQuery filters the shipment list
type ListShipmentsQuery struct {
	api.PageRequest
	CustomerID  string                `form:"customerId" binding:"omitempty,uuid"`
	CarrierID   string                `form:"carrierId" binding:"omitempty,uuid"`
	WarehouseID string                `form:"warehouseId" binding:"omitempty,uuid"`
	Status      domain.ShipmentStatus `form:"status" binding:"omitempty,shipment_status"`
	Keyword     string                `form:"keyword" binding:"max=50"`
}

// CreatePackageCommand creates a single standalone package
type CreatePackageCommand struct {
	CustomerID  uuid.UUID `json:"customerId" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouseId" binding:"required"`
	CarrierID   uuid.UUID `json:"carrierId" binding:"required"`
	PackageSpec
	CreatedBy string `json:"-"`
}

// CreatePackageProductCommand appends a line item to an existing package
type CreatePackageProductCommand struct {
	PackageID uuid.UUID `json:"packageId" binding:"required"`
	LineItemInput
	CreatedBy string `json:"-"`
}

// CreatePackagesCommand creates several packages for one customer
type CreatePackagesCommand struct {
	CustomerID  uuid.UUID     `json:"customerId" binding:"required"`
	WarehouseID uuid.UUID     `json:"warehouseId" binding:"required"`
	CarrierID   uuid.UUID     `json:"carrierId" binding:"required"`
	Packages    []PackageSpec `json:"packages" binding:"required,min=1,dive"`
	CreatedBy   string        `json:"-"`
}

type UpdatePackageCommand struct {
	ID                uuid.UUID             `json:"-"`
	Status            *domain.PackageStatus `json:"status" binding:"omitempty,package_status"`
	ShipmentAddressID *uuid.UUID            `json:"shipmentAddressId"`
	Note              *string               `json:"note"`
	Length            *decimal.Decimal      `json:"length" binding:"omitempty,gte=0"`
	Width             *decimal.Decimal      `json:"width" binding:"omitempty,gte=0"`
	Height            *decimal.Decimal      `json:"height" binding:"omitempty,gte=0"`
	Weight            *decimal.Decimal      `json:"weight" binding:"omitempty,gte=0"`
	UpdatedBy         string                `json:"-"`
}

type UpdatePackageStatusCommand struct {
	ID        uuid.UUID            `json:"-"`
	Status    domain.PackageStatus `json:"status" binding:"required,package_status"`
	UpdatedBy string               `json:"-"`
}

type ListPackagesQuery struct {
	api.PageRequest
	CustomerID  string               `form:"customerId" binding:"omitempty,uuid"`
	CarrierID   string               `form:"carrierId" binding:"omitempty,uuid"`
	WarehouseID string               `form:"warehouseId" binding:"omitempty,uuid"`
	Status      domain.PackageStatus `form:"status" binding:"omitempty,package_status"`
	Keyword     string               `form:"keyword" binding:"max=50"`
}

// CreateShipmentPackagesCommand links existing packages to a shipment
type CreateShipmentPackagesCommand struct {
	ShipmentID uuid.UUID   `json:"shipmentId" binding:"required"`
	PackageIDs []uuid.UUID `json:"packageIds" binding:"required,min=1"`
	CreatedBy  string      `json:"-"`
}

type CreateCarrierCommand struct {
	Code             string                `json:"code" binding:"required,max=50"`
	Name             string                `json:"name" binding:"max=200"`
	Type             domain.CarrierType    `json:"type" binding:"required,carrier_type"`
	ShippingMethod   domain.ShippingMethod `json:"shippingMethod" binding:"required,shipping_method"`
	LastmileTracking bool                  `json:"lastmileTracking"`
	Logo             string                `json:"logo" binding:"max=500"`
	CreatedBy        string                `json:"-"`
}

type UpdateCarrierCommand struct {
	ID               uuid.UUID              `json:"-"`
	Name             *string                `json:"name" binding:"omitempty,max=200"`
	Type             *domain.CarrierType    `json:"type" binding:"omitempty,carrier_type"`
	ShippingMethod   *domain.ShippingMethod `json:"shippingMethod" binding:"omitempty,shipping_method"`
	LastmileTracking *bool                  `json:"lastmileTracking"`
	Logo             *string                `json:"logo" binding:"omitempty,max=500"`
	UpdatedBy        string                 `json:"-"`
}

type CreateWarehouseCommand struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Code        string   `json:"code" binding:"required,max=50"`
	Logo        string   `json:"logo" binding:"max=500"`
	PrefixPhone string   `json:"prefixPhone" binding:"max=10"`
	PhoneNumber string   `json:"phoneNumber" binding:"max=30"`
	Phone       string   `json:"phone" binding:"max=30"`
	City        string   `json:"city" binding:"max=100"`
	District    string   `json:"district" binding:"max=100"`
	Ward        string   `json:"ward" binding:"max=100"`
	PostCode    string   `json:"postCode" binding:"max=20"`
	Address     string   `json:"address" binding:"required,max=500"`
	Country     string   `json:"country" binding:"max=100"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
	CreatedBy   string   `json:"-"`
}

type UpdateWarehouseCommand struct {
	ID          uuid.UUID `json:"-"`
	Logo        *string   `json:"logo" binding:"omitempty,max=500"`
	PrefixPhone *string   `json:"prefixPhone" binding:"omitempty,max=10"`
	PhoneNumber *string   `json:"phoneNumber" binding:"omitempty,max=30"`
	Phone       *string   `json:"phone" binding:"omitempty,max=30"`
	City        *string   `json:"city" binding:"omitempty,max=100"`
	District    *string   `json:"district" binding:"omitempty,max=100"`
	Ward        *string   `json:"ward" binding:"omitempty,max=100"`
	PostCode    *string   `json:"postCode" binding:"omitempty,max=20"`
	Address     *string   `json:"address" binding:"omitempty,max=500"`
	Country     *string   `json:"country" binding:"omitempty,max=100"`
	Latitude    *float64  `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64  `json:"longitude" binding:"omitempty,longitude"`
	UpdatedBy   string    `json:"-"`
}
