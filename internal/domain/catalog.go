package domain

import (
	"github.com/google/uuid"
)

// Carrier is a shipping provider
type Carrier struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code             string         `gorm:"size:50;not null;uniqueIndex:uq_carriers_code" json:"code"`
	Name             string         `gorm:"size:200" json:"name"`
	Type             CarrierType    `gorm:"size:20;not null" json:"type"`
	ShippingMethod   ShippingMethod `gorm:"size:20;not null" json:"shippingMethod"`
	LastmileTracking bool           `gorm:"not null;default:false" json:"lastmileTracking"`
	Logo             string         `gorm:"size:500" json:"logo,omitempty"`
	Audit
}

// Warehouse is an origin location
type Warehouse struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null;uniqueIndex:uq_warehouses_code_name,priority:2" json:"name"`
	Code        string    `gorm:"size:50;not null;uniqueIndex:uq_warehouses_code_name,priority:1" json:"code"`
	Logo        string    `gorm:"size:500" json:"logo,omitempty"`
	PrefixPhone string    `gorm:"size:10" json:"prefixPhone,omitempty"`
	PhoneNumber string    `gorm:"size:30" json:"phoneNumber,omitempty"`
	Phone       string    `gorm:"size:30" json:"phone,omitempty"`
	City        string    `gorm:"size:100" json:"city,omitempty"`
	District    string    `gorm:"size:100" json:"district,omitempty"`
	Ward        string    `gorm:"size:100" json:"ward,omitempty"`
	PostCode    string    `gorm:"size:20" json:"postCode,omitempty"`
	Address     string    `gorm:"size:500" json:"address,omitempty"`
	Country     string    `gorm:"size:100" json:"country,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Audit
}

// SenderAddress builds the "Warehouse" sender address attached to new packages
func (w *Warehouse) SenderAddress() PackageAddress {
	return PackageAddress{
		ID:          uuid.New(),
		Name:        "Warehouse",
		PrefixPhone: w.PrefixPhone,
		PhoneNumber: w.PhoneNumber,
		Code:        w.Code,
		Phone:       w.Phone,
		City:        w.City,
		District:    w.District,
		Ward:        w.Ward,
		PostCode:    w.PostCode,
		Address:     w.Address,
		Country:     w.Country,
		Latitude:    w.Latitude,
		Longitude:   w.Longitude,
		Type:        AddressTypeSender,
		Status:      AddressStatusActive,
	}
}
