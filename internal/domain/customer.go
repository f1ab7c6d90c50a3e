package domain

import (
	"context"

	"github.com/google/uuid"
)

// CustomerProfile is the read model returned by the customer service
type CustomerProfile struct {
	ID          uuid.UUID         `json:"id"`
	FullName    string            `json:"fullName"`
	Email       string            `json:"email"`
	PhoneNumber string            `json:"phoneNumber"`
	Addresses   []CustomerAddress `json:"addresses"`
}

// CustomerAddress is one of a customer's shipping addresses
type CustomerAddress struct {
	ID               uuid.UUID `json:"id"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	District         string    `json:"district"`
	Ward             string    `json:"ward"`
	PostCode         string    `json:"postCode,omitempty"`
	Country          string    `json:"country,omitempty"`
	IsDefaultAddress bool      `json:"isDefaultAddress"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
}

// DefaultAddress returns the address flagged as default, or nil
func (p *CustomerProfile) DefaultAddress() *CustomerAddress {
	for i := range p.Addresses {
		if p.Addresses[i].IsDefaultAddress {
			return &p.Addresses[i]
		}
	}
	return nil
}

// ReceiverAddress builds the "User" receiver address attached to new packages.
// It returns ErrNoDefaultAddress when the customer has no default address.
func (p *CustomerProfile) ReceiverAddress() (PackageAddress, error) {
	addr := p.DefaultAddress()
	if addr == nil {
		return PackageAddress{}, ErrNoDefaultAddress
	}
	return PackageAddress{
		ID:        uuid.New(),
		Name:      "User",
		Phone:     p.PhoneNumber,
		City:      addr.City,
		District:  addr.District,
		Ward:      addr.Ward,
		PostCode:  addr.PostCode,
		Address:   addr.Address,
		Country:   addr.Country,
		Latitude:  addr.Latitude,
		Longitude: addr.Longitude,
		IsDefault: true,
		Type:      AddressTypeReceiver,
		Status:    AddressStatusActive,
	}, nil
}

// CustomerGateway is the narrow read interface onto the customer service.
// GetCustomerDetail returns (nil, nil) when the customer does not exist.
type CustomerGateway interface {
	GetCustomerDetail(ctx context.Context, customerID uuid.UUID) (*CustomerProfile, error)
	GetCustomersByIds(ctx context.Context, customerIDs []uuid.UUID) (map[uuid.UUID]*CustomerProfile, error)
}
