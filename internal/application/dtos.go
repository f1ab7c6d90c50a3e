package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms-platform/shipment-service/internal/domain"
)

// AddressDTO represents a sender or receiver address
type AddressDTO struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	PrefixPhone string             `json:"prefixPhone,omitempty"`
	PhoneNumber string             `json:"phoneNumber,omitempty"`
	Code        string             `json:"code,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	City        string             `json:"city,omitempty"`
	District    string             `json:"district,omitempty"`
	Ward        string             `json:"ward,omitempty"`
	PostCode    string             `json:"postCode,omitempty"`
	Address     string             `json:"address"`
	Country     string             `json:"country,omitempty"`
	Type        domain.AddressType `json:"type"`
}

// PackageProductDTO represents a package line item
type PackageProductDTO struct {
	ID          uuid.UUID        `json:"id"`
	ProductID   *uuid.UUID       `json:"productId,omitempty"`
	ProductName string           `json:"productName"`
	Origin      string           `json:"origin,omitempty"`
	OriginPrice decimal.Decimal  `json:"originPrice"`
	Quantity    int64            `json:"quantity"`
	Total       decimal.Decimal  `json:"total"`
	Unit        string           `json:"unit,omitempty"`
	ProductLink string           `json:"productLink,omitempty"`
	Tax         *decimal.Decimal `json:"tax,omitempty"`
}

// PackageDTO represents a package in responses
type PackageDTO struct {
	ID             uuid.UUID            `json:"id"`
	PackageNumber  string               `json:"packageNumber"`
	CustomerID     uuid.UUID            `json:"customerId"`
	CarrierID      uuid.UUID            `json:"carrierId"`
	WarehouseID    uuid.UUID            `json:"warehouseId"`
	Note           string               `json:"note,omitempty"`
	Status         domain.PackageStatus `json:"status"`
	Length         decimal.Decimal      `json:"length"`
	Width          decimal.Decimal      `json:"width"`
	Height         decimal.Decimal      `json:"height"`
	Weight         decimal.Decimal      `json:"weight"`
	Amount         decimal.Decimal      `json:"amount"`
	CubitUnit      domain.CubitUnit     `json:"cubitUnit"`
	WeightUnit     domain.WeightUnit    `json:"weightUnit"`
	AddressSender  *AddressDTO          `json:"addressSender,omitempty"`
	AddressReceive *AddressDTO          `json:"addressReceive,omitempty"`
	Products       []PackageProductDTO  `json:"products"`
	CreatedAt      time.Time            `json:"createdAt"`
	CreatedBy      string               `json:"createdBy,omitempty"`
	UpdatedAt      time.Time            `json:"updatedAt"`
	UpdatedBy      string               `json:"updatedBy,omitempty"`
}

// CarrierDTO represents a carrier
type CarrierDTO struct {
	ID               uuid.UUID             `json:"id"`
	Code             string                `json:"code"`
	Name             string                `json:"name"`
	Type             domain.CarrierType    `json:"type"`
	ShippingMethod   domain.ShippingMethod `json:"shippingMethod"`
	LastmileTracking bool                  `json:"lastmileTracking"`
	Logo             string                `json:"logo,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// WarehouseDTO represents a warehouse
type WarehouseDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Logo        string    `json:"logo,omitempty"`
	PrefixPhone string    `json:"prefixPhone,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	City        string    `json:"city,omitempty"`
	District    string    `json:"district,omitempty"`
	Ward        string    `json:"ward,omitempty"`
	PostCode    string    `json:"postCode,omitempty"`
	Address     string    `json:"address,omitempty"`
	Country     string    `json:"country,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CustomerDTO is the customer summary embedded in shipment responses
type CustomerDTO struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
}

// ShipmentDTO represents a shipment in list responses
type ShipmentDTO struct {
	ID             uuid.UUID             `json:"id"`
	ShipmentNumber string                `json:"shipmentNumber"`
	CustomerID     uuid.UUID             `json:"customerId"`
	CustomerName   string                `json:"customerName,omitempty"`
	CarrierID      uuid.UUID             `json:"carrierId"`
	CarrierCode    string                `json:"carrierCode,omitempty"`
	WarehouseID    uuid.UUID             `json:"warehouseId"`
	WarehouseName  string                `json:"warehouseName,omitempty"`
	Note           string                `json:"note,omitempty"`
	Status         domain.ShipmentStatus `json:"status"`
	Weight         decimal.Decimal       `json:"weight"`
	Height         decimal.Decimal       `json:"height"`
	Amount         decimal.Decimal       `json:"amount"`
	PackageCount   int                   `json:"packageCount"`
	CreatedAt      time.Time             `json:"createdAt"`
	CreatedBy      string                `json:"createdBy,omitempty"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	UpdatedBy      string                `json:"updatedBy,omitempty"`
}

// ShipmentDetailDTO is a shipment with its references, addresses and packages
type ShipmentDetailDTO struct {
	ShipmentDTO
	Carrier   *CarrierDTO   `json:"carrier,omitempty"`
	Warehouse *WarehouseDTO `json:"warehouse,omitempty"`
	Customer  *CustomerDTO  `json:"customer,omitempty"`
	Addresses []AddressDTO  `json:"addresses"`
	Packages  []PackageDTO  `json:"packages"`
}

// CreatedShipmentDTO is returned after a shipment is assembled
type CreatedShipmentDTO struct {
	ID             uuid.UUID       `json:"id"`
	ShipmentNumber string          `json:"shipmentNumber"`
	Status         string          `json:"status"`
	Weight         decimal.Decimal `json:"weight"`
	Height         decimal.Decimal `json:"height"`
	Amount         decimal.Decimal `json:"amount"`
	PackageIDs     []uuid.UUID     `json:"packageIds"`
	PackageNumbers []string        `json:"packageNumbers"`
}

// BatchItemResult reports the outcome of one item of a batch request
type BatchItemResult struct {
	Index          int        `json:"index"`
	Status         bool       `json:"status"`
	Message        string     `json:"message"`
	ID             *uuid.UUID `json:"id,omitempty"`
	ShipmentNumber string     `json:"shipmentNumber,omitempty"`
}

// BatchResultDTO summarizes a batch request
type BatchResultDTO struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchItemResult `json:"results"`
}

// ShipmentPackageDTO represents a package-to-shipment link
type ShipmentPackageDTO struct {
	ID         uuid.UUID   `json:"id"`
	ShipmentID uuid.UUID   `json:"shipmentId"`
	PackageID  uuid.UUID   `json:"packageId"`
	Package    *PackageDTO `json:"package,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	CreatedBy  string      `json:"createdBy,omitempty"`
}

// ProductVariantDTO represents a product variant
type ProductVariantDTO struct {
	ID              uuid.UUID         `json:"id"`
	SKU             string            `json:"sku"`
	Price           decimal.Decimal   `json:"price"`
	Weight          decimal.Decimal   `json:"weight"`
	Length          decimal.Decimal   `json:"length"`
	Width           decimal.Decimal   `json:"width"`
	Height          decimal.Decimal   `json:"height"`
	StockQty        int64             `json:"stockQty"`
	AttributeValues map[string]string `json:"attributeValues"`
	ImageURLs       []string          `json:"imageUrls"`
}

// ProductDTO represents a catalog product
type ProductDTO struct {
	ID          uuid.UUID           `json:"id"`
	Code        string              `json:"code"`
	SKU         string              `json:"sku"`
	Name        string              `json:"name"`
	MetaTitle   string              `json:"metaTitle,omitempty"`
	Description string              `json:"description,omitempty"`
	Category    string              `json:"category,omitempty"`
	Brand       string              `json:"brand,omitempty"`
	ImageURL    string              `json:"imageUrl,omitempty"`
	Price       *decimal.Decimal    `json:"price,omitempty"`
	HasVariants bool                `json:"hasVariants"`
	Attributes  map[string][]string `json:"attributes"`
	Variants    []ProductVariantDTO `json:"variants"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// Conversion functions

func toAddressDTO(id uuid.UUID, name, prefixPhone, phoneNumber, code, phone, city, district, ward, postCode, address, country string, t domain.AddressType) AddressDTO {
	return AddressDTO{
		ID:          id,
		Name:        name,
		PrefixPhone: prefixPhone,
		PhoneNumber: phoneNumber,
		Code:        code,
		Phone:       phone,
		City:        city,
		District:    district,
		Ward:        ward,
		PostCode:    postCode,
		Address:     address,
		Country:     country,
		Type:        t,
	}
}

func fromPackageAddress(a *domain.PackageAddress) *AddressDTO {
	if a == nil {
		return nil
	}
	dto := toAddressDTO(a.ID, a.Name, a.PrefixPhone, a.PhoneNumber, a.Code, a.Phone, a.City, a.District, a.Ward, a.PostCode, a.Address, a.Country, a.Type)
	return &dto
}

func fromShipmentAddress(a domain.ShipmentAddress) AddressDTO {
	return toAddressDTO(a.ID, a.Name, a.PrefixPhone, a.PhoneNumber, a.Code, a.Phone, a.City, a.District, a.Ward, a.PostCode, a.Address, "", a.Type)
}

// ToPackageDTO converts a domain Package to PackageDTO
func ToPackageDTO(p *domain.Package) *PackageDTO {
	dto := &PackageDTO{
		ID:             p.ID,
		PackageNumber:  p.PackageNumber,
		CustomerID:     p.CustomerID,
		CarrierID:      p.CarrierID,
		WarehouseID:    p.WarehouseID,
		Note:           p.Note,
		Status:         p.Status,
		Length:         p.Length,
		Width:          p.Width,
		Height:         p.Height,
		Weight:         p.Weight,
		Amount:         p.Amount,
		CubitUnit:      p.CubitUnit,
		WeightUnit:     p.WeightUnit,
		AddressSender:  fromPackageAddress(p.SenderAddress()),
		AddressReceive: fromPackageAddress(p.ReceiverAddress()),
		Products:       make([]PackageProductDTO, 0, len(p.Products)),
		CreatedAt:      p.CreatedAt,
		CreatedBy:      p.CreatedBy,
		UpdatedAt:      p.UpdatedAt,
		UpdatedBy:      p.UpdatedBy,
	}
	for _, pp := range p.Products {
		dto.Products = append(dto.Products, PackageProductDTO{
			ID:          pp.ID,
			ProductID:   pp.ProductID,
			ProductName: pp.ProductName,
			Origin:      pp.Origin,
			OriginPrice: pp.OriginPrice,
			Quantity:    pp.Quantity,
			Total:       pp.Total,
			Unit:        pp.Unit,
			ProductLink: pp.ProductLink,
			Tax:         pp.Tax,
		})
	}
	return dto
}

// ToCarrierDTO converts a domain Carrier to CarrierDTO
func ToCarrierDTO(c *domain.Carrier) *CarrierDTO {
	return &CarrierDTO{
		ID:               c.ID,
		Code:             c.Code,
		Name:             c.Name,
		Type:             c.Type,
		ShippingMethod:   c.ShippingMethod,
		LastmileTracking: c.LastmileTracking,
		Logo:             c.Logo,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// ToWarehouseDTO converts a domain Warehouse to WarehouseDTO
func ToWarehouseDTO(w *domain.Warehouse) *WarehouseDTO {
	return &WarehouseDTO{
		ID:          w.ID,
		Name:        w.Name,
		Code:        w.Code,
		Logo:        w.Logo,
		PrefixPhone: w.PrefixPhone,
		PhoneNumber: w.PhoneNumber,
		Phone:       w.Phone,
		City:        w.City,
		District:    w.District,
		Ward:        w.Ward,
		PostCode:    w.PostCode,
		Address:     w.Address,
		Country:     w.Country,
		Latitude:    w.Latitude,
		Longitude:   w.Longitude,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// ToCustomerDTO converts a customer profile to CustomerDTO
func ToCustomerDTO(c *domain.CustomerProfile) *CustomerDTO {
	if c == nil {
		return nil
	}
	return &CustomerDTO{ID: c.ID, FullName: c.FullName, Email: c.Email, PhoneNumber: c.PhoneNumber}
}

// ToShipmentDTO converts a domain Shipment to ShipmentDTO
func ToShipmentDTO(s *domain.Shipment) ShipmentDTO {
	return ShipmentDTO{
		ID:             s.ID,
		ShipmentNumber: s.ShipmentNumber,
		CustomerID:     s.CustomerID,
		CarrierID:      s.CarrierID,
		WarehouseID:    s.WarehouseID,
		Note:           s.Note,
		Status:         s.Status,
		Weight:         s.Weight,
		Height:         s.Height,
		Amount:         s.Amount,
		PackageCount:   len(s.Packages),
		CreatedAt:      s.CreatedAt,
		CreatedBy:      s.CreatedBy,
		UpdatedAt:      s.UpdatedAt,
		UpdatedBy:      s.UpdatedBy,
	}
}

// ToShipmentDetailDTO converts a fully loaded shipment; references are filled by the caller
func ToShipmentDetailDTO(s *domain.Shipment) *ShipmentDetailDTO {
	dto := &ShipmentDetailDTO{
		ShipmentDTO: ToShipmentDTO(s),
		Addresses:   make([]AddressDTO, 0, len(s.Addresses)),
		Packages:    make([]PackageDTO, 0, len(s.Packages)),
	}
	for _, a := range s.Addresses {
		dto.Addresses = append(dto.Addresses, fromShipmentAddress(a))
	}
	for _, link := range s.Packages {
		if link.Package != nil {
			dto.Packages = append(dto.Packages, *ToPackageDTO(link.Package))
		}
	}
	return dto
}

// ToShipmentPackageDTO converts a link, embedding the package when loaded
func ToShipmentPackageDTO(l *domain.ShipmentPackage) *ShipmentPackageDTO {
	dto := &ShipmentPackageDTO{
		ID:         l.ID,
		ShipmentID: l.ShipmentID,
		PackageID:  l.PackageID,
		CreatedAt:  l.CreatedAt,
		CreatedBy:  l.CreatedBy,
	}
	if l.Package != nil {
		dto.Package = ToPackageDTO(l.Package)
	}
	return dto
}

// ToProductDTO converts a product graph to ProductDTO
func ToProductDTO(p *domain.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          p.ID,
		Code:        p.Code,
		SKU:         p.SKU,
		Name:        p.Name,
		MetaTitle:   p.MetaTitle,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		HasVariants: p.HasVariants,
		Attributes:  make(map[string][]string, len(p.Attributes)),
		Variants:    make([]ProductVariantDTO, 0, len(p.Variants)),
		CreatedAt:   p.CreatedAt,
	}

	// value id -> (attribute name, value)
	type named struct{ attr, value string }
	values := map[uuid.UUID]named{}
	for _, attr := range p.Attributes {
		list := make([]string, 0, len(attr.Values))
		for _, v := range attr.Values {
			list = append(list, v.Value)
			values[v.ID] = named{attr.Name, v.Value}
		}
		dto.Attributes[attr.Name] = list
	}

	for _, v := range p.Variants {
		vd := ProductVariantDTO{
			ID:              v.ID,
			SKU:             v.SKU,
			Price:           v.Price,
			Weight:          v.Weight,
			Length:          v.Length,
			Width:           v.Width,
			Height:          v.Height,
			StockQty:        v.StockQty,
			AttributeValues: make(map[string]string, len(v.AttributeValues)),
			ImageURLs:       make([]string, 0, len(v.Images)),
		}
		for _, av := range v.AttributeValues {
			if n, ok := values[av.ProductAttributeValueID]; ok {
				vd.AttributeValues[n.attr] = n.value
			}
		}
		for _, img := range v.Images {
			vd.ImageURLs = append(vd.ImageURLs, img.ImageURL)
		}
		dto.Variants = append(dto.Variants, vd)
	}
	return dto
}

func toProductSpec(cmd CreateProductCommand) domain.ProductSpec {
	spec := domain.ProductSpec{
		Code:        cmd.Code,
		SKU:         cmd.SKU,
		Name:        cmd.Name,
		MetaTitle:   cmd.MetaTitle,
		Description: cmd.Description,
		Category:    cmd.Category,
		Brand:       cmd.Brand,
		ImageURL:    cmd.ImageURL,
		Price:       cmd.Price,
		HasVariants: cmd.HasVariants,
	}
	for _, a := range cmd.Attributes {
		spec.Attributes = append(spec.Attributes, domain.AttributeSpec{Name: a.Name, Values: a.Values})
	}
	for _, v := range cmd.Variants {
		spec.Variants = append(spec.Variants, domain.VariantSpec{
			SKU:             v.SKU,
			Price:           v.Price,
			Weight:          v.Weight,
			Length:          v.Length,
			Width:           v.Width,
			Height:          v.Height,
			StockQty:        v.StockQty,
			AttributeValues: v.AttributeValues,
			ImageURLs:       v.ImageURLs,
		})
	}
	return spec
}

func toLineItem(in LineItemInput) domain.LineItem {
	return domain.LineItem{
		ProductID:   in.ProductID,
		ProductName: in.ProductName,
		Origin:      in.Origin,
		OriginPrice: in.OriginPrice,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		ProductLink: in.ProductLink,
		Tax:         in.Tax,
	}
}
