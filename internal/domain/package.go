package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Package is a physical parcel holding product line items
type Package struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	PackageNumber string           `gorm:"size:20;not null;uniqueIndex:uq_packages_number" json:"packageNumber"`
	CustomerID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"customerId"`
	CarrierID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"carrierId"`
	WarehouseID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"warehouseId"`
	Note          string           `gorm:"type:text" json:"note,omitempty"`
	Status        PackageStatus    `gorm:"size:20;not null;index" json:"status"`
	Length        decimal.Decimal  `gorm:"type:numeric(18,4);not null;default:0" json:"length"`
	Width         decimal.Decimal  `gorm:"type:numeric(18,4);not null;default:0" json:"width"`
	Height        decimal.Decimal  `gorm:"type:numeric(18,4);not null;default:0" json:"height"`
	Weight        decimal.Decimal  `gorm:"type:numeric(18,4);not null;default:0" json:"weight"`
	Amount        decimal.Decimal  `gorm:"type:numeric(18,4);not null;default:0" json:"amount"`
	CubitUnit     CubitUnit        `gorm:"size:10;not null" json:"cubitUnit"`
	WeightUnit    WeightUnit       `gorm:"size:10;not null" json:"weightUnit"`
	Addresses     []PackageAddress `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE" json:"addresses"`
	Products      []PackageProduct `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE" json:"products"`
	Audit

	// catalog products created alongside this package, inserted before it
	newProducts []*Product
}

// PackageAddress is a sender or receiver address snapshot on a package
type PackageAddress struct {
	ID                    uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	PackageID             uuid.UUID     `gorm:"type:uuid;not null;index" json:"packageId"`
	Name                  string        `gorm:"size:200;not null" json:"name"`
	PrefixPhone           string        `gorm:"size:10" json:"prefixPhone,omitempty"`
	PhoneNumber           string        `gorm:"size:30" json:"phoneNumber,omitempty"`
	Code                  string        `gorm:"size:50" json:"code,omitempty"`
	Phone                 string        `gorm:"size:30" json:"phone,omitempty"`
	City                  string        `gorm:"size:100" json:"city,omitempty"`
	District              string        `gorm:"size:100" json:"district,omitempty"`
	Ward                  string        `gorm:"size:100" json:"ward,omitempty"`
	PostCode              string        `gorm:"size:20" json:"postCode,omitempty"`
	Address               string        `gorm:"size:500;not null" json:"address"`
	Country               string        `gorm:"size:100" json:"country,omitempty"`
	Latitude              *float64      `json:"latitude,omitempty"`
	Longitude             *float64      `json:"longitude,omitempty"`
	DeliveryInstructions  string        `gorm:"type:text" json:"deliveryInstructions,omitempty"`
	IsDefault             bool          `gorm:"not null;default:false" json:"isDefault"`
	EstimatedDeliveryDate *time.Time    `json:"estimatedDeliveryDate,omitempty"`
	DeliveryDate          *time.Time    `json:"deliveryDate,omitempty"`
	Type                  AddressType   `gorm:"size:20;not null" json:"type"`
	Status                AddressStatus `gorm:"size:20;not null;default:'Active'" json:"status"`
	Audit
}

// PackageProduct is a line item inside a package. Total is fixed at write time.
type PackageProduct struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	PackageID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"packageId"`
	ProductID   *uuid.UUID       `gorm:"type:uuid;index" json:"productId,omitempty"`
	Product     *Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"product,omitempty"`
	ProductName string           `gorm:"size:300;not null" json:"productName"`
	Origin      string           `gorm:"size:200" json:"origin,omitempty"`
	OriginPrice decimal.Decimal  `gorm:"type:numeric(18,4);not null;default:0" json:"originPrice"`
	Quantity    int64            `gorm:"not null;default:0" json:"quantity"`
	Total       decimal.Decimal  `gorm:"type:numeric(18,4);not null;default:0" json:"total"`
	Unit        string           `gorm:"size:50" json:"unit,omitempty"`
	ProductLink string           `gorm:"size:1000" json:"productLink,omitempty"`
	Tax         *decimal.Decimal `gorm:"type:numeric(18,4)" json:"tax,omitempty"`
	Audit
}

// Dimensions are the physical measurements of a package
type Dimensions struct {
	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal
	Weight decimal.Decimal
}

func (d Dimensions) Validate() error {
	if d.Length.IsNegative() || d.Width.IsNegative() || d.Height.IsNegative() || d.Weight.IsNegative() {
		return ErrInvalidQuantity
	}
	return nil
}

// LineItem is an ad-hoc package line used when no catalog product exists
type LineItem struct {
	ProductID   *uuid.UUID
	ProductName string
	Origin      string
	OriginPrice decimal.Decimal
	Quantity    int64
	Unit        string
	ProductLink string
	Tax         *decimal.Decimal
}

// NewPackageProduct builds a line item with Total = Quantity * OriginPrice
func NewPackageProduct(packageID uuid.UUID, line LineItem, actor string) (PackageProduct, error) {
	if line.Quantity < 0 || line.OriginPrice.IsNegative() {
		return PackageProduct{}, ErrInvalidQuantity
	}
	return PackageProduct{
		ID:          uuid.New(),
		PackageID:   packageID,
		ProductID:   line.ProductID,
		ProductName: line.ProductName,
		Origin:      line.Origin,
		OriginPrice: line.OriginPrice,
		Quantity:    line.Quantity,
		Total:       line.OriginPrice.Mul(decimal.NewFromInt(line.Quantity)),
		Unit:        line.Unit,
		ProductLink: line.ProductLink,
		Tax:         line.Tax,
		Audit:       Audit{CreatedBy: actor},
	}, nil
}

// NewPackageParams are the inputs for a package that does not exist yet
type NewPackageParams struct {
	ID          uuid.UUID
	Number      string
	CustomerID  uuid.UUID
	CarrierID   uuid.UUID
	WarehouseID uuid.UUID
	Note        string
	Status      PackageStatus
	Dimensions  Dimensions
	CubitUnit   CubitUnit
	WeightUnit  WeightUnit
	CreatedBy   string
}

// NewPackage creates a package in Created status unless another status is given
func NewPackage(p NewPackageParams) (*Package, error) {
	if err := p.Dimensions.Validate(); err != nil {
		return nil, err
	}
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	status := p.Status
	if status == "" {
		status = PackageStatusCreated
	}
	cubit := p.CubitUnit
	if cubit == "" {
		cubit = CubitUnitCm
	}
	weightUnit := p.WeightUnit
	if weightUnit == "" {
		weightUnit = WeightUnitKg
	}

	return &Package{
		ID:            id,
		PackageNumber: p.Number,
		CustomerID:    p.CustomerID,
		CarrierID:     p.CarrierID,
		WarehouseID:   p.WarehouseID,
		Note:          p.Note,
		Status:        status,
		Length:        p.Dimensions.Length,
		Width:         p.Dimensions.Width,
		Height:        p.Dimensions.Height,
		Weight:        p.Dimensions.Weight,
		Amount:        decimal.Zero,
		CubitUnit:     cubit,
		WeightUnit:    weightUnit,
		Audit:         Audit{CreatedBy: p.CreatedBy},
	}, nil
}

// AttachAddresses sets the sender and receiver addresses
func (p *Package) AttachAddresses(sender, receiver PackageAddress) {
	sender.PackageID = p.ID
	receiver.PackageID = p.ID
	sender.CreatedBy = p.CreatedBy
	receiver.CreatedBy = p.CreatedBy
	p.Addresses = []PackageAddress{sender, receiver}
}

// AddLine appends an ad-hoc line item
func (p *Package) AddLine(line LineItem) error {
	pp, err := NewPackageProduct(p.ID, line, p.CreatedBy)
	if err != nil {
		return err
	}
	p.Products = append(p.Products, pp)
	return nil
}

// AppendLine adds a line item to a stored package and grows its amount by the
// line total
func (p *Package) AppendLine(line LineItem, actor string, now time.Time) (*PackageProduct, error) {
	if err := p.EnsureEditable(); err != nil {
		return nil, err
	}
	pp, err := NewPackageProduct(p.ID, line, actor)
	if err != nil {
		return nil, err
	}
	p.Products = append(p.Products, pp)
	p.Amount = p.Amount.Add(pp.Total)
	p.Touch(actor, now)
	return &p.Products[len(p.Products)-1], nil
}

// AddCatalogProduct appends a line summarizing a freshly created catalog product:
// quantity is total variant stock and total is the stock value.
func (p *Package) AddCatalogProduct(product *Product) {
	quantity, total := product.StockSummary()
	productID := product.ID
	p.Products = append(p.Products, PackageProduct{
		ID:          uuid.New(),
		PackageID:   p.ID,
		ProductID:   &productID,
		ProductName: product.Name,
		Quantity:    quantity,
		Total:       total,
		Audit:       Audit{CreatedBy: p.CreatedBy},
	})
	p.newProducts = append(p.newProducts, product)
}

// NewProducts returns catalog products that must be persisted with the package
func (p *Package) NewProducts() []*Product {
	return p.newProducts
}

// LinesTotal sums the totals of all line items
func (p *Package) LinesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, pp := range p.Products {
		sum = sum.Add(pp.Total)
	}
	return sum
}

// SettleAmount sets Amount to the supplied value, or to the line total when absent
func (p *Package) SettleAmount(supplied *decimal.Decimal) error {
	if supplied != nil {
		if supplied.IsNegative() {
			return ErrInvalidQuantity
		}
		p.Amount = *supplied
		return nil
	}
	p.Amount = p.LinesTotal()
	return nil
}

func (p *Package) address(t AddressType) *PackageAddress {
	for i := range p.Addresses {
		if p.Addresses[i].Type == t {
			return &p.Addresses[i]
		}
	}
	return nil
}

func (p *Package) SenderAddress() *PackageAddress   { return p.address(AddressTypeSender) }
func (p *Package) ReceiverAddress() *PackageAddress { return p.address(AddressTypeReceiver) }

// EnsureEditable rejects changes to delivered packages
func (p *Package) EnsureEditable() error {
	if p.Status.IsTerminal() {
		return ErrPackageDelivered
	}
	return nil
}

// PackageChanges holds optional field updates; nil leaves a field unchanged
type PackageChanges struct {
	Status *PackageStatus
	Note   *string
	Length *decimal.Decimal
	Width  *decimal.Decimal
	Height *decimal.Decimal
	Weight *decimal.Decimal
}

// Apply mutates the package after checking it is still editable
func (p *Package) Apply(c PackageChanges, actor string, now time.Time) error {
	if err := p.EnsureEditable(); err != nil {
		return err
	}
	for _, v := range []*decimal.Decimal{c.Length, c.Width, c.Height, c.Weight} {
		if v != nil && v.IsNegative() {
			return ErrInvalidQuantity
		}
	}

	if c.Status != nil {
		p.Status = *c.Status
	}
	if c.Note != nil {
		p.Note = *c.Note
	}
	if c.Length != nil {
		p.Length = *c.Length
	}
	if c.Width != nil {
		p.Width = *c.Width
	}
	if c.Height != nil {
		p.Height = *c.Height
	}
	if c.Weight != nil {
		p.Weight = *c.Weight
	}
	p.Touch(actor, now)
	return nil
}

// ChangeStatus sets any status value; only a delivered package is locked
func (p *Package) ChangeStatus(status PackageStatus, actor string, now time.Time) error {
	return p.Apply(PackageChanges{Status: &status}, actor, now)
}
