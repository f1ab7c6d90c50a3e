package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shipment is a consignment from one warehouse to one customer
type Shipment struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ShipmentNumber string            `gorm:"size:20;not null;uniqueIndex:uq_shipments_number" json:"shipmentNumber"`
	CustomerID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"customerId"`
	CarrierID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"carrierId"`
	WarehouseID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"warehouseId"`
	Note           string            `gorm:"type:text" json:"note,omitempty"`
	Status         ShipmentStatus    `gorm:"size:20;not null;index" json:"status"`
	Weight         decimal.Decimal   `gorm:"type:numeric(18,4);not null;default:0" json:"weight"`
	Height         decimal.Decimal   `gorm:"type:numeric(18,4);not null;default:0" json:"height"`
	Amount         decimal.Decimal   `gorm:"type:numeric(18,4);not null;default:0" json:"amount"`
	Addresses      []ShipmentAddress `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE" json:"addresses"`
	Packages       []ShipmentPackage `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE" json:"packages"`
	Audit

	events []DomainEvent
}

// ShipmentAddress is a type-tagged copy of a package address
type ShipmentAddress struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ShipmentID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"shipmentId"`
	Name        string      `gorm:"size:200;not null" json:"name"`
	PrefixPhone string      `gorm:"size:10" json:"prefixPhone,omitempty"`
	PhoneNumber string      `gorm:"size:30" json:"phoneNumber,omitempty"`
	Code        string      `gorm:"size:50" json:"code,omitempty"`
	Phone       string      `gorm:"size:30" json:"phone,omitempty"`
	City        string      `gorm:"size:100" json:"city,omitempty"`
	District    string      `gorm:"size:100" json:"district,omitempty"`
	Ward        string      `gorm:"size:100" json:"ward,omitempty"`
	PostCode    string      `gorm:"size:20" json:"postCode,omitempty"`
	Address     string      `gorm:"size:500;not null" json:"address"`
	Type        AddressType `gorm:"size:20;not null" json:"type"`
	Audit
}

// ShipmentPackage links a package to the shipment carrying it. A package
// belongs to at most one shipment.
type ShipmentPackage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShipmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"shipmentId"`
	PackageID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_shipment_packages_package" json:"packageId"`
	Package    *Package  `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE" json:"package,omitempty"`
	Audit
}

// NewShipmentPackage links packageID to shipmentID
func NewShipmentPackage(shipmentID, packageID uuid.UUID, actor string) ShipmentPackage {
	return ShipmentPackage{
		ID:         uuid.New(),
		ShipmentID: shipmentID,
		PackageID:  packageID,
		Audit:      Audit{CreatedBy: actor},
	}
}

// SumMetrics adds up weight, height and amount over packages. This is a
// business convention, not a dimensional computation.
func SumMetrics(packages []*Package) (weight, height, amount decimal.Decimal) {
	weight, height, amount = decimal.Zero, decimal.Zero, decimal.Zero
	for _, p := range packages {
		weight = weight.Add(p.Weight)
		height = height.Add(p.Height)
		amount = amount.Add(p.Amount)
	}
	return weight, height, amount
}

// AssembleParams are the inputs for a new shipment
type AssembleParams struct {
	ID          uuid.UUID
	Number      string
	CustomerID  uuid.UUID
	CarrierID   uuid.UUID
	WarehouseID uuid.UUID
	Note        string
	CreatedBy   string
	Packages    []*Package
	Now         time.Time
}

// AssembleShipment combines packages into a new shipment: totals are summed,
// package addresses are copied and one link is created per package. A
// ShipmentCreatedEvent is recorded for the outbox.
func AssembleShipment(p AssembleParams) (*Shipment, error) {
	if len(p.Packages) == 0 {
		return nil, ErrNoPackages
	}
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	weight, height, amount := SumMetrics(p.Packages)
	s := &Shipment{
		ID:             id,
		ShipmentNumber: p.Number,
		CustomerID:     p.CustomerID,
		CarrierID:      p.CarrierID,
		WarehouseID:    p.WarehouseID,
		Note:           p.Note,
		Status:         ShipmentStatusCreated,
		Weight:         weight,
		Height:         height,
		Amount:         amount,
		Audit:          Audit{CreatedAt: now, CreatedBy: p.CreatedBy, UpdatedAt: now},
	}

	for _, pkg := range p.Packages {
		if addr := pkg.SenderAddress(); addr != nil {
			s.Addresses = append(s.Addresses, s.copyAddress(addr, AddressTypeSender))
		}
		if addr := pkg.ReceiverAddress(); addr != nil {
			s.Addresses = append(s.Addresses, s.copyAddress(addr, AddressTypeReceiver))
		}
		s.Packages = append(s.Packages, NewShipmentPackage(s.ID, pkg.ID, p.CreatedBy))
	}

	s.addEvent(&ShipmentCreatedEvent{
		ShipmentID:     s.ID,
		ShipmentNumber: s.ShipmentNumber,
		CustomerID:     s.CustomerID,
		Status:         s.Status,
		CreatedAt:      now,
	})

	return s, nil
}

func (s *Shipment) copyAddress(a *PackageAddress, t AddressType) ShipmentAddress {
	return ShipmentAddress{
		ID:          uuid.New(),
		ShipmentID:  s.ID,
		Name:        a.Name,
		PrefixPhone: a.PrefixPhone,
		PhoneNumber: a.PhoneNumber,
		Code:        a.Code,
		Phone:       a.Phone,
		City:        a.City,
		District:    a.District,
		Ward:        a.Ward,
		PostCode:    a.PostCode,
		Address:     a.Address,
		Type:        t,
		Audit:       Audit{CreatedBy: s.CreatedBy},
	}
}

// PackageIDs returns the ids of all linked packages
func (s *Shipment) PackageIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Packages))
	for _, link := range s.Packages {
		ids = append(ids, link.PackageID)
	}
	return ids
}

// EnsureEditable rejects changes to delivered shipments
func (s *Shipment) EnsureEditable() error {
	if s.Status.IsTerminal() {
		return ErrShipmentDelivered
	}
	return nil
}

// ShipmentChanges holds optional field updates; nil leaves a field unchanged
type ShipmentChanges struct {
	Note   *string
	Weight *decimal.Decimal
	Height *decimal.Decimal
	Amount *decimal.Decimal
}

// Apply mutates the shipment after checking it is still editable
func (s *Shipment) Apply(c ShipmentChanges, actor string, now time.Time) error {
	if err := s.EnsureEditable(); err != nil {
		return err
	}
	for _, v := range []*decimal.Decimal{c.Weight, c.Height, c.Amount} {
		if v != nil && v.IsNegative() {
			return ErrInvalidQuantity
		}
	}

	if c.Note != nil {
		s.Note = *c.Note
	}
	if c.Weight != nil {
		s.Weight = *c.Weight
	}
	if c.Height != nil {
		s.Height = *c.Height
	}
	if c.Amount != nil {
		s.Amount = *c.Amount
	}
	s.Touch(actor, now)
	return nil
}

// ChangeStatus accepts any target status; there is no transition table, only
// the delivered lock.
func (s *Shipment) ChangeStatus(status ShipmentStatus, actor string, now time.Time) error {
	if err := s.EnsureEditable(); err != nil {
		return err
	}
	previous := s.Status
	s.Status = status
	s.Touch(actor, now)

	if previous != status {
		s.addEvent(&ShipmentStatusChangedEvent{
			ShipmentID:     s.ID,
			ShipmentNumber: s.ShipmentNumber,
			CustomerID:     s.CustomerID,
			PreviousStatus: previous,
			Status:         status,
			ChangedAt:      now,
		})
	}
	return nil
}

// RecalculateTotals resets weight, height and amount from the given packages
func (s *Shipment) RecalculateTotals(packages []*Package) {
	s.Weight, s.Height, s.Amount = SumMetrics(packages)
}

func (s *Shipment) addEvent(event DomainEvent) {
	s.events = append(s.events, event)
}

// GetDomainEvents returns all pending domain events
func (s *Shipment) GetDomainEvents() []DomainEvent {
	return s.events
}

// ClearDomainEvents clears all pending domain events
func (s *Shipment) ClearDomainEvents() {
	s.events = nil
}
