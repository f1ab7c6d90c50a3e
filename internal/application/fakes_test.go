package application

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/metrics"
	pkgtesting "github.com/wms-platform/shipment-service/pkg/testing"
)

// fakeStore is an in-memory backing store shared by the fake repositories
type fakeStore struct {
	mu         sync.Mutex
	warehouses map[uuid.UUID]*domain.Warehouse
	carriers   map[uuid.UUID]*domain.Carrier
	products   map[uuid.UUID]*domain.Product
	packages   map[uuid.UUID]*domain.Package
	shipments  map[uuid.UUID]*domain.Shipment
	links      map[uuid.UUID]*domain.ShipmentPackage
	customers  map[uuid.UUID]*domain.CustomerProfile

	writes int

	// optional overrides
	shipmentCreateFn   func(*domain.Shipment, []*domain.Package) error
	packageCreateAllFn func([]*domain.Package) error
	packageUpdateFn    func(*domain.Package) error
	customerErr        error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		warehouses: map[uuid.UUID]*domain.Warehouse{},
		carriers:   map[uuid.UUID]*domain.Carrier{},
		products:   map[uuid.UUID]*domain.Product{},
		packages:   map[uuid.UUID]*domain.Package{},
		shipments:  map[uuid.UUID]*domain.Shipment{},
		links:      map[uuid.UUID]*domain.ShipmentPackage{},
		customers:  map[uuid.UUID]*domain.CustomerProfile{},
	}
}

func (s *fakeStore) addWarehouse() *domain.Warehouse {
	w := &domain.Warehouse{ID: uuid.New(), Code: "WH-HN", Name: "Hanoi Hub", Address: "1 Dock Rd", City: "Hanoi", Phone: "0900"}
	s.warehouses[w.ID] = w
	return w
}

func (s *fakeStore) addCarrier() *domain.Carrier {
	c := &domain.Carrier{ID: uuid.New(), Code: "EXP", Name: "Express Co", Type: domain.CarrierTypeExpress, ShippingMethod: domain.ShippingMethodAir}
	s.carriers[c.ID] = c
	return c
}

func (s *fakeStore) addCustomer(withDefault bool) *domain.CustomerProfile {
	c := &domain.CustomerProfile{
		ID:          uuid.New(),
		FullName:    "Nguyen Van A",
		PhoneNumber: "0911",
		Addresses:   []domain.CustomerAddress{{ID: uuid.New(), Address: "5 Main St", City: "Da Nang", IsDefaultAddress: withDefault}},
	}
	s.customers[c.ID] = c
	return c
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *fakeStore) linkedShipment(packageID uuid.UUID) *domain.ShipmentPackage {
	for _, l := range s.links {
		if l.PackageID == packageID {
			return l
		}
	}
	return nil
}

func (s *fakeStore) refreshTotals(shipmentID uuid.UUID) {
	sh := s.shipments[shipmentID]
	if sh == nil {
		return
	}
	var pkgs []*domain.Package
	for _, l := range s.links {
		if l.ShipmentID == shipmentID {
			pkgs = append(pkgs, s.packages[l.PackageID])
		}
	}
	sh.RecalculateTotals(pkgs)
}

func window[T any](items []T, q domain.ListQuery) []T {
	if q.Offset >= len(items) {
		return nil
	}
	end := q.Offset + q.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[q.Offset:end]
}

type fakeWarehouses struct{ *fakeStore }

func (f fakeWarehouses) Create(_ context.Context, w *domain.Warehouse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.warehouses[w.ID] = w
	return nil
}

func (f fakeWarehouses) FindByID(_ context.Context, id uuid.UUID) (*domain.Warehouse, error) {
	return f.warehouses[id], nil
}

func (f fakeWarehouses) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Warehouse, error) {
	var out []*domain.Warehouse
	for _, id := range ids {
		if w, ok := f.warehouses[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f fakeWarehouses) FindByCodeAndName(_ context.Context, code, name string) (*domain.Warehouse, error) {
	for _, w := range f.warehouses {
		if w.Code == code && w.Name == name {
			return w, nil
		}
	}
	return nil, nil
}

func (f fakeWarehouses) List(_ context.Context, q domain.ListQuery) ([]*domain.Warehouse, int64, error) {
	var all []*domain.Warehouse
	for _, w := range f.warehouses {
		all = append(all, w)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return window(all, q), int64(len(all)), nil
}

func (f fakeWarehouses) Update(_ context.Context, w *domain.Warehouse) error {
	f.writes++
	f.warehouses[w.ID] = w
	return nil
}

func (f fakeWarehouses) Delete(_ context.Context, id uuid.UUID, _ string) error {
	f.writes++
	delete(f.warehouses, id)
	return nil
}

type fakeCarriers struct{ *fakeStore }

func (f fakeCarriers) Create(_ context.Context, c *domain.Carrier) error {
	f.writes++
	f.carriers[c.ID] = c
	return nil
}

func (f fakeCarriers) FindByID(_ context.Context, id uuid.UUID) (*domain.Carrier, error) {
	return f.carriers[id], nil
}

func (f fakeCarriers) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Carrier, error) {
	var out []*domain.Carrier
	for _, id := range ids {
		if c, ok := f.carriers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f fakeCarriers) FindByCode(_ context.Context, code string) (*domain.Carrier, error) {
	for _, c := range f.carriers {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, nil
}

func (f fakeCarriers) List(_ context.Context, q domain.ListQuery) ([]*domain.Carrier, int64, error) {
	var all []*domain.Carrier
	for _, c := range f.carriers {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return window(all, q), int64(len(all)), nil
}

func (f fakeCarriers) Update(_ context.Context, c *domain.Carrier) error {
	f.writes++
	f.carriers[c.ID] = c
	return nil
}

func (f fakeCarriers) Delete(_ context.Context, id uuid.UUID, _ string) error {
	f.writes++
	delete(f.carriers, id)
	return nil
}

type fakeProducts struct{ *fakeStore }

func (f fakeProducts) Create(_ context.Context, p *domain.Product) error {
	f.writes++
	f.products[p.ID] = p
	return nil
}

func (f fakeProducts) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	return f.products[id], nil
}

func (f fakeProducts) FindByCodeOrSKU(_ context.Context, code, sku string) (*domain.Product, error) {
	for _, p := range f.products {
		if p.Code == code || (sku != "" && p.SKU == sku) {
			return p, nil
		}
	}
	return nil, nil
}

type fakePackages struct{ *fakeStore }

func (f fakePackages) CreateAll(_ context.Context, pkgs []*domain.Package) error {
	if f.packageCreateAllFn != nil {
		if err := f.packageCreateAllFn(pkgs); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range pkgs {
		for _, existing := range f.packages {
			if existing.PackageNumber == p.PackageNumber {
				return domain.ErrDuplicateNumber
			}
		}
	}
	f.writes++
	for _, p := range pkgs {
		for _, prod := range p.NewProducts() {
			f.products[prod.ID] = prod
		}
		f.packages[p.ID] = p
	}
	return nil
}

func (f fakePackages) FindByID(_ context.Context, id uuid.UUID) (*domain.Package, error) {
	return f.packages[id], nil
}

func (f fakePackages) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Package, error) {
	var out []*domain.Package
	for _, id := range ids {
		if p, ok := f.packages[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakePackages) FindByIDAndCustomer(_ context.Context, id, customerID uuid.UUID) (*domain.Package, error) {
	if p, ok := f.packages[id]; ok && p.CustomerID == customerID {
		return p, nil
	}
	return nil, nil
}

func (f fakePackages) List(_ context.Context, filter domain.PackageFilter, q domain.ListQuery) ([]*domain.Package, int64, error) {
	var all []*domain.Package
	for _, p := range f.packages {
		if filter.CustomerID != nil && p.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(p.PackageNumber, filter.Keyword) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if q.Descending {
			return all[i].PackageNumber > all[j].PackageNumber
		}
		return all[i].PackageNumber < all[j].PackageNumber
	})
	return window(all, q), int64(len(all)), nil
}

func (f fakePackages) Update(_ context.Context, p *domain.Package) error {
	if f.packageUpdateFn != nil {
		return f.packageUpdateFn(p)
	}
	f.writes++
	f.packages[p.ID] = p
	if l := f.linkedShipment(p.ID); l != nil {
		f.refreshTotals(l.ShipmentID)
	}
	return nil
}

func (f fakePackages) AddProduct(_ context.Context, p *domain.Package, _ *domain.PackageProduct) error {
	if f.packageUpdateFn != nil {
		return f.packageUpdateFn(p)
	}
	f.writes++
	f.packages[p.ID] = p
	if l := f.linkedShipment(p.ID); l != nil {
		f.refreshTotals(l.ShipmentID)
	}
	return nil
}

func (f fakePackages) Delete(_ context.Context, id uuid.UUID) error {
	f.writes++
	delete(f.packages, id)
	if l := f.linkedShipment(id); l != nil {
		delete(f.links, l.ID)
	}
	return nil
}

type fakeShipments struct{ *fakeStore }

func (f fakeShipments) Create(_ context.Context, sh *domain.Shipment, newPackages []*domain.Package) error {
	if f.shipmentCreateFn != nil {
		if err := f.shipmentCreateFn(sh, newPackages); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.shipments {
		if existing.ShipmentNumber == sh.ShipmentNumber {
			return domain.ErrDuplicateNumber
		}
	}
	for _, link := range sh.Packages {
		if f.linkedShipment(link.PackageID) != nil {
			return domain.ErrPackageAlreadyLinked
		}
	}
	f.writes++
	for _, p := range newPackages {
		f.packages[p.ID] = p
	}
	f.shipments[sh.ID] = sh
	for i := range sh.Packages {
		f.links[sh.Packages[i].ID] = &sh.Packages[i]
	}
	sh.ClearDomainEvents()
	return nil
}

func (f fakeShipments) FindByID(_ context.Context, id uuid.UUID) (*domain.Shipment, error) {
	return f.shipments[id], nil
}

func (f fakeShipments) FindDetail(_ context.Context, id uuid.UUID) (*domain.Shipment, error) {
	sh, ok := f.shipments[id]
	if !ok {
		return nil, nil
	}
	for i := range sh.Packages {
		sh.Packages[i].Package = f.packages[sh.Packages[i].PackageID]
	}
	return sh, nil
}

func (f fakeShipments) List(_ context.Context, filter domain.ShipmentFilter, q domain.ListQuery) ([]*domain.Shipment, int64, error) {
	var all []*domain.Shipment
	for _, sh := range f.shipments {
		if filter.CustomerID != nil && sh.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && sh.Status != *filter.Status {
			continue
		}
		all = append(all, sh)
	}
	sort.Slice(all, func(i, j int) bool {
		if q.Descending {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return window(all, q), int64(len(all)), nil
}

func (f fakeShipments) Save(_ context.Context, sh *domain.Shipment) error {
	f.writes++
	f.shipments[sh.ID] = sh
	sh.ClearDomainEvents()
	return nil
}

func (f fakeShipments) Delete(_ context.Context, id uuid.UUID) error {
	f.writes++
	delete(f.shipments, id)
	for lid, l := range f.links {
		if l.ShipmentID == id {
			delete(f.links, lid)
		}
	}
	return nil
}

func (f fakeShipments) FindAddress(_ context.Context, addressID uuid.UUID) (*domain.ShipmentAddress, error) {
	for _, sh := range f.shipments {
		for i := range sh.Addresses {
			if sh.Addresses[i].ID == addressID {
				return &sh.Addresses[i], nil
			}
		}
	}
	return nil, nil
}

type fakeLinks struct{ *fakeStore }

func (f fakeLinks) FindByID(_ context.Context, id uuid.UUID) (*domain.ShipmentPackage, error) {
	return f.links[id], nil
}

func (f fakeLinks) FindByShipmentID(_ context.Context, shipmentID uuid.UUID) ([]*domain.ShipmentPackage, error) {
	var out []*domain.ShipmentPackage
	for _, l := range f.links {
		if l.ShipmentID == shipmentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f fakeLinks) FindByPackageIDs(_ context.Context, ids []uuid.UUID) ([]*domain.ShipmentPackage, error) {
	var out []*domain.ShipmentPackage
	for _, id := range ids {
		if l := f.linkedShipment(id); l != nil {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f fakeLinks) Attach(_ context.Context, shipmentID uuid.UUID, links []domain.ShipmentPackage) error {
	f.writes++
	for i := range links {
		l := links[i]
		f.links[l.ID] = &l
	}
	f.refreshTotals(shipmentID)
	return nil
}

func (f fakeLinks) Detach(_ context.Context, id uuid.UUID) error {
	f.writes++
	l := f.links[id]
	delete(f.links, id)
	if l != nil {
		f.refreshTotals(l.ShipmentID)
	}
	return nil
}

type fakeCustomers struct{ *fakeStore }

func (f fakeCustomers) GetCustomerDetail(_ context.Context, id uuid.UUID) (*domain.CustomerProfile, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return f.customers[id], nil
}

func (f fakeCustomers) GetCustomersByIds(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.CustomerProfile, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	out := map[uuid.UUID]*domain.CustomerProfile{}
	for _, id := range ids {
		if c, ok := f.customers[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

// numbers answers the identifier generator from the store's rows
type fakeNumbers struct{ *fakeStore }

func (f fakeNumbers) ShipmentNumberExists(_ context.Context, number string) (bool, error) {
	for _, sh := range f.shipments {
		if sh.ShipmentNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeNumbers) CountPackageNumbers(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, p := range f.packages {
		if strings.HasPrefix(p.PackageNumber, prefix) {
			n++
		}
	}
	return n, nil
}

func (f fakeNumbers) MaxPackageNumber(_ context.Context, prefix string) (string, error) {
	latest := ""
	for _, p := range f.packages {
		if strings.HasPrefix(p.PackageNumber, prefix) && p.PackageNumber > latest {
			latest = p.PackageNumber
		}
	}
	return latest, nil
}

// testServices wires every service against one fake store
type testServices struct {
	store     *fakeStore
	numbers   *domain.IdentifierGenerator
	shipments *ShipmentService
	packages  *PackageService
	links     *ShipmentPackageService
	catalog   *CatalogService
	metrics   *metrics.Metrics
}

func newTestServices(opts ...domain.IdentifierOption) *testServices {
	store := newFakeStore()
	logger := pkgtesting.DiscardLogger("shipment-test")
	m := metrics.New(metrics.DefaultConfig("shipment-test"))
	numbers := domain.NewIdentifierGenerator(fakeNumbers{store}, opts...)

	aggregator := NewPackageAggregator(fakeWarehouses{store}, fakeCarriers{store}, fakePackages{store}, fakeCustomers{store}, numbers, logger, m)

	return &testServices{
		store:   store,
		numbers: numbers,
		shipments: NewShipmentService(
			fakeShipments{store}, fakePackages{store}, fakeLinks{store},
			fakeCarriers{store}, fakeWarehouses{store}, fakeCustomers{store},
			aggregator, numbers, logger, m,
		),
		packages: NewPackageService(fakePackages{store}, fakeShipments{store}, aggregator, numbers, logger, m),
		links:    NewShipmentPackageService(fakeLinks{store}, fakeShipments{store}, fakePackages{store}, logger),
		catalog:  NewCatalogService(fakeCarriers{store}, fakeWarehouses{store}, fakeProducts{store}, logger),
		metrics:  m,
	}
}
