package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/api"
	pkgerrors "github.com/wms-platform/shipment-service/pkg/errors"
	pkgtesting "github.com/wms-platform/shipment-service/pkg/testing"
)

var dec = pkgtesting.Dec

func requireAppError(t *testing.T, err error, status int, reason string) *pkgerrors.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *pkgerrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, status, appErr.HTTPStatus)
	if reason != "" {
		assert.Equal(t, reason, appErr.Reason())
	}
	return appErr
}

type fixture struct {
	*testServices
	warehouse *domain.Warehouse
	carrier   *domain.Carrier
	customer  *domain.CustomerProfile
}

func newFixture(opts ...domain.IdentifierOption) *fixture {
	ts := newTestServices(opts...)
	return &fixture{
		testServices: ts,
		warehouse:    ts.store.addWarehouse(),
		carrier:      ts.store.addCarrier(),
		customer:     ts.store.addCustomer(true),
	}
}

func (f *fixture) shipmentCommand(specs ...PackageSpec) CreateShipmentCommand {
	return CreateShipmentCommand{
		CustomerID:  f.customer.ID,
		WarehouseID: f.warehouse.ID,
		CarrierID:   f.carrier.ID,
		Note:        "handle with care",
		Packages:    specs,
		CreatedBy:   "staff-1",
	}
}

func shoesSpec() PackageSpec {
	return PackageSpec{
		Length: dec("30"),
		Width:  dec("20"),
		Height: dec("10"),
		Weight: dec("2"),
		PackageProducts: []LineItemInput{
			{ProductName: "Shoes", OriginPrice: dec("100"), Quantity: 3},
		},
	}
}

func TestCreateShipmentFromNewPackage(t *testing.T) {
	f := newFixture()

	dto, err := f.shipments.CreateShipment(context.Background(), f.shipmentCommand(shoesSpec()))
	require.NoError(t, err)

	assert.Regexp(t, `^SJA\d{4}[0-9a-f]{4}$`, dto.ShipmentNumber)
	assert.Equal(t, string(domain.ShipmentStatusCreated), dto.Status)
	pkgtesting.AssertDecimalEqual(t, dec("2"), dto.Weight)
	pkgtesting.AssertDecimalEqual(t, dec("10"), dto.Height)
	pkgtesting.AssertDecimalEqual(t, dec("300"), dto.Amount)
	require.Len(t, dto.PackageIDs, 1)
	assert.Regexp(t, `^PK\d{6}0001$`, dto.PackageNumbers[0])

	shipment := f.store.shipments[dto.ID]
	require.NotNil(t, shipment)
	assert.Len(t, shipment.Packages, 1)
	require.Len(t, shipment.Addresses, 2)
	assert.Equal(t, "Warehouse", shipment.Addresses[0].Name)
	assert.Equal(t, domain.AddressTypeSender, shipment.Addresses[0].Type)
	assert.Equal(t, "User", shipment.Addresses[1].Name)
	assert.Equal(t, "5 Main St", shipment.Addresses[1].Address)
	assert.Equal(t, "staff-1", shipment.CreatedBy)

	pkg := f.store.packages[dto.PackageIDs[0]]
	require.NotNil(t, pkg)
	require.Len(t, pkg.Products, 1)
	pkgtesting.AssertDecimalEqual(t, dec("300"), pkg.Products[0].Total)
	assert.Equal(t, domain.PackageStatusCreated, pkg.Status)

	// packages and shipment land in one write
	assert.Equal(t, 1, f.store.writeCount())
}

func TestCreateShipmentTotalsAreSums(t *testing.T) {
	f := newFixture()
	specs := []PackageSpec{
		{Weight: dec("1.5"), Height: dec("4"), Amount: decPtr("12.25")},
		{Weight: dec("0.25"), Height: dec("6.5"), PackageProducts: []LineItemInput{{ProductName: "Cup", OriginPrice: dec("7.5"), Quantity: 2}}},
		{Weight: dec("3"), Height: dec("0")},
	}

	dto, err := f.shipments.CreateShipment(context.Background(), f.shipmentCommand(specs...))
	require.NoError(t, err)

	var weight, height, amount = decimal.Zero, decimal.Zero, decimal.Zero
	for _, id := range dto.PackageIDs {
		p := f.store.packages[id]
		weight = weight.Add(p.Weight)
		height = height.Add(p.Height)
		amount = amount.Add(p.Amount)
	}
	pkgtesting.AssertDecimalEqual(t, weight, dto.Weight)
	pkgtesting.AssertDecimalEqual(t, height, dto.Height)
	pkgtesting.AssertDecimalEqual(t, amount, dto.Amount)
	pkgtesting.AssertDecimalEqual(t, dec("27.25"), dto.Amount)

	shipment := f.store.shipments[dto.ID]
	assert.Len(t, shipment.Packages, 3)
	assert.Len(t, shipment.Addresses, 6)
}

func TestCreateShipmentMissingCarrier(t *testing.T) {
	f := newFixture()
	cmd := f.shipmentCommand(shoesSpec())
	cmd.CarrierID = uuid.New()

	_, err := f.shipments.CreateShipment(context.Background(), cmd)

	requireAppError(t, err, http.StatusBadRequest, "CarrierNotFound")
	assert.Zero(t, f.store.writeCount())
	assert.Empty(t, f.store.packages)
}

func TestCreateShipmentReferenceFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fixture, *CreateShipmentCommand)
		status int
		reason string
	}{
		{
			name:   "missing warehouse wins over missing carrier",
			mutate: func(_ *fixture, c *CreateShipmentCommand) { c.WarehouseID, c.CarrierID = uuid.New(), uuid.New() },
			status: http.StatusBadRequest,
			reason: "WarehouseNotFound",
		},
		{
			name:   "unknown customer",
			mutate: func(_ *fixture, c *CreateShipmentCommand) { c.CustomerID = uuid.New() },
			status: http.StatusBadRequest,
			reason: "CustomerNotFound",
		},
		{
			name: "customer without default address",
			mutate: func(f *fixture, c *CreateShipmentCommand) {
				c.CustomerID = f.store.addCustomer(false).ID
			},
			status: http.StatusBadRequest,
			reason: "NoDefaultAddress",
		},
		{
			name: "customer service down",
			mutate: func(f *fixture, _ *CreateShipmentCommand) {
				f.store.customerErr = errors.New("connection refused")
			},
			status: http.StatusInternalServerError,
		},
		{
			name:   "no packages",
			mutate: func(_ *fixture, c *CreateShipmentCommand) { c.Packages = nil },
			status: http.StatusBadRequest,
			reason: "NoPackages",
		},
		{
			name: "negative line quantity",
			mutate: func(_ *fixture, c *CreateShipmentCommand) {
				c.Packages[0].PackageProducts[0].Quantity = -1
			},
			status: http.StatusBadRequest,
			reason: "InvalidQuantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			cmd := f.shipmentCommand(shoesSpec())
			tt.mutate(f, &cmd)

			_, err := f.shipments.CreateShipment(context.Background(), cmd)

			requireAppError(t, err, tt.status, tt.reason)
			assert.Zero(t, f.store.writeCount())
		})
	}
}

func TestCreateShipmentReusesCustomerPackage(t *testing.T) {
	f := newFixture()
	first, err := f.packages.CreatePackage(context.Background(), CreatePackageCommand{
		CustomerID:  f.customer.ID,
		WarehouseID: f.warehouse.ID,
		CarrierID:   f.carrier.ID,
		PackageSpec: shoesSpec(),
	})
	require.NoError(t, err)

	spec := shoesSpec()
	spec.ID = &first.ID
	spec.Weight = dec("99") // ignored: the stored package is reused unchanged

	dto, err := f.shipments.CreateShipment(context.Background(), f.shipmentCommand(spec))
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{first.ID}, dto.PackageIDs)
	assert.Equal(t, first.PackageNumber, dto.PackageNumbers[0])
	pkgtesting.AssertDecimalEqual(t, dec("2"), dto.Weight)
	assert.Len(t, f.store.packages, 1)
}

func TestCreateShipmentDoesNotReuseOtherCustomersPackage(t *testing.T) {
	f := newFixture()
	other := f.store.addCustomer(true)
	first, err := f.packages.CreatePackage(context.Background(), CreatePackageCommand{
		CustomerID:  other.ID,
		WarehouseID: f.warehouse.ID,
		CarrierID:   f.carrier.ID,
		PackageSpec: shoesSpec(),
	})
	require.NoError(t, err)

	spec := shoesSpec()
	spec.ID = &first.ID
	dto, err := f.shipments.CreateShipment(context.Background(), f.shipmentCommand(spec))
	require.NoError(t, err)

	require.Len(t, dto.PackageIDs, 1)
	assert.NotEqual(t, first.ID, dto.PackageIDs[0])
	assert.Len(t, f.store.packages, 2)
}

func TestCreateShipmentFromExistingPackageIDs(t *testing.T) {
	f := newFixture()
	created, err := f.packages.CreatePackages(context.Background(), CreatePackagesCommand{
		CustomerID:  f.customer.ID,
		WarehouseID: f.warehouse.ID,
		CarrierID:   f.carrier.ID,
		Packages:    []PackageSpec{shoesSpec(), shoesSpec()},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	cmd := f.shipmentCommand()
	cmd.PackageIDs = []uuid.UUID{created[0].ID, created[1].ID, created[0].ID}

	dto, err := f.shipments.CreateShipment(context.Background(), cmd)
	require.NoError(t, err)

	assert.Len(t, dto.PackageIDs, 2)
	pkgtesting.AssertDecimalEqual(t, dec("4"), dto.Weight)
	pkgtesting.AssertDecimalEqual(t, dec("600"), dto.Amount)

	// a package carried by one shipment cannot join another
	_, err = f.shipments.CreateShipment(context.Background(), cmd)
	requireAppError(t, err, http.StatusConflict, "PackageAlreadyLinked")
}

func TestCreateShipmentRejectsForeignPackageIDs(t *testing.T) {
	f := newFixture()
	other := f.store.addCustomer(true)
	created, err := f.packages.CreatePackage(context.Background(), CreatePackageCommand{
		CustomerID:  other.ID,
		WarehouseID: f.warehouse.ID,
		CarrierID:   f.carrier.ID,
		PackageSpec: shoesSpec(),
	})
	require.NoError(t, err)

	cmd := f.shipmentCommand()
	cmd.PackageIDs = []uuid.UUID{created.ID}
	_, err = f.shipments.CreateShipment(context.Background(), cmd)
	requireAppError(t, err, http.StatusBadRequest, "PackageOtherCustomer")

	cmd.PackageIDs = []uuid.UUID{uuid.New()}
	_, err = f.shipments.CreateShipment(context.Background(), cmd)
	requireAppError(t, err, http.StatusBadRequest, "PackageNotFound")
}

func TestCreateShipmentRetriesNumberClash(t *testing.T) {
	f := newFixture()
	attempts := 0
	var firstPackageNumber string
	f.store.shipmentCreateFn = func(_ *domain.Shipment, pkgs []*domain.Package) error {
		attempts++
		if attempts == 1 {
			firstPackageNumber = pkgs[0].PackageNumber
			return fmt.Errorf("insert shipment: %w", domain.ErrDuplicateNumber)
		}
		return nil
	}

	dto, err := f.shipments.CreateShipment(context.Background(), f.shipmentCommand(shoesSpec()))
	require.NoError(t, err)

	assert.Equal(t, 2, attempts)
	assert.NotEqual(t, firstPackageNumber, dto.PackageNumbers[0])
	assert.Len(t, f.store.shipments, 1)
}

func TestCreateShipmentNumberExhausted(t *testing.T) {
	f := newFixture(domain.WithMaxAttempts(2))
	f.store.shipmentCreateFn = func(*domain.Shipment, []*domain.Package) error {
		return domain.ErrDuplicateNumber
	}

	_, err := f.shipments.CreateShipment(context.Background(), f.shipmentCommand(shoesSpec()))

	requireAppError(t, err, http.StatusConflict, "IdentifierExhausted")
	assert.Empty(t, f.store.shipments)
}

func TestCreateShipmentsReportsEachItem(t *testing.T) {
	f := newFixture()
	bad := f.shipmentCommand(shoesSpec())
	bad.CarrierID = uuid.New()

	result, err := f.shipments.CreateShipments(context.Background(), CreateShipmentsCommand{
		Shipments: []CreateShipmentCommand{f.shipmentCommand(shoesSpec()), bad},
		CreatedBy: "staff-9",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].Status)
	require.NotNil(t, result.Results[0].ID)
	assert.Equal(t, "staff-9", f.store.shipments[*result.Results[0].ID].CreatedBy)
	assert.False(t, result.Results[1].Status)
	assert.Equal(t, "Carrier not found", result.Results[1].Message)
}

func createShipment(t *testing.T, f *fixture) *CreatedShipmentDTO {
	t.Helper()
	dto, err := f.shipments.CreateShipment(context.Background(), f.shipmentCommand(shoesSpec()))
	require.NoError(t, err)
	return dto
}

func TestUpdateShipmentStatus(t *testing.T) {
	f := newFixture()
	created := createShipment(t, f)

	dto, err := f.shipments.UpdateShipmentStatus(context.Background(), UpdateShipmentStatusCommand{
		ID:        created.ID,
		Status:    domain.ShipmentStatusDelivering,
		UpdatedBy: "staff-2",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentStatusDelivering, dto.Status)
	assert.Equal(t, "staff-2", dto.UpdatedBy)

	// no transition table: going back is allowed
	_, err = f.shipments.UpdateShipmentStatus(context.Background(), UpdateShipmentStatusCommand{ID: created.ID, Status: domain.ShipmentStatusInStorage})
	require.NoError(t, err)

	_, err = f.shipments.UpdateShipmentStatus(context.Background(), UpdateShipmentStatusCommand{ID: created.ID, Status: "Lost"})
	requireAppError(t, err, http.StatusBadRequest, "")

	_, err = f.shipments.UpdateShipmentStatus(context.Background(), UpdateShipmentStatusCommand{ID: uuid.New(), Status: domain.ShipmentStatusProcessed})
	requireAppError(t, err, http.StatusNotFound, "")
}

func TestDeliveredShipmentIsLocked(t *testing.T) {
	f := newFixture()
	created := createShipment(t, f)
	f.store.shipments[created.ID].Status = domain.ShipmentStatusDelivered
	writes := f.store.writeCount()
	note := "too late"

	_, err := f.shipments.UpdateShipmentStatus(context.Background(), UpdateShipmentStatusCommand{ID: created.ID, Status: domain.ShipmentStatusProcessing})
	requireAppError(t, err, http.StatusConflict, "ShipmentDelivered")

	_, err = f.shipments.UpdateShipment(context.Background(), UpdateShipmentCommand{ID: created.ID, Note: &note})
	requireAppError(t, err, http.StatusConflict, "ShipmentDelivered")

	err = f.shipments.DeleteShipment(context.Background(), created.ID)
	requireAppError(t, err, http.StatusConflict, "ShipmentDelivered")

	assert.Equal(t, writes, f.store.writeCount())
	assert.Equal(t, domain.ShipmentStatusDelivered, f.store.shipments[created.ID].Status)
}

func TestUpdateShipmentLeavesNilFieldsUnchanged(t *testing.T) {
	f := newFixture()
	created := createShipment(t, f)
	note := "call before delivery"

	dto, err := f.shipments.UpdateShipment(context.Background(), UpdateShipmentCommand{ID: created.ID, Note: &note, Amount: decPtr("250")})
	require.NoError(t, err)

	assert.Equal(t, note, dto.Note)
	pkgtesting.AssertDecimalEqual(t, dec("250"), dto.Amount)
	pkgtesting.AssertDecimalEqual(t, dec("2"), dto.Weight)
}

func TestDeleteShipmentKeepsPackages(t *testing.T) {
	f := newFixture()
	created := createShipment(t, f)

	require.NoError(t, f.shipments.DeleteShipment(context.Background(), created.ID))

	assert.Empty(t, f.store.shipments)
	assert.Empty(t, f.store.links)
	assert.Len(t, f.store.packages, 1)

	err := f.shipments.DeleteShipment(context.Background(), created.ID)
	requireAppError(t, err, http.StatusNotFound, "")
}

func TestGetShipmentDetail(t *testing.T) {
	f := newFixture()
	created := createShipment(t, f)

	dto, err := f.shipments.GetShipment(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ShipmentNumber, dto.ShipmentNumber)
	require.NotNil(t, dto.Carrier)
	assert.Equal(t, "EXP", dto.CarrierCode)
	require.NotNil(t, dto.Warehouse)
	assert.Equal(t, "Hanoi Hub", dto.WarehouseName)
	require.NotNil(t, dto.Customer)
	assert.Equal(t, "Nguyen Van A", dto.CustomerName)
	require.Len(t, dto.Packages, 1)
	require.NotNil(t, dto.Packages[0].AddressSender)
	assert.Equal(t, "Warehouse", dto.Packages[0].AddressSender.Name)
	assert.Len(t, dto.Addresses, 2)
}

func TestGetShipmentWithoutCustomerService(t *testing.T) {
	f := newFixture()
	created := createShipment(t, f)
	f.store.customerErr = errors.New("timeout")

	dto, err := f.shipments.GetShipment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, dto.Customer)
	assert.Empty(t, dto.CustomerName)
}

func TestListShipmentsPaginates(t *testing.T) {
	f := newFixture()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		created := createShipment(t, f)
		f.store.shipments[created.ID].CreatedAt = base.Add(time.Duration(i) * time.Hour)
	}

	page, err := f.shipments.ListShipments(context.Background(), ListShipmentsQuery{
		PageRequest: api.PageRequest{Page: 2, Size: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Size)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.NumberOfElements)
	require.Len(t, page.Content, 1)
	assert.Equal(t, base.Add(2*time.Hour), page.Content[0].CreatedAt)
	assert.Equal(t, "EXP", page.Content[0].CarrierCode)
	assert.Equal(t, "Hanoi Hub", page.Content[0].WarehouseName)
	assert.Equal(t, "Nguyen Van A", page.Content[0].CustomerName)

	desc, err := f.shipments.ListShipments(context.Background(), ListShipmentsQuery{
		PageRequest: api.PageRequest{Page: 1, Size: 1, Sort: api.SortDesc},
	})
	require.NoError(t, err)
	require.Len(t, desc.Content, 1)
	assert.Equal(t, base.Add(2*time.Hour), desc.Content[0].CreatedAt)
}

func TestListShipmentsToleratesCustomerOutage(t *testing.T) {
	f := newFixture()
	createShipment(t, f)
	f.store.customerErr = errors.New("unavailable")

	page, err := f.shipments.ListShipments(context.Background(), ListShipmentsQuery{})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Empty(t, page.Content[0].CustomerName)
	assert.Equal(t, "EXP", page.Content[0].CarrierCode)
}

func TestListShipmentsRejectsMalformedFilter(t *testing.T) {
	f := newFixture()
	_, err := f.shipments.ListShipments(context.Background(), ListShipmentsQuery{CustomerID: "not-a-uuid"})
	requireAppError(t, err, http.StatusBadRequest, "")
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
