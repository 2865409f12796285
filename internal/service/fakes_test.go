package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/consignops/fulfillment-service/internal/repo"
	"github.com/consignops/fulfillment-service/internal/service"
	"github.com/consignops/fulfillment-service/pkg/trm"
)

// hand-rolled fakes with function fields; unset methods fail the test if called

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

// fakeTxManager runs callbacks inline, no real transaction involved.
type fakeTxManager struct{}

func (fakeTxManager) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	return ctx, fakeTx{}, nil
}

func (fakeTxManager) Do(ctx context.Context, callback func(ctx context.Context) error) error {
	return callback(ctx)
}

type fakeProductRepo struct {
	t *testing.T

	getProductFn          func(ctx context.Context, productID string) (entities.Product, error)
	listProductsFn        func(ctx context.Context, productIDs []string) ([]entities.Product, error)
	updateProductStatusFn func(ctx context.Context, productID string, from, to entities.ProductStatus, locationID *string) (bool, error)
}

func (f *fakeProductRepo) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	if f.getProductFn == nil {
		f.t.Fatal("unexpected call to GetProduct")
	}
	return f.getProductFn(ctx, productID)
}

func (f *fakeProductRepo) ListProducts(ctx context.Context, productIDs []string) ([]entities.Product, error) {
	if f.listProductsFn == nil {
		f.t.Fatal("unexpected call to ListProducts")
	}
	return f.listProductsFn(ctx, productIDs)
}

func (f *fakeProductRepo) UpdateProductStatus(ctx context.Context, productID string, from, to entities.ProductStatus, locationID *string) (bool, error) {
	if f.updateProductStatusFn == nil {
		f.t.Fatal("unexpected call to UpdateProductStatus")
	}
	return f.updateProductStatusFn(ctx, productID, from, to, locationID)
}

// fakeActivityLog records every appended entry.
type fakeActivityLog struct {
	appended []entities.Activity
	err      error
}

func (f *fakeActivityLog) AppendActivity(_ context.Context, a entities.Activity) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, a)
	return nil
}

type fakeOrderRepo struct {
	t *testing.T

	getOrderByIDFn      func(ctx context.Context, orderID string) (entities.Order, error)
	getOrderByNumberFn  func(ctx context.Context, orderNumber string) (entities.Order, error)
	updateOrderStatusFn func(ctx context.Context, orderID string, from, to entities.OrderStatus) (bool, error)
	setOrderShippingFn  func(ctx context.Context, orderID, trackingNumber, carrier string) error
	saveOrderFn         func(ctx context.Context, o entities.Order) (bool, error)
	saveOrderItemsFn    func(ctx context.Context, orderID string, items []entities.OrderItem) error
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	if f.getOrderByIDFn == nil {
		f.t.Fatal("unexpected call to GetOrderByID")
	}
	return f.getOrderByIDFn(ctx, orderID)
}

func (f *fakeOrderRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (entities.Order, error) {
	if f.getOrderByNumberFn == nil {
		f.t.Fatal("unexpected call to GetOrderByNumber")
	}
	return f.getOrderByNumberFn(ctx, orderNumber)
}

func (f *fakeOrderRepo) UpdateOrderStatus(ctx context.Context, orderID string, from, to entities.OrderStatus) (bool, error) {
	if f.updateOrderStatusFn == nil {
		f.t.Fatal("unexpected call to UpdateOrderStatus")
	}
	return f.updateOrderStatusFn(ctx, orderID, from, to)
}

func (f *fakeOrderRepo) SetOrderShipping(ctx context.Context, orderID, trackingNumber, carrier string) error {
	if f.setOrderShippingFn == nil {
		f.t.Fatal("unexpected call to SetOrderShipping")
	}
	return f.setOrderShippingFn(ctx, orderID, trackingNumber, carrier)
}

func (f *fakeOrderRepo) SaveOrder(ctx context.Context, o entities.Order) (bool, error) {
	if f.saveOrderFn == nil {
		f.t.Fatal("unexpected call to SaveOrder")
	}
	return f.saveOrderFn(ctx, o)
}

func (f *fakeOrderRepo) SaveOrderItems(ctx context.Context, orderID string, items []entities.OrderItem) error {
	if f.saveOrderItemsFn == nil {
		f.t.Fatal("unexpected call to SaveOrderItems")
	}
	return f.saveOrderItemsFn(ctx, orderID, items)
}

type fakeShipmentCreator struct {
	created []entities.Shipment
	err     error
}

func (f *fakeShipmentCreator) CreateShipment(_ context.Context, s entities.Shipment) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, s)
	return nil
}

type fakeLocationResolver struct {
	locations map[string]entities.Location
}

func (f *fakeLocationResolver) GetLocationByCode(_ context.Context, code string) (entities.Location, error) {
	loc, ok := f.locations[code]
	if !ok {
		return entities.Location{}, entities.ErrLocationNotFound
	}
	return loc, nil
}

type transitionCall struct {
	productID string
	target    entities.ProductStatus
	opts      service.TransitionOptions
}

type fakeTransitioner struct {
	calls []transitionCall
	err   error
}

func (f *fakeTransitioner) Transition(_ context.Context, productID string, target entities.ProductStatus, _ string, opts service.TransitionOptions) (entities.Product, error) {
	if f.err != nil {
		return entities.Product{}, f.err
	}
	f.calls = append(f.calls, transitionCall{productID: productID, target: target, opts: opts})
	return entities.Product{ID: productID, Status: target}, nil
}

type fakeMover struct {
	moves []service.MoveRequest
	err   error
}

func (f *fakeMover) Move(_ context.Context, req service.MoveRequest) error {
	if f.err != nil {
		return f.err
	}
	f.moves = append(f.moves, req)
	return nil
}

type fakeLabelStorage struct {
	savedName string
	savedData []byte
	err       error
}

func (f *fakeLabelStorage) Save(_ context.Context, fileName string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.savedName = fileName
	f.savedData = data
	return "/uploads/shipping-labels/" + fileName, nil
}

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(key string) ([]byte, bool) {
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeCache) Set(key string, value []byte) {
	f.data[key] = value
}

func (f *fakeCache) Delete(key string) {
	delete(f.data, key)
}

type fakeMovementRepo struct {
	t *testing.T

	movements []entities.InventoryMovement
	relocated map[string]string
	locations map[string]entities.Location
	products  map[string]entities.Product

	createMovementErr error
}

func newFakeMovementRepo(t *testing.T) *fakeMovementRepo {
	return &fakeMovementRepo{
		t:         t,
		relocated: make(map[string]string),
		locations: make(map[string]entities.Location),
		products:  make(map[string]entities.Product),
	}
}

func (f *fakeMovementRepo) CreateMovement(_ context.Context, m entities.InventoryMovement) error {
	if f.createMovementErr != nil {
		return f.createMovementErr
	}
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeMovementRepo) UpdateProductLocation(_ context.Context, productID, locationID string) error {
	f.relocated[productID] = locationID
	return nil
}

func (f *fakeMovementRepo) GetProduct(_ context.Context, productID string) (entities.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return entities.Product{}, entities.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeMovementRepo) GetLocation(_ context.Context, locationID string) (entities.Location, error) {
	loc, ok := f.locations[locationID]
	if !ok {
		return entities.Location{}, entities.ErrLocationNotFound
	}
	return loc, nil
}

type fakeActivityReader struct {
	activities []entities.Activity
	err        error
}

func (f *fakeActivityReader) RecentActivities(_ context.Context, limit int) ([]entities.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.activities) > limit {
		return f.activities[:limit], nil
	}
	return f.activities, nil
}

type fakeNotificationState struct {
	settings entities.NotificationSettings
	readIDs  map[string]struct{}
	marked   [][]string
}

func (f *fakeNotificationState) GetNotificationSettings(_ context.Context, _ string) (entities.NotificationSettings, error) {
	return f.settings, nil
}

func (f *fakeNotificationState) ReadActivityIDs(_ context.Context, _ string) (map[string]struct{}, error) {
	if f.readIDs == nil {
		return map[string]struct{}{}, nil
	}
	return f.readIDs, nil
}

func (f *fakeNotificationState) MarkNotificationsRead(_ context.Context, _ string, activityIDs []string) error {
	f.marked = append(f.marked, activityIDs)
	return nil
}

type fakeSoldItemsReader struct {
	items  map[string][]entities.SoldItem
	orders map[string]entities.Order
}

func (f *fakeSoldItemsReader) ListOrderItemsWithSellers(_ context.Context, orderID string) ([]entities.SoldItem, error) {
	return f.items[orderID], nil
}

func (f *fakeSoldItemsReader) GetOrderByID(_ context.Context, orderID string) (entities.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return o, nil
}

type fakeProductGetter struct {
	products map[string]entities.Product
}

func (f *fakeProductGetter) GetProduct(_ context.Context, productID string) (entities.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return entities.Product{}, entities.ErrProductNotFound
	}
	return p, nil
}

type fakeLabelActivityReader struct {
	activities []entities.Activity
	err        error
}

func (f *fakeLabelActivityReader) ListOrderActivities(_ context.Context, _ string, _ []string) ([]entities.Activity, error) {
	return f.activities, f.err
}

type fakeActivityLister struct {
	fn         func(f repo.ActivityFilter)
	activities []entities.Activity
}

func (f *fakeActivityLister) ListActivities(_ context.Context, filter repo.ActivityFilter) ([]entities.Activity, error) {
	if f.fn != nil {
		f.fn(filter)
	}
	return f.activities, nil
}

type fakeShipmentReader struct {
	shipments []entities.Shipment
	err       error
}

func (f *fakeShipmentReader) ListShipmentsByOrder(_ context.Context, _ string) ([]entities.Shipment, error) {
	return f.shipments, f.err
}
