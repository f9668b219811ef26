package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/pkg/errors"
	"github.com/shoplite/shoplite-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New("pos-service-test", "test")
}

// fakeStockStore is an in-memory StockStore mirroring the repository's
// clamp-at-zero contract.
type fakeStockStore struct {
	mu sync.Mutex

	stock    map[string]int
	products map[string]*repository.Product

	// failures are returned by AdjustStock, one per call, before any
	// mutation happens. Used to simulate transient transaction failures.
	failures []error

	adjustCalls int
}

func newFakeStockStore() *fakeStockStore {
	return &fakeStockStore{
		stock:    make(map[string]int),
		products: make(map[string]*repository.Product),
	}
}

func (f *fakeStockStore) addProduct(id string, stock int) {
	f.stock[id] = stock
	f.products[id] = &repository.Product{ID: id, Name: "product " + id, Stock: stock}
}

func (f *fakeStockStore) GetByID(ctx context.Context, id string) (*repository.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, errors.NotFound("product")
	}
	return p, nil
}

func (f *fakeStockStore) GetStock(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stock, ok := f.stock[id]
	if !ok {
		return 0, errors.NotFound("product")
	}
	return stock, nil
}

func (f *fakeStockStore) AdjustStock(ctx context.Context, productID string, delta int, reason string) (*repository.AdjustResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.adjustCalls++

	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		if err != nil {
			return nil, err
		}
	}

	current, ok := f.stock[productID]
	if !ok {
		return nil, errors.NotFound("product")
	}

	next := current + delta
	if next < 0 {
		next = 0
	}
	f.stock[productID] = next

	applied := next - current
	return &repository.AdjustResult{
		ProductID: productID,
		Delta:     delta,
		Applied:   applied,
		NewStock:  next,
		Floored:   applied != delta,
	}, nil
}

// fakeMovementStore returns canned movements
type fakeMovementStore struct {
	movements []*repository.StockMovement
}

func (f *fakeMovementStore) ListByProduct(ctx context.Context, productID string, page, perPage int) ([]*repository.StockMovement, int64, error) {
	return f.movements, int64(len(f.movements)), nil
}

// fakeCheckoutStore is an in-memory CheckoutStore with the same
// claim-once semantics as the repository.
type fakeCheckoutStore struct {
	mu       sync.Mutex
	requests map[string]*repository.CheckoutRequest
	nextID   int
}

func newFakeCheckoutStore() *fakeCheckoutStore {
	return &fakeCheckoutStore{requests: make(map[string]*repository.CheckoutRequest)}
}

func (f *fakeCheckoutStore) Create(ctx context.Context, req *repository.CheckoutRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.ID == "" {
		f.nextID++
		req.ID = fmt.Sprintf("req-%d", f.nextID)
	}
	req.Status = repository.CheckoutStatusPending
	req.CreatedAt = time.Now().UTC()
	f.requests[req.ID] = req
	return nil
}

func (f *fakeCheckoutStore) GetByID(ctx context.Context, id string) (*repository.CheckoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, errors.NotFound("checkout request")
	}
	return req, nil
}

func (f *fakeCheckoutStore) GetByPickupCode(ctx context.Context, code string) (*repository.CheckoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if req.PickupCode != nil && *req.PickupCode == code && req.Status == repository.CheckoutStatusPending {
			return req, nil
		}
	}
	return nil, errors.NotFound("checkout request")
}

func (f *fakeCheckoutStore) Claim(ctx context.Context, id string) (*repository.CheckoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, errors.NotFound("checkout request")
	}
	if req.Status != repository.CheckoutStatusPending {
		return nil, errors.Conflict("checkout request already processed")
	}
	req.Status = repository.CheckoutStatusProcessing
	return req, nil
}

func (f *fakeCheckoutStore) Finish(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return errors.NotFound("checkout request")
	}
	req.Status = status
	return nil
}

// fakeCatalogStore lists canned products
type fakeCatalogStore struct {
	products []*repository.Product
}

func (f *fakeCatalogStore) GetAllActive(ctx context.Context) ([]*repository.Product, error) {
	return f.products, nil
}

// fakeBatchStore lists canned batches per product. Like the repository it
// returns every batch; the reconciler decides what to skip.
type fakeBatchStore struct {
	batches map[string][]*repository.Batch
}

func (f *fakeBatchStore) ListForScan(ctx context.Context, productID string) ([]*repository.Batch, error) {
	return f.batches[productID], nil
}

// fakeNotificationStore is an in-memory NotificationStore keyed the same
// way as the repository. UpdateSnapshot deliberately leaves the read flag
// alone, mirroring the SQL.
type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications map[string]*repository.Notification
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{notifications: make(map[string]*repository.Notification)}
}

func (f *fakeNotificationStore) GetByID(ctx context.Context, id string) (*repository.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[id]
	if !ok {
		return nil, errors.NotFound("notification")
	}
	clone := *n
	return &clone, nil
}

func (f *fakeNotificationStore) GetByKey(ctx context.Context, productID, batchID string) (*repository.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[repository.NotificationKey(productID, batchID)]
	if !ok {
		return nil, nil
	}
	clone := *n
	return &clone, nil
}

func (f *fakeNotificationStore) Create(ctx context.Context, n *repository.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.ID == "" {
		n.ID = repository.NotificationKey(n.ProductID, n.BatchID)
	}
	if _, exists := f.notifications[n.ID]; exists {
		return false, nil
	}
	n.CreatedAt = time.Now().UTC()
	clone := *n
	f.notifications[n.ID] = &clone
	return true, nil
}

func (f *fakeNotificationStore) UpdateSnapshot(ctx context.Context, n *repository.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.notifications[n.ID]
	if !ok {
		return errors.NotFound("notification")
	}
	stored.ProductName = n.ProductName
	stored.Quantity = n.Quantity
	stored.ExpiryDate = n.ExpiryDate
	stored.DaysRemaining = n.DaysRemaining
	stored.Level = n.Level
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[id]
	if !ok {
		return errors.NotFound("notification")
	}
	n.Read = true
	if n.ReadAt == nil {
		now := time.Now().UTC()
		n.ReadAt = &now
	}
	return nil
}

func (f *fakeNotificationStore) MarkAllRead(ctx context.Context, limit int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var unread []*repository.Notification
	for _, n := range f.notifications {
		if !n.Read {
			unread = append(unread, n)
		}
	}
	sort.Slice(unread, func(i, j int) bool {
		return unread[i].CreatedAt.Before(unread[j].CreatedAt)
	})

	if len(unread) > limit {
		unread = unread[:limit]
	}
	now := time.Now().UTC()
	for _, n := range unread {
		n.Read = true
		n.ReadAt = &now
	}
	return int64(len(unread)), nil
}

func (f *fakeNotificationStore) List(ctx context.Context, read *bool, page, perPage int) ([]*repository.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*repository.Notification
	for _, n := range f.notifications {
		if read != nil && n.Read != *read {
			continue
		}
		clone := *n
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, int64(len(out)), nil
}

func (f *fakeNotificationStore) UnreadCount(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}
