// Package testutil provides shared fixtures and a fake store for the
// package tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"order-tracker/internal/model"

	"go.uber.org/zap"
)

// NewTestLogger builds a no-op logger for tests. Pass -v debugging
// through zap.NewDevelopment manually when needed.
func NewTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zap.NewNop()
}

// MakeBatch builds a batch fixture.
func MakeBatch(id, buyerID string, status model.BatchStatus) model.Batch {
	return model.Batch{
		ID:             id,
		BuyerID:        buyerID,
		SellerID:       "seller-1",
		ShowID:         "show-1",
		Status:         status,
		CompletionCode: "CODE-" + id,
		CreatedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// MakeOrder builds an order fixture.
func MakeOrder(id, batchID, buyerID string, price float64, status model.OrderStatus) model.Order {
	return model.Order{
		ID:           id,
		BatchID:      batchID,
		BuyerID:      buyerID,
		SellerID:     "seller-1",
		ProductTitle: "item " + id,
		Price:        price,
		Status:       status,
		CreatedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// StatusWrite records one SetOrderStatus call against the fake store.
type StatusWrite struct {
	OrderID string
	Status  model.OrderStatus
}

// FakeStore is an in-memory store.Store. Successful status writes
// mutate the held orders so a re-fetch observes the healed state, the
// way the real store behaves.
type FakeStore struct {
	mu sync.Mutex

	Batches []model.Batch
	Orders  []model.Order

	FetchBatchesErr error
	FetchOrdersErr  error
	WriteErr        map[string]error // order id -> injected failure

	Writes []StatusWrite
}

// NewFakeStore creates a FakeStore holding the given rows.
func NewFakeStore(batches []model.Batch, orders []model.Order) *FakeStore {
	return &FakeStore{
		Batches:  batches,
		Orders:   orders,
		WriteErr: make(map[string]error),
	}
}

// FetchBatchesByBuyer returns the buyer's batches.
func (f *FakeStore) FetchBatchesByBuyer(ctx context.Context, buyerID string) ([]model.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchBatchesErr != nil {
		return nil, f.FetchBatchesErr
	}
	var out []model.Batch
	for _, b := range f.Batches {
		if b.BuyerID == buyerID {
			out = append(out, b)
		}
	}
	return out, nil
}

// FetchOrdersByBuyer returns the buyer's orders.
func (f *FakeStore) FetchOrdersByBuyer(ctx context.Context, buyerID string) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchOrdersErr != nil {
		return nil, f.FetchOrdersErr
	}
	var out []model.Order
	for _, o := range f.Orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

// SetOrderStatus applies or rejects one status write.
func (f *FakeStore) SetOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.WriteErr[orderID]; ok {
		return err
	}

	f.Writes = append(f.Writes, StatusWrite{OrderID: orderID, Status: status})
	for i := range f.Orders {
		if f.Orders[i].ID == orderID {
			f.Orders[i].Status = status
		}
	}
	return nil
}

// WriteCount returns the number of successful status writes so far.
func (f *FakeStore) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Writes)
}

// OrderStatus returns the current status of one held order.
func (f *FakeStore) OrderStatus(t *testing.T, orderID string) model.OrderStatus {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.Orders {
		if o.ID == orderID {
			return o.Status
		}
	}
	t.Fatalf("order %s not found in fake store", orderID)
	return ""
}

// AssertNoError fails the test when err is non-nil.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// AssertError fails the test when err is nil.
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected an error", msg)
	}
}

// AssertEqual fails the test when got != want.
func AssertEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

// AssertTrue fails the test when the condition is false.
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Errorf("%s: expected true", msg)
	}
}
