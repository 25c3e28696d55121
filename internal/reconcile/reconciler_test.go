package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"order-tracker/internal/model"
	"order-tracker/internal/store"
	"order-tracker/internal/testutil"
)

const buyer = "buyer-1"

func newReconciler(t *testing.T, fake *testutil.FakeStore) *Reconciler {
	t.Helper()
	return NewReconciler(fake, 5*time.Second, testutil.NewTestLogger(t))
}

func snapshot(t *testing.T, fake *testutil.FakeStore) *store.Snapshot {
	t.Helper()
	snap, err := store.FetchSnapshot(context.Background(), fake, buyer)
	testutil.AssertNoError(t, err, "fetch snapshot")
	return snap
}

func TestReconcile_ConvergesCompletedBatch(t *testing.T) {
	fake := testutil.NewFakeStore(
		[]model.Batch{testutil.MakeBatch("b1", buyer, model.BatchStatusCompleted)},
		[]model.Order{
			testutil.MakeOrder("o1", "b1", buyer, 10, model.OrderStatusPaid),
			testutil.MakeOrder("o2", "b1", buyer, 20, model.OrderStatusPaid),
			testutil.MakeOrder("o3", "b1", buyer, 30, model.OrderStatusPaid),
		},
	)
	r := newReconciler(t, fake)

	healed, err := r.Reconcile(context.Background(), snapshot(t, fake))

	testutil.AssertNoError(t, err, "reconcile")
	testutil.AssertEqual(t, healed, 3, "healed count")
	for _, id := range []string{"o1", "o2", "o3"} {
		testutil.AssertEqual(t, fake.OrderStatus(t, id), model.OrderStatusPickedUp, "order "+id)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	fake := testutil.NewFakeStore(
		[]model.Batch{testutil.MakeBatch("b1", buyer, model.BatchStatusCompleted)},
		[]model.Order{testutil.MakeOrder("o1", "b1", buyer, 10, model.OrderStatusPaid)},
	)
	r := newReconciler(t, fake)

	healed, err := r.Reconcile(context.Background(), snapshot(t, fake))
	testutil.AssertNoError(t, err, "first pass")
	testutil.AssertEqual(t, healed, 1, "first pass heals")

	// Second pass over the refreshed state finds nothing to do.
	healed, err = r.Reconcile(context.Background(), snapshot(t, fake))
	testutil.AssertNoError(t, err, "second pass")
	testutil.AssertEqual(t, healed, 0, "second pass heals nothing")
	testutil.AssertEqual(t, fake.WriteCount(), 1, "total writes")
}

func TestReconcile_PartialFailureRetriesOnlyFailed(t *testing.T) {
	fake := testutil.NewFakeStore(
		[]model.Batch{testutil.MakeBatch("b1", buyer, model.BatchStatusCompleted)},
		[]model.Order{
			testutil.MakeOrder("oA", "b1", buyer, 10, model.OrderStatusPaid),
			testutil.MakeOrder("oB", "b1", buyer, 20, model.OrderStatusPaid),
		},
	)
	fake.WriteErr["oB"] = errors.New("store write rejected")
	r := newReconciler(t, fake)

	healed, err := r.Reconcile(context.Background(), snapshot(t, fake))

	testutil.AssertEqual(t, healed, 1, "only A healed")
	var healErr *HealError
	if !errors.As(err, &healErr) {
		t.Fatalf("expected *HealError, got %v", err)
	}
	testutil.AssertEqual(t, len(healErr.Failures), 1, "one failure")
	testutil.AssertEqual(t, healErr.Failures[0].OrderID, "oB", "failed order id")
	testutil.AssertEqual(t, fake.OrderStatus(t, "oA"), model.OrderStatusPickedUp, "A settled")
	testutil.AssertEqual(t, fake.OrderStatus(t, "oB"), model.OrderStatusPaid, "B still paid")

	// The store recovers; the next pass retries only B.
	delete(fake.WriteErr, "oB")
	healed, err = r.Reconcile(context.Background(), snapshot(t, fake))

	testutil.AssertNoError(t, err, "retry pass")
	testutil.AssertEqual(t, healed, 1, "retry heals only B")
	testutil.AssertEqual(t, fake.WriteCount(), 2, "no duplicate write for A")
	testutil.AssertEqual(t, fake.OrderStatus(t, "oB"), model.OrderStatusPickedUp, "B settled")
}

func TestReconcile_OnlyDriftedOrdersQualify(t *testing.T) {
	tests := []struct {
		name        string
		batchStatus model.BatchStatus
		orderStatus model.OrderStatus
		healed      int
	}{
		{name: "completed batch, paid order", batchStatus: model.BatchStatusCompleted, orderStatus: model.OrderStatusPaid, healed: 1},
		{name: "pending batch never heals", batchStatus: model.BatchStatusPending, orderStatus: model.OrderStatusPaid, healed: 0},
		{name: "partial batch never heals", batchStatus: model.BatchStatusPartial, orderStatus: model.OrderStatusPaid, healed: 0},
		{name: "picked_up batch never heals", batchStatus: model.BatchStatusPickedUp, orderStatus: model.OrderStatusPaid, healed: 0},
		{name: "cancelled order untouched", batchStatus: model.BatchStatusCompleted, orderStatus: model.OrderStatusCancelled, healed: 0},
		{name: "refunded order untouched", batchStatus: model.BatchStatusCompleted, orderStatus: model.OrderStatusRefunded, healed: 0},
		{name: "pending order untouched", batchStatus: model.BatchStatusCompleted, orderStatus: model.OrderStatusPending, healed: 0},
		{name: "already picked_up order untouched", batchStatus: model.BatchStatusCompleted, orderStatus: model.OrderStatusPickedUp, healed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeStore(
				[]model.Batch{testutil.MakeBatch("b1", buyer, tt.batchStatus)},
				[]model.Order{testutil.MakeOrder("o1", "b1", buyer, 10, tt.orderStatus)},
			)
			r := newReconciler(t, fake)

			healed, err := r.Reconcile(context.Background(), snapshot(t, fake))

			testutil.AssertNoError(t, err, "reconcile")
			testutil.AssertEqual(t, healed, tt.healed, "healed count")
			testutil.AssertEqual(t, fake.WriteCount(), tt.healed, "write count")
		})
	}
}

func TestReconcile_EmptySnapshot(t *testing.T) {
	fake := testutil.NewFakeStore(nil, nil)
	r := newReconciler(t, fake)

	healed, err := r.Reconcile(context.Background(), snapshot(t, fake))

	testutil.AssertNoError(t, err, "reconcile")
	testutil.AssertEqual(t, healed, 0, "healed count")
	testutil.AssertEqual(t, fake.WriteCount(), 0, "write count")
}

func TestReconcile_MatchesOrdersAcrossBatches(t *testing.T) {
	fake := testutil.NewFakeStore(
		[]model.Batch{
			testutil.MakeBatch("b1", buyer, model.BatchStatusCompleted),
			testutil.MakeBatch("b2", buyer, model.BatchStatusPending),
		},
		[]model.Order{
			testutil.MakeOrder("o1", "b1", buyer, 25, model.OrderStatusPaid),
			testutil.MakeOrder("o2", "b2", buyer, 10, model.OrderStatusPaid),
		},
	)
	r := newReconciler(t, fake)

	healed, err := r.Reconcile(context.Background(), snapshot(t, fake))

	testutil.AssertNoError(t, err, "reconcile")
	testutil.AssertEqual(t, healed, 1, "only completed batch's order heals")
	testutil.AssertEqual(t, fake.OrderStatus(t, "o1"), model.OrderStatusPickedUp, "drifted order healed")
	testutil.AssertEqual(t, fake.OrderStatus(t, "o2"), model.OrderStatusPaid, "pending batch's order untouched")
}
