package view

import (
	"testing"
	"time"

	"order-tracker/internal/model"
	"order-tracker/internal/testutil"
)

const buyer = "buyer-1"

func TestDerive_AnalyticsExcludeCancelled(t *testing.T) {
	batches := []model.Batch{testutil.MakeBatch("b1", buyer, model.BatchStatusPending)}
	orders := []model.Order{
		testutil.MakeOrder("o1", "b1", buyer, 10, model.OrderStatusPaid),
		testutil.MakeOrder("o2", "b1", buyer, 5, model.OrderStatusCancelled),
	}

	v := Derive(buyer, batches, orders)

	testutil.AssertEqual(t, v.TotalSpent, 10.0, "total spent")
	testutil.AssertEqual(t, v.TotalOrders, 1, "total orders")
	testutil.AssertEqual(t, v.TotalItems, 1, "total items")
}

func TestDerive_GiveawayWins(t *testing.T) {
	batches := []model.Batch{testutil.MakeBatch("b1", buyer, model.BatchStatusPending)}

	tests := []struct {
		name   string
		order  model.Order
		wins   int
	}{
		{
			name:  "free prize counts",
			order: testutil.MakeOrder("o1", "b1", buyer, 0, model.OrderStatusPaid),
			wins:  1,
		},
		{
			name:  "cancelled free prize does not count",
			order: testutil.MakeOrder("o1", "b1", buyer, 0, model.OrderStatusCancelled),
			wins:  0,
		},
		{
			name:  "priced order does not count",
			order: testutil.MakeOrder("o1", "b1", buyer, 12, model.OrderStatusPickedUp),
			wins:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Derive(buyer, batches, []model.Order{tt.order})
			testutil.AssertEqual(t, v.GiveawayWins, tt.wins, "giveaway wins")
		})
	}
}

func TestDerive_ZeroOrderBatchIsInvisible(t *testing.T) {
	statuses := []model.BatchStatus{
		model.BatchStatusPending,
		model.BatchStatusPartial,
		model.BatchStatusCompleted,
		model.BatchStatusPickedUp,
		model.BatchStatusFulfilled,
		model.BatchStatusCancelled,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			batches := []model.Batch{testutil.MakeBatch("empty", buyer, status)}

			v := Derive(buyer, batches, nil)

			testutil.AssertEqual(t, len(v.ActiveBatches), 0, "active batches")
			testutil.AssertEqual(t, len(v.PastBatches), 0, "past batches")
			testutil.AssertEqual(t, v.TotalOrders, 0, "total orders")
		})
	}
}

func TestDerive_TerminalGrouping(t *testing.T) {
	tests := []struct {
		status model.BatchStatus
		active int
		past   int
	}{
		{status: model.BatchStatusPending, active: 1, past: 0},
		{status: model.BatchStatusPartial, active: 1, past: 0},
		{status: model.BatchStatusCompleted, active: 0, past: 1},
		{status: model.BatchStatusPickedUp, active: 0, past: 1},
		{status: model.BatchStatusFulfilled, active: 0, past: 1},
		{status: model.BatchStatusCancelled, active: 0, past: 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			batches := []model.Batch{testutil.MakeBatch("b1", buyer, tt.status)}
			orders := []model.Order{testutil.MakeOrder("o1", "b1", buyer, 10, model.OrderStatusPickedUp)}

			v := Derive(buyer, batches, orders)

			testutil.AssertEqual(t, len(v.ActiveBatches), tt.active, "active batches")
			testutil.AssertEqual(t, len(v.PastBatches), tt.past, "past batches")
		})
	}
}

func TestDerive_PastBatchesMostRecentFirst(t *testing.T) {
	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)

	b1 := testutil.MakeBatch("old", buyer, model.BatchStatusCompleted)
	b1.CompletedAt = &older
	b2 := testutil.MakeBatch("new", buyer, model.BatchStatusCompleted)
	b2.CompletedAt = &newer

	orders := []model.Order{
		testutil.MakeOrder("o1", "old", buyer, 10, model.OrderStatusPickedUp),
		testutil.MakeOrder("o2", "new", buyer, 20, model.OrderStatusPickedUp),
	}

	v := Derive(buyer, []model.Batch{b1, b2}, orders)

	testutil.AssertEqual(t, len(v.PastBatches), 2, "past batches")
	testutil.AssertEqual(t, v.PastBatches[0].Batch.ID, "new", "most recent first")
	testutil.AssertEqual(t, v.PastBatches[1].Batch.ID, "old", "older second")
}

func TestDerive_PerBatchTotalsScanOrders(t *testing.T) {
	batches := []model.Batch{testutil.MakeBatch("b1", buyer, model.BatchStatusPartial)}
	orders := []model.Order{
		testutil.MakeOrder("o1", "b1", buyer, 10, model.OrderStatusPaid),
		testutil.MakeOrder("o2", "b1", buyer, 15, model.OrderStatusPickedUp),
		testutil.MakeOrder("o3", "b1", buyer, 99, model.OrderStatusCancelled),
	}

	v := Derive(buyer, batches, orders)

	testutil.AssertEqual(t, len(v.ActiveBatches), 1, "active batches")
	testutil.AssertEqual(t, v.ActiveBatches[0].ItemCount, 2, "item count excludes cancelled")
	testutil.AssertEqual(t, v.ActiveBatches[0].TotalAmount, 25.0, "total amount excludes cancelled")
}

func TestDerive_EndToEndScenario(t *testing.T) {
	// One settled pickup still showing a paid order, one pending pickup.
	completed := testutil.MakeBatch("b1", buyer, model.BatchStatusCompleted)
	pending := testutil.MakeBatch("b2", buyer, model.BatchStatusPending)

	// After a reconcile pass b1's order reads picked_up.
	orders := []model.Order{
		testutil.MakeOrder("o1", "b1", buyer, 25, model.OrderStatusPickedUp),
		testutil.MakeOrder("o2", "b2", buyer, 10, model.OrderStatusPaid),
	}

	v := Derive(buyer, []model.Batch{completed, pending}, orders)

	testutil.AssertEqual(t, v.TotalSpent, 35.0, "total spent")
	testutil.AssertEqual(t, len(v.ActiveBatches), 1, "active batches")
	testutil.AssertEqual(t, v.ActiveBatches[0].Batch.ID, "b2", "pending batch is active")
	testutil.AssertEqual(t, len(v.PastBatches), 1, "past batches")
	testutil.AssertEqual(t, v.PastBatches[0].Batch.ID, "b1", "completed batch is past")
}

func TestEmpty(t *testing.T) {
	v := Empty(buyer)

	testutil.AssertEqual(t, v.BuyerID, buyer, "buyer id")
	testutil.AssertEqual(t, len(v.ActiveBatches), 0, "active batches")
	testutil.AssertEqual(t, len(v.PastBatches), 0, "past batches")
	testutil.AssertEqual(t, v.TotalSpent, 0.0, "total spent")
}
