// Package view derives the buyer-facing tracking view from a snapshot.
// Derivation is a pure function of the batches and orders it is handed:
// no state, no incremental patching, recomputed in full on every
// refresh. All money and counts come from orders; stored batch rollups
// are never consulted, so a stale batch aggregate can never surface an
// incorrect total.
package view

import (
	"sort"

	"order-tracker/internal/model"
	"order-tracker/internal/store"
)

// BatchSummary is one batch prepared for display, with its item count
// and total recomputed from the batch's own orders at derive time.
type BatchSummary struct {
	Batch       model.Batch `json:"batch"`
	ItemCount   int         `json:"item_count"`
	TotalAmount float64     `json:"total_amount"`
}

// DerivedView is the complete view model handed to the presentation
// layer.
type DerivedView struct {
	BuyerID       string         `json:"buyer_id"`
	ActiveBatches []BatchSummary `json:"active_batches"`
	PastBatches   []BatchSummary `json:"past_batches"`
	TotalOrders   int            `json:"total_orders"`
	TotalItems    int            `json:"total_items"`
	TotalSpent    float64        `json:"total_spent"`
	GiveawayWins  int            `json:"giveaway_wins"`
}

// Empty returns the view shown when no data is available yet or the
// session identity is gone.
func Empty(buyerID string) DerivedView {
	return DerivedView{
		BuyerID:       buyerID,
		ActiveBatches: []BatchSummary{},
		PastBatches:   []BatchSummary{},
	}
}

// FromSnapshot derives the view from one store snapshot.
func FromSnapshot(snap *store.Snapshot) DerivedView {
	return Derive(snap.BuyerID, snap.Batches, snap.Orders)
}

// Derive computes the full view model.
//
// Cancelled orders are excluded from every total. A batch with no
// referencing orders at all is invisible: it appears in no grouping and
// no count regardless of its own status. Batches in a terminal status
// (completed, picked_up, fulfilled) group as past pickups, most recent
// first; pending and partial batches are active; cancelled batches are
// excluded from both.
func Derive(buyerID string, batches []model.Batch, orders []model.Order) DerivedView {
	v := Empty(buyerID)

	// orders per batch; referenced tracks visibility, valid feeds the
	// per-batch display numbers.
	referenced := make(map[string]int, len(batches))
	validByBatch := make(map[string][]model.Order, len(batches))

	for i := range orders {
		o := orders[i]
		referenced[o.BatchID]++
		if o.IsCancelled() {
			continue
		}

		v.TotalOrders++
		v.TotalSpent += o.Price
		if o.IsGiveaway() {
			v.GiveawayWins++
		}
		validByBatch[o.BatchID] = append(validByBatch[o.BatchID], o)
	}
	// One order is one item until multi-quantity line items exist.
	v.TotalItems = v.TotalOrders

	for i := range batches {
		b := batches[i]
		if referenced[b.ID] == 0 {
			continue
		}
		if b.IsCancelled() {
			continue
		}

		summary := BatchSummary{Batch: b}
		for _, o := range validByBatch[b.ID] {
			summary.ItemCount++
			summary.TotalAmount += o.Price
		}

		if b.IsTerminal() {
			v.PastBatches = append(v.PastBatches, summary)
		} else {
			v.ActiveBatches = append(v.ActiveBatches, summary)
		}
	}

	sort.SliceStable(v.PastBatches, func(i, j int) bool {
		return v.PastBatches[i].Batch.SettledAt().After(v.PastBatches[j].Batch.SettledAt())
	})

	return v
}
