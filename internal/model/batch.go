package model

import "time"

// BatchStatus enumerates the pickup lifecycle of a batch.
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusPartial   BatchStatus = "partial"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusCancelled BatchStatus = "cancelled"
	BatchStatusPickedUp  BatchStatus = "picked_up"
	// BatchStatusFulfilled is not produced by the current pickup workflow
	// but is accepted as a terminal value so that rows written by older
	// workflows still group correctly.
	BatchStatusFulfilled BatchStatus = "fulfilled"
)

func (s BatchStatus) String() string {
	return string(s)
}

// Batch groups one seller's items for one pickup event during a show.
// It is a buyer-visible display index keyed by a completion code; the
// Orders referencing it own all per-item money and status facts.
type Batch struct {
	ID             string      `gorm:"column:id;primaryKey;size:36" json:"id"`
	BuyerID        string      `gorm:"column:buyer_id;size:64;index:idx_buyer_id" json:"buyer_id"`
	SellerID       string      `gorm:"column:seller_id;size:64;index:idx_seller_id" json:"seller_id"`
	ShowID         string      `gorm:"column:show_id;size:64;index:idx_show_id" json:"show_id"`
	Status         BatchStatus `gorm:"column:status;size:32;index:idx_status" json:"status"`
	CompletionCode string      `gorm:"column:completion_code;size:16" json:"completion_code"`
	PickupLocation string      `gorm:"column:pickup_location;size:255" json:"pickup_location"`
	PickupNotes    string      `gorm:"column:pickup_notes;size:1024" json:"pickup_notes"`
	CompletedAt    *time.Time  `gorm:"column:completed_at" json:"completed_at"`
	PickedUpAt     *time.Time  `gorm:"column:picked_up_at" json:"picked_up_at"`
	CreatedAt      time.Time   `gorm:"column:created_at" json:"created_at"`
}

// TableName pins the table name.
func (Batch) TableName() string {
	return "batch"
}

// IsCompleted reports whether the seller marked the pickup complete.
// A completed batch whose orders are still paid is the drift this
// service exists to correct.
func (b *Batch) IsCompleted() bool {
	return b.Status == BatchStatusCompleted
}

// IsCancelled reports whether the batch was cancelled.
func (b *Batch) IsCancelled() bool {
	return b.Status == BatchStatusCancelled
}

// IsTerminal reports whether the batch belongs in the "past pickups"
// grouping rather than the active one.
func (b *Batch) IsTerminal() bool {
	switch b.Status {
	case BatchStatusCompleted, BatchStatusPickedUp, BatchStatusFulfilled:
		return true
	}
	return false
}

// SettledAt returns the timestamp used to order past batches
// most-recent-first: pickup time, else completion time, else creation.
func (b *Batch) SettledAt() time.Time {
	if b.PickedUpAt != nil {
		return *b.PickedUpAt
	}
	if b.CompletedAt != nil {
		return *b.CompletedAt
	}
	return b.CreatedAt
}
