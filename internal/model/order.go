package model

import "time"

// OrderStatus enumerates the lifecycle of a purchased line item.
// The success path is pending -> paid -> (ready ->) picked_up/completed/fulfilled;
// cancelled and refunded are terminal abort states reachable from
// pending, paid or ready. This service only ever writes the
// paid -> picked_up edge; every other transition belongs to the
// external payment and pickup workflows.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFulfilled OrderStatus = "fulfilled"
)

func (s OrderStatus) String() string {
	return string(s)
}

// Order is one purchased line item. It is the authoritative record of
// price and fulfillment status; the Batch it references is only a
// display grouping and never a source of per-item truth.
type Order struct {
	ID           string      `gorm:"column:id;primaryKey;size:36" json:"id"`
	BatchID      string      `gorm:"column:batch_id;size:36;index:idx_batch_id" json:"batch_id"`
	BuyerID      string      `gorm:"column:buyer_id;size:64;index:idx_buyer_id" json:"buyer_id"`
	SellerID     string      `gorm:"column:seller_id;size:64;index:idx_seller_id" json:"seller_id"`
	ProductTitle string      `gorm:"column:product_title;size:255" json:"product_title"`
	Price        float64     `gorm:"column:price;type:decimal(15,2)" json:"price"`
	Status       OrderStatus `gorm:"column:status;size:32;index:idx_status" json:"status"`
	CreatedAt    time.Time   `gorm:"column:created_at" json:"created_at"`
}

// TableName pins the table name.
func (Order) TableName() string {
	return "order"
}

// IsPaid reports whether the order is waiting for pickup settlement.
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// IsCancelled reports whether the order was cancelled. Cancelled orders
// are excluded from every buyer-facing total.
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// IsGiveaway reports whether the order is a free prize. Price zero is
// the marker for giveaway wins.
func (o *Order) IsGiveaway() bool {
	return o.Price == 0
}
