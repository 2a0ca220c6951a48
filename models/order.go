package models

import "time"

type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCollected OrderStatus = "collected"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order, cancelled last.
var OrderStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCollected,
	OrderStatusCancelled,
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCollected || s == OrderStatusCancelled
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ItemOption is one customization pair on a line, e.g. size=M.
type ItemOption struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

type OrderItem struct {
	MenuItemID string       `json:"menu_item_id"`
	Name       string       `json:"name"`
	UnitPrice  int64        `json:"unit_price"`
	Quantity   int          `json:"quantity"`
	Options    []ItemOption `json:"options,omitempty"`
}

// LineTotal is UnitPrice × Quantity.
func (i OrderItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Order is a customer pickup order as seen by store staff.
type Order struct {
	ID             string      `json:"id"`
	StoreID        string      `json:"store_id"`
	Nickname       string      `json:"nickname"`
	Status         OrderStatus `json:"status"`
	ScheduledTime  time.Time   `json:"scheduled_time"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Items          []OrderItem `json:"items"`
	CouponCode     string      `json:"coupon_code,omitempty"`
	CouponDiscount int64       `json:"coupon_discount,omitempty"`
	TotalAmount    int64       `json:"total_amount"`
}

// Subtotal sums the line totals before any coupon.
func (o *Order) Subtotal() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.LineTotal()
	}
	return sum
}

// RecomputeTotal sets TotalAmount from the lines and the coupon discount.
func (o *Order) RecomputeTotal() {
	o.TotalAmount = o.Subtotal() - o.CouponDiscount
}

// OrderIntake is a candidate order as submitted by the order-intake side.
// Prices are not trusted from the caller; they are taken from the menu.
type OrderIntake struct {
	StoreID        string       `json:"store_id"`
	Nickname       string       `json:"nickname"`
	ScheduledTime  time.Time    `json:"scheduled_time"`
	Items          []IntakeItem `json:"items"`
	CouponCode     string       `json:"coupon_code,omitempty"`
	CouponDiscount int64        `json:"coupon_discount,omitempty"`
}

type IntakeItem struct {
	MenuItemID string       `json:"menu_item_id"`
	Quantity   int          `json:"quantity"`
	Options    []ItemOption `json:"options,omitempty"`
}

// StatusChange is one audit row of the order status history.
type StatusChange struct {
	OrderID string      `json:"order_id"`
	From    OrderStatus `json:"from,omitempty"`
	To      OrderStatus `json:"to"`
	Actor   string      `json:"actor,omitempty"`
	At      time.Time   `json:"at"`
}

// OrderFilter narrows List results. Zero values mean "any".
type OrderFilter struct {
	StoreID       string
	Status        OrderStatus
	CreatedFrom   time.Time
	CreatedBefore time.Time
	Limit         int
}

// DashboardSummary backs the staff dashboard cards.
type DashboardSummary struct {
	Day       Date  `json:"day"`
	Total     int   `json:"total"`
	Received  int   `json:"received"`
	Preparing int   `json:"preparing"`
	Ready     int   `json:"ready"`
	Collected int   `json:"collected"`
	Cancelled int   `json:"cancelled"`
	Revenue   int64 `json:"revenue"`
}
