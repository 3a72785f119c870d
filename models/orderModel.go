package models

import (
	"strconv"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderReady      OrderStatus = "ready"
	OrderDelivered  OrderStatus = "delivered"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderCanceled   OrderStatus = "canceled"
	OrderFailed     OrderStatus = "failed"
)

var orderStatuses = map[OrderStatus]bool{
	OrderPending: true, OrderProcessing: true, OrderReady: true, OrderDelivered: true,
	OrderCompleted: true, OrderCancelled: true, OrderCanceled: true, OrderFailed: true,
}

// ValidOrderStatus reports whether s is one of the known statuses (lowercase).
func ValidOrderStatus(s OrderStatus) bool {
	return orderStatuses[s]
}

const DefaultPaymentMode = "Unspecified"

type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Label hides the quantity when it is 1.
func (li LineItem) Label() string {
	if li.Quantity == 1 {
		return li.Name
	}
	return strconv.Itoa(li.Quantity) + "x " + li.Name
}

// Order is a read-only mirror of a remote order document.
type Order struct {
	ID            string      `json:"id"`
	TrackingLabel string      `json:"tracking_label"`
	CustomerID    string      `json:"customer_id"`
	DriverID      string      `json:"driver_id"`
	LineItems     []LineItem  `json:"line_items"`
	Total         float64     `json:"total"`
	PaymentMode   string      `json:"payment_mode"`
	Status        OrderStatus `json:"status"`
	DeliveryInfo  interface{} `json:"delivery_info,omitempty"`
	PlacedAt      *time.Time  `json:"placed_at"`
}

// OrderView is an order plus the customer display name known at publish time.
type OrderView struct {
	Order
	CustomerName string   `json:"customer_name"`
	Items        []string `json:"items"`
}
