package services

import (
	"math"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"restaurant-admin/database"
	"restaurant-admin/helpers"
	"restaurant-admin/models"
)

// Field names seen on order documents, in order of preference.
var (
	placedAtFields     = []string{"createdAt", "created_at", "timestamp", "orderDate", "dateCreated", "date"}
	trackingFields     = []string{"trackingLabel", "trackingNumber", "orderNumber"}
	customerIDFields   = []string{"customerId", "customer_id", "userId", "uid"}
	driverIDFields     = []string{"driverId", "driver_id", "assignedDriver"}
	lineItemFields     = []string{"items", "lineItems", "orderItems"}
	itemNameFields     = []string{"name", "itemName", "title", "foodName"}
	itemQuantityFields = []string{"quantity", "qty"}
	totalFields        = []string{"total", "totalAmount", "total_amount", "amount"}
	paymentFields      = []string{"paymentMode", "paymentMethod", "payment_method"}
	deliveryFields     = []string{"deliveryInfo", "delivery", "deliveryAddress"}
)

// NormalizeOrder maps an order document of any vintage onto Order.
// The first present timestamp field wins, even when its value cannot be parsed.
func NormalizeOrder(doc database.Document) models.Order {
	data := doc.Data

	label := helpers.StringField(data, trackingFields...)
	if label == "" {
		label = DeriveTrackingLabel(doc.ID)
	}

	status := models.OrderStatus(strings.ToLower(helpers.StringField(data, "status")))
	if !models.ValidOrderStatus(status) {
		status = models.OrderPending
	}

	payment := helpers.StringField(data, paymentFields...)
	if payment == "" {
		payment = models.DefaultPaymentMode
	}

	totalRaw, _ := helpers.FirstPresent(data, totalFields...)
	delivery, _ := helpers.FirstPresent(data, deliveryFields...)
	placedRaw, _ := helpers.FirstPresent(data, placedAtFields...)

	return models.Order{
		ID:            doc.ID,
		TrackingLabel: label,
		CustomerID:    helpers.StringField(data, customerIDFields...),
		DriverID:      helpers.StringField(data, driverIDFields...),
		LineItems:     normalizeLineItems(data),
		Total:         math.Max(0, helpers.NumberOr(totalRaw, 0)),
		PaymentMode:   payment,
		Status:        status,
		DeliveryInfo:  delivery,
		PlacedAt:      helpers.NormalizeTimestamp(placedRaw),
	}
}

// DeriveTrackingLabel is "#" plus the last six characters of id, uppercased.
func DeriveTrackingLabel(id string) string {
	r := []rune(id)
	if len(r) > 6 {
		r = r[len(r)-6:]
	}
	return "#" + strings.ToUpper(string(r))
}

func normalizeLineItems(data bson.M) []models.LineItem {
	items := []models.LineItem{}
	raw, ok := helpers.FirstPresent(data, lineItemFields...)
	if !ok {
		return items
	}
	list, _ := helpers.ToSlice(raw)
	for _, entry := range list {
		if name, ok := entry.(string); ok {
			if name = strings.TrimSpace(name); name != "" {
				items = append(items, models.LineItem{Name: name, Quantity: 1})
			}
			continue
		}
		m, ok := helpers.ToMap(entry)
		if !ok {
			continue
		}
		name := helpers.StringField(m, itemNameFields...)
		if name == "" {
			continue
		}
		qtyRaw, _ := helpers.FirstPresent(m, itemQuantityFields...)
		qty := int(helpers.NumberOr(qtyRaw, 1))
		if qty < 1 {
			qty = 1
		}
		items = append(items, models.LineItem{Name: name, Quantity: qty})
	}
	return items
}

// NormalizeOrders normalizes docs and sorts them newest first. Orders with no
// placement time sort as the oldest.
func NormalizeOrders(docs []database.Document) []models.Order {
	orders := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, NormalizeOrder(doc))
	}
	SortOrders(orders)
	return orders
}

func SortOrders(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].PlacedAt, orders[j].PlacedAt
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
