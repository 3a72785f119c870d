package controllers

import (
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"restaurant-admin/apperrors"
	"restaurant-admin/helpers"
	"restaurant-admin/models"
	"restaurant-admin/services"
)

const invoiceDateLayout = "2006-01-02"

// InvoiceViewFormat is the printable receipt for one order.
type InvoiceViewFormat struct {
	Order_id       string             `json:"order_id"`
	Tracking_label string             `json:"tracking_label"`
	Customer_name  string             `json:"customer_name"`
	Payment_method string             `json:"payment_method"`
	Status         models.OrderStatus `json:"status"`
	Total          float64            `json:"total"`
	Total_display  string             `json:"total_display"`
	Order_details  []string           `json:"order_details"`
	Placed_at      *time.Time         `json:"placed_at"`
}

// PaymentTotal sums the orders paid one way.
type PaymentTotal struct {
	Payment_method string  `json:"payment_method"`
	Orders         int     `json:"orders"`
	Total          float64 `json:"total"`
}

func invoiceView(o models.OrderView) InvoiceViewFormat {
	return InvoiceViewFormat{
		Order_id:       o.ID,
		Tracking_label: o.TrackingLabel,
		Customer_name:  o.CustomerName,
		Payment_method: o.PaymentMode,
		Status:         o.Status,
		Total:          o.Total,
		Total_display:  helpers.FormatNumber(o.Total, 2),
		Order_details:  o.Items,
		Placed_at:      o.PlacedAt,
	}
}

func GetInvoice(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := findVisibleOrder(c, app, c.Param("order_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, "Invoice fetched successfully", invoiceView(order))
	}
}

// GetInvoiceByDate lists receipts for orders placed between two dates, both inclusive,
// with totals per payment method. Cancelled and failed orders are listed but not counted.
func GetInvoiceByDate(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "invoices by date"
		start, err := time.ParseInLocation(invoiceDateLayout, c.Param("startDate"), time.Local)
		if err != nil {
			respondError(c, apperrors.Validation(op, "startDate must look like 2024-05-01"))
			return
		}
		end, err := time.ParseInLocation(invoiceDateLayout, c.Param("endDate"), time.Local)
		if err != nil {
			respondError(c, apperrors.Validation(op, "endDate must look like 2024-05-31"))
			return
		}
		if end.Before(start) {
			respondError(c, apperrors.Validation(op, "endDate cannot be before startDate"))
			return
		}
		end = end.AddDate(0, 0, 1)

		invoices := []InvoiceViewFormat{}
		sums := map[string]decimal.Decimal{}
		counts := map[string]int{}
		grand := decimal.Zero
		for _, o := range visibleOrders(c, app) {
			if o.PlacedAt == nil || o.PlacedAt.Before(start) || !o.PlacedAt.Before(end) {
				continue
			}
			invoices = append(invoices, invoiceView(o))
			if o.Status == models.OrderCancelled || o.Status == models.OrderCanceled || o.Status == models.OrderFailed {
				continue
			}
			amount := decimal.NewFromFloat(o.Total)
			sums[o.PaymentMode] = sums[o.PaymentMode].Add(amount)
			counts[o.PaymentMode]++
			grand = grand.Add(amount)
		}

		totals := make([]PaymentTotal, 0, len(sums))
		for method, sum := range sums {
			totals = append(totals, PaymentTotal{Payment_method: method, Orders: counts[method], Total: sum.Round(2).InexactFloat64()})
		}
		sort.Slice(totals, func(i, j int) bool { return totals[i].Payment_method < totals[j].Payment_method })

		respondOK(c, "Invoices fetched successfully", gin.H{
			"invoices":    invoices,
			"by_payment":  totals,
			"grand_total": grand.Round(2).InexactFloat64(),
		})
	}
}
