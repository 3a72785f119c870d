package controllers

import (
	"github.com/gin-gonic/gin"

	"restaurant-admin/apperrors"
	"restaurant-admin/models"
	"restaurant-admin/services"
)

func findVisibleOrder(c *gin.Context, app *services.App, orderId string) (models.OrderView, error) {
	for _, v := range visibleOrders(c, app) {
		if v.ID == orderId {
			return v, nil
		}
	}
	return models.OrderView{}, apperrors.NotFound("get order", "order %s was not found", orderId)
}

// GetOrderItemsByOrder lists the line items of one order with their display labels.
func GetOrderItemsByOrder(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := findVisibleOrder(c, app, c.Param("order_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, "Order items fetched successfully", gin.H{
			"order_id":       order.ID,
			"tracking_label": order.TrackingLabel,
			"line_items":     order.LineItems,
			"labels":         order.Items,
		})
	}
}
