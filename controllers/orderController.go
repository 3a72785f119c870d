package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"restaurant-admin/apperrors"
	"restaurant-admin/models"
	"restaurant-admin/services"
)

// visibleOrders filters the live snapshot for the caller. Drivers only see orders assigned to them.
func visibleOrders(c *gin.Context, app *services.App) []models.OrderView {
	views := app.Orders.Snapshot()
	session, _ := CurrentSession(c)
	status := models.OrderStatus(strings.ToLower(c.Query("status")))

	out := make([]models.OrderView, 0, len(views))
	for _, v := range views {
		if session.IsDriver() && v.DriverID != session.StaffID {
			continue
		}
		if status != "" && v.Status != status {
			continue
		}
		out = append(out, v)
	}
	return out
}

func GetOrders(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Orders.LastError(); err != nil {
			c.Header("X-Feed-Error", apperrors.Message(err))
		}
		respondOK(c, "Orders fetched successfully", gin.H{
			"orders": visibleOrders(c, app),
			"state":  app.Orders.State().String(),
		})
	}
}

func GetOrder(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderId := c.Param("order_id")
		for _, v := range visibleOrders(c, app) {
			if v.ID == orderId {
				respondOK(c, "Order fetched successfully", v)
				return
			}
		}
		respondError(c, apperrors.NotFound("get order", "order %s was not found", orderId))
	}
}
