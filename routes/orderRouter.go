package routes

import (
	"github.com/gin-gonic/gin"

	"restaurant-admin/controllers"
	"restaurant-admin/services"
)

func OrderRoutes(incomingRoutes gin.IRouter, app *services.App, hub *controllers.Hub) {
	incomingRoutes.GET("/orders", controllers.GetOrders(app))
	incomingRoutes.GET("/orders/:order_id", controllers.GetOrder(app))
	incomingRoutes.GET("/orders/:order_id/items", controllers.GetOrderItemsByOrder(app))
	incomingRoutes.GET("/ws", controllers.HandleWebSocket(hub, app))
}
