package routes

import (
	"github.com/gin-gonic/gin"

	"restaurant-admin/controllers"
	"restaurant-admin/middleware"
	"restaurant-admin/services"
)

func InvoiceRoutes(incomingRoutes gin.IRouter, app *services.App) {
	incomingRoutes.GET("/orders/:order_id/invoice", controllers.GetInvoice(app))
	incomingRoutes.GET("/invoicesByDates/:startDate/:endDate", middleware.BlockDrivers(), controllers.GetInvoiceByDate(app))
}
