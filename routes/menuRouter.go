package routes

import (
	"github.com/gin-gonic/gin"

	"restaurant-admin/controllers"
	"restaurant-admin/middleware"
	"restaurant-admin/services"
)

func MenuRoutes(incomingRoutes gin.IRouter, app *services.App) {
	incomingRoutes.GET("/dishes", middleware.BlockDrivers(), controllers.GetDishes(app))
	incomingRoutes.POST("/dishes", middleware.BlockDrivers(), controllers.CreateDish(app))
	incomingRoutes.GET("/alerts", middleware.BlockDrivers(), controllers.GetAlerts(app))
	incomingRoutes.GET("/overview", middleware.BlockDrivers(), controllers.GetOverview(app))
}
