package routes

import (
	"github.com/gin-gonic/gin"

	"restaurant-admin/controllers"
	"restaurant-admin/middleware"
	"restaurant-admin/services"
)

func InventoryRoutes(incomingRoutes gin.IRouter, app *services.App) {
	inventory := incomingRoutes.Group("/ingredients", middleware.BlockDrivers())
	inventory.GET("", controllers.GetIngredients(app))
	inventory.POST("", controllers.RegisterIngredient(app))
	inventory.POST("/restock", controllers.RestockIngredient(app))
}
