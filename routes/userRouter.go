package routes

import (
	"github.com/gin-gonic/gin"

	"restaurant-admin/controllers"
	"restaurant-admin/services"
)

// UserRoutes registers the routes reachable without a session.
func UserRoutes(incomingRoutes gin.IRouter, app *services.App) {
	incomingRoutes.POST("/users/login", controllers.Login(app))
}
