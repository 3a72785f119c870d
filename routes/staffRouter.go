package routes

import (
	"github.com/gin-gonic/gin"

	"restaurant-admin/controllers"
	"restaurant-admin/middleware"
	"restaurant-admin/models"
	"restaurant-admin/services"
)

func StaffRoutes(incomingRoutes gin.IRouter, app *services.App) {
	incomingRoutes.GET("/users/me", controllers.GetSession())
	incomingRoutes.GET("/users", middleware.RequireRoles(models.RoleOwner, models.RoleAdmin), controllers.GetStaff(app))
}
