package controllers

import (
	"github.com/gin-gonic/gin"

	"restaurant-admin/services"
)

func GetAlerts(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		overview, err := app.Overview(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, "Alerts computed", overview.Alerts)
	}
}

// GetOverview feeds the dashboard landing page.
func GetOverview(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		overview, err := app.Overview(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, "Overview fetched successfully", overview)
	}
}
