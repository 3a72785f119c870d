package controllers

import (
	"github.com/gin-gonic/gin"

	"restaurant-admin/services"
)

func GetDishes(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		overview, err := app.Overview(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, "Menu items fetched successfully", gin.H{
			"dishes": overview.Dishes,
			"alerts": overview.Alerts,
		})
	}
}

// CreateDish validates the form against a fresh ingredient list before writing.
func CreateDish(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form services.DishForm
		if !bindAndValidate(c, "create dish", &form) {
			return
		}
		ctx := c.Request.Context()

		ingredients, err := app.Ingredients.List(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		dish, err := services.PrepareDish(form, ingredients)
		if err != nil {
			respondError(c, err)
			return
		}
		dishes, err := app.Menu.Create(ctx, dish)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCreated(c, dish.Name+" added to the menu", gin.H{
			"dishes": services.DishStatuses(ingredients, dishes),
			"alerts": services.CheckConsistency(ingredients, dishes),
		})
	}
}
