package controllers

import (
	"github.com/gin-gonic/gin"

	"restaurant-admin/helpers"
	"restaurant-admin/models"
	"restaurant-admin/services"
)

type registerIngredientRequest struct {
	Name             string   `json:"name" validate:"required"`
	MeasurementKind  string   `json:"measurement_kind" validate:"omitempty,oneof=weight count"`
	InitialAmount    float64  `json:"initial_amount" validate:"gte=0"`
	Unit             string   `json:"unit" validate:"omitempty,oneof=g kg pcs"`
	ReorderThreshold *float64 `json:"reorder_threshold" validate:"omitempty,gte=0"`
}

type restockRequest struct {
	Name   string  `json:"name" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
	Unit   string  `json:"unit" validate:"omitempty,oneof=g kg pcs"`
}

type ingredientRow struct {
	models.Ingredient
	Status  models.StockStatus `json:"status"`
	Level   string             `json:"level"`
	Display string             `json:"display"`
}

func ingredientRows(list []models.Ingredient) []ingredientRow {
	rows := make([]ingredientRow, 0, len(list))
	for _, ing := range list {
		status := ing.Status()
		rows = append(rows, ingredientRow{
			Ingredient: ing,
			Status:     status,
			Level:      status.Level(),
			Display:    helpers.FormatQuantity(ing.Quantity, ing.MeasurementKind),
		})
	}
	return rows
}

func inventoryPayload(list []models.Ingredient) gin.H {
	return gin.H{
		"ingredients": ingredientRows(list),
		"summary":     services.SummarizeInventory(list),
	}
}

func GetIngredients(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := app.Ingredients.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, "Ingredients fetched successfully", inventoryPayload(list))
	}
}

func RegisterIngredient(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerIngredientRequest
		if !bindAndValidate(c, "register ingredient", &req) {
			return
		}
		kind := models.ParseMeasurementKind(req.MeasurementKind)
		in := models.NewIngredient{
			Name:            req.Name,
			MeasurementKind: kind,
			InitialAmount:   helpers.ToBaseUnits(req.InitialAmount, kind, req.Unit),
		}
		if req.ReorderThreshold != nil {
			threshold := helpers.ToBaseUnits(*req.ReorderThreshold, kind, req.Unit)
			in.ReorderThreshold = &threshold
		}

		list, err := app.Ingredients.Register(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCreated(c, helpers.TitleCase(req.Name)+" registered", inventoryPayload(list))
	}
}

func RestockIngredient(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req restockRequest
		if !bindAndValidate(c, "restock ingredient", &req) {
			return
		}

		// Amounts arrive in the unit the user picked; the kind decides the conversion.
		amount := req.Amount
		ing, ok := app.Ingredients.Find(req.Name)
		if !ok {
			if _, err := app.Ingredients.List(c.Request.Context()); err == nil {
				ing, ok = app.Ingredients.Find(req.Name)
			}
		}
		if ok {
			amount = helpers.ToBaseUnits(req.Amount, ing.MeasurementKind, req.Unit)
		}

		list, err := app.Ingredients.Restock(c.Request.Context(), models.Restock{Name: req.Name, Amount: amount})
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, helpers.CapitalizeWords(req.Name)+" restocked", inventoryPayload(list))
	}
}
