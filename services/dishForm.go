package services

import (
	"strings"

	"github.com/go-playground/validator"

	"restaurant-admin/apperrors"
	"restaurant-admin/helpers"
	"restaurant-admin/models"
)

var validate = validator.New()

// DishForm is the dish creation request as submitted by the menu page.
type DishForm struct {
	Code        string               `json:"code"`
	Name        string               `json:"name" validate:"required"`
	Category    string               `json:"category"`
	Price       float64              `json:"price" validate:"gt=0"`
	Description string               `json:"description"`
	ImageRef    string               `json:"image_ref"`
	Ingredients []DishFormIngredient `json:"ingredients" validate:"required,min=1,dive"`
}

// DishFormIngredient references an ingredient by id or by name, with an amount in Unit.
type DishFormIngredient struct {
	Ingredient string  `json:"ingredient" validate:"required"`
	Amount     float64 `json:"amount" validate:"gt=0"`
	Unit       string  `json:"unit" validate:"omitempty,oneof=g kg pcs"`
}

// PrepareDish checks a submitted form against the current ingredient snapshot and turns
// it into the input MenuCatalog.Create expects. Amounts are converted to base units.
func PrepareDish(form DishForm, ingredients []models.Ingredient) (models.NewDish, error) {
	const op = "prepare dish"

	name := strings.TrimSpace(form.Name)
	if name == "" {
		return models.NewDish{}, apperrors.Validation(op, "Dish name is required.")
	}
	if !(form.Price > 0) {
		return models.NewDish{}, apperrors.Validation(op, "Price must be greater than zero.")
	}
	if len(form.Ingredients) == 0 {
		return models.NewDish{}, apperrors.Validation(op, "Add at least one ingredient.")
	}
	if err := validate.Struct(&form); err != nil {
		return models.NewDish{}, apperrors.Validation(op, "%s", describeValidation(err))
	}

	seen := map[string]bool{}
	links := make([]models.DishIngredientLink, 0, len(form.Ingredients))
	for _, row := range form.Ingredients {
		label := helpers.CapitalizeWords(row.Ingredient)
		ing, ok := findIngredient(ingredients, row.Ingredient)
		if !ok {
			return models.NewDish{}, apperrors.Validation(op, "%s is not in the inventory.", label)
		}
		if seen[ing.ID] {
			return models.NewDish{}, apperrors.Validation(op, "%s is listed more than once.", ing.Name)
		}
		seen[ing.ID] = true

		unit := row.Unit
		if unit == "" {
			unit = ing.MeasurementKind.BaseUnit()
		}
		if ing.MeasurementKind == models.KindCount && unit != models.UnitPiece {
			return models.NewDish{}, apperrors.Validation(op, "%s is counted in pieces.", ing.Name)
		}
		if ing.MeasurementKind == models.KindWeight && unit == models.UnitPiece {
			return models.NewDish{}, apperrors.Validation(op, "%s is measured by weight.", ing.Name)
		}

		base := helpers.Round2(helpers.ToBaseUnits(row.Amount, ing.MeasurementKind, unit))
		if base <= 0 {
			return models.NewDish{}, apperrors.Validation(op, "Amount for %s must be greater than zero.", ing.Name)
		}
		links = append(links, models.DishIngredientLink{
			IngredientID:      ing.ID,
			IngredientName:    ing.Name,
			MeasurementKind:   ing.MeasurementKind,
			BaseAmountPerDish: base,
			DisplayAmount:     helpers.FormatQuantity(base, ing.MeasurementKind),
		})
	}

	return models.NewDish{
		Code:        strings.TrimSpace(form.Code),
		Name:        name,
		Category:    helpers.CapitalizeWords(form.Category),
		Price:       helpers.Round2(form.Price),
		Description: strings.TrimSpace(form.Description),
		ImageRef:    strings.TrimSpace(form.ImageRef),
		Ingredients: links,
	}, nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "gt":
		return fe.Field() + " must be greater than zero."
	case "oneof":
		return "Unit must be one of g, kg or pcs."
	case "required", "min":
		return fe.Field() + " is required."
	default:
		return fe.Field() + " is invalid."
	}
}
