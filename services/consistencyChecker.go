package services

import (
	"fmt"
	"strings"

	"restaurant-admin/models"
)

// DishState pairs a dish with its derived status.
type DishState struct {
	models.Dish
	Status models.DishStatus `json:"status"`
}

// IndexIngredients keys a snapshot by id.
func IndexIngredients(ingredients []models.Ingredient) map[string]models.Ingredient {
	index := make(map[string]models.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		index[ing.ID] = ing
	}
	return index
}

// DishStatus derives a dish's status from the current ingredient index.
func DishStatus(dish models.Dish, index map[string]models.Ingredient) models.DishStatus {
	if len(dish.Ingredients) == 0 {
		return models.DishNoIngredients
	}
	missing, depleted := splitLinks(dish, index)
	switch {
	case len(missing) > 0:
		return models.DishMissingIngredient
	case len(depleted) > 0:
		return models.DishRestockNeeded
	default:
		return models.DishActive
	}
}

// DishStatuses derives every dish's status against one ingredient snapshot.
func DishStatuses(ingredients []models.Ingredient, dishes []models.Dish) []DishState {
	index := IndexIngredients(ingredients)
	out := make([]DishState, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, DishState{Dish: d, Status: DishStatus(d, index)})
	}
	return out
}

// CheckConsistency recomputes the standing alerts for a pair of snapshots.
// Nothing is stored; call it again whenever either snapshot changes.
func CheckConsistency(ingredients []models.Ingredient, dishes []models.Dish) []models.Alert {
	if len(dishes) == 0 {
		return []models.Alert{{
			Level:   models.AlertInfo,
			Kind:    models.AlertNoDishes,
			Message: "No dishes on the menu yet. Create one to start tracking ingredient usage.",
		}}
	}

	index := IndexIngredients(ingredients)
	alerts := []models.Alert{}
	for _, dish := range dishes {
		missing, depleted := splitLinks(dish, index)
		if len(missing) > 0 {
			alerts = append(alerts, models.Alert{
				Level:       models.AlertWarning,
				Kind:        models.AlertMissingIngredient,
				DishID:      dish.ID,
				DishName:    dish.Name,
				Ingredients: missing,
				Message: fmt.Sprintf("%s uses ingredients that are no longer in the inventory: %s.",
					dish.Name, joinRefs(missing)),
			})
		}
		if len(depleted) > 0 {
			alerts = append(alerts, models.Alert{
				Level:       models.AlertCritical,
				Kind:        models.AlertDepletedIngredient,
				DishID:      dish.ID,
				DishName:    dish.Name,
				Ingredients: depleted,
				Message:     fmt.Sprintf("%s cannot be prepared until %s is restocked.", dish.Name, joinRefs(depleted)),
			})
		}
	}
	return alerts
}

func splitLinks(dish models.Dish, index map[string]models.Ingredient) (missing, depleted []models.IngredientRef) {
	for _, link := range dish.Ingredients {
		ing, ok := index[link.IngredientID]
		if !ok {
			missing = append(missing, models.IngredientRef{ID: link.IngredientID, Name: link.IngredientName})
			continue
		}
		if ing.Quantity <= 0 {
			depleted = append(depleted, models.IngredientRef{ID: ing.ID, Name: ing.Name})
		}
	}
	return missing, depleted
}

func joinRefs(refs []models.IngredientRef) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Name != "" {
			names = append(names, r.Name)
		} else {
			names = append(names, r.ID)
		}
	}
	return strings.Join(names, ", ")
}
