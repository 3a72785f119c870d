package models

import "time"

// DishIngredientLink ties a dish to an ingredient with a per-dish requirement.
// IngredientName and DisplayAmount are snapshots taken when the dish was created.
type DishIngredientLink struct {
	IngredientID      string          `json:"ingredient_id" bson:"ingredientId"`
	IngredientName    string          `json:"ingredient_name" bson:"ingredientName"`
	MeasurementKind   MeasurementKind `json:"measurement_kind" bson:"measurementKind"`
	BaseAmountPerDish float64         `json:"base_amount_per_dish" bson:"baseAmountPerDish"`
	DisplayAmount     string          `json:"display_amount" bson:"displayAmount"`
}

type Dish struct {
	ID          string               `json:"id" bson:"_id"`
	DisplayCode string               `json:"display_code" bson:"displayCode"`
	Name        string               `json:"name" bson:"name"`
	Category    string               `json:"category" bson:"category"`
	Price       float64              `json:"price" bson:"price"`
	Description string               `json:"description" bson:"description"`
	ImageRef    string               `json:"image_ref,omitempty" bson:"imageRef,omitempty"`
	Ingredients []DishIngredientLink `json:"ingredients" bson:"ingredients"`
	Created_at  *time.Time           `json:"created_at" bson:"createdAt"`
	Updated_at  *time.Time           `json:"updated_at" bson:"updatedAt"`
}

// NewDish is the input to MenuCatalog.Create. Ingredients must already be resolved.
type NewDish struct {
	Code        string
	Name        string
	Category    string
	Price       float64
	Description string
	ImageRef    string
	Ingredients []DishIngredientLink
}

// DishStatus is derived on every read, never stored.
type DishStatus string

const (
	DishNoIngredients     DishStatus = "NoIngredients"
	DishMissingIngredient DishStatus = "MissingIngredient"
	DishRestockNeeded     DishStatus = "RestockNeeded"
	DishActive            DishStatus = "Active"
)
