package models

type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

type AlertKind string

const (
	AlertNoDishes           AlertKind = "NoDishes"
	AlertMissingIngredient  AlertKind = "MissingIngredient"
	AlertDepletedIngredient AlertKind = "DepletedIngredient"
)

// IngredientRef names an ingredient a dish points at.
type IngredientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Alert is a standing condition, recomputed on every pass.
type Alert struct {
	Level       AlertLevel      `json:"level"`
	Kind        AlertKind       `json:"kind"`
	DishID      string          `json:"dish_id,omitempty"`
	DishName    string          `json:"dish_name,omitempty"`
	Ingredients []IngredientRef `json:"ingredients,omitempty"`
	Message     string          `json:"message"`
}
