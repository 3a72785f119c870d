package models

import "time"

// MeasurementKind is how an ingredient is counted. It never changes after registration.
type MeasurementKind string

const (
	KindWeight MeasurementKind = "weight"
	KindCount  MeasurementKind = "count"
)

const (
	UnitGram     = "g"
	UnitKilogram = "kg"
	UnitPiece    = "pcs"
)

// Default reorder thresholds in base units.
const (
	DefaultWeightThreshold = 2000
	DefaultCountThreshold  = 100
)

// ParseMeasurementKind maps anything that is not "count" to weight.
func ParseMeasurementKind(raw string) MeasurementKind {
	if raw == string(KindCount) {
		return KindCount
	}
	return KindWeight
}

// BaseUnit is the unit every stored quantity of this kind is expressed in.
func (k MeasurementKind) BaseUnit() string {
	if k == KindCount {
		return UnitPiece
	}
	return UnitGram
}

// DefaultReorderThreshold is used when registration does not supply one.
func (k MeasurementKind) DefaultReorderThreshold() float64 {
	if k == KindCount {
		return DefaultCountThreshold
	}
	return DefaultWeightThreshold
}

// Ingredient is one stock record, keyed by the slug of its name.
type Ingredient struct {
	ID               string          `json:"id" bson:"_id"`
	Name             string          `json:"name" bson:"name"`
	MeasurementKind  MeasurementKind `json:"measurement_kind" bson:"measurementKind"`
	BaseUnit         string          `json:"base_unit" bson:"baseUnit"`
	Quantity         float64         `json:"quantity" bson:"quantity"`
	ReorderThreshold float64         `json:"reorder_threshold" bson:"reorderThreshold"`
	Created_at       *time.Time      `json:"created_at" bson:"createdAt"`
	Updated_at       *time.Time      `json:"updated_at" bson:"updatedAt"`
}

// LastTouched returns updated_at, falling back to created_at.
func (i Ingredient) LastTouched() *time.Time {
	if i.Updated_at != nil {
		return i.Updated_at
	}
	return i.Created_at
}

// StockStatus is the derived health of an ingredient's quantity.
type StockStatus string

const (
	StatusOutOfStock StockStatus = "OutOfStock"
	StatusLowStock   StockStatus = "LowStock"
	StatusInStock    StockStatus = "InStock"
)

// Level is the severity label shown next to a status.
func (s StockStatus) Level() string {
	switch s {
	case StatusOutOfStock:
		return "critical"
	case StatusLowStock:
		return "low"
	default:
		return "healthy"
	}
}

// Status derives the stock status from quantity and reorder threshold.
func (i Ingredient) Status() StockStatus {
	switch {
	case i.Quantity <= 0:
		return StatusOutOfStock
	case i.Quantity <= i.ReorderThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// NewIngredient is the registration input, already converted to base units.
type NewIngredient struct {
	Name             string
	MeasurementKind  MeasurementKind
	InitialAmount    float64
	ReorderThreshold *float64
}

// Restock adds amount base units to an existing ingredient.
type Restock struct {
	Name   string
	Amount float64
}

// InventorySummary is the dashboard header over a snapshot.
type InventorySummary struct {
	TotalIngredients int        `json:"total_ingredients"`
	LowStock         int        `json:"low_stock"`
	TotalWeightKg    float64    `json:"total_weight_kg"`
	TotalPieces      float64    `json:"total_pieces"`
	LastUpdated      *time.Time `json:"last_updated"`
}
