package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"

	"restaurant-admin/apperrors"
	"restaurant-admin/database"
	"restaurant-admin/helpers"
	"restaurant-admin/logger"
	"restaurant-admin/metrics"
	"restaurant-admin/models"
)

// IngredientRegistry owns the stocks collection. Every mutation re-reads the
// whole collection so callers always see what the store holds.
type IngredientRegistry struct {
	store   database.Store
	log     *logger.Logger
	metrics *metrics.Registry
	timeout time.Duration

	mu       sync.RWMutex
	snapshot []models.Ingredient
}

func NewIngredientRegistry(store database.Store, log *logger.Logger, m *metrics.Registry, opTimeout time.Duration) *IngredientRegistry {
	return &IngredientRegistry{
		store:   store,
		log:     log.WithComponent("inventory"),
		metrics: m,
		timeout: opTimeout,
	}
}

// List fetches, normalizes and sorts every ingredient.
func (r *IngredientRegistry) List(ctx context.Context) ([]models.Ingredient, error) {
	if err := database.EnsureReady(r.store, "list ingredients"); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	timer := prometheus.NewTimer(r.metrics.StoreLatencySec.WithLabelValues("list_ingredients"))
	docs, err := r.store.List(ctx, database.IngredientCollection)
	timer.ObserveDuration()
	if err != nil {
		r.log.Error("failed to list ingredients", "error", err)
		return nil, apperrors.Store("list ingredients", err)
	}

	ingredients := make([]models.Ingredient, 0, len(docs))
	for _, doc := range docs {
		if ing, ok := NormalizeIngredient(doc); ok {
			ingredients = append(ingredients, ing)
		}
	}
	helpers.SortByName(ingredients, func(i models.Ingredient) string { return i.Name })

	r.mu.Lock()
	r.snapshot = ingredients
	r.mu.Unlock()
	return cloneIngredients(ingredients), nil
}

// Snapshot returns the result of the last successful List without touching the store.
func (r *IngredientRegistry) Snapshot() []models.Ingredient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneIngredients(r.snapshot)
}

// Find looks an ingredient up in the last snapshot by id or by display name.
func (r *IngredientRegistry) Find(ref string) (models.Ingredient, bool) {
	return findIngredient(r.Snapshot(), ref)
}

// Register creates a new ingredient keyed by the slug of its name.
func (r *IngredientRegistry) Register(ctx context.Context, in models.NewIngredient) (ingredients []models.Ingredient, err error) {
	const op = "register ingredient"
	defer func() { r.metrics.IngredientRegistrations.WithLabelValues(metrics.Outcome(err)).Inc() }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation(op, "Ingredient name is required.")
	}
	if math.IsNaN(in.InitialAmount) || math.IsInf(in.InitialAmount, 0) {
		return nil, apperrors.Validation(op, "Initial quantity must be a number.")
	}
	if in.InitialAmount < 0 {
		return nil, apperrors.Validation(op, "Initial quantity cannot be negative.")
	}
	id := helpers.Slugify(name)
	if id == "" {
		return nil, apperrors.Validation(op, "Ingredient name must contain letters or digits.")
	}
	if err := database.EnsureReady(r.store, op); err != nil {
		return nil, err
	}

	kind := models.ParseMeasurementKind(string(in.MeasurementKind))
	threshold := kind.DefaultReorderThreshold()
	if in.ReorderThreshold != nil && !math.IsNaN(*in.ReorderThreshold) {
		threshold = math.Max(0, *in.ReorderThreshold)
	}

	wctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.store.Get(wctx, database.IngredientCollection, id); err == nil {
		return nil, apperrors.Conflict(op, "%s is already registered.", helpers.TitleCase(name))
	} else if !errors.Is(err, database.ErrNoDocument) {
		return nil, apperrors.Store(op, err)
	}

	timer := prometheus.NewTimer(r.metrics.StoreLatencySec.WithLabelValues("register_ingredient"))
	err = r.store.Put(wctx, database.IngredientCollection, id, bson.M{
		"name":             helpers.TitleCase(name),
		"measurementKind":  string(kind),
		"baseUnit":         kind.BaseUnit(),
		"quantity":         helpers.Round2(in.InitialAmount),
		"reorderThreshold": threshold,
		"createdAt":        database.ServerTimestamp(),
		"updatedAt":        database.ServerTimestamp(),
	})
	timer.ObserveDuration()
	if errors.Is(err, database.ErrDocumentExists) {
		return nil, apperrors.Conflict(op, "%s is already registered.", helpers.TitleCase(name))
	}
	if err != nil {
		r.log.Error("failed to register ingredient", "id", id, "error", err)
		return nil, apperrors.Store(op, err)
	}
	r.log.Info("ingredient registered", "id", id, "kind", kind, "quantity", helpers.Round2(in.InitialAmount))
	return r.List(ctx)
}

// Restock atomically adds amount base units to an existing ingredient.
func (r *IngredientRegistry) Restock(ctx context.Context, in models.Restock) (ingredients []models.Ingredient, err error) {
	const op = "restock ingredient"
	defer func() { r.metrics.Restocks.WithLabelValues(metrics.Outcome(err)).Inc() }()

	id := helpers.Slugify(in.Name)
	if id == "" {
		return nil, apperrors.Validation(op, "Choose an ingredient to restock.")
	}
	if math.IsNaN(in.Amount) || in.Amount <= 0 {
		return nil, apperrors.Validation(op, "Restock amount must be greater than zero.")
	}
	if err := database.EnsureReady(r.store, op); err != nil {
		return nil, err
	}

	wctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	timer := prometheus.NewTimer(r.metrics.StoreLatencySec.WithLabelValues("restock_ingredient"))
	err = r.store.Update(wctx, database.IngredientCollection, id, bson.M{
		"quantity":  database.Increment(helpers.Round2(in.Amount)),
		"updatedAt": database.ServerTimestamp(),
	})
	timer.ObserveDuration()
	if errors.Is(err, database.ErrNoDocument) {
		return nil, apperrors.NotFound(op, "%s is not registered yet.", helpers.CapitalizeWords(in.Name))
	}
	if err != nil {
		r.log.Error("failed to restock ingredient", "id", id, "error", err)
		return nil, apperrors.Store(op, err)
	}
	r.log.Info("ingredient restocked", "id", id, "amount", helpers.Round2(in.Amount))
	return r.List(ctx)
}

// NormalizeIngredient turns a stocks document into an Ingredient. Documents without an id are dropped.
func NormalizeIngredient(doc database.Document) (models.Ingredient, bool) {
	if doc.ID == "" {
		return models.Ingredient{}, false
	}
	data := doc.Data
	kind := models.ParseMeasurementKind(helpers.StringField(data, "measurementKind", "unitType"))

	name := helpers.StringField(data, "name")
	if name == "" {
		name = helpers.NameFromSlug(doc.ID)
	}

	threshold := kind.DefaultReorderThreshold()
	if raw, ok := helpers.FirstPresent(data, "reorderThreshold", "reorderLevel"); ok {
		if v, ok := helpers.ToNumber(raw); ok {
			threshold = v
		}
	}

	return models.Ingredient{
		ID:               doc.ID,
		Name:             name,
		MeasurementKind:  kind,
		BaseUnit:         kind.BaseUnit(),
		Quantity:         helpers.NumberOr(data["quantity"], 0),
		ReorderThreshold: threshold,
		Created_at:       helpers.NormalizeTimestamp(data["createdAt"]),
		Updated_at:       helpers.NormalizeTimestamp(data["updatedAt"]),
	}, true
}

// SummarizeInventory builds the dashboard header for a snapshot.
func SummarizeInventory(ingredients []models.Ingredient) models.InventorySummary {
	summary := models.InventorySummary{TotalIngredients: len(ingredients)}
	var grams float64
	for _, ing := range ingredients {
		if ing.Status() != models.StatusInStock {
			summary.LowStock++
		}
		if ing.MeasurementKind == models.KindCount {
			summary.TotalPieces += ing.Quantity
		} else {
			grams += ing.Quantity
		}
		if touched := ing.LastTouched(); touched != nil {
			if summary.LastUpdated == nil || touched.After(*summary.LastUpdated) {
				t := *touched
				summary.LastUpdated = &t
			}
		}
	}
	summary.TotalWeightKg = helpers.Round2(grams / 1000)
	summary.TotalPieces = helpers.Round2(summary.TotalPieces)
	return summary
}

func findIngredient(ingredients []models.Ingredient, ref string) (models.Ingredient, bool) {
	key := helpers.Slugify(ref)
	if key == "" {
		return models.Ingredient{}, false
	}
	for _, ing := range ingredients {
		if ing.ID == key || helpers.Slugify(ing.Name) == key {
			return ing, true
		}
	}
	return models.Ingredient{}, false
}

func cloneIngredients(in []models.Ingredient) []models.Ingredient {
	if in == nil {
		return []models.Ingredient{}
	}
	out := make([]models.Ingredient, len(in))
	copy(out, in)
	return out
}
