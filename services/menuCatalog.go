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

// MenuCatalog owns the menu collection.
type MenuCatalog struct {
	store   database.Store
	log     *logger.Logger
	metrics *metrics.Registry
	timeout time.Duration

	mu       sync.RWMutex
	snapshot []models.Dish
}

func NewMenuCatalog(store database.Store, log *logger.Logger, m *metrics.Registry, opTimeout time.Duration) *MenuCatalog {
	return &MenuCatalog{
		store:   store,
		log:     log.WithComponent("menu"),
		metrics: m,
		timeout: opTimeout,
	}
}

// DishSlug derives the document key from the explicit code, falling back to the name.
func DishSlug(code, name string) string {
	if slug := helpers.Slugify(code); slug != "" {
		return slug
	}
	return helpers.Slugify(name)
}

func (c *MenuCatalog) List(ctx context.Context) ([]models.Dish, error) {
	if err := database.EnsureReady(c.store, "list dishes"); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	timer := prometheus.NewTimer(c.metrics.StoreLatencySec.WithLabelValues("list_dishes"))
	docs, err := c.store.List(ctx, database.MenuCollection)
	timer.ObserveDuration()
	if err != nil {
		c.log.Error("failed to list dishes", "error", err)
		return nil, apperrors.Store("list dishes", err)
	}

	dishes := make([]models.Dish, 0, len(docs))
	for _, doc := range docs {
		if dish, ok := NormalizeDish(doc); ok {
			dishes = append(dishes, dish)
		}
	}
	helpers.SortByName(dishes, func(d models.Dish) string { return d.Name })

	c.mu.Lock()
	c.snapshot = dishes
	c.mu.Unlock()
	return cloneDishes(dishes), nil
}

// Snapshot returns the result of the last successful List.
func (c *MenuCatalog) Snapshot() []models.Dish {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneDishes(c.snapshot)
}

// Create writes a new dish. The caller must have run PrepareDish, or otherwise
// checked the name, price, ingredient amounts and that every ingredient resolves.
func (c *MenuCatalog) Create(ctx context.Context, in models.NewDish) (dishes []models.Dish, err error) {
	const op = "create dish"
	defer func() { c.metrics.DishCreations.WithLabelValues(metrics.Outcome(err)).Inc() }()

	id := DishSlug(in.Code, in.Name)
	if id == "" {
		return nil, apperrors.Validation(op, "A dish code or name is required.")
	}
	if err := database.EnsureReady(c.store, op); err != nil {
		return nil, err
	}

	wctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.store.Get(wctx, database.MenuCollection, id); err == nil {
		return nil, apperrors.Conflict(op, "A dish with code %s already exists.", strings.ToUpper(id))
	} else if !errors.Is(err, database.ErrNoDocument) {
		return nil, apperrors.Store(op, err)
	}

	displayCode := strings.TrimSpace(in.Code)
	if displayCode == "" {
		displayCode = strings.ToUpper(id)
	}
	links := bson.A{}
	for _, link := range in.Ingredients {
		links = append(links, bson.M{
			"ingredientId":      link.IngredientID,
			"ingredientName":    link.IngredientName,
			"measurementKind":   string(link.MeasurementKind),
			"baseAmountPerDish": helpers.Round2(link.BaseAmountPerDish),
			"displayAmount":     link.DisplayAmount,
		})
	}
	fields := bson.M{
		"displayCode": displayCode,
		"name":        strings.TrimSpace(in.Name),
		"category":    strings.TrimSpace(in.Category),
		"price":       helpers.Round2(math.Max(0, in.Price)),
		"description": strings.TrimSpace(in.Description),
		"ingredients": links,
		"createdAt":   database.ServerTimestamp(),
		"updatedAt":   database.ServerTimestamp(),
	}
	if ref := strings.TrimSpace(in.ImageRef); ref != "" {
		fields["imageRef"] = ref
	}

	timer := prometheus.NewTimer(c.metrics.StoreLatencySec.WithLabelValues("create_dish"))
	err = c.store.Put(wctx, database.MenuCollection, id, fields)
	timer.ObserveDuration()
	if errors.Is(err, database.ErrDocumentExists) {
		return nil, apperrors.Conflict(op, "A dish with code %s already exists.", strings.ToUpper(id))
	}
	if err != nil {
		c.log.Error("failed to create dish", "id", id, "error", err)
		return nil, apperrors.Store(op, err)
	}
	c.log.Info("dish created", "id", id, "ingredients", len(links))
	return c.List(ctx)
}

// NormalizeDish turns a menu document into a Dish. A malformed ingredients field reads as empty.
func NormalizeDish(doc database.Document) (models.Dish, bool) {
	if doc.ID == "" {
		return models.Dish{}, false
	}
	data := doc.Data

	name := helpers.StringField(data, "name")
	if name == "" {
		name = helpers.NameFromSlug(doc.ID)
	}
	code := helpers.StringField(data, "displayCode", "code", "dishCode")
	if code == "" {
		code = strings.ToUpper(doc.ID)
	}

	dish := models.Dish{
		ID:          doc.ID,
		DisplayCode: code,
		Name:        name,
		Category:    helpers.StringField(data, "category"),
		Price:       math.Max(0, helpers.NumberOr(data["price"], 0)),
		Description: helpers.StringField(data, "description"),
		ImageRef:    helpers.StringField(data, "imageRef", "imageUrl", "image"),
		Ingredients: []models.DishIngredientLink{},
		Created_at:  helpers.NormalizeTimestamp(data["createdAt"]),
		Updated_at:  helpers.NormalizeTimestamp(data["updatedAt"]),
	}

	raw, _ := helpers.ToSlice(data["ingredients"])
	for _, item := range raw {
		m, ok := helpers.ToMap(item)
		if !ok {
			continue
		}
		if link, ok := normalizeLink(m); ok {
			dish.Ingredients = append(dish.Ingredients, link)
		}
	}
	return dish, true
}

func normalizeLink(m bson.M) (models.DishIngredientLink, bool) {
	id := helpers.StringField(m, "ingredientId", "ingredient_id", "id")
	name := helpers.StringField(m, "ingredientName", "name")
	if id == "" {
		id = helpers.Slugify(name)
	}
	if id == "" {
		return models.DishIngredientLink{}, false
	}
	if name == "" {
		name = helpers.NameFromSlug(id)
	}
	kind := models.ParseMeasurementKind(helpers.StringField(m, "measurementKind", "unitType"))
	amountRaw, _ := helpers.FirstPresent(m, "baseAmountPerDish", "baseAmount", "amount")
	amount := math.Max(0, helpers.NumberOr(amountRaw, 0))

	display := helpers.StringField(m, "displayAmount")
	if display == "" {
		display = helpers.FormatQuantity(amount, kind)
	}
	return models.DishIngredientLink{
		IngredientID:      id,
		IngredientName:    name,
		MeasurementKind:   kind,
		BaseAmountPerDish: amount,
		DisplayAmount:     display,
	}, true
}

func cloneDishes(in []models.Dish) []models.Dish {
	if in == nil {
		return []models.Dish{}
	}
	out := make([]models.Dish, len(in))
	copy(out, in)
	return out
}
