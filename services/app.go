package services

import (
	"context"
	"time"

	"restaurant-admin/database"
	"restaurant-admin/logger"
	"restaurant-admin/metrics"
	"restaurant-admin/models"
)

// Options carries the settings shared by every component.
type Options struct {
	ReadyTimeout time.Duration
	OpTimeout    time.Duration
	// SessionSecret signs staff session tokens valid for SessionTTL.
	SessionSecret string
	SessionTTL    time.Duration
}

// App is the application root. It owns one instance of each component and is
// handed to every controller; nothing lives in package-level state.
type App struct {
	Store       database.Store
	Log         *logger.Logger
	Metrics     *metrics.Registry
	Ingredients *IngredientRegistry
	Menu        *MenuCatalog
	Customers   *CustomerDirectory
	Orders      *LiveOrderFeed
	Sessions    *SessionVerifier
	Options     Options
}

func NewApp(store database.Store, log *logger.Logger, m *metrics.Registry, opts Options) *App {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 10 * time.Second
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 15 * time.Second
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	customers := NewCustomerDirectory(store, log, m, opts.OpTimeout)
	return &App{
		Store:       store,
		Log:         log,
		Metrics:     m,
		Ingredients: NewIngredientRegistry(store, log, m, opts.OpTimeout),
		Menu:        NewMenuCatalog(store, log, m, opts.OpTimeout),
		Customers:   customers,
		Orders:      NewLiveOrderFeed(store, customers, log, m, opts.ReadyTimeout),
		Sessions:    NewSessionVerifier(store, log, opts.OpTimeout),
		Options:     opts,
	}
}

// WaitReady blocks until the store is usable or the ready timeout passes.
func (a *App) WaitReady(ctx context.Context) error {
	return a.Store.Ready().Wait(ctx, a.Options.ReadyTimeout)
}

// Overview is one consistent read of both collections with everything derived from them.
type Overview struct {
	Ingredients []models.Ingredient     `json:"ingredients"`
	Summary     models.InventorySummary `json:"summary"`
	Dishes      []DishState             `json:"dishes"`
	Alerts      []models.Alert          `json:"alerts"`
}

// Overview refreshes ingredients and dishes and recomputes statuses and alerts.
func (a *App) Overview(ctx context.Context) (Overview, error) {
	ingredients, err := a.Ingredients.List(ctx)
	if err != nil {
		return Overview{}, err
	}
	dishes, err := a.Menu.List(ctx)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Ingredients: ingredients,
		Summary:     SummarizeInventory(ingredients),
		Dishes:      DishStatuses(ingredients, dishes),
		Alerts:      CheckConsistency(ingredients, dishes),
	}, nil
}

// Close stops the order feed and releases the store.
func (a *App) Close(ctx context.Context) error {
	a.Orders.Stop()
	return a.Store.Close(ctx)
}
