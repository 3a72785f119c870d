package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"restaurant-admin/apperrors"
	"restaurant-admin/database"
	"restaurant-admin/helpers"
	"restaurant-admin/logger"
	"restaurant-admin/metrics"
	"restaurant-admin/models"
)

const fallbackCustomerName = "User"

// CustomerDirectory reads customer profiles for display next to orders.
type CustomerDirectory struct {
	store   database.Store
	log     *logger.Logger
	metrics *metrics.Registry
	timeout time.Duration
}

func NewCustomerDirectory(store database.Store, log *logger.Logger, m *metrics.Registry, opTimeout time.Duration) *CustomerDirectory {
	return &CustomerDirectory{store: store, log: log.WithComponent("customers"), metrics: m, timeout: opTimeout}
}

func (d *CustomerDirectory) Lookup(ctx context.Context, id string) (customer models.Customer, err error) {
	const op = "lookup customer"
	defer func() { d.metrics.CustomerLookups.WithLabelValues(metrics.Outcome(err)).Inc() }()

	if strings.TrimSpace(id) == "" {
		return models.Customer{}, apperrors.Validation(op, "customer id is empty")
	}
	if err := database.EnsureReady(d.store, op); err != nil {
		return models.Customer{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	doc, err := d.store.Get(ctx, database.CustomerCollection, id)
	if errors.Is(err, database.ErrNoDocument) {
		return models.Customer{}, apperrors.NotFound(op, "customer %s does not exist", id)
	}
	if err != nil {
		return models.Customer{}, apperrors.Store(op, err)
	}
	return NormalizeCustomer(doc), nil
}

// NormalizeCustomer builds the display name from first and last name, then any
// single name field, then "User".
func NormalizeCustomer(doc database.Document) models.Customer {
	first := helpers.StringField(doc.Data, "firstName", "first_name")
	last := helpers.StringField(doc.Data, "lastName", "last_name")
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		name = helpers.StringField(doc.Data, "fullName", "displayName", "name")
	}
	if name == "" {
		name = fallbackCustomerName
	}
	return models.Customer{
		ID:       doc.ID,
		FullName: name,
		Email:    helpers.StringField(doc.Data, "email"),
	}
}
