package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	IngredientRegistrations *prometheus.CounterVec
	Restocks                *prometheus.CounterVec
	DishCreations           *prometheus.CounterVec
	OrderSnapshots          prometheus.Counter
	OrdersInSnapshot        prometheus.Gauge
	ListenerErrors          prometheus.Counter
	CustomerLookups         *prometheus.CounterVec
	StoreLatencySec         *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_registrations_total",
		Help: "Ingredient registrations by outcome.",
	}, []string{"outcome"})
	restocks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_restocks_total",
		Help: "Restocks by outcome.",
	}, []string{"outcome"})
	dishes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_dish_creations_total",
		Help: "Dish creations by outcome.",
	}, []string{"outcome"})
	snapshots := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_snapshots_published_total",
		Help: "Order snapshots published to listeners.",
	})
	inSnapshot := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orders_in_snapshot",
		Help: "Orders in the last published snapshot.",
	})
	listenerErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_listener_errors_total",
		Help: "Errors reported by the order subscription.",
	})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "customers_lookups_total",
		Help: "Customer name lookups by outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_request_duration_seconds",
		Help:    "Document store round trips made by the core, by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	r.MustRegister(registrations, restocks, dishes, snapshots, inSnapshot, listenerErrors, lookups, latency)
	return &Registry{
		reg:                     r,
		IngredientRegistrations: registrations,
		Restocks:                restocks,
		DishCreations:           dishes,
		OrderSnapshots:          snapshots,
		OrdersInSnapshot:        inSnapshot,
		ListenerErrors:          listenerErrors,
		CustomerLookups:         lookups,
		StoreLatencySec:         latency,
	}
}

// Outcome turns an error into the label value used by the outcome counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
