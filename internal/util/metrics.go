package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesComputedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_quotes_computed_total",
		Help: "Total number of pricing quotes computed",
	})

	FreeShippingGrantedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_free_shipping_granted_total",
		Help: "Total number of quotes that waived shipping",
	})

	PromoAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_promo_applied_total",
		Help: "Total number of promo codes successfully applied",
	})

	PromoRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_promo_rejected_total",
		Help: "Total number of rejected promo code applications",
	}, []string{"reason"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_confirmed_total",
		Help: "Total number of orders confirmed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_failed_total",
		Help: "Total number of failed order placements",
	}, []string{"reason"})

	VariantsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_variants_generated_total",
		Help: "Total number of variant candidates generated",
	})

	SKUCollisionsResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sku_collisions_resolved_total",
		Help: "Total number of SKU collisions resolved by timestamp suffix",
	})

	StockReservationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_reservations_failed_total",
		Help: "Total number of failed stock reservations",
	}, []string{"reason"})

	StockReserveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_reserve_latency_seconds",
		Help:    "Latency of stock reservation operations",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
