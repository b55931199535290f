package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart mutation and wishlist sync outcomes.
type StorefrontMetrics struct {
	mutationDuration *prometheus.HistogramVec
	mutationSuccess  *prometheus.CounterVec
	mutationFailure  *prometheus.CounterVec
	refetches        prometheus.Counter
	staleDropped     prometheus.Counter
	wishlistSync     *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	mutationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_mutation_duration_seconds",
		Help:    "Duration of cart mutations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	mutationSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutation_success",
		Help: "Cart mutations confirmed by the storefront.",
	}, []string{"op"})
	mutationFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutation_failure",
		Help: "Cart mutations rejected or failed remotely.",
	}, []string{"op"})
	refetches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_reconcile_refetches",
		Help: "Authoritative re-fetches triggered by failed mutations.",
	})
	staleDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_stale_confirmations_dropped",
		Help: "Mutation confirmations discarded because a newer mutation superseded them.",
	})
	wishlistSync := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wishlist_sync_outcomes",
		Help: "Wishlist metafield push outcomes.",
	}, []string{"outcome"})
	reg.MustRegister(mutationDuration, mutationSuccess, mutationFailure, refetches, staleDropped, wishlistSync)
	return &StorefrontMetrics{
		mutationDuration: mutationDuration,
		mutationSuccess:  mutationSuccess,
		mutationFailure:  mutationFailure,
		refetches:        refetches,
		staleDropped:     staleDropped,
		wishlistSync:     wishlistSync,
	}
}

// ObserveMutation records the duration for the named cart operation.
func (s *StorefrontMetrics) ObserveMutation(op string, duration time.Duration) {
	if s == nil || s.mutationDuration == nil {
		return
	}
	s.mutationDuration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncMutationSuccess increments the success counter for the named cart operation.
func (s *StorefrontMetrics) IncMutationSuccess(op string) {
	if s == nil || s.mutationSuccess == nil {
		return
	}
	s.mutationSuccess.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncMutationFailure increments the failure counter for the named cart operation.
func (s *StorefrontMetrics) IncMutationFailure(op string) {
	if s == nil || s.mutationFailure == nil {
		return
	}
	s.mutationFailure.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncRefetch counts an authoritative re-fetch after a failed mutation.
func (s *StorefrontMetrics) IncRefetch() {
	if s == nil || s.refetches == nil {
		return
	}
	s.refetches.Inc()
}

// IncStaleDropped counts a confirmation discarded for arriving out of order.
func (s *StorefrontMetrics) IncStaleDropped() {
	if s == nil || s.staleDropped == nil {
		return
	}
	s.staleDropped.Inc()
}

// IncWishlistSync records a wishlist push outcome ("success" or "failure").
func (s *StorefrontMetrics) IncWishlistSync(outcome string) {
	if s == nil || s.wishlistSync == nil {
		return
	}
	s.wishlistSync.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
