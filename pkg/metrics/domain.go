package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "delatte"

// Review actions.
const (
	ReviewCreated = "created"
	ReviewDeleted = "deleted"
)

// DomainMetrics tracks marketplace activity: searches, reviews and rating recomputation.
type DomainMetrics struct {
	searchDuration  *prometheus.HistogramVec
	searchResults   prometheus.Histogram
	reviews         *prometheus.CounterVec
	ratingRecompute *prometheus.CounterVec
	suggestions     *prometheus.CounterVec
}

// NewDomainMetrics registers the domain metrics on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	m := &DomainMetrics{
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cafe_search_duration_seconds",
			Help:      "Duration of cafe searches in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sort"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cafe_search_results",
			Help:      "Number of cafes returned per search.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Reviews created or deleted.",
		}, []string{"action"}),
		ratingRecompute: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_recompute_total",
			Help:      "Average rating recomputations by outcome.",
		}, []string{"outcome"}),
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_suggestions_total",
			Help:      "Perceptual category suggestions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.searchDuration, m.searchResults, m.reviews, m.ratingRecompute, m.suggestions)
	return m
}

// ObserveSearch records one search execution.
func (m *DomainMetrics) ObserveSearch(sortBy string, elapsed time.Duration, results int) {
	if m == nil || m.searchDuration == nil {
		return
	}
	m.searchDuration.WithLabelValues(normalizeLabel(sortBy)).Observe(elapsed.Seconds())
	m.searchResults.Observe(float64(results))
}

// IncReview counts a review lifecycle event.
func (m *DomainMetrics) IncReview(action string) {
	if m == nil || m.reviews == nil {
		return
	}
	m.reviews.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncRatingRecompute counts an aggregate refresh.
func (m *DomainMetrics) IncRatingRecompute(err error) {
	if m == nil || m.ratingRecompute == nil {
		return
	}
	m.ratingRecompute.WithLabelValues(outcome(err)).Inc()
}

// IncSuggestion counts a suggestion by outcome ("created", "reused", "rejected").
func (m *DomainMetrics) IncSuggestion(result string) {
	if m == nil || m.suggestions == nil {
		return
	}
	m.suggestions.WithLabelValues(normalizeLabel(result)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
