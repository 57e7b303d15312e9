package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketplaceMetrics records marketplace activity: listing creation, escrow
// settlements segmented by terminal path, and HTTP handler latency.
type MarketplaceMetrics struct {
	ListingsCreated prometheus.Counter
	Settlements     *prometheus.CounterVec
	Rejections      *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
}

var (
	marketOnce     sync.Once
	marketRegistry *MarketplaceMetrics
)

// Settlement outcome labels.
const (
	OutcomeRelease       = "release"
	OutcomeDisputeBuyer  = "dispute_buyer"
	OutcomeDisputeSeller = "dispute_seller"
	OutcomeTimeoutSeller = "timeout_seller"
	OutcomeTimeoutBuyer  = "timeout_buyer"
	OutcomeWithdrawn     = "withdrawn"
)

// Market returns the lazily-initialised marketplace metrics registered
// against the default prometheus registerer.
func Market() *MarketplaceMetrics {
	marketOnce.Do(func() {
		marketRegistry = &MarketplaceMetrics{
			ListingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "seatswap",
				Subsystem: "market",
				Name:      "listings_created_total",
				Help:      "Total listings accepted by the registry.",
			}),
			Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "seatswap",
				Subsystem: "market",
				Name:      "settlements_total",
				Help:      "Escrow settlements segmented by terminal path.",
			}, []string{"outcome"}),
			Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "seatswap",
				Subsystem: "market",
				Name:      "rejections_total",
				Help:      "Rejected operations segmented by error category.",
			}, []string{"category"}),
			RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "seatswap",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for gateway handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method", "status"}),
		}
		prometheus.MustRegister(
			marketRegistry.ListingsCreated,
			marketRegistry.Settlements,
			marketRegistry.Rejections,
			marketRegistry.RequestLatency,
		)
	})
	return marketRegistry
}
