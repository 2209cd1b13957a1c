package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartSyncMetrics records reconciliation outcomes for the cart synchronizer.
type CartSyncMetrics struct {
	pushes       prometheus.Counter
	pushFailures prometheus.Counter
	applies      prometheus.Counter
	suppressed   prometheus.Counter
}

// NewCartSyncMetrics registers the synchronizer metrics on the provided registerer.
func NewCartSyncMetrics(reg prometheus.Registerer) *CartSyncMetrics {
	if reg == nil {
		return &CartSyncMetrics{}
	}
	pushes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_pushes_total",
		Help: "Local cart snapshots pushed to the remote mirror.",
	})
	pushFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_push_failures_total",
		Help: "Remote mirror writes that failed.",
	})
	applies := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_applies_total",
		Help: "Remote snapshots applied to the local cart store.",
	})
	suppressed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_suppressed_total",
		Help: "Reconciliation passes that required no action.",
	})
	reg.MustRegister(pushes, pushFailures, applies, suppressed)
	return &CartSyncMetrics{
		pushes:       pushes,
		pushFailures: pushFailures,
		applies:      applies,
		suppressed:   suppressed,
	}
}

// IncPush counts a successful push to the remote mirror.
func (m *CartSyncMetrics) IncPush() {
	if m == nil || m.pushes == nil {
		return
	}
	m.pushes.Inc()
}

// IncPushFailure counts a failed remote write.
func (m *CartSyncMetrics) IncPushFailure() {
	if m == nil || m.pushFailures == nil {
		return
	}
	m.pushFailures.Inc()
}

// IncApply counts a remote snapshot applied locally.
func (m *CartSyncMetrics) IncApply() {
	if m == nil || m.applies == nil {
		return
	}
	m.applies.Inc()
}

// IncSuppressed counts a reconciliation pass that took no action.
func (m *CartSyncMetrics) IncSuppressed() {
	if m == nil || m.suppressed == nil {
		return
	}
	m.suppressed.Inc()
}
