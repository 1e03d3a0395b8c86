package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CoreMetrics counts outcomes of balance, numbering, badge and favorite writes.
type CoreMetrics struct {
	ledgerApply      *prometheus.CounterVec
	ledgerRetries    prometheus.Counter
	sequenceAllocs   *prometheus.CounterVec
	sequenceRetries  prometheus.Counter
	badgesGranted    *prometheus.CounterVec
	favoritesToggled *prometheus.CounterVec
}

// NewCoreMetrics registers the core counters on the provided registerer.
func NewCoreMetrics(reg prometheus.Registerer) *CoreMetrics {
	if reg == nil {
		return &CoreMetrics{}
	}
	m := &CoreMetrics{
		ledgerApply: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_apply_total",
			Help: "Ledger delta applications by result.",
		}, []string{"kind", "result"}),
		ledgerRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_conflict_retries_total",
			Help: "Ledger transactions retried after a concurrent conflict.",
		}),
		sequenceAllocs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sequence_allocations_total",
			Help: "Document number allocations by result.",
		}, []string{"result"}),
		sequenceRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sequence_conflict_retries_total",
			Help: "Document number allocations retried after a conflict.",
		}),
		badgesGranted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "badges_granted_total",
			Help: "Badges newly granted by type and source.",
		}, []string{"type", "source"}),
		favoritesToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "favorites_toggled_total",
			Help: "Favorite toggles by resulting state.",
		}, []string{"state"}),
	}
	reg.MustRegister(m.ledgerApply, m.ledgerRetries, m.sequenceAllocs, m.sequenceRetries, m.badgesGranted, m.favoritesToggled)
	return m
}

// LedgerApplied records a finished ApplyDelta call.
func (m *CoreMetrics) LedgerApplied(kind, result string) {
	if m == nil || m.ledgerApply == nil {
		return
	}
	m.ledgerApply.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}

// LedgerRetried records one retried ledger transaction.
func (m *CoreMetrics) LedgerRetried() {
	if m == nil || m.ledgerRetries == nil {
		return
	}
	m.ledgerRetries.Inc()
}

// SequenceAllocated records a finished allocation.
func (m *CoreMetrics) SequenceAllocated(result string) {
	if m == nil || m.sequenceAllocs == nil {
		return
	}
	m.sequenceAllocs.WithLabelValues(normalizeLabel(result)).Inc()
}

// SequenceRetried records one retried allocation.
func (m *CoreMetrics) SequenceRetried() {
	if m == nil || m.sequenceRetries == nil {
		return
	}
	m.sequenceRetries.Inc()
}

// BadgeGranted records a newly inserted badge.
func (m *CoreMetrics) BadgeGranted(badgeType, source string) {
	if m == nil || m.badgesGranted == nil {
		return
	}
	m.badgesGranted.WithLabelValues(normalizeLabel(badgeType), normalizeLabel(source)).Inc()
}

// FavoriteToggled records the state a toggle ended in.
func (m *CoreMetrics) FavoriteToggled(active bool) {
	if m == nil || m.favoritesToggled == nil {
		return
	}
	state := "inactive"
	if active {
		state = "active"
	}
	m.favoritesToggled.WithLabelValues(state).Inc()
}
