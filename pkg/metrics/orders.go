package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks order workflow outcomes.
type OrderMetrics struct {
	placed         prometheus.Counter
	placedAmount   prometheus.Counter
	transitions    *prometheus.CounterVec
	stockConflicts prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Parent orders created.",
	})
	placedAmount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_amount_minor_total",
		Help: "Sum of placed order totals in minor currency units.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Status transitions applied to parent and child orders.",
	}, []string{"scope", "to"})
	stockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_stock_conflicts_total",
		Help: "Confirmations rolled back because stock ran out.",
	})
	reg.MustRegister(placed, placedAmount, transitions, stockConflicts)
	return &OrderMetrics{
		placed:         placed,
		placedAmount:   placedAmount,
		transitions:    transitions,
		stockConflicts: stockConflicts,
	}
}

// ObservePlaced counts a new order and its total.
func (m *OrderMetrics) ObservePlaced(totalCents int) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
	if totalCents > 0 {
		m.placedAmount.Add(float64(totalCents))
	}
}

// IncTransition counts a status change. scope is "order" or "child_order".
func (m *OrderMetrics) IncTransition(scope, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(scope), normalizeLabel(to)).Inc()
}

// IncStockConflict counts a confirmation that lost the stock race.
func (m *OrderMetrics) IncStockConflict() {
	if m == nil || m.stockConflicts == nil {
		return
	}
	m.stockConflicts.Inc()
}
