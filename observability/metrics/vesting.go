package metrics

import (
	"math"
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// VestingMetrics tracks ledger activity exposed on the daemon's /metrics
// endpoint.
type VestingMetrics struct {
	scheduleWrites *prometheus.CounterVec
	claims         prometheus.Counter
	claimedAmount  prometheus.Counter
	committedTotal prometheus.Gauge
	rpcErrors      *prometheus.CounterVec
}

var (
	vestingOnce     sync.Once
	vestingRegistry *VestingMetrics
)

// Vesting returns the lazily-initialised vesting metrics registry.
func Vesting() *VestingMetrics {
	vestingOnce.Do(func() {
		vestingRegistry = &VestingMetrics{
			scheduleWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vesting_schedule_writes_total",
				Help: "Count of committed schedule writes by direction.",
			}, []string{"direction"}),
			claims: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vesting_claims_total",
				Help: "Count of successful claim calls.",
			}),
			claimedAmount: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vesting_claimed_amount_total",
				Help: "Cumulative token amount paid out by claims.",
			}),
			committedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vesting_committed_total",
				Help: "Current committed total across all schedules.",
			}),
			rpcErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vesting_rpc_errors_total",
				Help: "Count of failed RPC calls by method.",
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			vestingRegistry.scheduleWrites,
			vestingRegistry.claims,
			vestingRegistry.claimedAmount,
			vestingRegistry.committedTotal,
			vestingRegistry.rpcErrors,
		)
	})
	return vestingRegistry
}

// ObserveScheduleWrites records a committed batch of schedule writes.
func (m *VestingMetrics) ObserveScheduleWrites(direction string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.scheduleWrites.WithLabelValues(direction).Add(float64(count))
}

// ObserveClaim records a successful claim and its paid amount.
func (m *VestingMetrics) ObserveClaim(amount *big.Int) {
	if m == nil {
		return
	}
	m.claims.Inc()
	m.claimedAmount.Add(approximate(amount))
}

// SetCommittedTotal publishes the current committed total.
func (m *VestingMetrics) SetCommittedTotal(total *big.Int) {
	if m == nil {
		return
	}
	m.committedTotal.Set(approximate(total))
}

// ObserveRPCError records a failed RPC call.
func (m *VestingMetrics) ObserveRPCError(method string) {
	if m == nil {
		return
	}
	m.rpcErrors.WithLabelValues(method).Inc()
}

// approximate converts a big integer into the nearest float64 for gauge
// exposure. Precision loss is acceptable for monitoring.
func approximate(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return math.MaxFloat64
	}
	return f
}
