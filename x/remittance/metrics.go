package remittance

import (
	"github.com/allbabel/remittance/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "remittance"
	metricsSubsystem = "escrow"

	labelOperation = "operation"
	labelError     = "error"
)

// Metrics collects counters of the escrow operations. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	deposits    prometheus.Counter
	withdrawals prometheus.Counter
	refunds     prometheus.Counter
	sweeps      prometheus.Counter
	rejected    *prometheus.CounterVec
	escrowed    prometheus.Counter
	fees        prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deposits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "deposits_total",
			Help:      "number of deposits created",
		}),
		withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "withdrawals_total",
			Help:      "number of deposits claimed with the secrets",
		}),
		refunds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "refunds_total",
			Help:      "number of expired deposits returned to the depositor",
		}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "fee_sweeps_total",
			Help:      "number of fee sweeps",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rejected_total",
			Help:      "number of rejected operations",
		}, []string{labelOperation, labelError}),
		escrowed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "escrowed_value_total",
			Help:      "value locked in deposits, net of fees",
		}),
		fees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "fee_value_total",
			Help:      "value collected as fees",
		}),
	}
	reg.MustRegister(
		m.deposits,
		m.withdrawals,
		m.refunds,
		m.sweeps,
		m.rejected,
		m.escrowed,
		m.fees,
	)
	return m
}

func (m *Metrics) deposited(amount, fee uint64) {
	if m == nil {
		return
	}
	m.deposits.Inc()
	m.escrowed.Add(float64(amount))
	m.fees.Add(float64(fee))
}

func (m *Metrics) withdrawn() {
	if m == nil {
		return
	}
	m.withdrawals.Inc()
}

func (m *Metrics) refunded() {
	if m == nil {
		return
	}
	m.refunds.Inc()
}

func (m *Metrics) swept() {
	if m == nil {
		return
	}
	m.sweeps.Inc()
}

func (m *Metrics) reject(op string, err error) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(op, errorLabel(err)).Inc()
}

// errorLabel keeps the label cardinality bounded by using only the
// registered error descriptions.
func errorLabel(err error) string {
	for _, kind := range []*errors.Error{
		ErrPaused,
		ErrInsufficientValue,
		ErrDuplicateCommitment,
		ErrInvalidDeposit,
		ErrInvalidAnswer,
		ErrNotExpired,
		ErrInvalidFeeRate,
		ErrNothingToSweep,
		errors.ErrUnauthorized,
		errors.ErrInsufficientFunds,
		errors.ErrInput,
	} {
		if kind.Is(err) {
			return kind.Error()
		}
	}
	return "other"
}
