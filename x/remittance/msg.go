package remittance

import (
	"math"
	"time"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
)

const (
	pathDeposit    = "remittance/deposit"
	pathWithdraw   = "remittance/withdraw"
	pathRefund     = "remittance/refund"
	pathPause      = "remittance/pause"
	pathResume     = "remittance/resume"
	pathSetFeeRate = "remittance/set_fee_rate"
	pathSweepFees  = "remittance/sweep_fees"
)

// MaxTimeout is the longest timeout, in seconds, a deposit message may
// carry. Anything longer does not fit a time.Duration.
const MaxTimeout = int64(math.MaxInt64 / int64(time.Second))

// Msg is a request that can be routed by the Handler.
type Msg interface {
	remittance.Persistent

	// Path returns the routing path of the message.
	Path() string

	// Validate performs checks that do not depend on the state.
	Validate() error
}

var (
	_ Msg = (*DepositMsg)(nil)
	_ Msg = (*WithdrawMsg)(nil)
	_ Msg = (*RefundMsg)(nil)
	_ Msg = (*PauseMsg)(nil)
	_ Msg = (*ResumeMsg)(nil)
	_ Msg = (*SetFeeRateMsg)(nil)
	_ Msg = (*SweepFeesMsg)(nil)
)

func (DepositMsg) Path() string    { return pathDeposit }
func (WithdrawMsg) Path() string   { return pathWithdraw }
func (RefundMsg) Path() string     { return pathRefund }
func (PauseMsg) Path() string      { return pathPause }
func (ResumeMsg) Path() string     { return pathResume }
func (SetFeeRateMsg) Path() string { return pathSetFeeRate }
func (SweepFeesMsg) Path() string  { return pathSweepFees }

// Validate ensures the message is well formed. Amount and timeout are
// checked by the engine, as their failure depends on the escrow state.
func (m *DepositMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Commitment", validateCommitment(m.Commitment))
	if len(m.Recipient) != 0 {
		errs = errors.AppendField(errs, "Recipient", m.Recipient.Validate())
	}
	switch {
	case m.Timeout < 0:
		errs = errors.Append(errs, errors.Field("Timeout", errors.ErrInput, "negative"))
	case m.Timeout > MaxTimeout:
		errs = errors.Append(errs, errors.Field("Timeout", errors.ErrInput, "longer than %d seconds", MaxTimeout))
	}
	return errs
}

// Validate ensures the message is well formed.
func (m *WithdrawMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if len(m.Commitment) != 0 {
		errs = errors.AppendField(errs, "Commitment", validateCommitment(m.Commitment))
	}
	switch n := len(m.Secrets); {
	case n == 0:
		errs = errors.Append(errs, errors.Field("Secrets", errors.ErrEmpty, "required"))
	case n > 2:
		errs = errors.Append(errs, errors.Field("Secrets", errors.ErrInput, "at most 2 secrets, got %d", n))
	}
	for i, s := range m.Secrets {
		if len(s) == 0 {
			errs = errors.Append(errs, errors.Field("Secrets", errors.ErrEmpty, "secret %d", i))
		}
	}
	return errs
}

// Validate ensures the message is well formed.
func (m *RefundMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Commitment", validateCommitment(m.Commitment))
	return errs
}

// Validate ensures the message is well formed.
func (m *PauseMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}

// Validate ensures the message is well formed.
func (m *ResumeMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}

// Validate ensures the message is well formed. The upper bound of the rate
// is checked by the engine, after the caller is authorized.
func (m *SetFeeRateMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}

// Validate ensures the message is well formed.
func (m *SweepFeesMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}
