package remittance

import (
	"github.com/allbabel/remittance/errors"
)

// Escrow reserves 1100~1109 error codes
var (
	// ErrPaused is returned when a deposit is made while the escrow is
	// paused by the owner.
	ErrPaused = errors.Register(1100, "paused")

	// ErrInsufficientValue is returned when a deposit carries no value,
	// or nothing is left to escrow once the fee is taken.
	ErrInsufficientValue = errors.Register(1101, "insufficient value")

	// ErrDuplicateCommitment is returned when an open deposit exists for
	// the same commitment.
	ErrDuplicateCommitment = errors.Register(1102, "duplicate commitment")

	// ErrInvalidDeposit is returned when no open deposit exists for a
	// commitment.
	ErrInvalidDeposit = errors.Register(1103, "invalid deposit")

	// ErrInvalidAnswer is returned when the secrets do not solve the
	// puzzle of a deposit.
	ErrInvalidAnswer = errors.Register(1104, "invalid answer")

	// ErrNotExpired is returned when a refund is requested before the
	// deposit expires.
	ErrNotExpired = errors.Register(1105, "not expired")

	// ErrInvalidFeeRate is returned when the fee rate exceeds 10000 basis
	// points.
	ErrInvalidFeeRate = errors.Register(1106, "invalid fee rate")

	// ErrNothingToSweep is returned when fees are swept but none accrued.
	ErrNothingToSweep = errors.Register(1107, "nothing to sweep")
)
