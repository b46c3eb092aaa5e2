package remittance

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
)

// Result is returned by a successfully handled message.
type Result struct {
	// Data is the commitment for a deposit, and the moved amount as
	// a big endian uint64 for withdraw, refund and fee sweep.
	Data   []byte
	Events []Event
}

// Handler routes messages sent by a caller to the engine.
type Handler struct {
	engine *Engine
}

// NewHandler returns a handler executing messages with given engine.
func NewHandler(engine *Engine) Handler {
	return Handler{engine: engine}
}

// Handle validates the message and executes it on behalf of caller.
func (h Handler) Handle(ctx context.Context, caller remittance.Address, msg Msg) (*Result, error) {
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid message")
	}
	ctx = remittance.WithLogInfo(ctx, "path", msg.Path())

	var events EventLog
	ctx = WithEvents(ctx, &events)

	var (
		data []byte
		err  error
	)
	switch m := msg.(type) {
	case *DepositMsg:
		_, err = h.engine.Deposit(ctx, DepositRequest{
			Commitment: m.Commitment,
			Timeout:    time.Duration(m.Timeout) * time.Second,
			Depositor:  caller,
			Recipient:  m.Recipient,
			Amount:     m.Amount,
		})
		data = m.Commitment
	case *WithdrawMsg:
		var amount uint64
		amount, err = h.engine.Withdraw(ctx, WithdrawRequest{
			Commitment: m.Commitment,
			Secrets:    m.Secrets,
			Caller:     caller,
		})
		data = encodeAmount(amount)
	case *RefundMsg:
		var amount uint64
		amount, err = h.engine.Refund(ctx, RefundRequest{
			Commitment: m.Commitment,
			Caller:     caller,
		})
		data = encodeAmount(amount)
	case *PauseMsg:
		err = h.engine.Pause(ctx, caller)
	case *ResumeMsg:
		err = h.engine.Resume(ctx, caller)
	case *SetFeeRateMsg:
		err = h.engine.SetFeeRate(ctx, caller, m.FeeRateBps)
	case *SweepFeesMsg:
		var amount uint64
		amount, err = h.engine.SweepFees(ctx, caller)
		data = encodeAmount(amount)
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "unknown message %T", msg)
	}
	if err != nil {
		return nil, err
	}
	return &Result{Data: data, Events: events.Events()}, nil
}

func encodeAmount(amount uint64) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, amount)
	return raw
}

// DecodeAmount returns the amount stored in the result data.
func DecodeAmount(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, errors.Wrapf(errors.ErrInput, "want 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
