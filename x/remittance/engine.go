package remittance

import (
	"bytes"
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	"github.com/allbabel/remittance/gconf"
	"github.com/allbabel/remittance/x/cash"
)

const (
	// ConfigName is the name under which the configuration is stored.
	ConfigName = "remittance"

	// MinTimeout is the shortest lifetime of a deposit.
	MinTimeout = time.Second
)

// EscrowAddress returns the address of the account holding the value locked
// under given commitment.
func EscrowAddress(commitment []byte) remittance.Address {
	return remittance.NewCondition("remit", "escrow", commitment).Address()
}

// FeePoolAddress returns the address of the account holding accrued fees.
func FeePoolAddress() remittance.Address {
	return remittance.NewCondition("remit", "fees", []byte("pool")).Address()
}

// Fee returns the fee taken from amount at given rate, rounded down.
// The computation cannot overflow for any rate up to MaxFeeRateBps.
func Fee(amount uint64, bps uint32) uint64 {
	rate := uint64(bps)
	return amount/MaxFeeRateBps*rate + amount%MaxFeeRateBps*rate/MaxFeeRateBps
}

// Engine implements the escrow state machine. Each operation is executed
// under a single lock on a cache wrap of the store, that is written only
// when the operation succeeds.
type Engine struct {
	mu       sync.Mutex
	db       remittance.CacheableKVStore
	clock    remittance.Clock
	bank     cash.Controller
	deposits DepositBucket
	events   EventSink
	metrics  *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithEventSink publishes events of successful operations to sink.
func WithEventSink(sink EventSink) Option {
	return func(e *Engine) {
		e.events = sink
	}
}

// WithMetrics records operation counters.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine returns an engine operating on db. The configuration must have
// been initialized, see Initializer.
func NewEngine(db remittance.CacheableKVStore, clock remittance.Clock, bank cash.Controller, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		clock:    clock,
		bank:     bank,
		deposits: NewDepositBucket(),
		events:   discardEvents{},
	}
	for _, fn := range opts {
		fn(e)
	}
	return e
}

// atomic runs fn on a fresh cache wrap. Changes and events are published
// only if fn succeeds.
func (e *Engine) atomic(ctx context.Context, op string, fn func(db remittance.KVStore, events EventSink) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger := remittance.GetLogger(ctx).With("op", op)
	cache := e.db.CacheWrap()
	var c collector
	if err := fn(cache, &c); err != nil {
		cache.Discard()
		e.metrics.reject(op, err)
		logger.Debug("rejected", "err", err)
		return err
	}
	if err := cache.Write(); err != nil {
		e.metrics.reject(op, err)
		logger.Error("cannot write", "err", err)
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	c.flush(sinks(ctx, e.events)...)
	return nil
}

func (e *Engine) view(fn func(db remittance.ReadOnlyKVStore) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.db)
}

func loadConfig(db remittance.ReadOnlyKVStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, ConfigName, &conf); err != nil {
		return nil, errors.Wrap(err, "escrow configuration")
	}
	return &conf, nil
}

// DepositRequest locks Amount from Depositor. A non empty Recipient binds
// the deposit, so that a single secret solves it and only the recipient can
// claim it.
type DepositRequest struct {
	Commitment []byte
	Timeout    time.Duration
	Depositor  remittance.Address
	Recipient  remittance.Address
	Amount     uint64
}

// Validate returns an error if the request is malformed.
func (r *DepositRequest) Validate() error {
	var errs error
	if err := validateCommitment(r.Commitment); err != nil {
		errs = errors.AppendField(errs, "Commitment", err)
	}
	if err := r.Depositor.Validate(); err != nil {
		errs = errors.Append(errs, errors.Field("Depositor", errors.ErrInput, err.Error()))
	}
	if len(r.Recipient) != 0 {
		if err := r.Recipient.Validate(); err != nil {
			errs = errors.Append(errs, errors.Field("Recipient", errors.ErrInput, err.Error()))
		}
	}
	return errs
}

// Deposit locks the value of the request. The fee is moved to the fee pool,
// the rest to the escrow account of the commitment.
func (e *Engine) Deposit(ctx context.Context, req DepositRequest) (*Deposit, error) {
	var created *Deposit
	err := e.atomic(ctx, "deposit", func(db remittance.KVStore, events EventSink) error {
		if err := req.Validate(); err != nil {
			return err
		}
		if req.Amount == 0 {
			return errors.Wrap(ErrInsufficientValue, "no value attached")
		}
		conf, err := loadConfig(db)
		if err != nil {
			return err
		}
		if conf.Paused {
			return errors.Wrap(ErrPaused, "deposits are not accepted")
		}
		if req.Timeout < MinTimeout {
			return errors.Wrapf(errors.ErrInput, "timeout %s shorter than %s", req.Timeout, MinTimeout)
		}
		switch _, err := e.deposits.Get(db, req.Commitment); {
		case err == nil:
			return errors.Wrapf(ErrDuplicateCommitment, "%X", req.Commitment)
		case !errors.ErrNotFound.Is(err):
			return err
		}

		fee := Fee(req.Amount, conf.FeeRateBps)
		net := req.Amount - fee
		if net == 0 {
			return errors.Wrapf(ErrInsufficientValue, "fee %d consumes the whole amount", fee)
		}
		balance, err := e.bank.Balance(db, req.Depositor)
		if err != nil {
			return err
		}
		if balance < req.Amount {
			return errors.Wrapf(errors.ErrInsufficientFunds, "balance %d, want %d", balance, req.Amount)
		}

		if err := e.bank.MoveCoins(db, req.Depositor, EscrowAddress(req.Commitment), net); err != nil {
			return errors.Wrap(err, "escrow")
		}
		if fee > 0 {
			if err := e.bank.MoveCoins(db, req.Depositor, FeePoolAddress(), fee); err != nil {
				return errors.Wrap(err, "fee")
			}
			if conf.AccruedFees+fee < conf.AccruedFees {
				return errors.Wrap(errors.ErrOverflow, "accrued fees")
			}
			conf.AccruedFees += fee
			if err := gconf.Save(db, ConfigName, conf); err != nil {
				return err
			}
		}

		now := remittance.AsUnixTime(e.clock.Now())
		d := &Deposit{
			Metadata:  &remittance.Metadata{Schema: 1},
			Depositor: req.Depositor,
			Recipient: req.Recipient,
			Amount:    net,
			Fee:       fee,
			CreatedAt: now,
			ExpiresAt: now.Add(req.Timeout),
		}
		if err := e.deposits.Insert(db, req.Commitment, d); err != nil {
			return err
		}
		events.Emit(depositCreated(req.Commitment, req.Depositor, req.Amount, fee))
		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.metrics.deposited(created.Amount, created.Fee)
	remittance.GetLogger(ctx).Info("deposit created",
		"commitment", hex.EncodeToString(req.Commitment),
		"amount", created.Amount,
		"party", req.Depositor)
	return created, nil
}

// WithdrawRequest claims a deposit with its secrets. When Commitment is
// empty it is derived from the secrets: two secrets solve an unbound
// puzzle, a single secret solves a puzzle bound to the caller.
type WithdrawRequest struct {
	Commitment []byte
	Secrets    [][]byte
	Caller     remittance.Address
}

// Withdraw releases the value of a deposit to the caller, if the secrets
// solve its puzzle. It returns the released amount.
func (e *Engine) Withdraw(ctx context.Context, req WithdrawRequest) (uint64, error) {
	var (
		amount     uint64
		commitment []byte
	)
	err := e.atomic(ctx, "withdraw", func(db remittance.KVStore, events EventSink) error {
		if err := req.Caller.Validate(); err != nil {
			return errors.Field("Caller", errors.ErrInput, err.Error())
		}

		var (
			d   *Deposit
			err error
		)
		if len(req.Commitment) != 0 {
			commitment = req.Commitment
			if d, err = e.load(db, commitment); err != nil {
				return err
			}
			puzzle := PuzzleOf(d)
			if err := puzzle.Authorize(req.Caller); err != nil {
				return err
			}
			answer, err := puzzle.Commitment(req.Secrets)
			if err != nil {
				return err
			}
			if !bytes.Equal(answer, commitment) {
				return errors.Wrap(ErrInvalidAnswer, "secrets do not match the commitment")
			}
		} else {
			var puzzle Puzzle
			switch len(req.Secrets) {
			case 1:
				puzzle = BoundPuzzle{Recipient: req.Caller}
			case 2:
				puzzle = UnboundPuzzle{}
			default:
				return errors.Wrapf(errors.ErrInput, "want 1 or 2 secrets, got %d", len(req.Secrets))
			}
			if commitment, err = puzzle.Commitment(req.Secrets); err != nil {
				return err
			}
			if d, err = e.load(db, commitment); err != nil {
				return err
			}
			if err := PuzzleOf(d).Authorize(req.Caller); err != nil {
				return err
			}
		}

		if err := e.deposits.Remove(db, commitment); err != nil {
			return err
		}
		if err := e.bank.MoveCoins(db, EscrowAddress(commitment), req.Caller, d.Amount); err != nil {
			return errors.Wrap(err, "release")
		}
		events.Emit(transferred(commitment, req.Caller, d.Amount))
		amount = d.Amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.metrics.withdrawn()
	remittance.GetLogger(ctx).Info("deposit claimed",
		"commitment", hex.EncodeToString(commitment),
		"amount", amount,
		"party", req.Caller)
	return amount, nil
}

// RefundRequest reclaims an expired deposit.
type RefundRequest struct {
	Commitment []byte
	Caller     remittance.Address
}

// Refund returns the value of an expired deposit to its depositor. Only
// the depositor may request it. It returns the returned amount.
func (e *Engine) Refund(ctx context.Context, req RefundRequest) (uint64, error) {
	var amount uint64
	err := e.atomic(ctx, "refund", func(db remittance.KVStore, events EventSink) error {
		d, err := e.load(db, req.Commitment)
		if err != nil {
			return err
		}
		if !remittance.IsExpired(e.clock.Now(), d.ExpiresAt) {
			return errors.Wrapf(ErrNotExpired, "expires at %s", d.ExpiresAt)
		}
		if !d.Depositor.Equals(req.Caller) {
			return errors.Wrap(errors.ErrUnauthorized, "only the depositor can request a refund")
		}
		if err := e.deposits.Remove(db, req.Commitment); err != nil {
			return err
		}
		if err := e.bank.MoveCoins(db, EscrowAddress(req.Commitment), d.Depositor, d.Amount); err != nil {
			return errors.Wrap(err, "refund")
		}
		events.Emit(refunded(req.Commitment, d.Depositor, d.Amount))
		amount = d.Amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.metrics.refunded()
	remittance.GetLogger(ctx).Info("deposit refunded",
		"commitment", hex.EncodeToString(req.Commitment),
		"amount", amount,
		"party", req.Caller)
	return amount, nil
}

// load returns the open deposit of the commitment or ErrInvalidDeposit.
func (e *Engine) load(db remittance.ReadOnlyKVStore, commitment []byte) (*Deposit, error) {
	if err := validateCommitment(commitment); err != nil {
		return nil, err
	}
	d, err := e.deposits.Get(db, commitment)
	switch {
	case err == nil:
		return d, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(ErrInvalidDeposit, "no deposit for %X", commitment)
	default:
		return nil, err
	}
}

// Get returns the open deposit of the commitment. ErrNotFound is returned if
// there is none.
func (e *Engine) Get(ctx context.Context, commitment []byte) (*Deposit, error) {
	var d *Deposit
	err := e.view(func(db remittance.ReadOnlyKVStore) error {
		var err error
		d, err = e.deposits.Get(db, commitment)
		return err
	})
	return d, err
}

// OpenDeposit is a deposit together with its commitment.
type OpenDeposit struct {
	Commitment []byte
	*Deposit
}

// Deposits returns all open deposits ordered by commitment.
func (e *Engine) Deposits(ctx context.Context) ([]OpenDeposit, error) {
	var res []OpenDeposit
	err := e.view(func(db remittance.ReadOnlyKVStore) error {
		return e.deposits.Iterate(db, func(commitment []byte, d *Deposit) error {
			res = append(res, OpenDeposit{Commitment: commitment, Deposit: d})
			return nil
		})
	})
	return res, err
}
