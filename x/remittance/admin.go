package remittance

import (
	"context"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	"github.com/allbabel/remittance/gconf"
)

// Administrative operations. All of them are restricted to the owner set in
// the genesis configuration and share the engine lock.

// Pause stops accepting new deposits. Withdraw and refund are not affected.
func (e *Engine) Pause(ctx context.Context, caller remittance.Address) error {
	return e.setPaused(ctx, "pause", caller, true)
}

// Resume accepts new deposits again.
func (e *Engine) Resume(ctx context.Context, caller remittance.Address) error {
	return e.setPaused(ctx, "resume", caller, false)
}

func (e *Engine) setPaused(ctx context.Context, op string, caller remittance.Address, paused bool) error {
	err := e.atomic(ctx, op, func(db remittance.KVStore, _ EventSink) error {
		conf, err := loadOwnedConfig(db, caller)
		if err != nil {
			return err
		}
		if conf.Paused == paused {
			return nil
		}
		conf.Paused = paused
		return gconf.Save(db, ConfigName, conf)
	})
	if err == nil {
		remittance.GetLogger(ctx).Info("running gate changed", "paused", paused, "party", caller)
	}
	return err
}

// SetFeeRate changes the fee taken from new deposits. Existing deposits are
// not affected.
func (e *Engine) SetFeeRate(ctx context.Context, caller remittance.Address, bps uint32) error {
	err := e.atomic(ctx, "set_fee_rate", func(db remittance.KVStore, _ EventSink) error {
		conf, err := loadOwnedConfig(db, caller)
		if err != nil {
			return err
		}
		if bps > MaxFeeRateBps {
			return errors.Wrapf(ErrInvalidFeeRate, "%d > %d", bps, MaxFeeRateBps)
		}
		conf.FeeRateBps = bps
		return gconf.Save(db, ConfigName, conf)
	})
	if err == nil {
		remittance.GetLogger(ctx).Info("fee rate changed", "bps", bps, "party", caller)
	}
	return err
}

// SweepFees moves all accrued fees to the owner and returns the swept
// amount.
func (e *Engine) SweepFees(ctx context.Context, caller remittance.Address) (uint64, error) {
	var amount uint64
	err := e.atomic(ctx, "sweep_fees", func(db remittance.KVStore, events EventSink) error {
		conf, err := loadOwnedConfig(db, caller)
		if err != nil {
			return err
		}
		if conf.AccruedFees == 0 {
			return ErrNothingToSweep
		}
		if err := e.bank.MoveCoins(db, FeePoolAddress(), conf.Owner, conf.AccruedFees); err != nil {
			return errors.Wrap(err, "sweep")
		}
		amount = conf.AccruedFees
		conf.AccruedFees = 0
		if err := gconf.Save(db, ConfigName, conf); err != nil {
			return err
		}
		events.Emit(feesSwept(conf.Owner, amount))
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.metrics.swept()
	remittance.GetLogger(ctx).Info("fees swept", "amount", amount, "party", caller)
	return amount, nil
}

func loadOwnedConfig(db remittance.ReadOnlyKVStore, caller remittance.Address) (*Configuration, error) {
	conf, err := loadConfig(db)
	if err != nil {
		return nil, err
	}
	if !conf.Owner.Equals(caller) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner only")
	}
	return conf, nil
}

// Config returns a copy of the current configuration.
func (e *Engine) Config(ctx context.Context) (*Configuration, error) {
	var conf *Configuration
	err := e.view(func(db remittance.ReadOnlyKVStore) error {
		var err error
		conf, err = loadConfig(db)
		return err
	})
	return conf, err
}

// IsRunning returns true if new deposits are accepted.
func (e *Engine) IsRunning(ctx context.Context) (bool, error) {
	conf, err := e.Config(ctx)
	if err != nil {
		return false, err
	}
	return !conf.Paused, nil
}

// FeeRate returns the current fee rate in basis points.
func (e *Engine) FeeRate(ctx context.Context) (uint32, error) {
	conf, err := e.Config(ctx)
	if err != nil {
		return 0, err
	}
	return conf.FeeRateBps, nil
}

// AccruedFees returns the value of fees not yet swept.
func (e *Engine) AccruedFees(ctx context.Context) (uint64, error) {
	conf, err := e.Config(ctx)
	if err != nil {
		return 0, err
	}
	return conf.AccruedFees, nil
}

// Owner returns the address allowed to administer the escrow.
func (e *Engine) Owner(ctx context.Context) (remittance.Address, error) {
	conf, err := e.Config(ctx)
	if err != nil {
		return nil, err
	}
	return conf.Owner, nil
}
