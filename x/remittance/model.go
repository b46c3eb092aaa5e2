package remittance

import (
	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	"github.com/allbabel/remittance/orm"
)

// MaxFeeRateBps is the highest fee rate, equal to the whole amount.
const MaxFeeRateBps = 10000

var _ orm.Model = (*Deposit)(nil)

// Validate ensures the deposit is valid.
func (d *Deposit) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", d.Metadata.Validate())
	errs = errors.AppendField(errs, "Depositor", d.Depositor.Validate())
	if len(d.Recipient) != 0 {
		errs = errors.AppendField(errs, "Recipient", d.Recipient.Validate())
	}
	if d.Amount == 0 {
		errs = errors.AppendField(errs, "Amount", errors.ErrInvalidAmount)
	}
	if d.CreatedAt.IsZero() {
		errs = errors.Append(errs, errors.Field("CreatedAt", errors.ErrEmpty, "required"))
	} else {
		errs = errors.AppendField(errs, "CreatedAt", d.CreatedAt.Validate())
	}
	if d.ExpiresAt <= d.CreatedAt {
		errs = errors.Append(errs, errors.Field("ExpiresAt", errors.ErrInput, "must be after creation"))
	}
	return errs
}

// Copy returns a deep copy of the deposit.
func (d *Deposit) Copy() *Deposit {
	return &Deposit{
		Metadata:  d.Metadata.Copy(),
		Depositor: d.Depositor.Clone(),
		Recipient: d.Recipient.Clone(),
		Amount:    d.Amount,
		Fee:       d.Fee,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

var _ orm.Model = (*Configuration)(nil)

// Validate ensures the configuration is valid.
func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	if c.FeeRateBps > MaxFeeRateBps {
		errs = errors.Append(errs, errors.Field("FeeRateBps", ErrInvalidFeeRate, "%d > %d", c.FeeRateBps, MaxFeeRateBps))
	}
	return errs
}

// DepositBucket stores open deposits keyed by their commitment. It is pure
// bookkeeping, value is never moved here.
type DepositBucket struct {
	b orm.ModelBucket
}

// NewDepositBucket returns a bucket that stores deposits under the
// "deposit:" prefix.
func NewDepositBucket() DepositBucket {
	return DepositBucket{b: orm.NewModelBucket("deposit")}
}

// Insert stores a new deposit. ErrDuplicateCommitment is returned if an open
// deposit exists for the commitment.
func (b DepositBucket) Insert(db remittance.KVStore, commitment []byte, d *Deposit) error {
	if err := validateCommitment(commitment); err != nil {
		return err
	}
	switch err := b.b.Has(db, commitment); {
	case err == nil:
		return errors.Wrapf(ErrDuplicateCommitment, "%X", commitment)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	return b.b.Put(db, commitment, d)
}

// Get returns the open deposit of the commitment, or ErrNotFound.
func (b DepositBucket) Get(db remittance.ReadOnlyKVStore, commitment []byte) (*Deposit, error) {
	var d Deposit
	if err := b.b.One(db, commitment, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Remove deletes the deposit of the commitment. ErrNotFound is returned if
// there is none.
func (b DepositBucket) Remove(db remittance.KVStore, commitment []byte) error {
	return b.b.Delete(db, commitment)
}

// Iterate calls fn for every open deposit, ordered by commitment. Iteration
// stops at the first error returned by fn.
func (b DepositBucket) Iterate(db remittance.ReadOnlyKVStore, fn func(commitment []byte, d *Deposit) error) error {
	it, err := b.b.Iterate(db)
	if err != nil {
		return err
	}
	defer it.Release()

	for {
		var d Deposit
		key, err := it.LoadNext(&d)
		if orm.ErrIteratorDone.Is(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(key, &d); err != nil {
			return err
		}
	}
}

func validateCommitment(commitment []byte) error {
	if len(commitment) != CommitmentLength {
		return errors.Wrapf(errors.ErrInput, "commitment must be %d bytes, got %d", CommitmentLength, len(commitment))
	}
	return nil
}
