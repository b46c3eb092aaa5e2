package cash

import (
	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
)

// Controller is the functionality needed by other extensions to hold and
// move value. Any implementation must operate only on the store it is
// given, so that all changes share the caller's transaction.
type Controller interface {
	// Balance returns the balance of given account. Unknown accounts
	// hold nothing.
	Balance(db remittance.ReadOnlyKVStore, addr remittance.Address) (uint64, error)

	// MoveCoins moves the given amount from src to dest.
	// If src doesn't exist, or doesn't have sufficient
	// coins, it fails.
	MoveCoins(db remittance.KVStore, src, dest remittance.Address, amount uint64) error

	// IssueCoins adds the given amount to the destination wallet.
	// Fails if it overflows the wallet.
	IssueCoins(db remittance.KVStore, dest remittance.Address, amount uint64) error
}

// BaseController is a simple implementation of Controller.
type BaseController struct {
	bucket Bucket
}

var _ Controller = BaseController{}

// NewController returns a controller that stores wallets in given bucket.
func NewController(bucket Bucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the balance of given account.
func (c BaseController) Balance(db remittance.ReadOnlyKVStore, addr remittance.Address) (uint64, error) {
	w, err := c.bucket.Get(db, addr)
	if err != nil {
		return 0, err
	}
	if w == nil {
		return 0, nil
	}
	return w.Balance, nil
}

// MoveCoins moves the given amount from src to dest.
func (c BaseController) MoveCoins(db remittance.KVStore, src, dest remittance.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "non-positive transfer")
	}
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}

	sender, err := c.bucket.Get(db, src)
	if err != nil {
		return err
	}
	if sender == nil {
		return errors.Wrapf(errors.ErrEmpty, "empty account %s", src)
	}
	if err := sender.Subtract(amount); err != nil {
		return err
	}
	// Moving to self does not change anything but must still be covered.
	if src.Equals(dest) {
		return nil
	}

	recipient, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return err
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}

	if err := c.bucket.Save(db, src, sender); err != nil {
		return err
	}
	return c.bucket.Save(db, dest, recipient)
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(db remittance.KVStore, dest remittance.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "non-positive issue")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	recipient, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return err
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}
	return c.bucket.Save(db, dest, recipient)
}
