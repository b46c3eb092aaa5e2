package cash

import (
	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	"github.com/allbabel/remittance/orm"
	"github.com/gogo/protobuf/proto"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet holds the balance of a single account. It is stored under the
// account address.
type Wallet struct {
	Metadata *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Balance  uint64               `protobuf:"varint,2,opt,name=balance,proto3" json:"balance,omitempty"`
}

func (m *Wallet) Reset()         { *m = Wallet{} }
func (m *Wallet) String() string { return proto.CompactTextString(m) }
func (*Wallet) ProtoMessage()    {}

var _ orm.Model = (*Wallet)(nil)

// NewWallet returns a wallet with given balance.
func NewWallet(balance uint64) *Wallet {
	return &Wallet{
		Metadata: &remittance.Metadata{Schema: 1},
		Balance:  balance,
	}
}

// Validate ensures the wallet is valid.
func (m *Wallet) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}

// Add increases the balance by given amount.
func (m *Wallet) Add(amount uint64) error {
	sum := m.Balance + amount
	if sum < m.Balance {
		return errors.Wrapf(errors.ErrOverflow, "%d + %d", m.Balance, amount)
	}
	m.Balance = sum
	return nil
}

// Subtract decreases the balance by given amount.
func (m *Wallet) Subtract(amount uint64) error {
	if m.Balance < amount {
		return errors.Wrapf(errors.ErrInsufficientFunds, "balance %d, required %d", m.Balance, amount)
	}
	m.Balance -= amount
	return nil
}

// Bucket is a type-safe wrapper around orm.ModelBucket
type Bucket struct {
	orm.ModelBucket
}

// NewBucket initializes a cash.Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		ModelBucket: orm.NewModelBucket(BucketName),
	}
}

// Get returns the wallet of given address or nil if it does not exist.
func (b Bucket) Get(db remittance.ReadOnlyKVStore, key remittance.Address) (*Wallet, error) {
	var w Wallet
	switch err := b.One(db, key, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

// Save stores the wallet under given address.
func (b Bucket) Save(db remittance.KVStore, key remittance.Address, w *Wallet) error {
	return b.Put(db, key, w)
}

// GetOrCreate returns the wallet of given address or a new empty wallet if
// none is stored.
func (b Bucket) GetOrCreate(db remittance.ReadOnlyKVStore, key remittance.Address) (*Wallet, error) {
	wallet, err := b.Get(db, key)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		wallet = NewWallet(0)
	}
	return wallet, nil
}
