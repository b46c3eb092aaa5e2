package cash

import (
	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file
// use remittance.Address, so address in hex, not base64
type GenesisAccount struct {
	Address remittance.Address `json:"address"`
	Balance uint64             `json:"balance"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ remittance.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts remittance.Options, kv remittance.KVStore) error {
	accts := []GenesisAccount{}
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot read cash accounts: "+err.Error())
	}
	ctrl := NewController(NewBucket())
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		if acct.Balance == 0 {
			continue
		}
		if err := ctrl.IssueCoins(kv, acct.Address, acct.Balance); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
	}
	return nil
}
