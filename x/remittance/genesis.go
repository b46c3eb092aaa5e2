package remittance

import (
	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/gconf"
)

// Initializer stores the escrow configuration read from the genesis file.
//
//   {"conf": {"remittance": {
//       "metadata": {"schema": 1},
//       "owner": "...",
//       "fee_rate_bps": 100
//   }}}
//
// The escrow is running unless "paused" is set.
type Initializer struct{}

var _ remittance.Initializer = Initializer{}

// FromGenesis loads the configuration from the genesis options.
func (Initializer) FromGenesis(opts remittance.Options, db remittance.KVStore) error {
	var conf Configuration
	return gconf.InitConfig(db, opts, ConfigName, &conf)
}
