package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	"github.com/allbabel/remittance/x/cash"
	remit "github.com/allbabel/remittance/x/remittance"
)

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Initialize the escrow state from a genesis file. The genesis is read from
standard input unless a file is given. For example:

  {
    "conf": {"remittance": {"metadata": {"schema": 1}, "owner": "<address>", "fee_rate_bps": 0}},
    "cash": [{"address": "<address>", "balance": 1000}]
  }
		`)
		fl.PrintDefaults()
	}
	var (
		homeFl    = flHome(fl)
		genesisFl = fl.String("genesis", "", "Path to the genesis file. Standard input is used if not provided.")
	)
	fl.Parse(args)

	var raw []byte
	var err error
	if *genesisFl == "" {
		raw, err = ioutil.ReadAll(input)
	} else {
		raw, err = ioutil.ReadFile(*genesisFl)
	}
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot read genesis: %s", err)
	}
	var opts remittance.Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot decode genesis: %s", err)
	}

	s, err := openState(*homeFl)
	if err != nil {
		return err
	}
	defer s.close()

	switch _, err := s.engine.Config(s.ctx); {
	case err == nil:
		return errors.Wrapf(errors.ErrState, "already initialized in %s", *homeFl)
	case !errors.ErrNotFound.Is(err):
		return err
	}

	ini := remittance.ChainInitializers(cash.Initializer{}, remit.Initializer{})
	if err := ini.FromGenesis(opts, s.store.Adapter()); err != nil {
		return errors.Wrap(err, "genesis")
	}
	if err := s.commit(); err != nil {
		return err
	}
	fmt.Fprintf(output, "initialized %s\n", *homeFl)
	return nil
}

