package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	remit "github.com/allbabel/remittance/x/remittance"
)

func cmdPause(input io.Reader, output io.Writer, args []string) error {
	return adminCmd(`
Stop accepting new deposits. Withdraw and refund are not affected.
	`, args, func(*flag.FlagSet) remit.Msg {
		return &remit.PauseMsg{Metadata: &remittance.Metadata{Schema: 1}}
	}, output)
}

func cmdResume(input io.Reader, output io.Writer, args []string) error {
	return adminCmd(`
Accept new deposits again.
	`, args, func(*flag.FlagSet) remit.Msg {
		return &remit.ResumeMsg{Metadata: &remittance.Metadata{Schema: 1}}
	}, output)
}

func cmdSetFeeRate(input io.Reader, output io.Writer, args []string) error {
	return adminCmd(`
Change the fee taken from new deposits, in basis points (1/10000).
	`, args, func(fl *flag.FlagSet) remit.Msg {
		msg := &remit.SetFeeRateMsg{Metadata: &remittance.Metadata{Schema: 1}}
		fl.Var((*flagbps)(&msg.FeeRateBps), "bps", "Fee rate in basis points.")
		return msg
	}, output)
}

func cmdSweepFees(input io.Reader, output io.Writer, args []string) error {
	return adminCmd(`
Move all accrued fees to the owner.
	`, args, func(*flag.FlagSet) remit.Msg {
		return &remit.SweepFeesMsg{Metadata: &remittance.Metadata{Schema: 1}}
	}, output)
}

// adminCmd runs a command sending a single owner message. The message is
// built before the flags are parsed, so that it can register its own
// flags.
func adminCmd(usage string, args []string, build func(*flag.FlagSet) remit.Msg, output io.Writer) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		fromFl = flAddress(fl, "from", "", "Owner address.")
	)
	msg := build(fl)
	fl.Parse(args)

	s, err := openState(*homeFl)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.handle(*fromFl, msg)
	if err != nil {
		return err
	}
	if len(res.Events) == 0 {
		fmt.Fprintln(output, "ok")
		return nil
	}
	return writeEvents(output, res.Events)
}

type flagbps uint32

func (b flagbps) String() string {
	return fmt.Sprint(uint32(b))
}

func (b *flagbps) Set(raw string) error {
	var n uint32
	if _, err := fmt.Sscan(raw, &n); err != nil {
		return err
	}
	*b = flagbps(n)
	return nil
}

// statusView is the JSON representation of the escrow configuration.
type statusView struct {
	Owner       remittance.Address `json:"owner"`
	Running     bool               `json:"running"`
	FeeRateBps  uint32             `json:"fee_rate_bps"`
	AccruedFees uint64             `json:"accrued_fees"`
	FeePool     remittance.Address `json:"fee_pool"`
	Version     int64              `json:"version"`
}

func cmdStatus(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Print the escrow configuration as JSON.
		`)
		fl.PrintDefaults()
	}
	homeFl := flHome(fl)
	fl.Parse(args)

	s, err := openState(*homeFl)
	if err != nil {
		return err
	}
	defer s.close()

	conf, err := s.engine.Config(s.ctx)
	if err != nil {
		return err
	}
	version, err := s.store.LatestVersion()
	if err != nil {
		return err
	}
	view := statusView{
		Owner:       conf.Owner,
		Running:     !conf.Paused,
		FeeRateBps:  conf.FeeRateBps,
		AccruedFees: conf.AccruedFees,
		FeePool:     remit.FeePoolAddress(),
		Version:     version.Version,
	}
	raw, err := json.MarshalIndent(view, "", "\t")
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	_, err = fmt.Fprintln(output, string(raw))
	return err
}
