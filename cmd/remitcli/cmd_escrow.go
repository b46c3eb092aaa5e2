package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	remit "github.com/allbabel/remittance/x/remittance"
)

func cmdCommit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Compute the commitment of given secrets. Two secrets create a commitment that
anybody knowing them can claim. A single secret must be bound to a recipient.
		`)
		fl.PrintDefaults()
	}
	var (
		secretsFl   = flSecrets(fl, "secret", "Secret. Provide it twice for an unbound commitment.")
		recipientFl = flAddress(fl, "recipient", "", "Recipient the commitment is bound to.")
	)
	fl.Parse(args)

	var puzzle remit.Puzzle = remit.UnboundPuzzle{}
	if len(*recipientFl) != 0 {
		puzzle = remit.BoundPuzzle{Recipient: *recipientFl}
	}
	commitment, err := puzzle.Commitment(*secretsFl)
	if err != nil {
		return err
	}
	fmt.Fprintln(output, hex.EncodeToString(commitment))
	return nil
}

func cmdDeposit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Lock value against a commitment. The fee is taken from the amount.
		`)
		fl.PrintDefaults()
	}
	var (
		homeFl       = flHome(fl)
		fromFl       = flAddress(fl, "from", "", "Depositor address.")
		commitmentFl = flHex(fl, "commitment", "", "Hex encoded commitment, see the commit command.")
		recipientFl  = flAddress(fl, "recipient", "", "Optional recipient, required for a single secret commitment.")
		amountFl     = fl.Uint64("amount", 0, "Value to lock.")
		timeoutFl    = fl.Duration("timeout", 24*time.Hour, "Time after which the depositor can reclaim the value. Whole seconds only.")
	)
	fl.Parse(args)

	if *timeoutFl%time.Second != 0 {
		return errors.Wrapf(errors.ErrInput, "timeout %s is not a whole number of seconds", *timeoutFl)
	}

	s, err := openState(*homeFl)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.handle(*fromFl, &remit.DepositMsg{
		Metadata:   &remittance.Metadata{Schema: 1},
		Commitment: *commitmentFl,
		Timeout:    int64(*timeoutFl / time.Second),
		Recipient:  *recipientFl,
		Amount:     *amountFl,
	})
	if err != nil {
		return err
	}
	return writeEvents(output, res.Events)
}

func cmdWithdraw(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Claim a deposit by revealing its secrets. When no commitment is given it is
computed from the secrets: two secrets for an unbound deposit, one secret for
a deposit bound to the caller.
		`)
		fl.PrintDefaults()
	}
	var (
		homeFl       = flHome(fl)
		fromFl       = flAddress(fl, "from", "", "Caller address, receiving the value.")
		commitmentFl = flHex(fl, "commitment", "", "Optional hex encoded commitment.")
		secretsFl    = flSecrets(fl, "secret", "Secret. Can be provided twice.")
	)
	fl.Parse(args)

	s, err := openState(*homeFl)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.handle(*fromFl, &remit.WithdrawMsg{
		Metadata:   &remittance.Metadata{Schema: 1},
		Commitment: *commitmentFl,
		Secrets:    *secretsFl,
	})
	if err != nil {
		return err
	}
	return writeEvents(output, res.Events)
}

func cmdRefund(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Return the value of an expired deposit to its depositor.
		`)
		fl.PrintDefaults()
	}
	var (
		homeFl       = flHome(fl)
		fromFl       = flAddress(fl, "from", "", "Depositor address.")
		commitmentFl = flHex(fl, "commitment", "", "Hex encoded commitment.")
	)
	fl.Parse(args)

	s, err := openState(*homeFl)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.handle(*fromFl, &remit.RefundMsg{
		Metadata:   &remittance.Metadata{Schema: 1},
		Commitment: *commitmentFl,
	})
	if err != nil {
		return err
	}
	return writeEvents(output, res.Events)
}

// depositView is the JSON representation of an open deposit.
type depositView struct {
	Commitment string              `json:"commitment"`
	Depositor  remittance.Address  `json:"depositor"`
	Recipient  remittance.Address  `json:"recipient,omitempty"`
	Amount     uint64              `json:"amount"`
	Fee        uint64              `json:"fee"`
	CreatedAt  remittance.UnixTime `json:"created_at"`
	ExpiresAt  remittance.UnixTime `json:"expires_at"`
}

func cmdDeposits(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
List all open deposits, one JSON document per line.
		`)
		fl.PrintDefaults()
	}
	var (
		homeFl       = flHome(fl)
		commitmentFl = flHex(fl, "commitment", "", "Show only the deposit of this commitment.")
	)
	fl.Parse(args)

	s, err := openState(*homeFl)
	if err != nil {
		return err
	}
	defer s.close()

	var open []remit.OpenDeposit
	if len(*commitmentFl) != 0 {
		d, err := s.engine.Get(s.ctx, *commitmentFl)
		if err != nil {
			return err
		}
		open = append(open, remit.OpenDeposit{Commitment: *commitmentFl, Deposit: d})
	} else {
		if open, err = s.engine.Deposits(s.ctx); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(output)
	for _, d := range open {
		view := depositView{
			Commitment: hex.EncodeToString(d.Commitment),
			Depositor:  d.Depositor,
			Recipient:  d.Recipient,
			Amount:     d.Amount,
			Fee:        d.Fee,
			CreatedAt:  d.CreatedAt,
			ExpiresAt:  d.ExpiresAt,
		}
		if err := enc.Encode(view); err != nil {
			return errors.Wrap(errors.ErrInput, err.Error())
		}
	}
	return nil
}

// writeEvents prints one line per event, attributes as key=value pairs.
func writeEvents(output io.Writer, events []remit.Event) error {
	for _, e := range events {
		if _, err := fmt.Fprint(output, e.Kind); err != nil {
			return err
		}
		for _, kv := range e.Attributes {
			fmt.Fprintf(output, " %s=%s", kv.Key, kv.Value)
		}
		fmt.Fprintln(output)
	}
	return nil
}
