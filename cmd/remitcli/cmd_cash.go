package main

import (
	"flag"
	"fmt"
	"io"
)

func cmdBalance(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Print the balance of an account.
		`)
		fl.PrintDefaults()
	}
	var (
		homeFl = flHome(fl)
		addrFl = flAddress(fl, "address", "", "Account address.")
	)
	fl.Parse(args)

	s, err := openState(*homeFl)
	if err != nil {
		return err
	}
	defer s.close()

	if err := addrFl.Validate(); err != nil {
		return err
	}
	balance, err := s.bank.Balance(s.store.Adapter(), *addrFl)
	if err != nil {
		return err
	}
	fmt.Fprintln(output, balance)
	return nil
}

func cmdIssue(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Create new value on an account. Meant for development setups only.
		`)
		fl.PrintDefaults()
	}
	var (
		homeFl   = flHome(fl)
		toFl     = flAddress(fl, "to", "", "Account receiving the value.")
		amountFl = fl.Uint64("amount", 0, "Value to create.")
	)
	fl.Parse(args)

	s, err := openState(*homeFl)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.bank.IssueCoins(s.store.Adapter(), *toFl, *amountFl); err != nil {
		return err
	}
	if err := s.commit(); err != nil {
		return err
	}
	balance, err := s.bank.Balance(s.store.Adapter(), *toFl)
	if err != nil {
		return err
	}
	fmt.Fprintln(output, balance)
	return nil
}
