package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/allbabel/remittance/errors"
)

// commands is a register of all available commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// A command function is given stdin, stdout and the command line arguments
// without the program and the command name. It is responsible for parsing
// its arguments with the flag package. Commands that change the state
// commit it to the database in the home directory only when they succeed.
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"balance":      cmdBalance,
	"commit":       cmdCommit,
	"deposit":      cmdDeposit,
	"deposits":     cmdDeposits,
	"init":         cmdInit,
	"issue":        cmdIssue,
	"pause":        cmdPause,
	"refund":       cmdRefund,
	"resume":       cmdResume,
	"set-fee-rate": cmdSetFeeRate,
	"status":       cmdStatus,
	"sweep-fees":   cmdSweepFees,
	"version":      cmdVersion,
	"withdraw":     cmdWithdraw,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s is a command line client for the remittance escrow.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	// Skip two first arguments. Second argument is the command name that
	// we just consumed.
	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		code, log := errors.Info(err, env("REMITCLI_DEBUG", "") != "")
		fmt.Fprintf(os.Stderr, "error %d: %s\n", code, log)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	fmt.Fprintln(out, gitHash)
	return nil
}

// gitHash is set during the compilation time.
var gitHash = "dev"
