package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/allbabel/remittance"
)

// flAddress returns a value that is being initialized with given default value
// and optionally overwritten by a command line argument if provided. This
// function follows Go's flag package convention.
// If given value cannot be deserialized to required type, process is
// terminated.
func flAddress(fl *flag.FlagSet, name, defaultVal, usage string) *remittance.Address {
	var a remittance.Address
	if defaultVal != "" {
		var err error
		a, err = remittance.ParseAddress(defaultVal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q remittance.Address flag value. %s", name, err)
			os.Exit(2)
		}
	}
	fl.Var(&a, name, usage)
	return &a
}

// flHex returns a value that is being initialized with given default value
// and optionally overwritten by a command line argument if provided.
func flHex(fl *flag.FlagSet, name, defaultVal, usage string) *[]byte {
	var b []byte
	if defaultVal != "" {
		var err error
		b, err = hex.DecodeString(defaultVal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q hex encoded flag value. %s", name, err)
			os.Exit(2)
		}
	}
	fl.Var((*flagbyte)(&b), name, usage)
	return &b
}

type flagbyte []byte

func (b flagbyte) String() string {
	return hex.EncodeToString(b)
}

func (b *flagbyte) Set(raw string) error {
	val, err := hex.DecodeString(raw)
	if err != nil {
		return err
	}
	*b = val
	return nil
}

// flSecrets returns a list of secrets. The flag can be provided many times,
// each occurrence appends one secret.
func flSecrets(fl *flag.FlagSet, name, usage string) *[][]byte {
	var s flagsecrets
	fl.Var(&s, name, usage)
	return (*[][]byte)(&s)
}

type flagsecrets [][]byte

func (s flagsecrets) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = string(p)
	}
	return strings.Join(parts, ",")
}

func (s *flagsecrets) Set(raw string) error {
	if raw == "" {
		return fmt.Errorf("secret must not be empty")
	}
	*s = append(*s, []byte(raw))
	return nil
}

// flHome registers the flag of the directory holding the database.
func flHome(fl *flag.FlagSet) *string {
	return fl.String("home", env("REMITCLI_HOME", defaultHome()), "Directory holding the escrow state.")
}
