package remittancetest

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"testing"

	"github.com/allbabel/remittance"
)

var addrSeq uint64

// NewCondition returns a new, unique condition. Conditions are derived from a
// process wide sequence so that each call returns a different value.
func NewCondition() remittance.Condition {
	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, atomic.AddUint64(&addrSeq, 1))
	return remittance.NewCondition("test", "seq", seq)
}

// NewAddress returns a new, unique and valid address.
func NewAddress() remittance.Address {
	return NewCondition().Address()
}

// RandomAddr returns a valid random address generated on the fly.
func RandomAddr(t testing.TB) remittance.Address {
	raw := make([]byte, remittance.AddressLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("cannot generate a random address: %s", err)
	}
	a := remittance.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("generated address is not a valid address: %s", err)
	}
	return a
}

// DecodeAddr takes a hex encoded address string and returns its raw
// representation. This function ensures that returned value is a valid
// address.
func DecodeAddr(t testing.TB, encoded string) remittance.Address {
	t.Helper()
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		t.Fatalf("cannot decode hex string: %s", err)
	}
	a := remittance.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("decoded string is not a valid address: %s", err)
	}
	return a
}

// ParseAddress takes an address in a human readable format and returns
// its binary representation. This function is a test helper that is using
// remittance.ParseAddress function functionality.
func ParseAddress(t testing.TB, encodedAddress string) remittance.Address {
	t.Helper()

	addr, err := remittance.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
