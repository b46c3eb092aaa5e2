// Package remittancetest provides fixtures and helpers for testing the
// escrow and its supporting packages.
package remittancetest
