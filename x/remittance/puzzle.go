package remittance

import (
	"encoding/binary"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	"golang.org/x/crypto/sha3"
)

// CommitmentLength is the size of every commitment.
const CommitmentLength = 32

// Shape tags prefixing the hashed preimage.
const (
	tagUnbound byte = 1
	tagBound   byte = 2
)

// Commit returns the commitment of given secret parts. When binding is not
// empty the commitment is bound to that address. The preimage starts with a
// shape tag and every element is length prefixed, so that no two different
// inputs produce the same preimage.
func Commit(parts [][]byte, binding remittance.Address) []byte {
	h := sha3.NewLegacyKeccak256()
	if len(binding) == 0 {
		h.Write([]byte{tagUnbound})
	} else {
		h.Write([]byte{tagBound})
	}
	var prefix [binary.MaxVarintLen64]byte
	write := func(b []byte) {
		n := binary.PutUvarint(prefix[:], uint64(len(b)))
		h.Write(prefix[:n])
		h.Write(b)
	}
	if len(binding) != 0 {
		write(binding)
	}
	for _, p := range parts {
		write(p)
	}
	return h.Sum(nil)
}

// Puzzle is the shape of the lock protecting a deposit. It is either an
// UnboundPuzzle or a BoundPuzzle.
type Puzzle interface {
	// Commitment validates the secrets for this shape and returns the
	// commitment they produce.
	Commitment(secrets [][]byte) ([]byte, error)

	// Authorize returns an error if caller is not allowed to claim a
	// deposit locked with this puzzle.
	Authorize(caller remittance.Address) error

	isPuzzle()
}

// UnboundPuzzle is solved by two secrets. Anybody knowing both may claim.
type UnboundPuzzle struct{}

var _ Puzzle = UnboundPuzzle{}

func (UnboundPuzzle) isPuzzle() {}

// Commitment returns the commitment of the two secrets.
func (UnboundPuzzle) Commitment(secrets [][]byte) ([]byte, error) {
	if err := validateSecrets(secrets, 2); err != nil {
		return nil, err
	}
	return Commit(secrets, nil), nil
}

// Authorize allows any caller.
func (UnboundPuzzle) Authorize(remittance.Address) error {
	return nil
}

// BoundPuzzle is solved by a single secret and may be claimed only by the
// recipient.
type BoundPuzzle struct {
	Recipient remittance.Address
}

var _ Puzzle = BoundPuzzle{}

func (BoundPuzzle) isPuzzle() {}

// Commitment returns the commitment of the secret bound to the recipient.
func (p BoundPuzzle) Commitment(secrets [][]byte) ([]byte, error) {
	if err := validateSecrets(secrets, 1); err != nil {
		return nil, err
	}
	if err := p.Recipient.Validate(); err != nil {
		return nil, errors.Wrap(err, "recipient")
	}
	return Commit(secrets, p.Recipient), nil
}

// Authorize allows the recipient only.
func (p BoundPuzzle) Authorize(caller remittance.Address) error {
	if !p.Recipient.Equals(caller) {
		return errors.Wrapf(errors.ErrUnauthorized, "deposit is bound to %s", p.Recipient)
	}
	return nil
}

// PuzzleOf returns the puzzle that locks given deposit.
func PuzzleOf(d *Deposit) Puzzle {
	if len(d.Recipient) == 0 {
		return UnboundPuzzle{}
	}
	return BoundPuzzle{Recipient: d.Recipient}
}

func validateSecrets(secrets [][]byte, want int) error {
	if len(secrets) != want {
		return errors.Wrapf(errors.ErrInput, "want %d secrets, got %d", want, len(secrets))
	}
	var errs error
	for i, s := range secrets {
		if len(s) == 0 {
			errs = errors.Append(errs, errors.Wrapf(errors.ErrEmpty, "secret %d", i))
		}
	}
	if errs != nil {
		return errors.Wrap(errors.ErrInput, errs.Error())
	}
	return nil
}
