package remittance

import (
	"github.com/allbabel/remittance/errors"
	"github.com/gogo/protobuf/proto"
)

// Persistent is implemented by everything that can be stored in the database
// or sent as a request. All implementations are protobuf messages.
type Persistent interface {
	proto.Message
}

// Validater is any struct that can be validated.
type Validater interface {
	Validate() error
}

// Marshal serializes given entity into its binary representation.
func Marshal(p Persistent) ([]byte, error) {
	raw, err := proto.Marshal(p)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "marshal %T: %s", p, err)
	}
	return raw, nil
}

// Unmarshal loads the binary representation into given entity. Any
// previous state of the entity is reset.
func Unmarshal(raw []byte, p Persistent) error {
	if err := proto.Unmarshal(raw, p); err != nil {
		return errors.Wrapf(errors.ErrInput, "unmarshal %T: %s", p, err)
	}
	return nil
}
