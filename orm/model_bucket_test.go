package orm

import (
	"testing"

	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
	"github.com/allbabel/remittance/remittancetest/assert"
	"github.com/allbabel/remittance/store"
	"github.com/gogo/protobuf/proto"
)

// note is a minimal model used to test the bucket.
type note struct {
	Metadata *remittance.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Text     string               `protobuf:"bytes,2,opt,name=text,proto3" json:"text,omitempty"`
}

func (m *note) Reset()         { *m = note{} }
func (m *note) String() string { return proto.CompactTextString(m) }
func (*note) ProtoMessage()    {}

func (m *note) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if m.Text == "" {
		return errors.Wrap(errors.ErrEmpty, "text")
	}
	return nil
}

func TestModelBucket(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("notes")

	if err := b.Put(db, []byte("n1"), &note{Metadata: &remittance.Metadata{Schema: 1}, Text: "first"}); err != nil {
		t.Fatalf("cannot save note instance: %s", err)
	}

	var n1 note
	if err := b.One(db, []byte("n1"), &n1); err != nil {
		t.Fatalf("cannot get n1 note: %s", err)
	}
	assert.Equal(t, "first", n1.Text)
	assert.Nil(t, b.Has(db, []byte("n1")))

	if err := b.Delete(db, []byte("n1")); err != nil {
		t.Fatalf("cannot delete n1 note: %s", err)
	}
	if err := b.Delete(db, []byte("unknown")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error when deleting unexisting instance: %s", err)
	}
	if err := b.One(db, []byte("n1"), &n1); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error for an unknown model get: %s", err)
	}
	if err := b.Has(db, []byte("n1")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error for an unknown model has: %s", err)
	}
}

func TestModelBucketPutValidates(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("notes")

	err := b.Put(db, []byte("n1"), &note{Metadata: &remittance.Metadata{Schema: 1}})
	assert.IsErr(t, errors.ErrEmpty, err)

	err = b.Put(db, []byte("n1"), &note{Text: "no metadata"})
	assert.IsErr(t, errors.ErrMetadata, err)

	err = b.Put(db, nil, &note{Metadata: &remittance.Metadata{Schema: 1}, Text: "no key"})
	assert.IsErr(t, errors.ErrEmpty, err)

	if err := b.Has(db, []byte("n1")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("invalid model must not be stored: %v", err)
	}
}

func TestModelBucketIterate(t *testing.T) {
	db := store.MemStore()
	notes := NewModelBucket("notes")
	other := NewModelBucket("notez")

	for _, key := range []string{"c", "a", "b"} {
		n := &note{Metadata: &remittance.Metadata{Schema: 1}, Text: "note " + key}
		assert.Nil(t, notes.Put(db, []byte(key), n))
	}
	// a bucket sharing the name prefix must not leak into the iteration
	assert.Nil(t, other.Put(db, []byte("a"), &note{Metadata: &remittance.Metadata{Schema: 1}, Text: "other"}))

	it, err := notes.Iterate(db)
	assert.Nil(t, err)
	defer it.Release()

	var keys, texts []string
	for {
		var n note
		key, err := it.LoadNext(&n)
		if ErrIteratorDone.Is(err) {
			break
		}
		assert.Nil(t, err)
		keys = append(keys, string(key))
		texts = append(texts, n.Text)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, []string{"note a", "note b", "note c"}, texts)
}
