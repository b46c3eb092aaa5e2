package orm

import (
	"github.com/allbabel/remittance"
	"github.com/allbabel/remittance/errors"
)

// ModelBucket is implemented by buckets that operates on Models.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db remittance.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key exists, and
	// ErrNotFound otherwise.
	Has(db remittance.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database. The model is validated
	// first.
	Put(db remittance.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db remittance.KVStore, key []byte) error

	// Iterate returns an iterator over all models stored in the bucket,
	// ordered by their primary key.
	Iterate(db remittance.ReadOnlyKVStore) (*ModelIterator, error)
}

// NewModelBucket returns a ModelBucket instance that stores models under the
// given bucket name.
func NewModelBucket(name string) ModelBucket {
	return &modelBucket{
		b: NewBucket(name),
	}
}

type modelBucket struct {
	b Bucket
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) One(db remittance.ReadOnlyKVStore, key []byte, dest Model) error {
	raw, err := db.Get(mb.b.DBKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := remittance.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(err, "cannot load %T", dest)
	}
	return nil
}

func (mb *modelBucket) Has(db remittance.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(mb.b.DBKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s:%X", mb.b.Name(), key)
	}
	return nil
}

func (mb *modelBucket) Put(db remittance.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := remittance.Marshal(m)
	if err != nil {
		return err
	}
	if err := db.Set(mb.b.DBKey(key), raw); err != nil {
		return errors.Wrap(errors.ErrDatabase, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db remittance.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	if err := db.Delete(mb.b.DBKey(key)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (mb *modelBucket) Iterate(db remittance.ReadOnlyKVStore) (*ModelIterator, error) {
	start, end := mb.b.prefixRange()
	it, err := db.Iterator(start, end)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return &ModelIterator{it: it, b: mb.b}, nil
}

// ModelIterator loads models stored in a bucket one by one.
type ModelIterator struct {
	it remittance.Iterator
	b  Bucket
}

// LoadNext loads the next model into dest and returns its primary key. When
// all models were loaded ErrIteratorDone is returned.
func (m *ModelIterator) LoadNext(dest Model) ([]byte, error) {
	if !m.it.Valid() {
		return nil, ErrIteratorDone
	}
	key := m.b.rawKey(m.it.Key())
	if err := remittance.Unmarshal(m.it.Value(), dest); err != nil {
		return nil, errors.Wrapf(err, "cannot load %T", dest)
	}
	if err := m.it.Next(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return key, nil
}

// Release frees the underlying iterator.
func (m *ModelIterator) Release() {
	m.it.Close()
}
