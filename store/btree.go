package store

import (
	"bytes"

	"github.com/allbabel/remittance/errors"
	"github.com/google/btree"
)

// btreeDegree is the degree of every cache tree. Escrow operations touch a
// handful of keys (a deposit, a few wallets and the configuration), so a
// small degree keeps the nodes cheap.
const btreeDegree = 2

// MemStore returns a store kept entirely in memory. It backs the tests and
// running the escrow without a database. Nothing is persisted, so the
// returned store must never be written itself, only the cache wraps created
// from it.
func MemStore() CacheableKVStore {
	void := EmptyKVStore{}
	return NewBTreeCacheWrap(void, void.NewBatch())
}

// BTreeCacheWrap buffers changes in a btree on top of a read only store.
// Reads see the buffered changes first. Write replays them on the batch,
// Discard drops them. An escrow operation runs on its own wrap, so a
// rejected operation leaves no trace in the underlying store.
type BTreeCacheWrap struct {
	tree    *btree.BTree
	free    *btree.FreeList
	backing ReadOnlyKVStore
	batch   Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap returns a cache over kv. kv is only read; all changes
// go through batch when the wrap is written.
func NewBTreeCacheWrap(kv ReadOnlyKVStore, batch Batch) BTreeCacheWrap {
	return newBTreeCacheWrap(kv, batch, btree.NewFreeList(btree.DefaultFreeListSize))
}

func newBTreeCacheWrap(kv ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	return BTreeCacheWrap{
		tree:    btree.NewWithFreeList(btreeDegree, free),
		free:    free,
		backing: kv,
		batch:   batch,
	}
}

// CacheWrap stacks another cache on this one. Nested wraps share the node
// free list.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return newBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a batch applying its operations to this cache.
func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write applies all buffered changes to the underlying store and empties
// the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops all buffered changes.
func (b BTreeCacheWrap) Discard() {
	for b.tree.DeleteMin() != nil {
	}
}

// Set buffers a write of value under key.
func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.tree.ReplaceOrInsert(entry{key: key, value: value})
	return b.batch.Set(key, value)
}

// Delete buffers a removal of key. The key stays in the tree as a
// tombstone so that it hides the value of the underlying store.
func (b BTreeCacheWrap) Delete(key []byte) error {
	b.tree.ReplaceOrInsert(entry{key: key, deleted: true})
	return b.batch.Delete(key)
}

// lookup returns the buffered entry for key, if any.
func (b BTreeCacheWrap) lookup(key []byte) (entry, bool, error) {
	item := b.tree.Get(entry{key: key})
	if item == nil {
		return entry{}, false, nil
	}
	e, ok := item.(entry)
	if !ok {
		return entry{}, false, errors.Wrapf(errors.ErrDatabase, "unexpected cache item %T", item)
	}
	return e, true, nil
}

// Get returns the buffered value of key, falling back to the underlying
// store.
func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	e, ok, err := b.lookup(key)
	switch {
	case err != nil:
		return nil, err
	case !ok:
		return b.backing.Get(key)
	case e.deleted:
		return nil, nil
	default:
		return e.value, nil
	}
}

// Has reports whether key holds a value, buffered or not.
func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	e, ok, err := b.lookup(key)
	switch {
	case err != nil:
		return false, err
	case !ok:
		return b.backing.Has(key)
	default:
		return !e.deleted, nil
	}
}

// Iterator returns keys in [start, end) in ascending order, merging the
// cache with the underlying store.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	parent, err := b.backing.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	iter, err := ascendBtree(b.tree, start, end).wrap(parent, false)
	if err != nil {
		return nil, err
	}
	return iter, nil
}

// ReverseIterator returns keys in [start, end) in descending order, merging
// the cache with the underlying store.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	parent, err := b.backing.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	iter, err := descendBtree(b.tree, start, end).wrap(parent, true)
	if err != nil {
		return nil, err
	}
	return iter, nil
}

// entry is a buffered change. A deleted entry is a tombstone.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

var _ btree.Item = entry{}

// Less orders entries by key.
func (e entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(entry).key) < 0
}
