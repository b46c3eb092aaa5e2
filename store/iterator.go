package store

import (
	"bytes"

	"github.com/google/btree"
)

///////////////////////////////////////////////////////
// From Items to Iterator

// btreeIter holds a snapshot of the btree items within the requested range.
// Taking the snapshot upfront allows the btree to be modified while the
// iterator is in use and releases nothing on close.
type btreeIter struct {
	items []btree.Item
	idx   int
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// ascendBtree collects all items in [start, end) in ascending order.
// A nil start or end means no limit.
func ascendBtree(bt *btree.BTree, start, end []byte) *btreeIter {
	iter := &btreeIter{}
	collect := func(item btree.Item) bool {
		iter.items = append(iter.items, item)
		return true
	}

	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(entry{key: end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(entry{key: start}, collect)
	default:
		bt.AscendRange(entry{key: start}, entry{key: end}, collect)
	}
	return iter
}

// descendBtree collects all items in [start, end) in descending order.
func descendBtree(bt *btree.BTree, start, end []byte) *btreeIter {
	iter := ascendBtree(bt, start, end)
	for i, j := 0, len(iter.items)-1; i < j; i, j = i+1, j-1 {
		iter.items[i], iter.items[j] = iter.items[j], iter.items[i]
	}
	return iter
}

func (b *btreeIter) wrap(parent Iterator, reverse bool) (*itemIter, error) {
	iter := &itemIter{
		wrap:    b,
		parent:  parent,
		reverse: reverse,
	}
	if err := iter.skipAllDeleted(); err != nil {
		iter.Close()
		return nil, err
	}
	return iter, nil
}

func (b *btreeIter) next() {
	b.idx++
}

func (b *btreeIter) close() {
	b.items = nil
}

// get requires this is valid, gets what we are pointing at
func (b *btreeIter) get() entry {
	return b.items[b.idx].(entry)
}

func (b *btreeIter) valid() bool {
	return b.idx < len(b.items)
}

// itemIter merges the cached items with the iterator of the
// underlying store, giving precedence to the cache.
type itemIter struct {
	wrap *btreeIter
	// if we are iterating in a cache-wrap (and who isn't),
	// we need to combine this iterator with the parent
	parent  Iterator
	reverse bool
}

//------- public facing interface ------
var _ Iterator = (*itemIter)(nil)

// Valid implements Iterator and returns true iff it can be read
func (i *itemIter) Valid() bool {
	return i.wrap.valid() || i.parentValid()
}

// Next moves the iterator to the next sequential key in the database, as
// defined by order of iteration.
//
// If Valid returns false, this method will panic.
func (i *itemIter) Next() error {
	// advance either us, parent, or both
	switch i.firstKey() {
	case us:
		i.wrap.next()
	case both:
		i.wrap.next()
		fallthrough
	case parent:
		if err := i.parent.Next(); err != nil {
			return err
		}
	default:
		panic("Advanced past the end!")
	}

	// keep advancing over all deleted entries
	return i.skipAllDeleted()
}

// Key returns the key of the cursor.
func (i *itemIter) Key() (key []byte) {
	switch i.firstKey() {
	case us, both:
		return i.wrap.get().key
	case parent:
		return i.parent.Key()
	default: //none
		panic("Advanced past the end!")
	}
}

// Value returns the value of the cursor.
func (i *itemIter) Value() (value []byte) {
	switch i.firstKey() {
	case us, both:
		return i.wrap.get().value
	case parent:
		return i.parent.Value()
	default: // none
		panic("Advanced past the end!")
	}
}

// Close releases the Iterator.
func (i *itemIter) Close() {
	if i.parent != nil {
		i.parent.Close()
	}
	i.wrap.close()
}

// skipAllDeleted loops and skips any number of deleted items
func (i *itemIter) skipAllDeleted() error {
	for {
		more, err := i.skipDeleted()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// skipDeleted jumps over all elements we can safely fast forward
// return true if skipped, so we can skip again
func (i *itemIter) skipDeleted() (bool, error) {
	src := i.firstKey()
	if src != us && src != both {
		return false, nil
	}
	if !i.wrap.get().deleted {
		return false, nil
	}
	i.wrap.next()
	// if parent had the same key, advance parent as well
	if src == both {
		if err := i.parent.Next(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// firstKey selects the iterator that must be read first, if any
func (i *itemIter) firstKey() source {
	// if only one or none is valid, it is clear which to use
	if !i.parentValid() {
		if !i.wrap.valid() {
			return none
		}
		return us
	} else if !i.wrap.valid() {
		return parent
	}

	cmp := bytes.Compare(i.parent.Key(), i.wrap.get().key)
	if i.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}

// makes sure the parent is non-nil before checking if it is valid
func (i *itemIter) parentValid() bool {
	return (i.parent != nil) && i.parent.Valid()
}
