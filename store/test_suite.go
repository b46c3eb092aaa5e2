package store

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"sort"
	"testing"

	"github.com/allbabel/remittance/remittancetest/assert"
)

// TestSuite checks that a CacheableKVStore implementation provides the
// transactional behaviour the escrow relies on. It is shared by the memory
// store and the iavl adapter tests.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh, empty store and a function
// releasing it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// GetSet runs the life of two escrow operations on cache wraps: a rejected
// one that is discarded and an accepted one that is written.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	conf, confV := []byte("_c:remittance"), []byte("owner")
	s.AssertGetHas(t, base, conf, nil, false)
	assert.Nil(t, base.Set(conf, confV))
	s.AssertGetHas(t, base, conf, confV, true)

	wallet, walletV := []byte("cash:depositor"), []byte("100")
	deposit, depositV := []byte("deposit:c0ffee"), []byte("90")

	rejected := base.CacheWrap()
	s.AssertGetHas(t, rejected, conf, confV, true)
	assert.Nil(t, rejected.Set(deposit, depositV))
	assert.Nil(t, rejected.Delete(conf))
	s.AssertGetHas(t, rejected, deposit, depositV, true)
	s.AssertGetHas(t, rejected, conf, nil, false)
	rejected.Discard()
	s.AssertGetHas(t, base, deposit, nil, false)
	s.AssertGetHas(t, base, conf, confV, true)

	accepted := base.CacheWrap()
	assert.Nil(t, accepted.Set(wallet, walletV))
	assert.Nil(t, accepted.Set(deposit, depositV))
	s.AssertGetHas(t, base, wallet, nil, false)
	assert.Nil(t, accepted.Write())
	s.AssertGetHas(t, base, wallet, walletV, true)
	s.AssertGetHas(t, base, deposit, depositV, true)

	// A claim removes the deposit.
	claim := base.CacheWrap()
	assert.Nil(t, claim.Delete(deposit))
	assert.Nil(t, claim.Write())
	s.AssertGetHas(t, base, deposit, nil, false)
	s.AssertGetHas(t, base, wallet, walletV, true)
}

// CacheConflicts checks that a cache wrap overrides and hides the values
// of its parent until it is written.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(4, 16)
	vs := randKeys(4, 40)

	cases := map[string]struct {
		parentOps []Op
		childOps  []Op
		// Key is what we query, Value is what we expect.
		parentQueries []Model
		childQueries  []Model
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{SetOp(ks[0], vs[0]), SetOp(ks[1], vs[1])},
			childOps:      []Op{SetOp(ks[0], vs[2]), DelOp(ks[1]), SetOp(ks[2], vs[3])},
			parentQueries: []Model{Pair(ks[0], vs[0]), Pair(ks[1], vs[1]), Pair(ks[2], nil)},
			childQueries:  []Model{Pair(ks[0], vs[2]), Pair(ks[1], nil), Pair(ks[2], vs[3])},
		},
		"delete then set again": {
			parentOps:     []Op{SetOp(ks[3], vs[0])},
			childOps:      []Op{DelOp(ks[3]), SetOp(ks[3], vs[1])},
			parentQueries: []Model{Pair(ks[3], vs[0])},
			childQueries:  []Model{Pair(ks[3], vs[1])},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parentOps {
				assert.Nil(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				assert.Nil(t, op.Apply(child))
			}

			for _, q := range tc.parentQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			assert.Nil(t, child.Write())
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// Iterators checks ranges over a cache wrap merged with its parent, in
// both directions. Deposits are listed this way.
func (s *TestSuite) Iterators(t *testing.T) {
	d := make([]Model, 6)
	for i := range d {
		d[i] = Pair([]byte(fmt.Sprintf("deposit:%02d", i)), randBytes(20))
	}
	replaced := Pair(d[1].Key, randBytes(20))

	const size = 40
	parentSet := randModels(size, 8, 40)
	childSet := randModels(size, 8, 40)
	both := sortModels(append(append([]Model{}, parentSet...), childSet...))

	cases := map[string]iterCase{
		"child only": {
			child: makeSetOps(d[0], d[1], d[2]),
			queries: []rangeQuery{
				{nil, nil, false, d[:3]},
				{d[1].Key, d[2].Key, false, d[1:2]},
				{nil, nil, true, reverse(d[:3])},
			},
		},
		"parent only": {
			pre: makeSetOps(d[0], d[1], d[2]),
			queries: []rangeQuery{
				{nil, nil, false, d[:3]},
				{d[1].Key, nil, false, d[1:3]},
				{nil, d[2].Key, true, reverse(d[:2])},
			},
		},
		"child overrides and removes parent entries": {
			pre:   makeSetOps(d[0], d[1], d[2], d[3]),
			child: append(makeSetOps(replaced, d[4]), makeDelOps(d[0], d[3], d[5])...),
			queries: []rangeQuery{
				{nil, nil, false, []Model{replaced, d[2], d[4]}},
				{nil, d[2].Key, false, []Model{replaced}},
				{d[3].Key, nil, true, []Model{d[4]}},
				{nil, nil, true, []Model{d[4], d[2], replaced}},
			},
		},
		"everything removed": {
			pre:   makeSetOps(d[0], d[1]),
			child: makeDelOps(d[0], d[1]),
			queries: []rangeQuery{
				{nil, nil, false, nil},
				{nil, nil, true, nil},
			},
		},
		"random keys in parent and child": {
			pre:   append(makeSetOps(parentSet...), makeDelOps(randModels(10, 8, 40)...)...),
			child: append(makeSetOps(childSet...), makeDelOps(randModels(10, 8, 40)...)...),
			queries: []rangeQuery{
				{nil, nil, false, both},
				{both[10].Key, nil, false, both[10:]},
				{both[17].Key, both[28].Key, false, both[17:28]},
				{nil, nil, true, reverse(both)},
				{both[6].Key, both[26].Key, true, reverse(both[6:26])},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// AssertGetHas fails the test unless kv holds val under key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	if _, err := rand.Read(res); err != nil {
		panic(err)
	}
	return res
}

func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = randBytes(size)
	}
	return res
}

func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := range models {
		models[i] = Pair(randBytes(keySize), randBytes(valueSize))
	}
	return models
}

type iterCase struct {
	pre     []Op
	child   []Op
	queries []rangeQuery
}

type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func (c iterCase) verify(t testing.TB, base CacheableKVStore) {
	t.Helper()
	for _, op := range c.pre {
		assert.Nil(t, op.Apply(base))
	}
	child := base.CacheWrap()
	for _, op := range c.child {
		assert.Nil(t, op.Apply(child))
	}

	for _, q := range c.queries {
		var (
			iter Iterator
			err  error
		)
		if q.reverse {
			iter, err = child.ReverseIterator(q.start, q.end)
		} else {
			iter, err = child.Iterator(q.start, q.end)
		}
		assert.Nil(t, err)

		for i, want := range q.expected {
			if !iter.Valid() {
				t.Fatalf("iterator exhausted after %d of %d items", i, len(q.expected))
			}
			if !bytes.Equal(want.Key, iter.Key()) {
				t.Fatalf("item %d: want key %X, got %X", i, want.Key, iter.Key())
			}
			assert.Equal(t, want.Value, iter.Value())
			assert.Nil(t, iter.Next())
		}
		if iter.Valid() {
			t.Fatalf("unexpected key after the last item: %X", iter.Key())
		}
		iter.Close()
	}
}

func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

func sortModels(models []Model) []Model {
	res := append([]Model(nil), models...)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func makeDelOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
