package iavl

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/allbabel/remittance/remittancetest/assert"
	"github.com/allbabel/remittance/store"
)

type Model = store.Model
type Op = store.Op

// makeBase returns the base layer
func makeBase() (store.CacheableKVStore, func()) {
	commit, cleanup := makeCommitStore()
	return commit.Adapter(), cleanup
}

func makeCommitStore() (CommitStore, func()) {
	tmpDir, err := ioutil.TempDir("", "iavl-adapter-")
	if err != nil {
		panic(err)
	}
	commit, err := NewCommitStore(tmpDir, "base")
	if err != nil {
		os.RemoveAll(tmpDir)
		panic(err)
	}
	cleanup := func() {
		commit.Close()
		os.RemoveAll(tmpDir)
	}
	return commit, cleanup
}

func TestCacheGetSet(t *testing.T) {
	store.NewTestSuite(makeBase).GetSet(t)
}

func TestCacheConflicts(t *testing.T) {
	store.NewTestSuite(makeBase).CacheConflicts(t)
}

func TestCacheIterators(t *testing.T) {
	store.NewTestSuite(makeBase).Iterators(t)
}

// TestCommitOverwrite checks that we commit properly
// and can add/overwrite/query in the next adapter
func TestCommitOverwrite(t *testing.T) {
	suite := store.NewTestSuite(makeBase)

	k1, k2, k3 := []byte("deposit:01"), []byte("deposit:02"), []byte("deposit:03")
	v1, v2, v3 := []byte("first"), []byte("second"), []byte("third")

	commit, cleanup := makeCommitStore()
	defer cleanup()
	// only one to trigger a cleanup
	commit.numHistory = 1

	id, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), id.Version)
	if len(id.Hash) != 0 {
		t.Fatal("hash is not empty")
	}

	parent := commit.CacheWrap()
	assert.Nil(t, parent.Set(k1, v1))
	assert.Nil(t, parent.Set(k2, v2))
	assert.Nil(t, parent.Write())
	id, err = commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), id.Version)
	if len(id.Hash) == 0 {
		t.Fatal("hash is empty")
	}

	child := commit.CacheWrap()
	assert.Nil(t, child.Set(k1, v3))
	assert.Nil(t, child.Set(k3, v3))
	assert.Nil(t, child.Delete(k2))

	// and a side-cache wrap to see they are in parallel
	side := commit.CacheWrap()
	suite.AssertGetHas(t, side, k1, v1, true)
	suite.AssertGetHas(t, side, k2, v2, true)
	suite.AssertGetHas(t, side, k3, nil, false)

	suite.AssertGetHas(t, child, k1, v3, true)
	suite.AssertGetHas(t, child, k2, nil, false)

	// write child to parent and make sure it also shows proper data
	assert.Nil(t, child.Write())
	suite.AssertGetHas(t, side, k1, v3, true)
	suite.AssertGetHas(t, side, k2, nil, false)
	suite.AssertGetHas(t, side, k3, v3, true)

	// the committed view is not changed until commit
	got, err := commit.Get(k2)
	assert.Nil(t, err)
	assert.Equal(t, v2, got)

	id, err = commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(2), id.Version)

	got, err = commit.Get(k2)
	assert.Nil(t, err)
	if got != nil {
		t.Fatalf("deleted value found: %q", got)
	}
}

// TestReopen makes sure that the committed state survives closing the
// database and uncommitted writes are lost.
func TestReopen(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "iavl-reopen-")
	assert.Nil(t, err)
	defer os.RemoveAll(tmpDir)

	commit, err := NewCommitStore(tmpDir, "reopen")
	assert.Nil(t, err)
	db := commit.Adapter()
	assert.Nil(t, db.Set([]byte("kept"), []byte("yes")))
	want, err := commit.Commit()
	assert.Nil(t, err)
	assert.Nil(t, db.Set([]byte("lost"), []byte("yes")))
	commit.Close()

	commit, err = NewCommitStore(tmpDir, "reopen")
	assert.Nil(t, err)
	defer commit.Close()

	got, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, want, got)

	val, err := commit.Get([]byte("kept"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("yes"), val)
	has, err := commit.Adapter().Has([]byte("lost"))
	assert.Nil(t, err)
	assert.Equal(t, false, has)
}
