/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of model.
* It is keyed by a primary key, chosen by the caller.
* Easy queries for one and iteration in key order.
*/
package orm

import (
	"fmt"
	"regexp"

	"github.com/allbabel/remittance"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Bucket is a prefixed subspace of the DB
type Bucket struct {
	name   string
	prefix []byte
}

// NewBucket creates a bucket to store data under the "<name>:" prefix.
func NewBucket(name string) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the name of this bucket.
func (b Bucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consequetive calls to overwrite the same byte array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// rawKey strips the bucket prefix from a database key. Returned slice is
// a copy.
func (b Bucket) rawKey(dbkey []byte) []byte {
	key := make([]byte, len(dbkey)-len(b.prefix))
	copy(key, dbkey[len(b.prefix):])
	return key
}

// prefixRange returns the start and end key that cover all the keys of this
// bucket. End is exclusive.
func (b Bucket) prefixRange() ([]byte, []byte) {
	start := b.DBKey(nil)
	end := b.DBKey(nil)
	// ':' + 1 is ';', the first byte after all keys with our prefix
	end[len(end)-1]++
	return start, end
}

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	remittance.Persistent
	remittance.Validater
}
