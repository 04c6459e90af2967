// Package store provides message deduplication using a Bloom filter and
// an LRU cache, so replayed or double-delivered chat updates are only
// processed once.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DedupStore remembers recently seen message IDs. The Bloom filter gives
// a fast negative path; the LRU bounds memory and provides the
// authoritative membership check.
type DedupStore struct {
	bloom *bloom.BloomFilter
	lru   *lru.Cache[string, struct{}]
	mutex sync.Mutex
}

// NewDedupStore creates a store remembering up to maxEntries message IDs
// with the given Bloom false positive rate.
func NewDedupStore(maxEntries int, falsePositiveRate float64) *DedupStore {
	if maxEntries <= 0 {
		panic("maxEntries must be positive")
	}

	lruCache, _ := lru.New[string, struct{}](maxEntries)

	return &DedupStore{
		bloom: bloom.NewWithEstimates(uint(maxEntries), falsePositiveRate),
		lru:   lruCache,
	}
}

// Seen records the message ID and reports whether it was already known.
func (ds *DedupStore) Seen(messageID string) bool {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if ds.bloom.TestString(messageID) {
		if _, exists := ds.lru.Get(messageID); exists {
			return true
		}
	}

	ds.bloom.AddString(messageID)
	ds.lru.Add(messageID, struct{}{})

	return false
}

// Size returns the number of message IDs currently tracked.
func (ds *DedupStore) Size() int {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	return ds.lru.Len()
}
