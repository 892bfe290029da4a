// Package dedupindex provides the process-local, in-memory index mapping
// (owner, fingerprint) to a previously computed reference and storage
// key.
//
// The index is strictly a latency optimization and never the source of
// truth: every lookup in it may miss without affecting correctness, and
// eviction is not data loss. It is bounded with LRU eviction so sustained
// distinct uploads cannot grow memory without limit.
package dedupindex

import (
	"container/list"
	"sync"

	"github.com/caseflow/imagestore/pkg/imagestore"
)

// DefaultCapacity bounds the index when no capacity is configured.
const DefaultCapacity = 4096

type indexKey struct {
	owner       string
	fingerprint imagestore.Fingerprint
}

// Index is a bounded, concurrency-safe dedup index. It implements
// imagestore.DedupIndex.
type Index struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List // front = most recently used; values are imagestore.IndexEntry
	items    map[indexKey]*list.Element
}

// New creates an Index holding at most capacity entries. A capacity of
// zero or less falls back to DefaultCapacity.
func New(capacity int) *Index {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Index{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[indexKey]*list.Element),
	}
}

// Get returns the entry for (owner, fingerprint) and marks it recently
// used.
func (x *Index) Get(owner string, fp imagestore.Fingerprint) (imagestore.IndexEntry, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	el, ok := x.items[indexKey{owner, fp}]
	if !ok {
		return imagestore.IndexEntry{}, false
	}
	x.ll.MoveToFront(el)
	return el.Value.(imagestore.IndexEntry), true
}

// Put inserts or refreshes an entry, evicting the least recently used
// entry when the index is full. Entry values are idempotent per
// (owner, fingerprint), so a racing double-insert is harmless.
func (x *Index) Put(e imagestore.IndexEntry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	k := indexKey{e.Owner, e.Fingerprint}
	if el, ok := x.items[k]; ok {
		el.Value = e
		x.ll.MoveToFront(el)
		return
	}

	x.items[k] = x.ll.PushFront(e)
	for x.ll.Len() > x.capacity {
		oldest := x.ll.Back()
		old := oldest.Value.(imagestore.IndexEntry)
		x.ll.Remove(oldest)
		delete(x.items, indexKey{old.Owner, old.Fingerprint})
	}
}

// FindByFingerprint scans entries across all owners for a matching
// fingerprint, most recently used first. There should be at most one live
// match per fingerprint in a well-behaved store, but callers must not
// assume this.
func (x *Index) FindByFingerprint(fp imagestore.Fingerprint) []imagestore.IndexEntry {
	x.mu.Lock()
	defer x.mu.Unlock()

	var matches []imagestore.IndexEntry
	for el := x.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(imagestore.IndexEntry)
		if e.Fingerprint == fp {
			matches = append(matches, e)
		}
	}
	return matches
}

// Len returns the number of live entries.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.ll.Len()
}
