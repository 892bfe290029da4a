package dedupindex_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/imagestore/pkg/imagestore"
	"github.com/caseflow/imagestore/pkg/imagestore/dedupindex"
)

func entry(owner string, n int) imagestore.IndexEntry {
	fp := imagestore.Digest([]byte(fmt.Sprintf("content-%d", n)))
	return imagestore.IndexEntry{
		Owner:       owner,
		Fingerprint: fp,
		URL:         fmt.Sprintf("/api/v1/files/view/%s.jpg?uid=%s", fp, owner),
		ObjectKey:   fmt.Sprintf("uploads/%s/%s.jpg", owner, fp),
	}
}

func TestGetPut(t *testing.T) {
	x := dedupindex.New(0)

	e := entry("alice", 1)
	_, ok := x.Get(e.Owner, e.Fingerprint)
	assert.False(t, ok)

	x.Put(e)
	got, ok := x.Get(e.Owner, e.Fingerprint)
	require.True(t, ok)
	assert.Equal(t, e, got)
	assert.Equal(t, 1, x.Len())

	// Same fingerprint under another owner is a distinct entry.
	_, ok = x.Get("bob", e.Fingerprint)
	assert.False(t, ok)

	// Re-put refreshes rather than duplicates.
	x.Put(e)
	assert.Equal(t, 1, x.Len())
}

func TestDefaultCapacity(t *testing.T) {
	assert.Equal(t, dedupindex.DefaultCapacity, 4096)
	// Zero and negative capacities fall back to the default.
	x := dedupindex.New(-1)
	for i := 0; i < 10; i++ {
		x.Put(entry("alice", i))
	}
	assert.Equal(t, 10, x.Len())
}

func TestLRUEviction(t *testing.T) {
	x := dedupindex.New(3)

	e1 := entry("alice", 1)
	e2 := entry("alice", 2)
	e3 := entry("alice", 3)
	x.Put(e1)
	x.Put(e2)
	x.Put(e3)

	// Touch e1 so e2 becomes least recently used.
	_, ok := x.Get(e1.Owner, e1.Fingerprint)
	require.True(t, ok)

	x.Put(entry("alice", 4))
	assert.Equal(t, 3, x.Len())

	_, ok = x.Get(e2.Owner, e2.Fingerprint)
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = x.Get(e1.Owner, e1.Fingerprint)
	assert.True(t, ok)
	_, ok = x.Get(e3.Owner, e3.Fingerprint)
	assert.True(t, ok)
}

func TestFindByFingerprint(t *testing.T) {
	x := dedupindex.New(0)

	shared := imagestore.Digest([]byte("shared content"))
	alice := imagestore.IndexEntry{Owner: "alice", Fingerprint: shared, ObjectKey: "uploads/alice/k.jpg"}
	bob := imagestore.IndexEntry{Owner: "bob", Fingerprint: shared, ObjectKey: "uploads/bob/k.jpg"}
	x.Put(alice)
	x.Put(bob)
	x.Put(entry("carol", 99))

	matches := x.FindByFingerprint(shared)
	require.Len(t, matches, 2)
	// Most recently used first.
	assert.Equal(t, "bob", matches[0].Owner)
	assert.Equal(t, "alice", matches[1].Owner)

	assert.Empty(t, x.FindByFingerprint(imagestore.Digest([]byte("absent"))))
}

func TestConcurrentAccess(t *testing.T) {
	x := dedupindex.New(64)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				e := entry("alice", j%32)
				x.Put(e)
				x.Get(e.Owner, e.Fingerprint)
				x.FindByFingerprint(e.Fingerprint)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, x.Len(), 64)
}
