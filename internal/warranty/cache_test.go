package warranty

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheReplaceAndGet(t *testing.T) {
	cache := NewCache()
	cache.Replace(map[string]Status{
		"1": {IsRegistered: true, Status: "active"},
		"2": {IsRegistered: false},
	})

	status, ok := cache.Get(ID(1))
	require.True(t, ok)
	assert.True(t, status.IsRegistered)

	// String and numeric representations of the same identifier share a key.
	status, ok = cache.Get(ID("1"))
	require.True(t, ok)
	assert.True(t, status.IsRegistered)

	_, ok = cache.Get(ID(3))
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestCacheReplaceIsWholesale(t *testing.T) {
	cache := NewCache()
	cache.Replace(map[string]Status{"1": {IsRegistered: true}})
	cache.Replace(map[string]Status{"2": {IsRegistered: true}})

	_, ok := cache.Get(ID(1))
	assert.False(t, ok, "stale entries must not survive a replace")
	_, ok = cache.Get(ID(2))
	assert.True(t, ok)
}

func TestCachePatch(t *testing.T) {
	cache := NewCache()
	cache.Replace(map[string]Status{"9": {IsRegistered: false}})

	cache.Patch(ID(9), Status{IsRegistered: true, Status: "registered", WarrantyID: int64Ptr(77)})

	status, ok := cache.Get(ID(9))
	require.True(t, ok)
	assert.True(t, status.IsRegistered)
	require.NotNil(t, status.WarrantyID)
	assert.Equal(t, int64(77), *status.WarrantyID)
}

func TestCacheReplaceNil(t *testing.T) {
	cache := NewCache()
	cache.Replace(nil)
	assert.Equal(t, 0, cache.Len())
	// Patching after a nil replace must not panic.
	cache.Patch(ID(1), Status{IsRegistered: true})
	assert.Equal(t, 1, cache.Len())
}

func TestCacheConcurrentPatches(t *testing.T) {
	cache := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cache.Patch(ID(i), Status{IsRegistered: true})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, cache.Len())
}

func TestCacheSnapshotIsCopy(t *testing.T) {
	cache := NewCache()
	cache.Replace(map[string]Status{"1": {IsRegistered: true}})

	snap := cache.Snapshot()
	snap["1"] = Status{IsRegistered: false}

	status, _ := cache.Get(ID(1))
	assert.True(t, status.IsRegistered)
}
