package warranty

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWarrantyService serves /api/warranty/check/{id}/ with canned statuses
// and optional per-ID failures.
type fakeWarrantyService struct {
	mu       sync.Mutex
	statuses map[string]Status
	failIDs  map[string]bool
	calls    map[string]int

	inFlight    int64
	maxInFlight int64
}

func newFakeWarrantyService() *fakeWarrantyService {
	return &fakeWarrantyService{
		statuses: make(map[string]Status),
		failIDs:  make(map[string]bool),
		calls:    make(map[string]int),
	}
}

func (f *fakeWarrantyService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cur := atomic.AddInt64(&f.inFlight, 1)
	defer atomic.AddInt64(&f.inFlight, -1)
	for {
		max := atomic.LoadInt64(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt64(&f.maxInFlight, max, cur) {
			break
		}
	}
	// Give the rest of the chunk a chance to arrive so overlap is observable.
	time.Sleep(10 * time.Millisecond)

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/warranty/check/"), "/")

	f.mu.Lock()
	f.calls[id]++
	fail := f.failIDs[id]
	status, ok := f.statuses[id]
	f.mu.Unlock()

	if fail {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	if !ok {
		status = Status{IsRegistered: false}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func TestCheckStatus_Registered(t *testing.T) {
	svc := newFakeWarrantyService()
	days := 120
	svc.statuses["7"] = Status{
		IsRegistered:    true,
		Status:          "active",
		StatusLabel:     "Active",
		WarrantyID:      int64Ptr(301),
		DaysUntilExpiry: &days,
	}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	status := client.CheckStatus(context.Background(), ID(7))

	assert.True(t, status.IsRegistered)
	assert.False(t, status.Error)
	assert.Equal(t, "active", status.Status)
	require.NotNil(t, status.DaysUntilExpiry)
	assert.Equal(t, 120, *status.DaysUntilExpiry)
}

func TestCheckStatus_NonOKResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	status := client.CheckStatus(context.Background(), ID(1))

	assert.False(t, status.IsRegistered)
	assert.True(t, status.Error)
	assert.Equal(t, "Failed to check warranty status", status.Message)
}

func TestCheckStatus_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, 0)
	status := client.CheckStatus(context.Background(), ID(1))

	assert.False(t, status.IsRegistered)
	assert.True(t, status.Error)
	assert.Equal(t, "Network error. Please try again.", status.Message)
}

func TestBatchCheckStatus_PartialFailureIsolated(t *testing.T) {
	svc := newFakeWarrantyService()
	ids := make([]FlexID, 25)
	for i := range ids {
		ids[i] = ID(i + 1)
		svc.statuses[fmt.Sprint(i+1)] = Status{IsRegistered: i%2 == 0, Status: "active"}
	}
	svc.failIDs[ids[13].Key()] = true

	srv := httptest.NewServer(svc)
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	results := client.BatchCheckStatus(context.Background(), ids)

	require.Len(t, results, 25)
	for i, id := range ids {
		status, ok := results[id.Key()]
		require.True(t, ok, "missing entry for id %s", id)
		if i == 13 {
			assert.True(t, status.Error)
			assert.False(t, status.IsRegistered)
		} else {
			assert.False(t, status.Error)
			assert.Equal(t, i%2 == 0, status.IsRegistered)
		}
	}
}

func TestBatchCheckStatus_ConcurrencyBounded(t *testing.T) {
	svc := newFakeWarrantyService()
	ids := make([]FlexID, 37)
	for i := range ids {
		ids[i] = ID(i + 1)
	}

	srv := httptest.NewServer(svc)
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	client.BatchCheckStatus(context.Background(), ids)

	max := atomic.LoadInt64(&svc.maxInFlight)
	assert.LessOrEqual(t, max, int64(batchSize))
	assert.Greater(t, max, int64(1), "fetches within a chunk should overlap")

	// Every identifier was fetched exactly once.
	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Len(t, svc.calls, 37)
	for id, n := range svc.calls {
		assert.Equal(t, 1, n, "id %s fetched %d times", id, n)
	}
}

func TestBatchCheckStatus_EmptyInput(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", 0)
	results := client.BatchCheckStatus(context.Background(), nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestBatchCheckStatus_DuplicatesLastWriteWins(t *testing.T) {
	svc := newFakeWarrantyService()
	svc.statuses["5"] = Status{IsRegistered: true, Status: "active"}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	results := client.BatchCheckStatus(context.Background(), []FlexID{ID(5), ID("5"), ID(5)})

	require.Len(t, results, 1)
	assert.True(t, results["5"].IsRegistered)
}

func TestBatchCheckStatus_Idempotent(t *testing.T) {
	svc := newFakeWarrantyService()
	for i := 1; i <= 12; i++ {
		svc.statuses[fmt.Sprint(i)] = Status{IsRegistered: i%3 == 0, Status: "active"}
	}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	ids := make([]FlexID, 12)
	for i := range ids {
		ids[i] = ID(i + 1)
	}

	client := NewClient(srv.URL, 0)
	first := client.BatchCheckStatus(context.Background(), ids)
	second := client.BatchCheckStatus(context.Background(), ids)

	assert.Equal(t, first, second)
}
