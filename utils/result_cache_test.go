package utils

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"bundler/types"
)

func TestResultCachePutGet(t *testing.T) {
	cache := NewResultCache(10)

	outcome := &types.BundleOutcome{
		BundleId:  "abc123",
		Status:    types.OutcomeAccepted,
		Slot:      350000001,
		Accepted:  1,
		Timestamp: time.Now(),
	}
	cache.Put("abc123", outcome)

	for i := 0; i < 3; i++ {
		got, ok := cache.Get("abc123")
		if !ok {
			t.Fatalf("expected hit for abc123 on read %d", i)
		}
		if got != outcome {
			t.Errorf("unexpected outcome returned: %+v", got)
		}
	}
}

func TestResultCacheMissIsNotAnError(t *testing.T) {
	cache := NewResultCache(10)

	got, ok := cache.Get("never-stored")
	if ok {
		t.Fatalf("expected miss, got %+v", got)
	}
	if got != nil {
		t.Errorf("miss should return nil outcome, got %+v", got)
	}
}

func TestResultCacheUpsertSameId(t *testing.T) {
	cache := NewResultCache(10)

	cache.Put("id1", &types.BundleOutcome{BundleId: "id1", Status: types.OutcomeTimedOut})
	cache.Put("id1", &types.BundleOutcome{BundleId: "id1", Status: types.OutcomeAccepted, Accepted: 1})

	got, ok := cache.Get("id1")
	if !ok {
		t.Fatal("expected hit for id1")
	}
	if got.Status != types.OutcomeAccepted {
		t.Errorf("expected overwritten outcome, got status %s", got.Status)
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", cache.Len())
	}
}

func TestResultCacheEvictsOldest(t *testing.T) {
	cache := NewResultCache(3)

	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("id%d", i)
		cache.Put(id, &types.BundleOutcome{BundleId: id})
	}

	if _, ok := cache.Get("id0"); ok {
		t.Error("expected id0 to be evicted")
	}
	if _, ok := cache.Get("id3"); !ok {
		t.Error("expected id3 to be present")
	}
	if cache.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", cache.Len())
	}
}

func TestResultCacheConcurrentAccess(t *testing.T) {
	cache := NewResultCache(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := fmt.Sprintf("id%d-%d", n, j)
				cache.Put(id, &types.BundleOutcome{BundleId: id})
				if _, ok := cache.Get(id); !ok {
					t.Errorf("expected hit for %s", id)
				}
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() != 1000 {
		t.Errorf("expected 1000 entries, got %d", cache.Len())
	}
}
