package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// TestRedisStore_Connection tests Redis connection
func TestRedisStore_Connection(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	store, err := NewRedisStore(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to connect to Redis: %v", err)
	}
	defer store.Close()

	if store.client == nil {
		t.Error("expected client to be initialized")
	}
}

// TestRedisStore_ConnectionFailure tests connection errors
func TestRedisStore_ConnectionFailure(t *testing.T) {
	_, err := NewRedisStore("invalid:9999", "", 0)

	if err == nil {
		t.Error("expected connection error, got nil")
	}
}

// TestRedisStore_GetNotFound tests missing keys
func TestRedisStore_GetNotFound(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store, _ := NewRedisStore(mr.Addr(), "", 0)
	defer store.Close()

	_, err := store.Get(context.Background(), HistoryKey)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestRedisStore_SetAndGet tests round trip
func TestRedisStore_SetAndGet(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store, _ := NewRedisStore(mr.Addr(), "", 0)
	defer store.Close()
	ctx := context.Background()

	tests := []struct {
		key   string
		value string
	}{
		{HistoryKey, `["8.8.8.8","example.com"]`},
		{CacheKey, `{"8.8.8.8":{"ip":"8.8.8.8","isp":"Google LLC"}}`},
		{"unicode", `{"city":"Zürich"}`},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := store.Set(ctx, tt.key, tt.value); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := store.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("failed to retrieve stored data: %v", err)
			}
			if got != tt.value {
				t.Errorf("expected %q, got %q", tt.value, got)
			}
		})
	}
}

// TestRedisStore_Set_Update tests overwriting
func TestRedisStore_Set_Update(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store, _ := NewRedisStore(mr.Addr(), "", 0)
	defer store.Close()
	ctx := context.Background()

	store.Set(ctx, HistoryKey, `["a"]`)
	store.Set(ctx, HistoryKey, `["b","a"]`)

	got, _ := store.Get(ctx, HistoryKey)
	if got != `["b","a"]` {
		t.Errorf("expected updated value, got %q", got)
	}
}

// TestRedisStore_Delete tests removal
func TestRedisStore_Delete(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store, _ := NewRedisStore(mr.Addr(), "", 0)
	defer store.Close()
	ctx := context.Background()

	store.Set(ctx, HistoryKey, "[]")
	if err := store.Delete(ctx, HistoryKey); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists("iptracker:" + HistoryKey) {
		t.Error("expected key to be deleted from Redis")
	}
	// Deleting a missing key is fine
	if err := store.Delete(ctx, HistoryKey); err != nil {
		t.Errorf("unexpected error deleting missing key: %v", err)
	}
}

// TestRedisStore_KeyFormat tests Redis key format
func TestRedisStore_KeyFormat(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store, _ := NewRedisStore(mr.Addr(), "", 0)
	defer store.Close()

	store.Set(context.Background(), CacheKey, "{}")

	val, err := mr.Get("iptracker:" + CacheKey)
	if err != nil {
		t.Fatalf("expected key 'iptracker:%s' to exist, got error: %v", CacheKey, err)
	}
	if val != "{}" {
		t.Errorf("expected '{}', got %q", val)
	}
}

// TestRedisStore_ServerGone tests errors after Redis goes away
func TestRedisStore_ServerGone(t *testing.T) {
	mr, _ := miniredis.Run()

	store, _ := NewRedisStore(mr.Addr(), "", 0)
	defer store.Close()

	mr.Close()

	_, err := store.Get(context.Background(), HistoryKey)
	if err == nil {
		t.Fatal("expected error when Redis is down")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("expected a query error, not ErrNotFound")
	}
}

// TestRedisStore_Close_NilClient tests close with nil client
func TestRedisStore_Close_NilClient(t *testing.T) {
	store := &RedisStore{client: nil}

	if err := store.Close(); err != nil {
		t.Errorf("expected no error for nil client, got: %v", err)
	}
}
