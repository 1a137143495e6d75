package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestSetGetDelete(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if _, ok, err := client.Get(ctx, "catalog"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := client.Set(ctx, "catalog", []byte(`{"a":"b"}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, ok, err := client.Get(ctx, "catalog")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(data) != `{"a":"b"}` {
		t.Errorf("data = %s", data)
	}

	if err := client.Delete(ctx, "catalog"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := client.Get(ctx, "catalog"); ok {
		t.Error("expected miss after delete")
	}
}

func TestEntriesExpire(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "questions:x", []byte(`[]`), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists(documentKeyPrefix + "questions:x") {
		t.Fatal("expected prefixed key in redis")
	}

	mr.FastForward(2 * time.Second)

	if _, ok, _ := client.Get(ctx, "questions:x"); ok {
		t.Error("expected entry to expire")
	}
}

func TestHealthCheck(t *testing.T) {
	client, mr := newTestClient(t)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	mr.Close()
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Error("expected health check to fail after server shutdown")
	}
}

func TestNewRedisClientUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Error("expected connection error")
	}
}
