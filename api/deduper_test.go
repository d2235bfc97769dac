package api

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisDeduper(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	d := NewRedisDeduper(client, time.Minute)
	ctx := context.Background()

	added, err := d.Add(ctx, "task-1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !added {
		t.Fatal("expected first add to succeed")
	}
	added, err = d.Add(ctx, "task-1")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if added {
		t.Fatal("expected second add to report a duplicate")
	}

	if err := d.Remove(ctx, "task-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	added, err = d.Add(ctx, "task-1")
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if !added {
		t.Fatal("expected add after remove to succeed")
	}
}

func TestRedisDeduperKeyExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	d := NewRedisDeduper(client, time.Second)
	ctx := context.Background()

	if added, _ := d.Add(ctx, "task-1"); !added {
		t.Fatal("expected first add to succeed")
	}
	mr.FastForward(2 * time.Second)
	if added, _ := d.Add(ctx, "task-1"); !added {
		t.Fatal("expected add after ttl to succeed")
	}
}

func TestMemoryDeduper(t *testing.T) {
	d := NewMemoryDeduper()
	ctx := context.Background()

	if added, _ := d.Add(ctx, "task-1"); !added {
		t.Fatal("expected first add to succeed")
	}
	if added, _ := d.Add(ctx, "task-1"); added {
		t.Fatal("expected second add to report a duplicate")
	}
	if err := d.Remove(ctx, "task-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if added, _ := d.Add(ctx, "task-1"); !added {
		t.Fatal("expected add after remove to succeed")
	}
}
