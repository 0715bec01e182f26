//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/positions"
	"github.com/redis/go-redis/v9"
)

func getTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		url = "redis://localhost:6380/15"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestIntegration_RedisCacheRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := getTestRedis(t)
	ctx := context.Background()
	c := NewRedisCache(client, time.Minute)

	id := "integration-" + time.Now().Format("150405.000")
	t.Cleanup(func() { client.Del(ctx, PositionsKey(id)) })

	missing, err := c.GetPositions(ctx, id)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing key, got %+v", missing)
	}

	want := &positions.ReplayPositions{
		ID:      id,
		Ball:    [][]float64{{0, 0, 93.15}},
		Players: [][][]float64{{{1, 2, 3, 0, 0, 0, 1}}},
		Colors:  []bool{true},
		Names:   []string{"GarrettG"},
		Frames:  [][]float64{{0.03, 300, 0}},
	}
	if err := c.SetPositions(ctx, want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.GetPositions(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Names[0] != "GarrettG" || got.Ball[0][2] != 93.15 {
		t.Errorf("unexpected cached positions: %+v", got)
	}

	ttl := client.TTL(ctx, PositionsKey(id)).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected ttl within a minute, got %v", ttl)
	}
}
