package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRepository(t *testing.T) *RateLimitRepository {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRateLimitRepository(client, SlidingWindowConfig{
		KeyPrefix: "test:rate-limit",
		TTL:       time.Minute,
	})
}

func TestRecordAndCountAttempts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := repo.RecordAttempt(ctx, "login:1.2.3.4", base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("record attempt %d: %v", i, err)
		}
	}

	count, err := repo.CountAttempts(ctx, "login:1.2.3.4", time.Minute, base.Add(3*time.Second))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts, got %d", count)
	}

	// Attempts outside the window are not counted.
	count, err = repo.CountAttempts(ctx, "login:1.2.3.4", 2*time.Second, base.Add(10*time.Second))
	if err != nil {
		t.Fatalf("count narrow window: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 attempts in narrow window, got %d", count)
	}
}

func TestTrimWindowDropsOldAttempts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)

	if err := repo.RecordAttempt(ctx, "login:5.6.7.8", base); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "login:5.6.7.8", base.Add(50*time.Second)); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := repo.TrimWindow(ctx, "login:5.6.7.8", 30*time.Second, base.Add(time.Minute)); err != nil {
		t.Fatalf("trim: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "login:5.6.7.8", time.Hour, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attempt after trim, got %d", count)
	}
}

func TestOldestAttempt(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)

	_, found, err := repo.OldestAttempt(ctx, "login:empty", time.Minute, base)
	if err != nil {
		t.Fatalf("oldest on empty: %v", err)
	}
	if found {
		t.Fatal("expected no attempt for empty key")
	}

	if err := repo.RecordAttempt(ctx, "login:9.9.9.9", base.Add(5*time.Second)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "login:9.9.9.9", base.Add(20*time.Second)); err != nil {
		t.Fatalf("record: %v", err)
	}

	oldest, found, err := repo.OldestAttempt(ctx, "login:9.9.9.9", time.Minute, base.Add(30*time.Second))
	if err != nil {
		t.Fatalf("oldest: %v", err)
	}
	if !found {
		t.Fatal("expected an attempt")
	}
	if !oldest.Equal(base.Add(5 * time.Second)) {
		t.Fatalf("unexpected oldest attempt %v", oldest)
	}
}
