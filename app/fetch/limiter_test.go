package fetch

import (
	"context"
	"testing"
	"time"
)

func TestIntervalLimiterZeroIntervalDoesNotWait(t *testing.T) {
	limiter := NewIntervalLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := limiter.Wait(context.Background(), "https://example.com"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Expected no throttling, took %v", elapsed)
	}
}

func TestIntervalLimiterWaits(t *testing.T) {
	interval := 50 * time.Millisecond
	limiter := NewIntervalLimiter(interval)
	ctx := context.Background()

	start := time.Now()
	limiter.Wait(ctx, "https://a.example.com")
	limiter.Wait(ctx, "https://b.example.com")

	if elapsed := time.Since(start); elapsed < interval-10*time.Millisecond {
		t.Errorf("Expected second request to wait ~%v, took %v", interval, elapsed)
	}
}

func TestIntervalLimiterCancelled(t *testing.T) {
	limiter := NewIntervalLimiter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := limiter.Wait(ctx, "https://example.com"); err != nil {
		t.Fatalf("Expected first request to pass, got: %v", err)
	}

	cancel()
	if err := limiter.Wait(ctx, "https://example.com"); err == nil {
		t.Error("Expected error after context cancellation")
	}
}

func TestHostLimiterSeparatesHosts(t *testing.T) {
	limiter := NewHostLimiter(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "https://a.example.com/1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := limiter.Wait(ctx, "https://b.example.com/1"); err != nil {
		t.Errorf("Expected other host not to be throttled, got: %v", err)
	}
	if err := limiter.Wait(ctx, "https://a.example.com/2"); err == nil {
		t.Error("Expected same host to be throttled")
	}
}

func TestHostLimiterInvalidURL(t *testing.T) {
	limiter := NewHostLimiter(time.Second)

	if err := limiter.Wait(context.Background(), "/relative/path"); err == nil {
		t.Error("Expected error for URL without host")
	}
}
