package asyncx_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/coderecall/pkg/asyncx"
)

func TestPool_PreservesOrder(t *testing.T) {
	items := []int{5, 3, 8, 1, 9, 2}

	out, err := asyncx.Pool(context.Background(), 3, items, func(ctx context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, n := range items {
		if out[i] != n*10 {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], n*10)
		}
	}
}

func TestPool_ReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	items := []int{1, 2, 3, 4}

	_, err := asyncx.Pool(context.Background(), 2, items, func(ctx context.Context, n int) (int, error) {
		if n == 3 {
			return 0, boom
		}
		return n, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	var active, peak int64

	items := make([]int, 20)
	_, err := asyncx.Pool(context.Background(), 4, items, func(ctx context.Context, n int) (int, error) {
		cur := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if cur <= p || atomic.CompareAndSwapInt64(&peak, p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return 0, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := atomic.LoadInt64(&peak); p > 4 {
		t.Fatalf("worker bound violated: peak %d", p)
	}
}

func TestPoolSettled_NeverShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	items := []int{1, 2, 3}

	results := asyncx.PoolSettled(context.Background(), 2, items, func(ctx context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatal("successful items must settle")
	}
	if results[1].OK() {
		t.Fatal("failed item must carry its error")
	}
}

func TestRetryWithBackoff_EventuallySucceeds(t *testing.T) {
	attempts := 0
	got, err := asyncx.RetryWithBackoff(context.Background(), 3, time.Millisecond, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected success after retries, got %q, %v", got, err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	boom := errors.New("permanent")
	_, err := asyncx.RetryWithBackoff(context.Background(), 2, time.Millisecond, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the last error, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	_, err := asyncx.WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		select {
		case <-time.After(time.Second):
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	got, err := asyncx.WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("fast path broken: %d, %v", got, err)
	}
}
