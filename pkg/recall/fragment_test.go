package recall_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Abraxas-365/coderecall/pkg/recall"
)

// countingCounter tracks how many times Count runs.
type countingCounter struct {
	calls int64
}

func (c *countingCounter) Count(s string) int {
	atomic.AddInt64(&c.calls, 1)
	return (len(s) + 3) / 4
}

func TestFragment_Accessors(t *testing.T) {
	f := recall.NewFragment("src/main.go", "package main\n")

	if f.Path() != "src/main.go" {
		t.Fatalf("path = %s", f.Path())
	}
	if f.Content() != "package main\n" {
		t.Fatalf("content = %q", f.Content())
	}
	if f.ByteLen() != len("package main\n") {
		t.Fatalf("byte length = %d", f.ByteLen())
	}
}

func TestFragment_TokenCountIsMemoized(t *testing.T) {
	counter := &countingCounter{}
	f := recall.NewFragment("a.go", "package a\n")

	first := f.Tokens(counter)
	for i := 0; i < 10; i++ {
		if got := f.Tokens(counter); got != first {
			t.Fatalf("memoized count changed: %d vs %d", got, first)
		}
	}
	if n := atomic.LoadInt64(&counter.calls); n != 1 {
		t.Fatalf("content counted %d times, want once", n)
	}
}

func TestFragment_ConcurrentTokenCount(t *testing.T) {
	counter := &countingCounter{}
	f := recall.NewFragment("a.go", "package a\n")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Tokens(counter)
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt64(&counter.calls); n != 1 {
		t.Fatalf("concurrent access counted %d times, want once", n)
	}
}
