package recall_test

import (
	"testing"

	"github.com/Abraxas-365/coderecall/pkg/errx"
	"github.com/Abraxas-365/coderecall/pkg/recall"
)

func TestNewBudget_UsableCeiling(t *testing.T) {
	b, err := recall.NewBudget(1000, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.UsableCeiling() != 900 {
		t.Fatalf("expected usable ceiling 900, got %d", b.UsableCeiling())
	}
	if b.TotalCeiling() != 1000 {
		t.Fatalf("expected total ceiling 1000, got %d", b.TotalCeiling())
	}
}

func TestNewBudget_ZeroHeadroom(t *testing.T) {
	b, err := recall.NewBudget(500, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.UsableCeiling() != 500 {
		t.Fatalf("expected usable ceiling 500, got %d", b.UsableCeiling())
	}
}

func TestNewBudget_InvalidParams(t *testing.T) {
	cases := []struct {
		name     string
		ceiling  int
		headroom float64
	}{
		{"zero ceiling", 0, 0.1},
		{"negative ceiling", -5, 0.1},
		{"negative headroom", 100, -0.1},
		{"headroom of one", 100, 1.0},
		{"headroom above one", 100, 1.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := recall.NewBudget(tc.ceiling, tc.headroom)
			if !errx.IsCode(err, recall.ErrConfigInvalid) {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}

func TestBudget_RemainingClampsToZero(t *testing.T) {
	b, _ := recall.NewBudget(1000, 0.1)

	if got := b.Remaining(100); got != 800 {
		t.Fatalf("expected 800 remaining, got %d", got)
	}
	if got := b.Remaining(900); got != 0 {
		t.Fatalf("expected 0 remaining at the ceiling, got %d", got)
	}
	if got := b.Remaining(5000); got != 0 {
		t.Fatalf("expected clamped 0 when over, got %d", got)
	}
}

func TestBudget_Fits(t *testing.T) {
	b, _ := recall.NewBudget(1000, 0.1)

	if !b.Fits(900) {
		t.Fatal("exactly the usable ceiling should fit")
	}
	if b.Fits(901) {
		t.Fatal("one over the usable ceiling must not fit")
	}
}
