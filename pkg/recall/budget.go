package recall

import (
	"math"
)

// Budget is an immutable token budget for one oracle role. The usable
// ceiling subtracts a headroom fraction from the total because token
// counters are approximate and prompts carry fixed overhead the caller
// cannot know in advance.
type Budget struct {
	totalCeiling  int
	headroom      float64
	usableCeiling int
}

// NewBudget builds a budget from a total token ceiling and a headroom
// fraction in [0, 1).
func NewBudget(totalCeiling int, headroomFraction float64) (Budget, error) {
	if totalCeiling <= 0 {
		return Budget{}, errorRegistry.New(ErrConfigInvalid).
			WithDetail("total_ceiling", totalCeiling)
	}
	if headroomFraction < 0 || headroomFraction >= 1 {
		return Budget{}, errorRegistry.New(ErrConfigInvalid).
			WithDetail("headroom_fraction", headroomFraction)
	}
	return Budget{
		totalCeiling:  totalCeiling,
		headroom:      headroomFraction,
		usableCeiling: int(math.Floor(float64(totalCeiling) * (1 - headroomFraction))),
	}, nil
}

// TotalCeiling returns the nominal token ceiling.
func (b Budget) TotalCeiling() int { return b.totalCeiling }

// HeadroomFraction returns the configured safety margin.
func (b Budget) HeadroomFraction() float64 { return b.headroom }

// UsableCeiling returns the ceiling after subtracting headroom.
func (b Budget) UsableCeiling() int { return b.usableCeiling }

// Remaining reports usable tokens left after consuming the given amount,
// clamped to zero. Callers must treat Fits, not Remaining, as the
// admission check: a zero here can mean either "exactly full" or
// "already over".
func (b Budget) Remaining(consumed int) int {
	r := b.usableCeiling - consumed
	if r < 0 {
		return 0
	}
	return r
}

// Fits reports whether consumed tokens stay within the usable ceiling.
func (b Budget) Fits(consumed int) bool {
	return consumed <= b.usableCeiling
}
