package tokenx_test

import (
	"strings"
	"testing"

	"github.com/Abraxas-365/coderecall/pkg/tokenx"
)

func TestCharCounter(t *testing.T) {
	c := tokenx.CharCounter{}

	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		if got := c.Count(tc.in); got != tc.want {
			t.Fatalf("Count(%d chars) = %d, want %d", len(tc.in), got, tc.want)
		}
	}
}

func TestNewCounterNeverNil(t *testing.T) {
	c := tokenx.NewCounter()
	if c == nil {
		t.Fatal("NewCounter must always return a counter")
	}
	if c.Count("hello world") <= 0 {
		t.Fatal("counter should count something for non-empty input")
	}
}
