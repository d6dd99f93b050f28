package cart

import (
	"encoding/json"
	"testing"
)

func TestCoerceQty(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`3`, 3},
		{`3.9`, 3},
		{`"12"`, 12},
		{`" 5 "`, 5},
		{`-2`, 0},
		{`0`, 0},
		{`"abc"`, 0},
		{`true`, 0},
		{`null`, 0},
		{`{}`, 0},
		{``, 0},
		{`1e12`, maxQty},
	}
	for _, tc := range cases {
		if got := CoerceQty(json.RawMessage(tc.raw)); got != tc.want {
			t.Fatalf("CoerceQty(%s) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestCoerceStep(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`1`, 1},
		{`-1`, -1},
		{`"-3"`, -3},
		{`-2.7`, -2},
		{`"x"`, 0},
		{`null`, 0},
		{`-1e12`, -maxQty},
		{`1e12`, maxQty},
	}
	for _, tc := range cases {
		if got := CoerceStep(json.RawMessage(tc.raw)); got != tc.want {
			t.Fatalf("CoerceStep(%s) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}
