package cart

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// maxQty keeps sums of quantities well inside int range.
const maxQty = 1_000_000

// CoerceQty turns loosely typed JSON input into a non-negative integer
// quantity. Numbers and numeric strings are truncated; anything else is 0.
func CoerceQty(raw json.RawMessage) int {
	f, ok := parseNumber(raw)
	if !ok {
		return 0
	}
	return clampQty(int64(math.Trunc(f)))
}

// CoerceStep is CoerceQty for increments: the sign is kept and the
// magnitude is capped at the largest quantity a cart can hold.
func CoerceStep(raw json.RawMessage) int {
	f, ok := parseNumber(raw)
	if !ok {
		return 0
	}
	f = math.Trunc(f)
	if f < -maxQty {
		return -maxQty
	}
	if f > maxQty {
		return maxQty
	}
	return int(f)
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, false
	}
	var text string
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return 0, false
		}
	} else {
		text = string(trimmed)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clampQty(v int64) int {
	if v <= 0 {
		return 0
	}
	if v > maxQty {
		return maxQty
	}
	return int(v)
}
