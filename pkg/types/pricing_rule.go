package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Markup is a percentage adjustment as stored on a customer's pricing rule.
// Stored values are loosely typed: null and "" mean unset, numeric strings
// are accepted and anything else non-numeric counts as zero.
type Markup struct {
	Value decimal.Decimal
	Valid bool
}

// NewMarkup returns a set markup.
func NewMarkup(v decimal.Decimal) Markup {
	return Markup{Value: v, Valid: true}
}

// MarkupFromFloat is a convenience for literals.
func MarkupFromFloat(v float64) Markup {
	return NewMarkup(decimal.NewFromFloat(v))
}

// Percent returns the markup, zero when unset.
func (m Markup) Percent() decimal.Decimal {
	if !m.Valid {
		return decimal.Zero
	}
	return m.Value
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Markup) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = Markup{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s == "" {
			*m = Markup{}
			return nil
		}
		*m = NewMarkup(coerceDecimal(s))
		return nil
	case 't', 'f', '{', '[':
		*m = NewMarkup(decimal.Zero)
		return nil
	default:
		*m = NewMarkup(coerceDecimal(string(trimmed)))
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (m Markup) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return []byte(m.Value.String()), nil
}

func coerceDecimal(raw string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return v
}

// PricingRule is a customer's markup configuration: a global percentage and
// optional per-category overrides keyed by category id.
type PricingRule struct {
	GlobalMarkup Markup            `json:"globalMarkup"`
	Categories   map[string]Markup `json:"categories,omitempty"`
}

// Override returns the category override when one is set.
func (r PricingRule) Override(categoryID string) (Markup, bool) {
	if categoryID == "" || r.Categories == nil {
		return Markup{}, false
	}
	m, ok := r.Categories[categoryID]
	if !ok || !m.Valid {
		return Markup{}, false
	}
	return m, true
}

// Clone returns a deep copy so callers can edit overrides safely.
func (r PricingRule) Clone() PricingRule {
	out := PricingRule{GlobalMarkup: r.GlobalMarkup}
	if r.Categories != nil {
		out.Categories = make(map[string]Markup, len(r.Categories))
		for k, v := range r.Categories {
			out.Categories[k] = v
		}
	}
	return out
}
