package cart

import (
	"encoding/json"
	"iter"
	"maps"
	"slices"
)

// Item is one cart entry. Qty is always positive.
type Item struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// Snapshot is an immutable view of the cart at one point in time.
type Snapshot struct {
	items map[string]int
}

func newSnapshot(items map[string]int) Snapshot {
	if items == nil {
		items = map[string]int{}
	}
	return Snapshot{items: items}
}

// Items yields every entry. The sequence can be ranged over any number of
// times and always yields the same entries, ordered by product id.
func (s Snapshot) Items() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, id := range slices.Sorted(maps.Keys(s.items)) {
			if !yield(Item{ProductID: id, Qty: s.items[id]}) {
				return
			}
		}
	}
}

// Qty returns the quantity held for productID, zero when absent.
func (s Snapshot) Qty(productID string) int {
	return s.items[productID]
}

// Len is the number of distinct products.
func (s Snapshot) Len() int {
	return len(s.items)
}

// ItemCount is the sum of all quantities.
func (s Snapshot) ItemCount() int {
	total := 0
	for _, qty := range s.items {
		total += qty
	}
	return total
}

// ProductIDs lists the products in the cart, sorted.
func (s Snapshot) ProductIDs() []string {
	return slices.Sorted(maps.Keys(s.items))
}

func (s Snapshot) with(productID string, qty int) Snapshot {
	next := maps.Clone(s.items)
	if next == nil {
		next = map[string]int{}
	}
	if qty <= 0 {
		delete(next, productID)
	} else {
		next[productID] = qty
	}
	return Snapshot{items: next}
}

type payload struct {
	Items map[string]json.RawMessage `json:"items"`
}

// MarshalJSON writes the persisted layout {"items":{"<productId>":<qty>}}.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	items := s.items
	if items == nil {
		items = map[string]int{}
	}
	return json.Marshal(struct {
		Items map[string]int `json:"items"`
	}{Items: items})
}

// decodeSnapshot is lenient: anything unreadable yields an empty cart and
// entries whose quantity does not coerce to a positive integer are dropped.
func decodeSnapshot(raw []byte) (Snapshot, bool) {
	if len(raw) == 0 {
		return newSnapshot(nil), true
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil || p.Items == nil {
		return newSnapshot(nil), false
	}
	items := make(map[string]int, len(p.Items))
	for rawID, rawQty := range p.Items {
		id := canonicalID(rawID)
		if id == "" {
			continue
		}
		if qty := CoerceQty(rawQty); qty > 0 {
			items[id] = clampQty(int64(items[id]) + int64(qty))
		}
	}
	return newSnapshot(items), true
}
