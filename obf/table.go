package obf

import "slices"

// Table maps integer ids to literal accessors. Every Lookup builds a fresh,
// locked String, so callers own and destroy what they get back.
type Table struct {
	entries map[int]func() *String
	ids     []int
}

// NewTable copies entries; later changes to the map are not seen.
func NewTable(entries map[int]func() *String) *Table {
	t := &Table{
		entries: make(map[int]func() *String, len(entries)),
		ids:     make([]int, 0, len(entries)),
	}
	for id, fn := range entries {
		if fn == nil {
			continue
		}
		t.entries[id] = fn
		t.ids = append(t.ids, id)
	}
	slices.Sort(t.ids)
	return t
}

// Lookup returns the literal registered under id, or nil.
func (t *Table) Lookup(id int) *String {
	fn, ok := t.entries[id]
	if !ok {
		return nil
	}
	return fn()
}

// Has reports whether id is registered.
func (t *Table) Has(id int) bool {
	_, ok := t.entries[id]
	return ok
}

// IDs lists the registered ids in ascending order.
func (t *Table) IDs() []int {
	return slices.Clone(t.ids)
}

// Len is the number of registered ids.
func (t *Table) Len() int { return len(t.ids) }

// Each visits the entries in id order, destroying each String after fn
// returns. It stops early when fn returns false.
func (t *Table) Each(fn func(id int, s *String) bool) {
	for _, id := range t.ids {
		s := t.entries[id]()
		more := fn(id, s)
		s.Destroy()
		if !more {
			return
		}
	}
}
