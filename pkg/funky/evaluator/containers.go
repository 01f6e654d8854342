package evaluator

import "sort"

// List is an ordered sequence of owned Data handles.
type List struct {
	items []*Data
}

// Len returns the number of elements.
func (l *List) Len() int { return len(l.items) }

// resolve maps a script index to a slice index; -1 is the last element.
func (l *List) resolve(i int64) (int, bool) {
	if i == -1 {
		i = int64(len(l.items)) - 1
	}
	if i < 0 || i >= int64(len(l.items)) {
		return 0, false
	}
	return int(i), true
}

// At returns the element at i, where -1 means the last element.
func (l *List) At(i int64) (*Data, bool) {
	idx, ok := l.resolve(i)
	if !ok {
		return nil, false
	}
	return l.items[idx], true
}

// Append takes ownership of d.
func (l *List) Append(d *Data) {
	l.items = append(l.items, d)
}

// Insert takes ownership of d and places it before index i. An index equal
// to Len appends.
func (l *List) Insert(i int, d *Data) bool {
	if i < 0 || i > len(l.items) {
		return false
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = d
	return true
}

// Remove frees the element at i (-1 for the last one).
func (l *List) Remove(i int64) bool {
	idx, ok := l.resolve(i)
	if !ok {
		return false
	}
	l.items[idx].Free()
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return true
}

// Each calls fn for every element in order.
func (l *List) Each(fn func(i int, d *Data)) {
	for i, d := range l.items {
		fn(i, d)
	}
}

// Clear frees every element.
func (l *List) Clear() {
	items := l.items
	l.items = nil
	for _, d := range items {
		d.Free()
	}
}

// Assign replaces l's elements with aliases of src's elements.
func (l *List) Assign(src *List) {
	if l == src {
		return
	}
	aliases := make([]*Data, 0, len(src.items))
	for _, d := range src.items {
		aliases = append(aliases, d.Alias())
	}
	l.Clear()
	l.items = aliases
}

// Map is a string-keyed collection of owned Data handles.
type Map struct {
	entries map[string]*Data
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Get returns the entry for key.
func (m *Map) Get(key string) (*Data, bool) {
	d, ok := m.entries[key]
	return d, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// Set takes ownership of d, freeing any entry it replaces.
func (m *Map) Set(key string, d *Data) {
	if m.entries == nil {
		m.entries = make(map[string]*Data)
	}
	if old, ok := m.entries[key]; ok && old != d {
		old.Free()
	}
	m.entries[key] = d
}

// Remove frees the entry for key.
func (m *Map) Remove(key string) bool {
	d, ok := m.entries[key]
	if !ok {
		return false
	}
	delete(m.entries, key)
	d.Free()
	return true
}

// Keys returns the keys in sorted order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Each calls fn for every entry in key order.
func (m *Map) Each(fn func(key string, d *Data)) {
	for _, k := range m.Keys() {
		fn(k, m.entries[k])
	}
}

// Clear frees every entry.
func (m *Map) Clear() {
	entries := m.entries
	m.entries = nil
	for _, d := range entries {
		d.Free()
	}
}

// Assign replaces m's entries with aliases of src's entries.
func (m *Map) Assign(src *Map) {
	if m == src {
		return
	}
	aliases := make(map[string]*Data, len(src.entries))
	for k, d := range src.entries {
		aliases[k] = d.Alias()
	}
	m.Clear()
	m.entries = aliases
}
