package reactive

import (
	"reflect"
	"strconv"
)

// Wrap returns an observation-enabled view of v. Records (map[string]any)
// become a *Map, sequences ([]any) a *List, already-wrapped values pass
// through unchanged and anything else is returned as-is. Wrapping is
// identity-preserved: the same raw record always yields the same wrapper, so
// repeated wrapping is idempotent and wrapper equality behaves predictably.
//
// Wrap panics when called outside a Root or computation; the mounting
// collaborator must establish the setup scope before user code runs.
func Wrap(rt *Runtime, v any) any {
	rt.mustSetup("Wrap")
	return rt.wrap(v, nil, "")
}

// WrapMap is Wrap specialized to records.
func WrapMap(rt *Runtime, raw map[string]any) *Map {
	rt.mustSetup("WrapMap")
	return rt.wrapMap(raw)
}

// WrapList is Wrap specialized to sequences.
func WrapList(rt *Runtime, raw []any) *List {
	rt.mustSetup("WrapList")
	return rt.wrapList(raw, nil, "")
}

func (rt *Runtime) wrap(v any, owner *Map, ownerKey string) any {
	switch tv := v.(type) {
	case *Map, *List:
		return v
	case map[string]any:
		return rt.wrapMap(tv)
	case []any:
		return rt.wrapList(tv, owner, ownerKey)
	default:
		return v
	}
}

func (rt *Runtime) wrapMap(raw map[string]any) *Map {
	if raw == nil {
		raw = map[string]any{}
	}
	ptr := reflect.ValueOf(raw).Pointer()
	if m, ok := rt.maps[ptr]; ok {
		return m
	}
	m := &Map{rt: rt, raw: raw}
	rt.maps[ptr] = m
	return m
}

func (rt *Runtime) wrapList(raw []any, owner *Map, ownerKey string) *List {
	if owner == nil && len(raw) > 0 {
		ptr := reflect.ValueOf(raw).Pointer()
		if l, ok := rt.lists[ptr]; ok {
			return l
		}
		l := &List{rt: rt, raw: raw}
		rt.lists[ptr] = l
		return l
	}
	return &List{rt: rt, raw: raw, owner: owner, ownerKey: ownerKey}
}

// isPrimitive reports whether v participates in the strict-equality
// skip-if-unchanged check. Composite values never do: re-assigning a
// reference-different but structurally equal record still notifies.
func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return true
	}
	return false
}

func unchanged(old, next any) bool {
	return isPrimitive(old) && isPrimitive(next) && old == next
}

// Map is the observation-enabled view of a record. All reads and writes go
// through it; the raw map stays the single underlying store.
type Map struct {
	rt  *Runtime
	raw map[string]any

	// Slice-valued properties get a cached *List view per key, dropped when
	// the property is overwritten, so repeated reads see one identity.
	listViews map[string]*List
}

// Get reads a property, registering a dependency edge for the active
// computation. Composite values are wrapped lazily on the way out.
func (m *Map) Get(key string) any {
	m.rt.track(m, key)
	v, ok := m.raw[key]
	if !ok {
		return nil
	}
	if s, isSlice := v.([]any); isSlice {
		if lv, cached := m.listViews[key]; cached {
			return lv
		}
		lv := m.rt.wrapList(s, m, key)
		if m.listViews == nil {
			m.listViews = map[string]*List{}
		}
		m.listViews[key] = lv
		return lv
	}
	return m.rt.wrap(v, m, key)
}

// GetInt is a convenience accessor for numeric properties stored as int.
func (m *Map) GetInt(key string) int {
	v, _ := m.Get(key).(int)
	return v
}

// GetString is a convenience accessor for string properties.
func (m *Map) GetString(key string) string {
	v, _ := m.Get(key).(string)
	return v
}

// GetBool is a convenience accessor for boolean properties.
func (m *Map) GetBool(key string) bool {
	v, _ := m.Get(key).(bool)
	return v
}

// Set writes a property. Unchanged primitive writes are dropped; everything
// else updates the raw record and notifies dependents of the key (and of the
// key set, when the key is new).
func (m *Map) Set(key string, v any) {
	old, existed := m.raw[key]
	if existed && unchanged(old, v) {
		return
	}
	m.raw[key] = v
	delete(m.listViews, key)
	m.rt.notify(m, key)
	if !existed {
		m.rt.notify(m, keysKey)
	}
}

// Delete removes a property, notifying dependents of the key and key set.
func (m *Map) Delete(key string) {
	if _, ok := m.raw[key]; !ok {
		return
	}
	delete(m.raw, key)
	delete(m.listViews, key)
	m.rt.notify(m, key)
	m.rt.notify(m, keysKey)
}

// Has reports key presence, tracked at key-set level.
func (m *Map) Has(key string) bool {
	m.rt.track(m, keysKey)
	_, ok := m.raw[key]
	return ok
}

// Len reports the property count, tracked at key-set level.
func (m *Map) Len() int {
	m.rt.track(m, keysKey)
	return len(m.raw)
}

// Raw exposes the underlying record without tracking. Mutating it bypasses
// notification.
func (m *Map) Raw() map[string]any {
	return m.raw
}

// List is the observation-enabled view of a sequence. Structural mutations
// operate on the raw backing slice directly; when the backing array moves
// (append growth) and the list is a property or element view, the new slice
// is written back to the owning record or parent slice.
type List struct {
	rt  *Runtime
	raw []any

	owner    *Map
	ownerKey string

	ownerList *List
	ownerIdx  int

	// Slice elements get a cached *List view per index, renumbered when
	// structural mutations shift indices, so repeated reads see one identity
	// and write-back targets the element's current slot.
	listViews map[int]*List
}

func (l *List) writeBack() {
	if l.owner != nil {
		l.owner.raw[l.ownerKey] = l.raw
	}
	if l.ownerList != nil && l.ownerIdx < len(l.ownerList.raw) {
		l.ownerList.raw[l.ownerIdx] = l.raw
	}
}

// shiftViews renumbers cached element views at or above from by delta.
func (l *List) shiftViews(from, delta int) {
	if len(l.listViews) == 0 {
		return
	}
	moved := make(map[int]*List, len(l.listViews))
	for i, lv := range l.listViews {
		if i >= from {
			lv.ownerIdx = i + delta
			moved[i+delta] = lv
		} else {
			moved[i] = lv
		}
	}
	l.listViews = moved
}

func indexKey(i int) string {
	return strconv.Itoa(i)
}

// Len reports the element count, tracked at length level.
func (l *List) Len() int {
	l.rt.track(l, lenKey)
	return len(l.raw)
}

// At reads one element, registering a per-index dependency. Composite
// elements are wrapped lazily; slice elements get an element view that
// writes growth back into this slice.
func (l *List) At(i int) any {
	l.rt.track(l, indexKey(i))
	if i < 0 || i >= len(l.raw) {
		return nil
	}
	if s, isSlice := l.raw[i].([]any); isSlice {
		if lv, cached := l.listViews[i]; cached {
			return lv
		}
		lv := &List{rt: l.rt, raw: s, ownerList: l, ownerIdx: i}
		if l.listViews == nil {
			l.listViews = map[int]*List{}
		}
		l.listViews[i] = lv
		return lv
	}
	return l.rt.wrap(l.raw[i], nil, "")
}

// SetAt writes one element in place. Unchanged primitive writes are dropped.
func (l *List) SetAt(i int, v any) {
	if i < 0 || i >= len(l.raw) {
		return
	}
	if unchanged(l.raw[i], v) {
		return
	}
	l.raw[i] = v
	delete(l.listViews, i)
	l.rt.notify(l, indexKey(i))
}

// Append adds elements at the tail, notifying length-level dependents.
func (l *List) Append(vs ...any) {
	l.raw = append(l.raw, vs...)
	l.writeBack()
	l.rt.notify(l, lenKey)
}

// Insert places v at index i, shifting the tail. Dependents of every shifted
// index and of the length are notified.
func (l *List) Insert(i int, v any) {
	if i < 0 || i > len(l.raw) {
		return
	}
	l.shiftViews(i, 1)
	l.raw = append(l.raw, nil)
	copy(l.raw[i+1:], l.raw[i:])
	l.raw[i] = v
	l.writeBack()
	l.notifyFrom(i)
	l.rt.notify(l, lenKey)
}

// RemoveAt drops the element at index i, shifting the tail down.
func (l *List) RemoveAt(i int) {
	if i < 0 || i >= len(l.raw) {
		return
	}
	delete(l.listViews, i)
	l.shiftViews(i+1, -1)
	copy(l.raw[i:], l.raw[i+1:])
	l.raw = l.raw[:len(l.raw)-1]
	l.writeBack()
	l.notifyFrom(i)
	l.rt.notify(l, lenKey)
}

// Truncate shortens the list to n elements, notifying dependents of every
// removed index and of the length.
func (l *List) Truncate(n int) {
	if n < 0 || n >= len(l.raw) {
		return
	}
	old := len(l.raw)
	for i := range l.listViews {
		if i >= n {
			delete(l.listViews, i)
		}
	}
	l.raw = l.raw[:n]
	l.writeBack()
	for i := n; i <= old; i++ {
		l.rt.notify(l, indexKey(i))
	}
	l.rt.notify(l, lenKey)
}

// Swap exchanges two elements, notifying both index keys.
func (l *List) Swap(i, j int) {
	if i == j || i < 0 || j < 0 || i >= len(l.raw) || j >= len(l.raw) {
		return
	}
	vi, iok := l.listViews[i]
	vj, jok := l.listViews[j]
	if iok || jok {
		delete(l.listViews, i)
		delete(l.listViews, j)
		if iok {
			vi.ownerIdx = j
			l.listViews[j] = vi
		}
		if jok {
			vj.ownerIdx = i
			l.listViews[i] = vj
		}
	}
	l.raw[i], l.raw[j] = l.raw[j], l.raw[i]
	l.rt.notify(l, indexKey(i))
	l.rt.notify(l, indexKey(j))
}

// Values returns a snapshot of the sequence, tracked at length level and at
// every current index so element replacement re-runs readers of the whole
// list.
func (l *List) Values() []any {
	l.rt.track(l, lenKey)
	out := make([]any, len(l.raw))
	for i, v := range l.raw {
		l.rt.track(l, indexKey(i))
		out[i] = v
	}
	return out
}

// Raw exposes the underlying slice without tracking.
func (l *List) Raw() []any {
	return l.raw
}

// notifyFrom notifies every index key at or above i that has dependents.
func (l *List) notifyFrom(i int) {
	// One past the old tail, so readers of a now-vacant index re-run too.
	for ; i <= len(l.raw); i++ {
		l.rt.notify(l, indexKey(i))
	}
}
