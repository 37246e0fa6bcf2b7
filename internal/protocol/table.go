package protocol

import "sync"

// Table is the live registry of protocol definitions, indexed by member
// stream code so that a datagram resolves with a single lookup instead of a
// scan over families.
//
// Replace installs complete new content in one step: a concurrent reader
// observes either the previous table or the new one, never a mix of both.
type Table struct {
	mu       sync.RWMutex
	byStream map[string]*Definition
	families []*Definition
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byStream: make(map[string]*Definition)}
}

// Replace swaps the table content for the given definitions. When two
// families claim the same stream code, the earlier one keeps it.
func (t *Table) Replace(defs []*Definition) {
	byStream := make(map[string]*Definition, len(defs)*2)
	families := make([]*Definition, len(defs))
	copy(families, defs)
	for _, def := range defs {
		for _, stream := range def.MainStreams {
			if _, taken := byStream[stream]; !taken {
				byStream[stream] = def
			}
		}
	}

	t.mu.Lock()
	t.byStream = byStream
	t.families = families
	t.mu.Unlock()
}

// Lookup resolves a stream code to the definition family that owns it.
func (t *Table) Lookup(stream string) (*Definition, bool) {
	t.mu.RLock()
	def, ok := t.byStream[stream]
	t.mu.RUnlock()
	return def, ok
}

// Len reports the number of loaded definition families.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.families)
}

// Families returns the loaded definitions in document order. The slice is a
// copy; the definitions themselves are shared and must not be mutated.
func (t *Table) Families() []*Definition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Definition, len(t.families))
	copy(out, t.families)
	return out
}
