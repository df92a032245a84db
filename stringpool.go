package abx

import "github.com/cespare/xxhash/v2"

// poolNewEntry marks an inline string definition in an interned reference.
const poolNewEntry = 0xFFFF

// internPool is the document-scoped string table. Both the serializer and
// the deserializer replay string definitions in stream order, so the same
// index resolves to the same entry on both sides.
//
// The writer-side lookup is keyed by xxhash with per-hash candidate lists,
// so entries are stored exactly once.
type internPool struct {
	entries []string
	index   map[uint64][]uint16
}

func newInternPool() *internPool {
	return &internPool{index: make(map[uint64][]uint16)}
}

// find returns the index of s if it has been defined before.
func (p *internPool) find(s string) (uint16, bool) {
	for _, idx := range p.index[xxhash.Sum64String(s)] {
		if p.entries[idx] == s {
			return idx, true
		}
	}
	return 0, false
}

// add appends s at the next free index. Duplicates are the caller's problem;
// first-write-wins is preserved by checking find first.
func (p *internPool) add(s string) (uint16, error) {
	if len(p.entries) >= maxPoolSize {
		return 0, &StringPoolFullError{}
	}
	idx := uint16(len(p.entries))
	p.entries = append(p.entries, s)
	h := xxhash.Sum64String(s)
	p.index[h] = append(p.index[h], idx)
	return idx, nil
}

// get resolves a previously defined index.
func (p *internPool) get(idx uint16) (string, error) {
	if int(idx) >= len(p.entries) {
		return "", &InvalidInternedIndexError{Index: idx, Size: len(p.entries)}
	}
	return p.entries[idx], nil
}

func (p *internPool) size() int {
	return len(p.entries)
}
