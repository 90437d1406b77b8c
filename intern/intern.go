// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

// Package intern deduplicates strings for the lifetime of one profile
// generation. Interned strings are addressed by index, never by pointer,
// so the backing storage may grow without invalidating references that
// were already handed out.
package intern // import "github.com/pushprof/pushprof/intern"

// Ref is an index into a Table. It stays valid until the owning table is
// reset. The zero value always resolves to the empty string.
type Ref int32

// Table is an insertion-ordered string interner. Index 0 is seeded with
// the empty string so that zero-value Refs are safe to resolve.
//
// A Table is not safe for concurrent use.
type Table struct {
	lookup map[string]Ref
	strs   []string
}

// NewTable returns an empty table with the "" entry pre-seeded.
func NewTable() *Table {
	t := &Table{
		lookup: make(map[string]Ref),
	}
	t.seed()
	return t
}

func (t *Table) seed() {
	t.strs = append(t.strs, "")
	t.lookup[""] = 0
}

// Intern returns the Ref for s, adding it to the table if it was not
// interned before. Equal strings always map to the same Ref within one
// generation.
func (t *Table) Intern(s string) Ref {
	if ref, ok := t.lookup[s]; ok {
		return ref
	}
	ref := Ref(len(t.strs))
	t.strs = append(t.strs, s)
	t.lookup[s] = ref
	return ref
}

// Resolve returns the string for ref. Out-of-range refs resolve to ""
// instead of panicking: a stale ref must never take the caller down.
func (t *Table) Resolve(ref Ref) string {
	if ref < 0 || int(ref) >= len(t.strs) {
		return ""
	}
	return t.strs[ref]
}

// Len returns the number of distinct entries, including the seeded "".
func (t *Table) Len() int {
	return len(t.strs)
}

// Strings returns a copy of the backing table, indexed by Ref. The copy
// stays resolvable after the table is reset.
func (t *Table) Strings() []string {
	out := make([]string, len(t.strs))
	copy(out, t.strs)
	return out
}

// Reset invalidates all previously returned Refs and reseeds the ""
// entry. Map buckets and slice capacity are kept for reuse.
func (t *Table) Reset() {
	clear(t.lookup)
	t.strs = t.strs[:0]
	t.seed()
}
