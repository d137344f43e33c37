package spec

import "slices"

// Unbounded is the MappingRule count that admits every matching stream.
const Unbounded = -1

// MappingRule controls how many streams of one type survive into the
// output. Count 0 excludes the type, a negative count is unbounded and a
// positive count caps it. Languages filters by code when non-empty;
// FixedIndex pins a single source stream.
type MappingRule struct {
	Count      int
	Languages  []string
	FixedIndex *int
}

// Excluded reports a rule that drops the whole type.
func (r MappingRule) Excluded() bool { return r.Count == 0 }

// Full reports whether mapped streams have reached the cap.
func (r MappingRule) Full(mapped int) bool {
	return r.Count > 0 && mapped >= r.Count
}

// Pinned reports whether index is skipped by FixedIndex.
func (r MappingRule) Pinned(index int) bool {
	return r.FixedIndex != nil && *r.FixedIndex >= 0 && *r.FixedIndex != index
}

// Admits applies the language filter.
func (r MappingRule) Admits(lang string) bool {
	return len(r.Languages) == 0 || slices.Contains(r.Languages, lang)
}

func (r MappingRule) clone() MappingRule {
	out := MappingRule{Count: r.Count, Languages: slices.Clone(r.Languages)}
	if r.FixedIndex != nil {
		idx := *r.FixedIndex
		out.FixedIndex = &idx
	}
	return out
}
