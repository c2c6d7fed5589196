// Package reconcile computes the added/maintained/removed partition between
// the set of jobs currently marked active in the store and the set observed
// in one complete fetch pass.
//
// Reconcile is a pure function over set membership. Callers must only pass
// an observed set that came from a fetch that ran to completion: a partial
// fetch would misclassify live jobs as removed.
package reconcile

import "sort"

// Partition is the disjoint split of previouslyActive ∪ observed.
//
//	Added      = observed − previouslyActive
//	Maintained = observed ∩ previouslyActive
//	Removed    = previouslyActive − observed
//
// Slices are sorted so the output is deterministic regardless of map
// iteration order.
type Partition struct {
	Added      []string
	Maintained []string
	Removed    []string
}

// TotalSeen is the number of jobs observed this pass. Removed jobs are not
// counted — they were not seen.
func (p Partition) TotalSeen() int {
	return len(p.Added) + len(p.Maintained)
}

// Reconcile partitions the union of both input sets. Neither input is
// mutated; an identifier lands in exactly one output slice.
func Reconcile(previouslyActive, observed map[string]struct{}) Partition {
	p := Partition{
		Added:      make([]string, 0),
		Maintained: make([]string, 0, len(observed)),
		Removed:    make([]string, 0),
	}

	for id := range observed {
		if _, ok := previouslyActive[id]; ok {
			p.Maintained = append(p.Maintained, id)
		} else {
			p.Added = append(p.Added, id)
		}
	}
	for id := range previouslyActive {
		if _, ok := observed[id]; !ok {
			p.Removed = append(p.Removed, id)
		}
	}

	sort.Strings(p.Added)
	sort.Strings(p.Maintained)
	sort.Strings(p.Removed)
	return p
}

// SetOf builds a membership set from identifiers, deduplicating as it goes.
func SetOf(ids ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}
