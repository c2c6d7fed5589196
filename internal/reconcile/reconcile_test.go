package reconcile_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NaqibL/mcf/internal/reconcile"
)

func TestReconcile_FirstEverRun(t *testing.T) {
	p := reconcile.Reconcile(reconcile.SetOf(), reconcile.SetOf("a", "b", "c"))

	assert.Equal(t, []string{"a", "b", "c"}, p.Added)
	assert.Empty(t, p.Maintained)
	assert.Empty(t, p.Removed)
	assert.Equal(t, 3, p.TotalSeen())
}

func TestReconcile_EmptyObserved(t *testing.T) {
	p := reconcile.Reconcile(reconcile.SetOf("a", "b"), reconcile.SetOf())

	assert.Empty(t, p.Added)
	assert.Empty(t, p.Maintained)
	assert.Equal(t, []string{"a", "b"}, p.Removed)
	assert.Equal(t, 0, p.TotalSeen())
}

func TestReconcile_BothEmpty(t *testing.T) {
	p := reconcile.Reconcile(reconcile.SetOf(), reconcile.SetOf())

	assert.Empty(t, p.Added)
	assert.Empty(t, p.Maintained)
	assert.Empty(t, p.Removed)
}

// The scenario from the run-summary contract: P={A,B,C}, O={B,C,D}.
func TestReconcile_MixedPartition(t *testing.T) {
	p := reconcile.Reconcile(
		reconcile.SetOf("A", "B", "C"),
		reconcile.SetOf("B", "C", "D"),
	)

	assert.Equal(t, []string{"D"}, p.Added)
	assert.Equal(t, []string{"B", "C"}, p.Maintained)
	assert.Equal(t, []string{"A"}, p.Removed)
	assert.Equal(t, 3, p.TotalSeen())
}

// Re-running against the freshly observed set must be a no-op partition:
// everything maintained, nothing added or removed.
func TestReconcile_Idempotent(t *testing.T) {
	observed := reconcile.SetOf("x", "y", "z")
	first := reconcile.Reconcile(reconcile.SetOf("w", "x"), observed)

	next := reconcile.SetOf(append(first.Added, first.Maintained...)...)
	p := reconcile.Reconcile(next, observed)

	assert.Empty(t, p.Added)
	assert.Equal(t, []string{"x", "y", "z"}, p.Maintained)
	assert.Empty(t, p.Removed)
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	prev := reconcile.SetOf("a", "b")
	obs := reconcile.SetOf("b", "c")

	reconcile.Reconcile(prev, obs)

	assert.Len(t, prev, 2)
	assert.Len(t, obs, 2)
}

// Partition laws checked over randomly generated sets: the three slices are
// pairwise disjoint and their union is exactly P ∪ O.
func TestReconcile_PartitionLaws(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		prev := randomSet(rng, 30)
		obs := randomSet(rng, 30)

		p := reconcile.Reconcile(prev, obs)

		union := make(map[string]int)
		for _, id := range p.Added {
			union[id]++
		}
		for _, id := range p.Maintained {
			union[id]++
		}
		for _, id := range p.Removed {
			union[id]++
		}

		for id, n := range union {
			require.Equalf(t, 1, n, "trial %d: %q appears in %d partitions", trial, id, n)
		}

		want := make([]string, 0, len(prev)+len(obs))
		for id := range prev {
			want = append(want, id)
		}
		for id := range obs {
			if _, ok := prev[id]; !ok {
				want = append(want, id)
			}
		}
		sort.Strings(want)

		got := make([]string, 0, len(union))
		for id := range union {
			got = append(got, id)
		}
		sort.Strings(got)

		require.Equalf(t, want, got, "trial %d: partition does not cover P ∪ O", trial)
		require.Equal(t, len(p.Added)+len(p.Maintained), p.TotalSeen())
	}
}

func randomSet(rng *rand.Rand, maxSize int) map[string]struct{} {
	n := rng.Intn(maxSize)
	s := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		s[fmt.Sprintf("job-%02d", rng.Intn(40))] = struct{}{}
	}
	return s
}

func TestSetOf_Deduplicates(t *testing.T) {
	s := reconcile.SetOf("a", "a", "b")
	assert.Len(t, s, 2)
}
