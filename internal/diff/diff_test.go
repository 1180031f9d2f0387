package diff

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type row struct {
	id   int
	name string
}

func sameRow(a, b row) bool     { return a.id == b.id }
func contentsRow(a, b row) bool { return a == b }

func rows(names ...string) []row {
	out := make([]row, len(names))
	for i, n := range names {
		out[i] = row{id: int(n[0])<<8 | len(n), name: n}
	}
	return out
}

// recorder applies dispatched ops to a slice of row names, pulling inserted
// and changed rows from the target list, the way a rendering surface binds.
type recorder struct {
	items []row
	src   []row
	calls []string
}

func (r *recorder) InsertAt(i int) {
	r.items = slices.Insert(r.items, i, r.src[i])
	r.calls = append(r.calls, fmt.Sprintf("insert %d", i))
}

func (r *recorder) RemoveAt(i int) {
	r.items = slices.Delete(r.items, i, i+1)
	r.calls = append(r.calls, fmt.Sprintf("remove %d", i))
}

func (r *recorder) MoveTo(from, to int) {
	it := r.items[from]
	r.items = slices.Delete(r.items, from, from+1)
	r.items = slices.Insert(r.items, to, it)
	r.calls = append(r.calls, fmt.Sprintf("move %d->%d", from, to))
}

func (r *recorder) ChangeAt(i int) {
	r.items[i] = r.src[i]
	r.calls = append(r.calls, fmt.Sprintf("change %d", i))
}

func TestCompute_InsertAtFront(t *testing.T) {
	t.Parallel()

	old := rows("Brie", "Cheddar", "Gouda")
	new := rows("Abbaye", "Brie", "Cheddar", "Gouda")

	res := Compute(old, new, sameRow, contentsRow)
	inserts, removes, moves, changes := res.Counts()
	require.Equal(t, 1, inserts)
	require.Zero(t, removes)
	require.Zero(t, moves)
	require.Zero(t, changes)
	require.Equal(t, []Op{{Kind: OpInsert, Index: 0}}, res.Ops)
	require.Equal(t, new, Apply(old, new, res))
}

func TestCompute_DeleteMiddle(t *testing.T) {
	t.Parallel()

	old := rows("Brie", "Cheddar", "Gouda")
	new := rows("Brie", "Gouda")

	res := Compute(old, new, sameRow, contentsRow)
	require.Equal(t, []Op{{Kind: OpRemove, Index: 1}}, res.Ops)
	require.Equal(t, new, Apply(old, new, res))
}

func TestCompute_EqualSnapshotsIsEmpty(t *testing.T) {
	t.Parallel()

	a := rows("Brie", "Cheddar", "Gouda", "Havarti")
	res := Compute(a, slices.Clone(a), sameRow, contentsRow)
	require.True(t, res.Empty())
	require.Equal(t, 4, res.OldLen)
	require.Equal(t, 4, res.NewLen)

	require.True(t, Compute[row](nil, nil, sameRow, contentsRow).Empty())
}

func TestCompute_FromAndToEmpty(t *testing.T) {
	t.Parallel()

	a := rows("Brie", "Cheddar")

	res := Compute(nil, a, sameRow, contentsRow)
	require.Equal(t, []Op{{Kind: OpInsert, Index: 0}, {Kind: OpInsert, Index: 1}}, res.Ops)

	res = Compute(a, nil, sameRow, contentsRow)
	require.Equal(t, []Op{{Kind: OpRemove, Index: 1}, {Kind: OpRemove, Index: 0}}, res.Ops)
}

func TestCompute_ContentChange(t *testing.T) {
	t.Parallel()

	old := []row{{1, "Brie"}, {2, "Cheddar"}}
	new := []row{{1, "Brie"}, {2, "Aged Cheddar"}}

	res := Compute(old, new, sameRow, contentsRow)
	require.Equal(t, []Op{{Kind: OpChange, Index: 1}}, res.Ops)
	require.Equal(t, new, Apply(old, new, res))
}

func TestCompute_SingleMove(t *testing.T) {
	t.Parallel()

	old := []row{{1, "a"}, {2, "b"}, {3, "c"}, {4, "d"}}
	new := []row{{4, "d"}, {1, "a"}, {2, "b"}, {3, "c"}}

	res := Compute(old, new, sameRow, contentsRow)
	require.Equal(t, []Op{{Kind: OpMove, Index: 3, To: 0}}, res.Ops)
	require.Equal(t, new, Apply(old, new, res))
}

func TestCompute_RemovalsHighToLowInsertsLowToHigh(t *testing.T) {
	t.Parallel()

	old := []row{{1, "a"}, {2, "b"}, {3, "c"}, {4, "d"}, {5, "e"}}
	new := []row{{9, "x"}, {2, "b"}, {8, "y"}, {4, "d"}, {7, "z"}}

	res := Compute(old, new, sameRow, contentsRow)

	var removes, inserts []int
	for _, op := range res.Ops {
		switch op.Kind {
		case OpRemove:
			removes = append(removes, op.Index)
		case OpInsert:
			inserts = append(inserts, op.Index)
		}
	}
	require.Equal(t, []int{4, 2, 0}, removes)
	require.Equal(t, []int{0, 2, 4}, inserts)
	require.Equal(t, new, Apply(old, new, res))
}

func TestResult_Dispatch(t *testing.T) {
	t.Parallel()

	old := []row{{1, "a"}, {2, "b"}, {3, "c"}, {4, "d"}}
	new := []row{{3, "C"}, {1, "a"}, {5, "e"}, {4, "d"}}

	res := Compute(old, new, sameRow, contentsRow)
	rec := &recorder{items: slices.Clone(old), src: new}
	res.Dispatch(rec)

	require.Equal(t, new, rec.items)
	require.Len(t, rec.calls, len(res.Ops))
	for i, op := range res.Ops {
		require.Equal(t, op.String(), rec.calls[i])
	}
}

func TestCompute_RandomRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 1024))
	for iter := range 500 {
		old := randomRows(rng, rng.IntN(30))
		new := mutate(rng, old)

		res := Compute(old, new, sameRow, contentsRow)
		require.Equal(t, new, Apply(old, new, res), "iteration %d", iter)

		rec := &recorder{items: slices.Clone(old), src: new}
		res.Dispatch(rec)
		require.Equal(t, new, rec.items, "iteration %d", iter)

		require.True(t, Compute(new, new, sameRow, contentsRow).Empty(), "iteration %d", iter)
	}
}

func TestCompute_MovesAreMinimal(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 7))
	for iter := range 200 {
		old := randomRows(rng, 1+rng.IntN(12))
		new := slices.Clone(old)
		rng.Shuffle(len(new), func(i, j int) { new[i], new[j] = new[j], new[i] })

		res := Compute(old, new, sameRow, contentsRow)
		inserts, removes, moves, _ := res.Counts()
		require.Zero(t, inserts)
		require.Zero(t, removes)
		require.LessOrEqual(t, moves, len(old)-lisLen(old, new), "iteration %d", iter)
		require.Equal(t, new, Apply(old, new, res))
	}
}

func TestUnified(t *testing.T) {
	t.Parallel()

	out := Unified("before", "after", []string{"Brie", "Cheddar", "Gouda"}, []string{"Abbaye", "Brie", "Cheddar", "Gouda"})
	require.Contains(t, out, "--- before")
	require.Contains(t, out, "+++ after")
	require.Contains(t, out, "+Abbaye")
	require.NotContains(t, out, "-Brie")

	require.Empty(t, Unified("a", "b", []string{"Brie"}, []string{"Brie"}))
}

func randomRows(rng *rand.Rand, n int) []row {
	ids := rng.Perm(n * 3)[:n]
	out := make([]row, n)
	for i, id := range ids {
		out[i] = row{id: id, name: fmt.Sprintf("r%d", id)}
	}
	return out
}

func mutate(rng *rand.Rand, in []row) []row {
	out := slices.Clone(in)
	for range rng.IntN(8) {
		switch rng.IntN(4) {
		case 0:
			if len(out) > 0 {
				i := rng.IntN(len(out))
				out = slices.Delete(out, i, i+1)
			}
		case 1:
			id := 1000 + rng.IntN(1000)
			if !slices.ContainsFunc(out, func(r row) bool { return r.id == id }) {
				out = slices.Insert(out, rng.IntN(len(out)+1), row{id: id, name: "new"})
			}
		case 2:
			if len(out) > 1 {
				i, j := rng.IntN(len(out)), rng.IntN(len(out))
				out[i], out[j] = out[j], out[i]
			}
		case 3:
			if len(out) > 0 {
				i := rng.IntN(len(out))
				out[i].name = strings.ToUpper(out[i].name) + "!"
			}
		}
	}
	return out
}

// lisLen returns the length of the longest common subsequence of two
// permutations of the same ids.
func lisLen(a, b []row) int {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i].id == b[j].id {
				dp[i][j] = dp[i+1][j+1] + 1
			} else {
				dp[i][j] = max(dp[i+1][j], dp[i][j+1])
			}
		}
	}
	return dp[0][0]
}
