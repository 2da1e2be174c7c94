package search_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/herohde/okto/pkg/board"
	"github.com/herohde/okto/pkg/eval"
	"github.com/herohde/okto/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackedMove(t *testing.T) {
	tests := []board.Move{
		{From: board.E2, To: board.E4},
		{From: board.A7, To: board.A8, Promotion: board.Queen},
		{From: board.H2, To: board.H1, Promotion: board.Rook},
		{From: board.B7, To: board.C8, Promotion: board.Bishop},
		{From: board.G7, To: board.G8, Promotion: board.Knight},
	}

	for _, tt := range tests {
		assert.True(t, search.Pack(tt).Unpack().Equals(tt))
	}
	assert.True(t, search.NoPackedMove.IsNone())
	assert.False(t, search.Pack(tests[0]).IsNone())
}

func TestTranspositionStoreProbe(t *testing.T) {
	tt := search.NewTranspositionTable(1024)
	tt.NewSearch()

	key := board.ZobristHash(0x12345678abcdef)
	best := search.Pack(board.Move{From: board.E2, To: board.E4})
	tt.Store(key, 5, 42, search.ExactBound, best)

	// An exact entry answers any probe at or below its depth.
	for _, depth := range []int{5, 4, 1, 0} {
		kind, value, move := tt.Probe(key, depth, -eval.Inf, eval.Inf)
		assert.Equal(t, search.ProbeUsable, kind)
		assert.Equal(t, eval.Score(42), value)
		assert.Equal(t, best, move)
	}

	// Deeper probes only yield the ordering hint.
	kind, _, move := tt.Probe(key, 6, -eval.Inf, eval.Inf)
	assert.Equal(t, search.ProbeFound, kind)
	assert.Equal(t, best, move)

	// Unknown keys miss.
	kind, _, _ = tt.Probe(key^1, 1, -eval.Inf, eval.Inf)
	assert.Equal(t, search.ProbeMiss, kind)
}

func TestTranspositionBounds(t *testing.T) {
	tt := search.NewTranspositionTable(256)
	tt.NewSearch()

	lower := board.ZobristHash(0x1111)
	tt.Store(lower, 4, 50, search.LowerBound, search.NoPackedMove)

	// A lower bound is usable iff it is at or above beta.
	kind, value, _ := tt.Probe(lower, 4, 0, 40)
	assert.Equal(t, search.ProbeUsable, kind)
	assert.Equal(t, eval.Score(50), value)

	kind, _, _ = tt.Probe(lower, 4, 0, 60)
	assert.Equal(t, search.ProbeFound, kind)

	upper := board.ZobristHash(0x2222)
	tt.Store(upper, 4, 10, search.UpperBound, search.NoPackedMove)

	// An upper bound is usable iff it is at or below alpha.
	kind, value, _ = tt.Probe(upper, 4, 20, 40)
	assert.Equal(t, search.ProbeUsable, kind)
	assert.Equal(t, eval.Score(10), value)

	kind, _, _ = tt.Probe(upper, 4, 5, 40)
	assert.Equal(t, search.ProbeFound, kind)
}

func TestTranspositionReplacement(t *testing.T) {
	// A single bucket makes every key collide.
	tt := search.NewTranspositionTable(1)
	tt.NewSearch()

	k1, k2 := board.ZobristHash(0xaaaa), board.ZobristHash(0xbbbb)

	t.Run("deeper wins", func(t *testing.T) {
		tt.Clear()
		tt.NewSearch()

		tt.Store(k1, 3, 10, search.UpperBound, search.NoPackedMove)
		tt.Store(k2, 6, 20, search.ExactBound, search.NoPackedMove)

		kind, value, _ := tt.Probe(k2, 6, -eval.Inf, eval.Inf)
		assert.Equal(t, search.ProbeUsable, kind)
		assert.Equal(t, eval.Score(20), value)
	})

	t.Run("shallower loses within a generation", func(t *testing.T) {
		tt.Clear()
		tt.NewSearch()

		tt.Store(k1, 6, 20, search.ExactBound, search.NoPackedMove)
		tt.Store(k2, 3, 10, search.ExactBound, search.NoPackedMove)

		kind, value, _ := tt.Probe(k1, 6, -eval.Inf, eval.Inf)
		assert.Equal(t, search.ProbeUsable, kind)
		assert.Equal(t, eval.Score(20), value)
		kind, _, _ = tt.Probe(k2, 1, -eval.Inf, eval.Inf)
		assert.Equal(t, search.ProbeMiss, kind)
	})

	t.Run("shallower evicts a previous generation", func(t *testing.T) {
		tt.Clear()
		tt.NewSearch()

		tt.Store(k1, 6, 20, search.ExactBound, search.NoPackedMove)
		tt.NewSearch()
		tt.Store(k2, 3, 10, search.ExactBound, search.NoPackedMove)

		kind, value, _ := tt.Probe(k2, 3, -eval.Inf, eval.Inf)
		assert.Equal(t, search.ProbeUsable, kind)
		assert.Equal(t, eval.Score(10), value)
	})

	t.Run("exact outranks bounds at equal depth and age", func(t *testing.T) {
		tt.Clear()
		tt.NewSearch()

		tt.Store(k1, 4, 10, search.LowerBound, search.NoPackedMove)
		tt.Store(k1, 4, 30, search.ExactBound, search.NoPackedMove)

		kind, value, _ := tt.Probe(k1, 4, -eval.Inf, eval.Inf)
		assert.Equal(t, search.ProbeUsable, kind)
		assert.Equal(t, eval.Score(30), value)

		// A mere bound does not displace another key's entry.
		tt.Store(k2, 4, 50, search.UpperBound, search.NoPackedMove)
		kind, _, _ = tt.Probe(k2, 4, eval.Inf-1, eval.Inf)
		assert.Equal(t, search.ProbeMiss, kind)
	})

	t.Run("same key refreshes at equal or greater depth", func(t *testing.T) {
		tt.Clear()
		tt.NewSearch()

		m := search.Pack(board.Move{From: board.G1, To: board.F3})
		tt.Store(k1, 4, 10, search.ExactBound, search.NoPackedMove)
		tt.Store(k1, 4, 15, search.UpperBound, m)

		kind, value, move := tt.Probe(k1, 4, 20, 40)
		assert.Equal(t, search.ProbeUsable, kind)
		assert.Equal(t, eval.Score(15), value)
		assert.Equal(t, m, move)
	})
}

func TestTranspositionSizing(t *testing.T) {
	// Bucket counts round up to a power of two.
	assert.Equal(t, 1, search.NewTranspositionTable(1).Buckets())
	assert.Equal(t, 1024, search.NewTranspositionTable(1000).Buckets())
	assert.Equal(t, 1024, search.NewTranspositionTable(1024).Buckets())

	// MB sizes round the bucket count down to a power of two.
	ctx := context.Background()
	assert.Equal(t, 32768, search.NewTranspositionTableMB(ctx, 1).Buckets())
	assert.Equal(t, 65536, search.NewTranspositionTableMB(ctx, 2).Buckets())
}

func TestTranspositionStats(t *testing.T) {
	tt := search.NewTranspositionTable(64)
	tt.NewSearch()

	key := board.ZobristHash(0x1234)
	tt.Store(key, 3, 7, search.ExactBound, search.NoPackedMove)

	tt.Probe(key, 3, -eval.Inf, eval.Inf)
	tt.Probe(key^1, 3, -eval.Inf, eval.Inf)

	assert.Equal(t, uint64(2), tt.Probes())
	assert.Equal(t, uint64(1), tt.Hits())
	assert.Equal(t, uint64(1), tt.Stores())
	assert.Equal(t, 0.5, tt.HitRate())

	tt.Clear()
	assert.Equal(t, uint64(0), tt.Probes())
	assert.Equal(t, uint64(0), tt.Hits())
	assert.Equal(t, uint64(0), tt.Stores())

	kind, _, _ := tt.Probe(key, 3, -eval.Inf, eval.Inf)
	assert.Equal(t, search.ProbeMiss, kind)
}

func TestTranspositionSaveLoad(t *testing.T) {
	tt := search.NewTranspositionTable(128)
	tt.NewSearch()

	key := board.ZobristHash(0xdeadbeef)
	best := search.Pack(board.Move{From: board.E7, To: board.E8, Promotion: board.Queen})
	tt.Store(key, 9, -123, search.LowerBound, best)

	var buf bytes.Buffer
	require.NoError(t, tt.Save(&buf))
	data := buf.Bytes()

	loaded := search.NewTranspositionTable(128)
	require.NoError(t, loaded.Load(bytes.NewReader(data)))

	kind, value, move := loaded.Probe(key, 9, -eval.Inf, -200)
	assert.Equal(t, search.ProbeUsable, kind)
	assert.Equal(t, eval.Score(-123), value)
	assert.Equal(t, best, move)

	// Mismatched sizes and corrupted magic are distinct failures.
	mismatch := search.NewTranspositionTable(64)
	assert.ErrorIs(t, mismatch.Load(bytes.NewReader(data)), search.ErrBucketMismatch)

	corrupt := append([]byte{}, data...)
	corrupt[0] ^= 0xff
	assert.ErrorIs(t, loaded.Load(bytes.NewReader(corrupt)), search.ErrBadMagic)

	// Truncated input surfaces the underlying I/O failure.
	err := loaded.Load(bytes.NewReader(data[:20]))
	require.Error(t, err)
	assert.NotErrorIs(t, err, search.ErrBadMagic)
	assert.NotErrorIs(t, err, search.ErrBucketMismatch)
}
