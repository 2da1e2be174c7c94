package board_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/herohde/okto/pkg/board"
	"github.com/herohde/okto/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZobristDeterminism(t *testing.T) {
	b := mustDecode(t, fen.Initial)

	a := board.NewZobristTable(42)
	c := board.NewZobristTable(42)
	assert.Equal(t, a.Hash(b), c.Hash(b))

	d := board.NewZobristTable(43)
	assert.NotEqual(t, a.Hash(b), d.Hash(b))
}

func TestZobristIncremental(t *testing.T) {
	tests := []struct {
		position string
		moves    []string
	}{
		{fen.Initial, []string{"e2e4", "d7d5", "e4d5"}},
		// Jump, en passant capture, minor development, check block, castles.
		{fen.Initial, []string{"e2e4", "d7d5", "e4e5", "f7f5", "e5f6", "g8f6", "g1f3", "e7e6", "f1b5", "c7c6", "e1g1", "f8e7", "b5a4", "e8g8"}},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", []string{"e1c1", "e8c8", "h1h8"}},
		{"1n6/P7/8/8/8/8/8/k6K w - - 0 1", []string{"a7b8q"}},
	}

	zt := board.NewZobristTable(0)

	for _, tt := range tests {
		b := mustDecode(t, tt.position)
		h := zt.Hash(b)

		for _, str := range tt.moves {
			m, err := board.ParseMove(str)
			require.NoError(t, err)

			u := b.Make(m)
			h = zt.Update(h, b, u)
			assert.Equal(t, zt.Hash(b), h, "incremental mismatch after %v on %v", str, tt.position)
		}

		// The incremental hash survives unmake/redo symmetry: rewinding and
		// replaying lands on the same key.
		for range tt.moves {
			_, ok := b.Unmake()
			require.True(t, ok)
		}
		for range tt.moves {
			_, ok := b.Redo()
			require.True(t, ok)
		}
		assert.Equal(t, h, zt.Hash(b))
	}
}

func TestZobristTransposition(t *testing.T) {
	zt := board.NewZobristTable(0)

	b := mustDecode(t, fen.Initial)
	initial := zt.Hash(b)

	// A shuffle back to the same observable state yields the identical key.
	mustMove(t, b, "g1f3", "b8c6", "f3g1", "c6b8")
	assert.Equal(t, initial, zt.Hash(b))

	// Different move orders into the same position transpose.
	c := mustDecode(t, fen.Initial)
	mustMove(t, b, "e2e4", "e7e5", "g1f3", "b8c6")
	mustMove(t, c, "g1f3", "e7e5", "e2e4", "b8c6")
	assert.Equal(t, zt.Hash(b), zt.Hash(c))
}

func TestZobristHashDependsOnMetadata(t *testing.T) {
	zt := board.NewZobristTable(0)

	a := mustDecode(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	b := mustDecode(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQ - 0 1")
	c := mustDecode(t, "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1")
	assert.NotEqual(t, zt.Hash(a), zt.Hash(b))
	assert.NotEqual(t, zt.Hash(a), zt.Hash(c))

	// The halfmove clock and fullmove number are not observable state.
	d := mustDecode(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 13 37")
	assert.Equal(t, zt.Hash(a), zt.Hash(d))
}

func TestPawnHash(t *testing.T) {
	zt := board.NewZobristTable(0)

	b := mustDecode(t, fen.Initial)
	pawns := zt.PawnHash(b)

	// Knight moves leave the pawn structure untouched.
	mustMove(t, b, "g1f3", "b8c6")
	assert.Equal(t, pawns, zt.PawnHash(b))

	mustMove(t, b, "e2e4")
	assert.NotEqual(t, pawns, zt.PawnHash(b))
}

func TestMaterialHash(t *testing.T) {
	zt := board.NewZobristTable(0)

	b := mustDecode(t, fen.Initial)
	material := zt.MaterialHash(b)

	// Material is order-independent: moving pieces does not change it.
	mustMove(t, b, "e2e4", "d7d5")
	assert.Equal(t, material, zt.MaterialHash(b))

	// A capture does.
	mustMove(t, b, "e4d5")
	assert.NotEqual(t, material, zt.MaterialHash(b))
}

func TestZobristVerify(t *testing.T) {
	ctx := context.Background()
	zt := board.NewZobristTable(0)

	b := mustDecode(t, fen.Initial)
	h := zt.Hash(b)

	assert.True(t, zt.Verify(ctx, h, b))
	assert.False(t, zt.Verify(ctx, h^1, b))
}

func TestZobristSaveLoad(t *testing.T) {
	zt := board.NewZobristTable(7)

	var buf bytes.Buffer
	require.NoError(t, zt.Save(&buf))
	data := buf.Bytes()

	loaded, err := board.LoadZobristTable(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(7), loaded.Seed())

	b := mustDecode(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	assert.Equal(t, zt.Hash(b), loaded.Hash(b))
	assert.Equal(t, zt.PawnHash(b), loaded.PawnHash(b))

	// Truncated input fails.
	_, err = board.LoadZobristTable(bytes.NewReader(data[:16]))
	assert.Error(t, err)
}

func TestSharedZobrist(t *testing.T) {
	a := board.SharedZobrist()
	b := board.SharedZobrist()
	require.NotNil(t, a)
	assert.Same(t, a, b)

	// The shared table uses the default seed.
	pos := mustDecode(t, fen.Initial)
	assert.Equal(t, board.NewZobristTable(0).Hash(pos), a.Hash(pos))
}
