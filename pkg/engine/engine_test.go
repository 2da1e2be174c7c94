package engine_test

import (
	"context"
	"testing"

	"github.com/herohde/okto/pkg/board/fen"
	"github.com/herohde/okto/pkg/engine"
	"github.com/herohde/okto/pkg/eval"
	"github.com/herohde/okto/pkg/search"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineMoves(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, "okto", "test", eval.Material{})

	require.NoError(t, e.Move(ctx, "e2e4"))
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", e.Position())

	// Illegal and malformed moves are rejected without mutating state.
	assert.Error(t, e.Move(ctx, "e2e5"))
	assert.Error(t, e.Move(ctx, "e7e8x"))
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", e.Position())

	require.NoError(t, e.Move(ctx, "e7e5"))

	require.NoError(t, e.TakeBack(ctx))
	require.NoError(t, e.TakeBack(ctx))
	assert.Equal(t, fen.Initial, e.Position())

	require.NoError(t, e.StepForward(ctx))
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", e.Position())

	require.NoError(t, e.TakeBack(ctx))
	assert.Error(t, e.TakeBack(ctx), "expected empty history")
}

func TestEngineReset(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, "okto", "test", eval.Material{})

	position := "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"
	require.NoError(t, e.Reset(ctx, position))
	assert.Equal(t, position, e.Position())

	assert.Error(t, e.Reset(ctx, "not a fen"))
}

func TestEngineAnalyze(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, "okto", "test", eval.Material{})

	require.NoError(t, e.Reset(ctx, "6k1/5ppp/8/8/8/8/5PPP/4R1K1 w - - 0 1"))

	out, err := e.Analyze(ctx, search.Options{DepthLimit: lang.Some(uint(2))})
	require.NoError(t, err)

	// A second analyze while active is refused.
	_, err = e.Analyze(ctx, search.Options{})
	assert.Error(t, err)

	for range out {
	}

	pv, err := e.Halt(ctx)
	require.NoError(t, err)

	m, ok := pv.Move.V()
	require.True(t, ok)
	assert.Equal(t, "e1e8", m.String())
	assert.True(t, pv.Score.IsMate())

	// Halt is not idempotent at the engine level: the search is gone.
	_, err = e.Halt(ctx)
	assert.Error(t, err)
}
