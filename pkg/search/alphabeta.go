package search

import (
	"context"
	"time"

	"github.com/herohde/okto/pkg/board"
	"github.com/herohde/okto/pkg/eval"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Search runs a fixed-depth negamax search with alpha-beta pruning from the
// given position and returns the best move and score from the side to move's
// perspective. Returns ErrHalted if the deadline passed or the context was
// cancelled before the depth completed; the caller must then fall back to the
// last completed depth.
func (s *Search) Search(ctx context.Context, b *board.Board, depth int) (PV, error) {
	start := time.Now()
	key := s.ZT.Hash(b)

	moves := b.LegalMoves()
	if len(moves) == 0 {
		score := eval.Score(0)
		if b.InCheck(b.Turn()) {
			score = eval.MatedIn(0)
		}
		return PV{Depth: depth, Score: score, Time: time.Since(start), Hash: s.TT.HitRate()}, nil
	}

	order := CaptureOrder(b)
	if kind, _, hint := s.TT.Probe(key, depth, -eval.Inf, eval.Inf); kind != ProbeMiss && !hint.IsNone() {
		order = First(hint.Unpack(), order)
	}

	alpha, beta := -eval.Inf, eval.Inf
	var best board.Move

	list := NewMoveList(moves, order)
	for {
		m, ok := list.Next()
		if !ok {
			break
		}

		u := b.Make(m)
		score := -s.negamax(ctx, b, s.ZT.Update(key, b, u), depth-1, 1, -beta, -alpha)
		b.Unmake()

		if s.halted(ctx) {
			return PV{}, ErrHalted
		}
		if score > alpha {
			alpha = score
			best = m
		}
	}

	s.TT.Store(key, depth, alpha, ExactBound, Pack(best))

	return PV{
		Depth: depth,
		Move:  lang.Some(best),
		Score: alpha,
		Nodes: s.nodes,
		Time:  time.Since(start),
		Hash:  s.TT.HitRate(),
	}, nil
}

// negamax searches the position to the given depth with the (alpha, beta)
// window. The score is always from the side to move's perspective; children
// are searched with the negated, swapped window and their result negated.
func (s *Search) negamax(ctx context.Context, b *board.Board, key board.ZobristHash, depth, ply int, alpha, beta eval.Score) eval.Score {
	if s.halted(ctx) {
		return 0
	}
	s.nodes++

	kind, value, hint := s.TT.Probe(key, depth, alpha, beta)
	if kind == ProbeUsable {
		return value
	}

	if depth == 0 {
		return s.quiesce(ctx, b, alpha, beta)
	}

	moves := b.LegalMoves()
	if len(moves) == 0 {
		if b.InCheck(b.Turn()) {
			return eval.MatedIn(ply)
		}
		return 0
	}

	order := CaptureOrder(b)
	if kind == ProbeFound && !hint.IsNone() {
		order = First(hint.Unpack(), order)
	}

	origAlpha := alpha
	best := -eval.Inf
	var bestMove board.Move

	list := NewMoveList(moves, order)
	for {
		m, ok := list.Next()
		if !ok {
			break
		}

		u := b.Make(m)
		score := -s.negamax(ctx, b, s.ZT.Update(key, b, u), depth-1, ply+1, -beta, -alpha)
		b.Unmake()

		if score > best {
			best = score
			bestMove = m
		}
		alpha = eval.Max(alpha, score)
		if alpha >= beta {
			break // cutoff
		}
	}

	bound := ExactBound
	switch {
	case best <= origAlpha:
		bound = UpperBound
	case best >= beta:
		bound = LowerBound
	}

	// Skip the store once the deadline has passed: the sentinel scores of an
	// interrupted subtree must not pollute the table.
	if !s.halted(ctx) {
		s.TT.Store(key, depth, best, bound, Pack(bestMove))
	}
	return best
}
