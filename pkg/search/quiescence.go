package search

import (
	"context"

	"github.com/herohde/okto/pkg/board"
	"github.com/herohde/okto/pkg/eval"
)

// quiesce resolves captures at the search horizon to avoid evaluating a
// position mid-exchange. The stand-pat score bounds the node from below; only
// moves onto occupied squares are searched. Promotions and en passant pass
// the filter only when they land on an occupied square.
func (s *Search) quiesce(ctx context.Context, b *board.Board, alpha, beta eval.Score) eval.Score {
	if s.halted(ctx) {
		return 0
	}
	s.nodes++

	stand := s.Eval.Evaluate(ctx, b)
	if stand >= beta {
		return beta
	}
	alpha = eval.Max(alpha, stand)

	var captures []board.Move
	for _, m := range b.LegalMoves() {
		if !b.At(m.To).IsEmpty() {
			captures = append(captures, m)
		}
	}

	list := NewMoveList(captures, CaptureOrder(b))
	for {
		m, ok := list.Next()
		if !ok {
			break
		}

		b.Make(m)
		score := -s.quiesce(ctx, b, -beta, -alpha)
		b.Unmake()

		if score >= beta {
			return beta
		}
		alpha = eval.Max(alpha, score)
	}
	return alpha
}
