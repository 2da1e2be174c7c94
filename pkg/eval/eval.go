// Package eval contains position evaluation logic and utilities.
package eval

import (
	"context"

	"github.com/herohde/okto/pkg/board"
)

// Evaluator is a static position evaluator.
type Evaluator interface {
	// Evaluate returns the position score in centipawns for the side to move.
	Evaluate(ctx context.Context, b *board.Board) Score
}

// Material returns the nominal material balance for the side to move.
type Material struct{}

func (Material) Evaluate(ctx context.Context, b *board.Board) Score {
	var score Score
	for r := board.ZeroRank; r < board.NumRanks; r++ {
		for f := board.ZeroFile; f < board.NumFiles; f++ {
			p := b.At(board.NewSquare(f, r))
			if p.IsEmpty() {
				continue
			}
			if p.Color() == board.White {
				score += NominalValue(p.Kind())
			} else {
				score -= NominalValue(p.Kind())
			}
		}
	}

	if b.Turn() == board.Black {
		return -score
	}
	return score
}

// NominalValue returns the canonical nominal value of a piece kind in
// centipawns.
func NominalValue(k board.Kind) Score {
	switch k {
	case board.Pawn:
		return 100
	case board.Knight:
		return 320
	case board.Bishop:
		return 330
	case board.Rook:
		return 500
	case board.Queen:
		return 900
	case board.King:
		return 20000
	default:
		return 0
	}
}
