// Package search contains the iterative-deepening negamax search and its
// transposition table.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/herohde/okto/pkg/board"
	"github.com/herohde/okto/pkg/eval"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/seekerror/stdlib/pkg/util/contextx"
)

// ErrHalted is an error indicating that the search was halted.
var ErrHalted = errors.New("search halted")

// PV represents the search result for some depth.
type PV struct {
	Depth int
	Move  lang.Optional[board.Move]
	Score eval.Score
	Nodes uint64
	Time  time.Duration
	Hash  float64 // transposition table hit rate
}

func (p PV) String() string {
	move := "-"
	if m, ok := p.Move.V(); ok {
		move = m.String()
	}
	return fmt.Sprintf("depth=%v score=%v move=%v nodes=%v time=%v", p.Depth, p.Score, move, p.Nodes, p.Time)
}

// Options hold dynamic search options. The user may change these on a
// particular search.
type Options struct {
	// DepthLimit, if set, limits the search to the given ply depth.
	DepthLimit lang.Optional[uint]
	// MoveTime, if set, fixes the time budget for the search.
	MoveTime lang.Optional[time.Duration]
	// TimeControl, if set, derives the time budget from game time remaining.
	TimeControl lang.Optional[TimeControl]
}

func (o Options) String() string {
	var ret []string
	if v, ok := o.DepthLimit.V(); ok {
		ret = append(ret, fmt.Sprintf("depth=%v", v))
	}
	if v, ok := o.MoveTime.V(); ok {
		ret = append(ret, fmt.Sprintf("movetime=%v", v))
	}
	if v, ok := o.TimeControl.V(); ok {
		ret = append(ret, fmt.Sprintf("time=%v", v))
	}
	return fmt.Sprintf("[%v]", strings.Join(ret, ", "))
}

// Search holds the state of a single search: the transposition table, the key
// tables, the evaluator, the node counter and the deadline. Single-threaded;
// the board is mutated in place and restored by pairing every make with an
// unmake.
type Search struct {
	TT   *TranspositionTable
	ZT   *board.ZobristTable
	Eval eval.Evaluator

	nodes    uint64
	deadline lang.Optional[time.Time]
}

// New returns a new search against the given table, keys and evaluator.
func New(tt *TranspositionTable, zt *board.ZobristTable, ev eval.Evaluator) *Search {
	return &Search{TT: tt, ZT: zt, Eval: ev}
}

// SetDeadline sets the hard deadline for the search.
func (s *Search) SetDeadline(t time.Time) {
	s.deadline = lang.Some(t)
}

// Nodes returns the number of nodes visited.
func (s *Search) Nodes() uint64 {
	return s.nodes
}

// expired returns true iff the deadline, if any, has passed.
func (s *Search) expired() bool {
	d, ok := s.deadline.V()
	return ok && !time.Now().Before(d)
}

// halted returns true iff the search should unwind: the context was cancelled
// or the deadline passed. Inner nodes then return the sentinel value 0, which
// the root loop discards.
func (s *Search) halted(ctx context.Context) bool {
	return contextx.IsCancelled(ctx) || s.expired()
}
