package search

import (
	"context"
	"sync"
	"time"

	"github.com/herohde/okto/pkg/board"
	"github.com/herohde/okto/pkg/eval"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/contextx"
	"github.com/seekerror/stdlib/pkg/util/iox"
)

// Launcher is an interface for managing searches.
type Launcher interface {
	// Launch a new search from the given position. It expects an exclusive
	// (forked) board and returns a PV channel for iteratively deeper searches.
	// If the search is exhausted, the channel is closed. The search can be
	// stopped at any time.
	Launch(ctx context.Context, b *board.Board, opt Options) (Handle, <-chan PV)
}

// Handle is an interface for managing a launched search.
type Handle interface {
	// Halt halts the search, if running, and returns the best result from the
	// last fully-completed depth. Idempotent.
	Halt() PV
}

// Iterative is an iterative-deepening search driver. Depth d=1,2,.. searches
// run until the depth limit, a forced mate within the horizon, the time
// budget or a Halt cuts them off. Each depth starts a new transposition table
// generation; a depth interrupted mid-search is discarded and the previous
// depth's move stands.
type Iterative struct {
	TT   *TranspositionTable
	ZT   *board.ZobristTable
	Eval eval.Evaluator
}

func (i *Iterative) Launch(ctx context.Context, b *board.Board, opt Options) (Handle, <-chan PV) {
	out := make(chan PV, 1)
	h := &handle{
		init: iox.NewAsyncCloser(),
		quit: iox.NewAsyncCloser(),
	}
	go h.process(ctx, New(i.TT, i.ZT, i.Eval), b, opt, out)

	return h, out
}

type handle struct {
	init, quit iox.AsyncCloser

	pv PV
	mu sync.Mutex
}

func (h *handle) process(ctx context.Context, s *Search, b *board.Board, opt Options, out chan PV) {
	defer h.init.Close()
	defer close(out)

	soft, useSoft := h.enforceTimeLimits(ctx, s, opt, b.Turn())

	wctx, cancel := contextx.WithQuitCancel(ctx, h.quit.Closed())
	defer cancel()

	depth := 1
	for !h.quit.IsClosed() {
		start := time.Now()

		s.TT.NewSearch()
		pv, err := s.Search(wctx, b, depth)
		if err != nil {
			return // halted: the last completed depth stands
		}

		logw.Debugf(ctx, "Searched %v: %v", b, pv)

		h.mu.Lock()
		h.pv = pv
		h.mu.Unlock()

		select {
		case <-out:
		default:
		}
		out <- pv

		h.init.Close()
		if limit, ok := opt.DepthLimit.V(); ok && uint(depth) >= limit {
			return // halt: reached max depth
		}
		if md, ok := pv.Score.MateDistance(); ok && md > 0 && md <= depth {
			return // halt: forced mate found within full-width horizon
		}
		if _, ok := pv.Move.V(); !ok {
			return // halt: no legal moves
		}
		if useSoft && soft < time.Since(start) {
			return // halt: exceeded soft time limit. Do not start a new depth.
		}
		depth++
	}
}

// enforceTimeLimits sets the search deadline from the options, if any, and
// returns the soft limit after which no new depth is started.
func (h *handle) enforceTimeLimits(ctx context.Context, s *Search, opt Options, turn board.Color) (time.Duration, bool) {
	if mt, ok := opt.MoveTime.V(); ok {
		s.SetDeadline(time.Now().Add(mt))
		logw.Debugf(ctx, "Search time budget: %v", mt)
		return mt, true
	}
	if tc, ok := opt.TimeControl.V(); ok {
		soft, hard := tc.Limits(turn)
		s.SetDeadline(time.Now().Add(hard))
		logw.Debugf(ctx, "Time control limits for %v: [%v; %v]", tc, soft, hard)
		return soft, true
	}
	return 0, false
}

func (h *handle) Halt() PV {
	<-h.init.Closed()
	h.quit.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.pv
}
