// Package uci contains a driver for using the engine under the UCI protocol.
//
// See: http://wbec-ridderkerk.nl/html/UCIProtocol.html
// See: https://en.wikipedia.org/wiki/Universal_Chess_Interface
package uci

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/herohde/okto/pkg/board/fen"
	"github.com/herohde/okto/pkg/engine"
	"github.com/herohde/okto/pkg/search"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/seekerror/stdlib/pkg/util/iox"
	"go.uber.org/atomic"
)

const ProtocolName = "uci"

// Driver implements a UCI driver for an engine. It is activated if sent "uci".
type Driver struct {
	iox.AsyncCloser

	e   *engine.Engine
	out chan<- string

	active atomic.Bool // user is waiting for engine to move
}

func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{
		AsyncCloser: iox.NewAsyncCloser(),
		e:           e,
		out:         out,
	}
	go d.process(ctx, in)

	return d, out
}

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.Close()
	defer close(d.out)

	logw.Infof(ctx, "UCI protocol initialized")

	d.out <- fmt.Sprintf("id name %v", d.e.Name())
	d.out <- fmt.Sprintf("id author %v", d.e.Author())
	d.out <- "option name Hash type spin default 64 min 1 max 4096"
	d.out <- "uciok"

	for {
		select {
		case line, ok := <-in:
			if !ok {
				logw.Infof(ctx, "Input stream broken. Exiting")
				return
			}

			parts := strings.Fields(line)
			if len(parts) == 0 {
				continue
			}

			cmd := parts[0]
			args := parts[1:]

			switch cmd {
			case "isready":
				d.out <- "readyok"

			case "setoption":
				d.handleSetOption(ctx, args)

			case "ucinewgame":
				if err := d.e.Reset(ctx, fen.Initial); err != nil {
					logw.Errorf(ctx, "Reset failed: %v", err)
				}

			case "position":
				if err := d.handlePosition(ctx, args); err != nil {
					logw.Errorf(ctx, "Position failed: %v", err)
				}

			case "go":
				if err := d.handleGo(ctx, args); err != nil {
					logw.Errorf(ctx, "Go failed: %v", err)
				}

			case "stop":
				d.finish(ctx)

			case "quit":
				return

			default:
				logw.Infof(ctx, "Unknown command: '%v'. Ignoring", line)
			}

		case <-d.Closed():
			return
		}
	}
}

// handleSetOption handles "setoption name <id> [value <x>]".
func (d *Driver) handleSetOption(ctx context.Context, args []string) {
	if len(args) < 4 || args[0] != "name" || args[2] != "value" {
		logw.Infof(ctx, "Malformed setoption: %v. Ignoring", args)
		return
	}

	switch strings.ToLower(args[1]) {
	case "hash":
		size, err := strconv.Atoi(args[3])
		if err != nil || size < 1 {
			logw.Infof(ctx, "Invalid Hash value: %v. Ignoring", args[3])
			return
		}
		d.e.SetHash(uint(size))
	default:
		logw.Infof(ctx, "Unknown option: %v. Ignoring", args[1])
	}
}

// handlePosition handles "position [fen <fenstring> | startpos] moves <move1> ... <movei>".
func (d *Driver) handlePosition(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("malformed position")
	}

	position := fen.Initial
	rest := args[1:]

	if args[0] == "fen" {
		var fields []string
		for len(rest) > 0 && rest[0] != "moves" {
			fields = append(fields, rest[0])
			rest = rest[1:]
		}
		position = strings.Join(fields, " ")
	}

	if err := d.e.Reset(ctx, position); err != nil {
		return err
	}

	if len(rest) > 0 && rest[0] == "moves" {
		for _, m := range rest[1:] {
			if err := d.e.Move(ctx, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// handleGo handles "go [depth <x>] [movetime <ms>] [wtime <ms>] [btime <ms>]
// [movestogo <x>] [infinite]" and emits info lines until the search stops.
func (d *Driver) handleGo(ctx context.Context, args []string) error {
	var opt search.Options
	var tc search.TimeControl
	useClock := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if v, ok := numArg(args, &i); ok {
				opt.DepthLimit = lang.Some(uint(v))
			}
		case "movetime":
			if v, ok := numArg(args, &i); ok {
				opt.MoveTime = lang.Some(time.Duration(v) * time.Millisecond)
			}
		case "wtime":
			if v, ok := numArg(args, &i); ok {
				tc.White = time.Duration(v) * time.Millisecond
				useClock = true
			}
		case "btime":
			if v, ok := numArg(args, &i); ok {
				tc.Black = time.Duration(v) * time.Millisecond
				useClock = true
			}
		case "movestogo":
			if v, ok := numArg(args, &i); ok {
				tc.Moves = v
			}
		case "infinite":
			// search until "stop"
		}
	}
	if useClock {
		opt.TimeControl = lang.Some(tc)
	}

	out, err := d.e.Analyze(ctx, opt)
	if err != nil {
		return err
	}
	d.active.Store(true)

	go func() {
		for pv := range out {
			d.out <- formatInfo(pv)
		}
		d.finish(ctx)
	}()
	return nil
}

// finish halts the engine and emits bestmove, exactly once per search.
func (d *Driver) finish(ctx context.Context) {
	if !d.active.CompareAndSwap(true, false) {
		return
	}

	pv, err := d.e.Halt(ctx)
	if err != nil {
		logw.Errorf(ctx, "Halt failed: %v", err)
		return
	}

	if m, ok := pv.Move.V(); ok {
		d.out <- fmt.Sprintf("bestmove %v", m)
	} else {
		d.out <- "bestmove 0000"
	}
}

func formatInfo(pv search.PV) string {
	score := fmt.Sprintf("cp %v", int(pv.Score))
	if d, ok := pv.Score.MateDistance(); ok {
		moves := (d + 1) / 2
		if d < 0 {
			moves = (d - 1) / 2
		}
		score = fmt.Sprintf("mate %v", moves)
	}

	ret := fmt.Sprintf("info depth %v score %v nodes %v time %v", pv.Depth, score, pv.Nodes, pv.Time.Milliseconds())
	if m, ok := pv.Move.V(); ok {
		ret += fmt.Sprintf(" pv %v", m)
	}
	return ret
}

func numArg(args []string, i *int) (int, bool) {
	if *i+1 >= len(args) {
		return 0, false
	}
	*i++
	v, err := strconv.Atoi(args[*i])
	if err != nil {
		return 0, false
	}
	return v, true
}
