package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/herohde/okto/pkg/engine"
	"github.com/herohde/okto/pkg/engine/uci"
	"github.com/herohde/okto/pkg/eval"
	"github.com/seekerror/logw"
)

var (
	hash  = flag.Uint("hash", 64, "Transposition table size in MB")
	depth = flag.Uint("depth", 0, "Search depth limit (zero if unlimited)")
	seed  = flag.Int64("seed", 0, "Zobrist key seed")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: okto [options]

OKTO is a simple UCI chess engine on a 0x88 board.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	e := engine.New(ctx, "okto", "herohde", eval.Material{},
		engine.WithOptions(engine.Options{Depth: *depth, Hash: *hash}),
		engine.WithZobrist(*seed),
	)

	in := engine.ReadStdinLines(ctx)
	switch <-in {
	case uci.ProtocolName:
		driver, out := uci.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}
