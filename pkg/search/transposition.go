package search

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"

	"github.com/herohde/okto/pkg/board"
	"github.com/herohde/okto/pkg/eval"
	"github.com/seekerror/logw"
)

// Bound represents the precision of a -- possibly inexact -- search score.
type Bound uint8

const (
	// ExactBound marks a true minimax value.
	ExactBound Bound = iota
	// LowerBound marks a beta cutoff: the true value is >= the stored one.
	LowerBound
	// UpperBound marks a node where alpha was never raised: the true value is
	// <= the stored one.
	UpperBound
)

func (b Bound) String() string {
	switch b {
	case ExactBound:
		return "Exact"
	case LowerBound:
		return "Lower"
	case UpperBound:
		return "Upper"
	default:
		return "?"
	}
}

// PackedMove is a compact move encoding for table storage: bits 0-6 hold the
// from square, bits 7-13 the to square and bits 14-17 the promotion id
// (0=none, 1=queen, 2=rook, 3=bishop, 4=knight). The 7-bit square fields fit
// the 0x88 index range.
type PackedMove uint32

// NoPackedMove is the empty move marker.
const NoPackedMove PackedMove = 0

func Pack(m board.Move) PackedMove {
	f := uint32(m.From) & 0x7f
	t := uint32(m.To) & 0x7f
	p := promotionID(m.Promotion) & 0xf
	return PackedMove(f | t<<7 | p<<14)
}

func (pm PackedMove) Unpack() board.Move {
	return board.Move{
		From:      board.Square(pm & 0x7f),
		To:        board.Square(pm >> 7 & 0x7f),
		Promotion: promotionKind(uint32(pm >> 14 & 0xf)),
	}
}

func (pm PackedMove) IsNone() bool {
	return pm == NoPackedMove
}

func promotionID(k board.Kind) uint32 {
	switch k {
	case board.Queen:
		return 1
	case board.Rook:
		return 2
	case board.Bishop:
		return 3
	case board.Knight:
		return 4
	default:
		return 0
	}
}

func promotionKind(id uint32) board.Kind {
	switch id {
	case 1:
		return board.Queen
	case 2:
		return board.Rook
	case 3:
		return board.Bishop
	case 4:
		return board.Knight
	default:
		return board.NoKind
	}
}

// Entry is a transposition table entry. Empty entries have negative depth.
type Entry struct {
	Key   board.ZobristHash
	Value eval.Score
	Depth int32
	Bound Bound
	Age   uint8
	Best  PackedMove
}

func (e Entry) IsEmpty() bool {
	return e.Depth < 0
}

// ProbeResult classifies the outcome of a table probe.
type ProbeResult uint8

const (
	// ProbeMiss: the slot is empty or keyed by a different position.
	ProbeMiss ProbeResult = iota
	// ProbeFound: the key matches but the entry cannot answer the query; the
	// stored best move is still useful for ordering.
	ProbeFound
	// ProbeUsable: the stored value answers the query at this depth and window.
	ProbeUsable
)

// entrySize is the serialized entry size: u64 key + i32 value + i32 depth +
// u8 bound + u8 age + u32 packed move.
const entrySize = 22

// ttMagic is 'TTAB' in the dump header.
const ttMagic uint64 = 0x54544142

var (
	// ErrBadMagic indicates that a table file does not start with the TTAB magic.
	ErrBadMagic = errors.New("transposition table file: bad magic")
	// ErrBucketMismatch indicates that a table file was dumped from a table of
	// a different size.
	ErrBucketMismatch = errors.New("transposition table file: bucket count mismatch")
)

// TranspositionTable is a fixed-size direct-mapped cache from position key to
// search result. Each bucket holds a single entry; replacement prefers deeper
// entries, breaking ties by search generation and then bound precision. Owned
// exclusively by a search; not thread-safe.
type TranspositionTable struct {
	buckets []Entry
	mask    uint64
	age     uint8

	probes, hits, stores uint64
}

// NewTranspositionTable returns a table with the given number of buckets,
// rounded up to a power of two.
func NewTranspositionTable(buckets int) *TranspositionTable {
	if buckets < 1 {
		buckets = 1
	}
	n := 1
	for n < buckets {
		n <<= 1
	}

	t := &TranspositionTable{
		buckets: make([]Entry, n),
		mask:    uint64(n - 1),
	}
	t.Clear()
	return t
}

// NewTranspositionTableMB returns a table of approximately the given size in
// MB, with the bucket count rounded down to a power of two.
func NewTranspositionTableMB(ctx context.Context, size int) *TranspositionTable {
	if size < 1 {
		size = 1
	}
	buckets := size << 20 / entrySize
	n := 1 << (63 - bits.LeadingZeros64(uint64(buckets)))

	logw.Infof(ctx, "Allocating %vMB transposition table with %v buckets", size, n)
	return NewTranspositionTable(n)
}

// Buckets returns the bucket count.
func (t *TranspositionTable) Buckets() int {
	return len(t.buckets)
}

// index xor-folds the key to reduce clustering and masks to the bucket count.
func (t *TranspositionTable) index(key board.ZobristHash) uint64 {
	k := uint64(key)
	return (k ^ k>>32 ^ k>>16) & t.mask
}

// NewSearch increments the search generation stamp, with wrap-around. Called
// at the start of each root search so that stale entries lose replacement
// ties.
func (t *TranspositionTable) NewSearch() {
	t.age++
}

// Clear empties all buckets and resets the statistics.
func (t *TranspositionTable) Clear() {
	for i := range t.buckets {
		t.buckets[i] = Entry{Depth: -1}
	}
	t.age = 1
	t.probes = 0
	t.hits = 0
	t.stores = 0
}

// Probe looks up the key for a node searched to the given depth with the
// given alpha-beta window. On ProbeUsable the returned value answers the node
// directly: the entry is at least as deep as requested and is either exact, a
// lower bound at or above beta, or an upper bound at or below alpha. On
// ProbeFound only the returned best move is meaningful.
func (t *TranspositionTable) Probe(key board.ZobristHash, depth int, alpha, beta eval.Score) (ProbeResult, eval.Score, PackedMove) {
	t.probes++

	e := t.buckets[t.index(key)]
	if e.IsEmpty() || e.Key != key {
		return ProbeMiss, 0, NoPackedMove
	}
	t.hits++

	if e.Depth >= int32(depth) {
		switch {
		case e.Bound == ExactBound:
			return ProbeUsable, e.Value, e.Best
		case e.Bound == LowerBound && e.Value >= beta:
			return ProbeUsable, e.Value, e.Best
		case e.Bound == UpperBound && e.Value <= alpha:
			return ProbeUsable, e.Value, e.Best
		}
	}
	return ProbeFound, e.Value, e.Best
}

// Store writes the entry under the replacement policy: fill empty slots,
// prefer deeper entries, prefer the current generation at equal depth and
// more precise bounds at equal depth and age. A shallower entry only evicts
// one left over from a previous search. The same key is refreshed whenever
// the new entry is at least as deep, keeping the best move current.
func (t *TranspositionTable) Store(key board.ZobristHash, depth int, value eval.Score, bound Bound, best PackedMove) {
	t.stores++

	idx := t.index(key)
	old := t.buckets[idx]
	fresh := Entry{
		Key:   key,
		Value: value,
		Depth: int32(depth),
		Bound: bound,
		Age:   t.age,
		Best:  best,
	}

	replace := false
	switch {
	case old.IsEmpty():
		replace = true
	case fresh.Depth > old.Depth:
		replace = true
	case fresh.Depth == old.Depth:
		if fresh.Age != old.Age {
			replace = true
		} else {
			replace = precedes(fresh.Bound, old.Bound)
		}
	default:
		replace = old.Age != t.age
	}

	if !replace && old.Key == key && fresh.Depth >= old.Depth {
		replace = true
	}
	if replace {
		t.buckets[idx] = fresh
	}
}

// precedes returns true iff a bound of kind a displaces one of kind b at equal
// depth and age: Exact displaces any bound and LowerBound displaces UpperBound.
func precedes(a, b Bound) bool {
	switch {
	case a == ExactBound:
		return true
	case a == LowerBound && b == UpperBound:
		return true
	default:
		return false
	}
}

// BestMove returns the stored best move for the key, if any.
func (t *TranspositionTable) BestMove(key board.ZobristHash) (board.Move, bool) {
	e := t.buckets[t.index(key)]
	if e.IsEmpty() || e.Key != key || e.Best.IsNone() {
		return board.Move{}, false
	}
	return e.Best.Unpack(), true
}

// Probes returns the number of probes since the last Clear.
func (t *TranspositionTable) Probes() uint64 {
	return t.probes
}

// Hits returns the number of key-matching probes since the last Clear.
func (t *TranspositionTable) Hits() uint64 {
	return t.hits
}

// Stores returns the number of stores since the last Clear.
func (t *TranspositionTable) Stores() uint64 {
	return t.stores
}

// HitRate returns the fraction of probes that matched, in [0;1].
func (t *TranspositionTable) HitRate() float64 {
	if t.probes == 0 {
		return 0
	}
	return float64(t.hits) / float64(t.probes)
}

func (t *TranspositionTable) String() string {
	return fmt.Sprintf("TT[buckets=%v, probes=%v, hits=%v, stores=%v, hit_rate=%.2f%%]",
		len(t.buckets), t.probes, t.hits, t.stores, 100*t.HitRate())
}

// Save dumps the table in its binary file format: the TTAB magic, the bucket
// count and the packed entries, all little-endian.
func (t *TranspositionTable) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.LittleEndian, ttMagic); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(t.buckets))); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range t.buckets {
		if err := writeEntry(bw, e); err != nil {
			return fmt.Errorf("write bucket %v: %w", i, err)
		}
	}
	return bw.Flush()
}

// Load reads a table dump into this table. The bucket count must match; the
// format errors are distinct from underlying I/O failures.
func (t *TranspositionTable) Load(r io.Reader) error {
	br := bufio.NewReader(r)

	var magic uint64
	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if magic != ttMagic {
		return ErrBadMagic
	}

	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if int(count) != len(t.buckets) {
		return ErrBucketMismatch
	}

	for i := range t.buckets {
		e, err := readEntry(br)
		if err != nil {
			return fmt.Errorf("read bucket %v: %w", i, err)
		}
		t.buckets[i] = e
	}
	return nil
}

// SaveFile dumps the table to the given file.
func (t *TranspositionTable) SaveFile(ctx context.Context, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := t.Save(f); err != nil {
		return err
	}
	logw.Infof(ctx, "Saved %v to %v", t, filename)
	return f.Close()
}

// LoadFile loads a table dump from the given file.
func (t *TranspositionTable) LoadFile(ctx context.Context, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := t.Load(f); err != nil {
		return err
	}
	logw.Infof(ctx, "Loaded %v from %v", t, filename)
	return nil
}

func writeEntry(w io.Writer, e Entry) error {
	fields := []interface{}{
		uint64(e.Key),
		int32(e.Value),
		e.Depth,
		uint8(e.Bound),
		e.Age,
		uint32(e.Best),
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(r io.Reader) (Entry, error) {
	var key uint64
	var value, depth int32
	var bound, age uint8
	var best uint32

	for _, f := range []interface{}{&key, &value, &depth, &bound, &age, &best} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return Entry{}, err
		}
	}
	return Entry{
		Key:   board.ZobristHash(key),
		Value: eval.Score(value),
		Depth: depth,
		Bound: Bound(bound),
		Age:   age,
		Best:  PackedMove(best),
	}, nil
}
