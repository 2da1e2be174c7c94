package board

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"

	"github.com/seekerror/logw"
)

// ZobristHash is a 64-bit position fingerprint formed by XORing pseudo-random
// values indexed by the observable position state: piece placements, castling
// rights, en passant file and side to move.
//
// See also: https://research.cs.wisc.edu/techreports/1970/TR88.pdf.
type ZobristHash uint64

// ZobristTable holds the pseudo-random key tables. Tables generated from the
// same seed are identical, so hashes are reproducible across processes. The
// tables are immutable after construction and safe for concurrent reads.
type ZobristTable struct {
	seed int64

	pieces   [NumCells][NumPieceIndexes]ZobristHash
	side     ZobristHash // XORed iff white to move
	castling [NumCastling]ZobristHash
	epFile   [NumFiles]ZobristHash
	epSquare [NumCells]ZobristHash // retained for key-file compatibility
}

func NewZobristTable(seed int64) *ZobristTable {
	ret := &ZobristTable{seed: seed}

	r := rand.New(rand.NewSource(seed))

	for sq := 0; sq < NumCells; sq++ {
		for p := 0; p < NumPieceIndexes; p++ {
			ret.pieces[sq][p] = ZobristHash(r.Uint64())
		}
	}
	ret.side = ZobristHash(r.Uint64())
	for i := 0; i < NumCastling; i++ {
		ret.castling[i] = ZobristHash(r.Uint64())
	}
	for f := 0; f < int(NumFiles); f++ {
		ret.epFile[f] = ZobristHash(r.Uint64())
	}
	for sq := 0; sq < NumCells; sq++ {
		ret.epSquare[sq] = ZobristHash(r.Uint64())
	}
	return ret
}

// Seed returns the seed the tables were generated from.
func (z *ZobristTable) Seed() int64 {
	return z.seed
}

// Hash computes the full hash for the given board. It is a pure function of
// the piece placements, side to move, castling rights and en passant target.
func (z *ZobristTable) Hash(b *Board) ZobristHash {
	var hash ZobristHash

	for r := ZeroRank; r < NumRanks; r++ {
		for f := ZeroFile; f < NumFiles; f++ {
			sq := NewSquare(f, r)
			if p := b.cells[sq]; !p.IsEmpty() {
				hash ^= z.pieces[sq][p.Index()]
			}
		}
	}
	hash ^= z.castling[b.castling]
	if ep, ok := b.EnPassant(); ok {
		hash ^= z.epFile[ep.File()]
	}
	if b.turn == White {
		hash ^= z.side
	}
	return hash
}

// Update computes the hash after a made move incrementally, given the hash
// before the move, the board after the move and the undo record Make returned.
// Cheaper than rehashing the position.
func (z *ZobristTable) Update(h ZobristHash, b *Board, u Undo) ZobristHash {
	side := u.moved.Color()

	h ^= z.pieces[u.from][u.moved.Index()]

	placed := u.moved
	if u.promotion != NoKind {
		placed = NewPiece(side, u.promotion)
	}
	h ^= z.pieces[u.to][placed.Index()]

	if !u.captured.IsEmpty() {
		capSq := u.to
		if u.moved.Kind() == Pawn && u.to == u.enpassant {
			capSq = epVictim(u.to, side)
		}
		h ^= z.pieces[capSq][u.captured.Index()]
	}

	if u.moved.Kind() == King {
		rook := NewPiece(side, Rook).Index()
		switch {
		case u.to == u.from+2:
			h ^= z.pieces[u.from+3][rook] ^ z.pieces[u.from+1][rook]
		case u.to+2 == u.from:
			h ^= z.pieces[u.to-2][rook] ^ z.pieces[u.to+1][rook]
		}
	}

	h = z.UpdateCastling(h, u.castling, b.castling)
	h = z.UpdateEnPassant(h, u.enpassant, b.enpassant)
	return z.ToggleSide(h)
}

// UpdateCastling folds a castling-rights change into the hash.
func (z *ZobristTable) UpdateCastling(h ZobristHash, before, after Castling) ZobristHash {
	return h ^ z.castling[before] ^ z.castling[after]
}

// UpdateEnPassant folds an en passant target change into the hash.
func (z *ZobristTable) UpdateEnPassant(h ZobristHash, before, after Square) ZobristHash {
	if before != NoSquare {
		h ^= z.epFile[before.File()]
	}
	if after != NoSquare {
		h ^= z.epFile[after.File()]
	}
	return h
}

// ToggleSide flips the side-to-move key.
func (z *ZobristTable) ToggleSide(h ZobristHash) ZobristHash {
	return h ^ z.side
}

// PawnHash computes a hash of the pawn placements only. Useful for caching
// pawn structure evaluations.
func (z *ZobristTable) PawnHash(b *Board) ZobristHash {
	var hash ZobristHash
	for r := ZeroRank; r < NumRanks; r++ {
		for f := ZeroFile; f < NumFiles; f++ {
			sq := NewSquare(f, r)
			if p := b.cells[sq]; p.Kind() == Pawn {
				hash ^= z.pieces[sq][p.Index()]
			}
		}
	}
	return hash
}

// MaterialHash computes an order-independent hash of the piece counts.
// Positions with the same material have the same hash regardless of where the
// pieces stand.
func (z *ZobristTable) MaterialHash(b *Board) ZobristHash {
	var counts [NumPieceIndexes]int
	for r := ZeroRank; r < NumRanks; r++ {
		for f := ZeroFile; f < NumFiles; f++ {
			if p := b.cells[NewSquare(f, r)]; !p.IsEmpty() {
				counts[p.Index()]++
			}
		}
	}

	var hash ZobristHash
	for i, n := range counts {
		if n > 0 {
			hash ^= z.pieces[n][i]
		}
	}
	return hash
}

// Verify recomputes the full hash for the board and compares it against the
// incrementally maintained one. Mismatches are logged and reported; the caller
// decides whether to treat them as fatal.
func (z *ZobristTable) Verify(ctx context.Context, h ZobristHash, b *Board) bool {
	if full := z.Hash(b); full != h {
		logw.Warningf(ctx, "Zobrist mismatch: incremental %x != full %x for %v", h, full, b)
		return false
	}
	return true
}

// Save writes the seed and key tables in little-endian binary form.
func (z *ZobristTable) Save(w io.Writer) error {
	fields := []interface{}{
		uint64(z.seed),
		&z.pieces,
		z.side,
		&z.castling,
		&z.epFile,
		&z.epSquare,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("write zobrist keys: %w", err)
		}
	}
	return nil
}

// LoadZobristTable reads a key table previously written by Save.
func LoadZobristTable(r io.Reader) (*ZobristTable, error) {
	ret := &ZobristTable{}

	var seed uint64
	if err := binary.Read(r, binary.LittleEndian, &seed); err != nil {
		return nil, fmt.Errorf("read zobrist seed: %w", err)
	}
	ret.seed = int64(seed)

	fields := []interface{}{
		&ret.pieces,
		&ret.side,
		&ret.castling,
		&ret.epFile,
		&ret.epSquare,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("read zobrist keys: %w", err)
		}
	}
	return ret, nil
}

var (
	sharedZobristMu sync.Mutex
	sharedZobrist   *ZobristTable
)

// SharedZobrist returns the lazily-initialized process-wide key table, seeded
// with zero. The mutex guards initialization only; readers of the returned
// table need no further synchronization.
func SharedZobrist() *ZobristTable {
	sharedZobristMu.Lock()
	defer sharedZobristMu.Unlock()

	if sharedZobrist == nil {
		sharedZobrist = NewZobristTable(0)
	}
	return sharedZobrist
}
