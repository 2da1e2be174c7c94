// Package board contains the 0x88 chess board representation and rules.
package board

import (
	"fmt"
	"strings"
)

// Placement defines a piece placement.
type Placement struct {
	Square Square
	Piece  Piece
}

func (p Placement) String() string {
	return fmt.Sprintf("%v@%v", p.Piece, p.Square)
}

// Undo captures the state needed to reverse one move: the moved piece's
// pre-promotion identity, the actual captured piece (the en passant victim is
// not on the destination square) and the metadata fields that Make overwrites.
type Undo struct {
	from, to  Square
	moved     Piece
	captured  Piece
	promotion Kind

	castling  Castling
	enpassant Square
	halfmove  int
}

// Move returns the move that the record reverses.
func (u Undo) Move() Move {
	return Move{From: u.from, To: u.to, Promotion: u.promotion}
}

// Board represents a mutable chess board with full make/unmake/redo support.
// The history stack grows with each move played; the redo stack holds undone
// moves and is cleared by any new move. Not thread-safe.
type Board struct {
	cells     [NumCells]Piece
	turn      Color
	castling  Castling
	enpassant Square // the skipped square after a two-square pawn push
	halfmove  int    // plies since last pawn move or capture
	fullmoves int    // starts at 1, incremented after each black move

	history []Undo
	redo    []Undo
}

// NewBoard returns a new board with the given placements and metadata.
func NewBoard(placements []Placement, turn Color, castling Castling, ep Square, halfmove, fullmoves int) (*Board, error) {
	b := &Board{
		turn:      turn,
		castling:  castling,
		enpassant: ep,
		halfmove:  halfmove,
		fullmoves: fullmoves,
	}
	if b.enpassant != NoSquare && !b.enpassant.IsValid() {
		return nil, fmt.Errorf("invalid en passant square: %v", ep)
	}

	kings := [NumColors]int{}
	for _, p := range placements {
		if !p.Square.IsValid() {
			return nil, fmt.Errorf("invalid placement square: %v", p)
		}
		if p.Piece.IsEmpty() {
			return nil, fmt.Errorf("empty placement: %v", p)
		}
		if !b.cells[p.Square].IsEmpty() {
			return nil, fmt.Errorf("duplicate placement: %v", p)
		}
		b.cells[p.Square] = p.Piece
		if p.Piece.Kind() == King {
			kings[p.Piece.Color()]++
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return nil, fmt.Errorf("invalid number of kings")
	}
	return b, nil
}

// Fork returns a copy of the board with no move history. The copy is suitable
// for exclusive use, such as search.
func (b *Board) Fork() *Board {
	return &Board{
		cells:     b.cells,
		turn:      b.turn,
		castling:  b.castling,
		enpassant: b.enpassant,
		halfmove:  b.halfmove,
		fullmoves: b.fullmoves,
	}
}

// At returns the content of the given square.
func (b *Board) At(sq Square) Piece {
	return b.cells[sq]
}

func (b *Board) Turn() Color {
	return b.turn
}

func (b *Board) Castling() Castling {
	return b.castling
}

// EnPassant returns the en passant target square, if the previous move was a
// two-square pawn push. For example, after e2e4 the target square is e3.
func (b *Board) EnPassant() (Square, bool) {
	return b.enpassant, b.enpassant != NoSquare
}

// HalfmoveClock returns the number of plies since the last pawn move or capture.
func (b *Board) HalfmoveClock() int {
	return b.halfmove
}

func (b *Board) FullMoves() int {
	return b.fullmoves
}

// Ply returns the number of moves made on this board.
func (b *Board) Ply() int {
	return len(b.history)
}

// King returns the king square for the given color, if present.
func (b *Board) King(c Color) (Square, bool) {
	king := NewPiece(c, King)
	for r := ZeroRank; r < NumRanks; r++ {
		for f := ZeroFile; f < NumFiles; f++ {
			if sq := NewSquare(f, r); b.cells[sq] == king {
				return sq, true
			}
		}
	}
	return NoSquare, false
}

// Make makes the move mechanically, honoring promotion, castling rook
// relocation, en passant capture, castling-rights decay, en passant target
// generation and the halfmove clock. It does not check legality; callers are
// expected to have validated the move, or to Unmake if the resulting position
// leaves the mover's king attacked. Clears the redo stack.
func (b *Board) Make(m Move) Undo {
	u := Undo{
		from:      m.From,
		to:        m.To,
		moved:     b.cells[m.From],
		captured:  b.cells[m.To],
		promotion: m.Promotion,
		castling:  b.castling,
		enpassant: b.enpassant,
		halfmove:  b.halfmove,
	}
	if u.moved.Kind() == Pawn && m.To == b.enpassant && u.captured.IsEmpty() {
		u.captured = b.cells[epVictim(m.To, u.moved.Color())]
	}

	b.apply(u)

	b.history = append(b.history, u)
	b.redo = nil
	return u
}

// Unmake reverses the last move, if any, and pushes it onto the redo stack.
func (b *Board) Unmake() (Move, bool) {
	if len(b.history) == 0 {
		return Move{}, false
	}
	u := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]
	b.redo = append(b.redo, u)

	side := u.moved.Color()

	// (1) Put the pieces back, en passant victim and castling rook included.

	b.cells[u.to] = Empty
	b.cells[u.from] = u.moved

	if !u.captured.IsEmpty() {
		if u.moved.Kind() == Pawn && u.to == u.enpassant {
			b.cells[epVictim(u.to, side)] = u.captured
		} else {
			b.cells[u.to] = u.captured
		}
	}

	if u.moved.Kind() == King {
		switch {
		case u.to == u.from+2:
			b.cells[u.to+1] = b.cells[u.from+1]
			b.cells[u.from+1] = Empty
		case u.to+2 == u.from:
			b.cells[u.to-2] = b.cells[u.to+1]
			b.cells[u.to+1] = Empty
		}
	}

	// (2) Restore the snapshotted metadata.

	b.castling = u.castling
	b.enpassant = u.enpassant
	b.halfmove = u.halfmove
	if side == Black {
		b.fullmoves--
	}
	b.turn = side

	return u.Move(), true
}

// Redo replays the last undone move, if any. The resulting state is exactly
// the state before the corresponding Unmake.
func (b *Board) Redo() (Move, bool) {
	if len(b.redo) == 0 {
		return Move{}, false
	}
	u := b.redo[len(b.redo)-1]
	b.redo = b.redo[:len(b.redo)-1]

	b.apply(u)
	b.history = append(b.history, u)

	return u.Move(), true
}

// apply replays the recorded transition. Used by both Make and Redo.
func (b *Board) apply(u Undo) {
	side := u.moved.Color()

	if u.moved.Kind() == Pawn && u.to == u.enpassant && b.cells[u.to].IsEmpty() {
		b.cells[epVictim(u.to, side)] = Empty
	}

	b.cells[u.from] = Empty
	placed := u.moved
	if u.promotion != NoKind {
		placed = NewPiece(side, u.promotion)
	}
	b.cells[u.to] = placed

	if u.moved.Kind() == King {
		switch {
		case u.to == u.from+2: // kingside: h-rook to the f-file
			b.cells[u.from+1] = b.cells[u.to+1]
			b.cells[u.to+1] = Empty
		case u.to+2 == u.from: // queenside: a-rook to the d-file
			b.cells[u.to+1] = b.cells[u.to-2]
			b.cells[u.to-2] = Empty
		}
	}

	b.castling &^= rightsLost(u.from) | rightsLost(u.to)

	b.enpassant = NoSquare
	if u.moved.Kind() == Pawn {
		switch {
		case u.to == u.from+32:
			b.enpassant = u.from + 16
		case u.from == u.to+32:
			b.enpassant = u.to + 16
		}
	}

	if u.moved.Kind() == Pawn || !u.captured.IsEmpty() {
		b.halfmove = 0
	} else {
		b.halfmove = u.halfmove + 1
	}
	if side == Black {
		b.fullmoves++
	}
	b.turn = side.Opponent()
}

// epVictim returns the square of the pawn captured en passant onto the given
// target square. The victim sits one rank behind the target.
func epVictim(to Square, attacker Color) Square {
	if attacker == White {
		return to - 16
	}
	return to + 16
}

func (b *Board) String() string {
	var sb strings.Builder
	for r := NumRanks; r > 0; r-- {
		for f := ZeroFile; f < NumFiles; f++ {
			sb.WriteRune(b.cells[NewSquare(f, r-1)].Char())
		}
		sb.WriteRune('/')
	}

	ep := "-"
	if sq, ok := b.EnPassant(); ok {
		ep = sq.String()
	}
	return fmt.Sprintf("%v %v %v(%v) %v %v", sb.String(), b.turn, b.castling, ep, b.halfmove, b.fullmoves)
}
