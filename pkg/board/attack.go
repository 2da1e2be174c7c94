package board

// 0x88 piece offsets. The scheme guarantees that any single offset step from a
// valid square lands either on a valid square or on an off-board slot, so a
// bit test replaces all bounds arithmetic.
var (
	knightOffsets = [8]int8{33, 31, 18, 14, -14, -18, -31, -33}
	kingOffsets   = [8]int8{17, 16, 15, 1, -1, -15, -16, -17}
	rookDirs      = [4]int8{16, 1, -1, -16}
	bishopDirs    = [4]int8{17, 15, -15, -17}
)

// step returns the square at the given offset, if on the board.
func step(sq Square, d int8) (Square, bool) {
	v := int(sq) + int(d)
	if v < 0 || v >= NumCells || Square(v)&offboard != 0 {
		return NoSquare, false
	}
	return Square(v), true
}

// Attacked returns true iff the square is attacked by the given color. En
// passant is not considered an attack on the target square.
func (b *Board) Attacked(sq Square, by Color) bool {
	// Pawns attack diagonally forward, so the attacker sits behind the square.
	pawn := NewPiece(by, Pawn)
	pawnOffsets := [2]int8{-15, -17}
	if by == Black {
		pawnOffsets = [2]int8{15, 17}
	}
	for _, d := range pawnOffsets {
		if from, ok := step(sq, d); ok && b.cells[from] == pawn {
			return true
		}
	}

	knight := NewPiece(by, Knight)
	for _, d := range knightOffsets {
		if from, ok := step(sq, d); ok && b.cells[from] == knight {
			return true
		}
	}

	king := NewPiece(by, King)
	for _, d := range kingOffsets {
		if from, ok := step(sq, d); ok && b.cells[from] == king {
			return true
		}
	}

	for _, d := range rookDirs {
		for from, ok := step(sq, d); ok; from, ok = step(from, d) {
			p := b.cells[from]
			if p.IsEmpty() {
				continue
			}
			if p.Color() == by && (p.Kind() == Rook || p.Kind() == Queen) {
				return true
			}
			break
		}
	}
	for _, d := range bishopDirs {
		for from, ok := step(sq, d); ok; from, ok = step(from, d) {
			p := b.cells[from]
			if p.IsEmpty() {
				continue
			}
			if p.Color() == by && (p.Kind() == Bishop || p.Kind() == Queen) {
				return true
			}
			break
		}
	}
	return false
}

// InCheck returns true iff the color's king is attacked. A missing king is
// reported as "in check", which keeps search adjudication sound on degenerate
// positions.
func (b *Board) InCheck(c Color) bool {
	sq, ok := b.King(c)
	if !ok {
		return true
	}
	return b.Attacked(sq, c.Opponent())
}
