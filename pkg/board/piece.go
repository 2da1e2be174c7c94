package board

// Kind represents a piece kind (King, Pawn, etc) with no color. 3 bits.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

const (
	ZeroKind Kind = 0
	NumKinds Kind = 7
)

func ParseKind(r rune) (Kind, bool) {
	switch r {
	case 'p', 'P':
		return Pawn, true
	case 'n', 'N':
		return Knight, true
	case 'b', 'B':
		return Bishop, true
	case 'r', 'R':
		return Rook, true
	case 'q', 'Q':
		return Queen, true
	case 'k', 'K':
		return King, true
	default:
		return NoKind, false
	}
}

func (k Kind) IsValid() bool {
	return Pawn <= k && k <= King
}

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "p"
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Rook:
		return "r"
	case Queen:
		return "q"
	case King:
		return "k"
	default:
		return "?"
	}
}

// Piece represents a colored piece or the empty square. 4 bits.
type Piece uint8

const (
	Empty Piece = iota
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

// NumPieceIndexes is the number of placed-piece variants, as indexed by Index.
const NumPieceIndexes = 12

func NewPiece(c Color, k Kind) Piece {
	if !k.IsValid() {
		return Empty
	}
	if c == White {
		return Piece(k)
	}
	return Piece(k) + 6
}

// ParsePiece parses a FEN piece letter: "PNBRQK" for white, "pnbrqk" for black.
func ParsePiece(r rune) (Piece, bool) {
	k, ok := ParseKind(r)
	if !ok {
		return Empty, false
	}
	if 'A' <= r && r <= 'Z' {
		return NewPiece(White, k), true
	}
	return NewPiece(Black, k), true
}

func (p Piece) IsEmpty() bool {
	return p == Empty
}

func (p Piece) IsValid() bool {
	return WhitePawn <= p && p <= BlackKing
}

func (p Piece) Color() Color {
	if p >= BlackPawn {
		return Black
	}
	return White
}

func (p Piece) Kind() Kind {
	switch {
	case p == Empty:
		return NoKind
	case p >= BlackPawn:
		return Kind(p - 6)
	default:
		return Kind(p)
	}
}

// Index returns the dense 0-11 piece index {WP,WN,WB,WR,WQ,WK,BP,BN,BB,BR,BQ,BK}
// used by the Zobrist key tables.
func (p Piece) Index() int {
	return int(p) - 1
}

// Char returns the FEN letter for the piece, or '.' if empty.
func (p Piece) Char() rune {
	if p.IsEmpty() {
		return '.'
	}
	r := []rune(p.Kind().String())[0]
	if p.Color() == White {
		return r - 'a' + 'A'
	}
	return r
}

func (p Piece) String() string {
	return string(p.Char())
}
