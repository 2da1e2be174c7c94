package board

import "fmt"

// Square represents a square on the board in the 0x88 scheme: a 128-slot index
// where the valid squares are exactly those with (index & 0x88) == 0. Rank r
// and file f map to (r<<4)|f, so off-board detection is a single bit test and
// piece offsets need no bounds arithmetic. Rank 0 is white's first rank.
type Square uint8

// NoSquare is the sentinel for "no square", e.g. no en passant target.
const NoSquare Square = 0x7f

const offboard Square = 0x88

const (
	A1 Square = 0x00 + Square(iota)
	B1
	C1
	D1
	E1
	F1
	G1
	H1
)

const (
	A2 Square = 0x10 + Square(iota)
	B2
	C2
	D2
	E2
	F2
	G2
	H2
)

const (
	A3 Square = 0x20 + Square(iota)
	B3
	C3
	D3
	E3
	F3
	G3
	H3
)

const (
	A4 Square = 0x30 + Square(iota)
	B4
	C4
	D4
	E4
	F4
	G4
	H4
)

const (
	A5 Square = 0x40 + Square(iota)
	B5
	C5
	D5
	E5
	F5
	G5
	H5
)

const (
	A6 Square = 0x50 + Square(iota)
	B6
	C6
	D6
	E6
	F6
	G6
	H6
)

const (
	A7 Square = 0x60 + Square(iota)
	B7
	C7
	D7
	E7
	F7
	G7
	H7
)

const (
	A8 Square = 0x70 + Square(iota)
	B8
	C8
	D8
	E8
	F8
	G8
	H8
)

// NumCells is the size of the 0x88 board array, valid squares included.
const NumCells = 128

func NewSquare(f File, r Rank) Square {
	return Square(uint8(r)<<4 | uint8(f))
}

func ParseSquare(f, r rune) (Square, error) {
	file, ok := ParseFile(f)
	if !ok {
		return NoSquare, fmt.Errorf("invalid file: %v", string(f))
	}
	rank, ok := ParseRank(r)
	if !ok {
		return NoSquare, fmt.Errorf("invalid rank: %v", string(r))
	}
	return NewSquare(file, rank), nil
}

func ParseSquareStr(str string) (Square, error) {
	runes := []rune(str)
	if len(runes) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %v", str)
	}
	return ParseSquare(runes[0], runes[1])
}

func (s Square) IsValid() bool {
	return s&offboard == 0
}

func (s Square) Rank() Rank {
	return Rank(s >> 4)
}

func (s Square) File() File {
	return File(s & 0xf)
}

func (s Square) String() string {
	if !s.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%v%v", s.File(), s.Rank())
}

// Rank represents a chess board rank from Rank1=0, ..Rank8=7. 3 bits.
type Rank uint8

const (
	Rank1 Rank = iota
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
)

const (
	ZeroRank Rank = 0
	NumRanks Rank = 8
)

func ParseRank(r rune) (Rank, bool) {
	if r < '1' || r > '8' {
		return 0, false
	}
	return Rank(r - '1'), true
}

func (r Rank) IsValid() bool {
	return r <= Rank8
}

func (r Rank) V() int {
	return int(r)
}

func (r Rank) String() string {
	if !r.IsValid() {
		return "?"
	}
	return string(rune('1' + r))
}

// File represents a chess board file from FileA=0, ..FileH=7. 3 bits.
type File uint8

const (
	FileA File = iota
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
	FileH
)

const (
	ZeroFile File = 0
	NumFiles File = 8
)

func ParseFile(r rune) (File, bool) {
	switch {
	case 'a' <= r && r <= 'h':
		return File(r - 'a'), true
	case 'A' <= r && r <= 'H':
		return File(r - 'A'), true
	default:
		return 0, false
	}
}

func (f File) IsValid() bool {
	return f <= FileH
}

func (f File) V() int {
	return int(f)
}

func (f File) String() string {
	if !f.IsValid() {
		return "?"
	}
	return string(rune('a' + f))
}
