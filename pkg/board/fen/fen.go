// Package fen contains utilities for reading and writing positions in FEN notation.
package fen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/herohde/okto/pkg/board"
)

const (
	Initial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Decode returns a new board from a FEN description. A FEN record contains up
// to six whitespace-separated fields: piece placement, active color, castling
// availability, en passant target, halfmove clock and fullmove number. Missing
// trailing fields default to no castling, no en passant, 0 and 1.
//
// Example:
//
//	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
func Decode(fen string) (*board.Board, error) {
	parts := strings.Fields(strings.TrimSpace(fen))
	if len(parts) < 2 || len(parts) > 6 {
		return nil, fmt.Errorf("invalid number of sections in FEN: '%v'", fen)
	}

	// (1) Piece placement, from white's perspective. Each rank is described
	// starting with rank 8 and ending with rank 1; within each rank, file a
	// through file h. Digits skip files; letters place pieces.

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != int(board.NumRanks) {
		return nil, fmt.Errorf("invalid number of ranks in FEN: '%v'", fen)
	}

	var pieces []board.Placement
	for i, row := range ranks {
		r := board.Rank(int(board.NumRanks) - 1 - i)

		f := board.ZeroFile
		for _, c := range row {
			switch {
			case unicode.IsDigit(c):
				f += board.File(c - '0')

			case unicode.IsLetter(c):
				p, ok := board.ParsePiece(c)
				if !ok {
					return nil, fmt.Errorf("invalid piece '%v' in FEN: '%v'", string(c), fen)
				}
				if !f.IsValid() {
					return nil, fmt.Errorf("too many squares on rank %v in FEN: '%v'", r, fen)
				}
				pieces = append(pieces, board.Placement{Square: board.NewSquare(f, r), Piece: p})
				f++

			default:
				return nil, fmt.Errorf("invalid character in FEN: '%v'", fen)
			}
		}
		if f != board.NumFiles {
			return nil, fmt.Errorf("invalid number of squares on rank %v in FEN: '%v'", r, fen)
		}
	}

	// (2) Active color: "w" means white moves next, "b" means black.

	active, ok := parseColor(parts[1])
	if !ok {
		return nil, fmt.Errorf("invalid active color in FEN: '%v'", fen)
	}

	// (3) Castling availability: "-" or any of "KQkq".

	castling := board.Castling(0)
	if len(parts) > 2 {
		castling, ok = parseCastling(parts[2])
		if !ok {
			return nil, fmt.Errorf("invalid castling in FEN: '%v'", fen)
		}
	}

	// (4) En passant target square: "-" or the square behind a pawn that has
	// just made a two-square move.

	ep := board.NoSquare
	if len(parts) > 3 && parts[3] != "-" {
		sq, err := board.ParseSquareStr(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant in FEN: '%v'", fen)
		}
		ep = sq
	}

	// (5) Halfmove clock: plies since the last pawn advance or capture.

	halfmove := 0
	if len(parts) > 4 {
		np, err := strconv.Atoi(parts[4])
		if err != nil || np < 0 {
			return nil, fmt.Errorf("invalid halfmove in FEN: '%v'", fen)
		}
		halfmove = np
	}

	// (6) Fullmove number: starts at 1, incremented after Black's move.

	fullmoves := 1
	if len(parts) > 5 {
		fm, err := strconv.Atoi(parts[5])
		if err != nil || fm < 1 {
			return nil, fmt.Errorf("invalid full moves in FEN: '%v'", fen)
		}
		fullmoves = fm
	}

	b, err := board.NewBoard(pieces, active, castling, ep, halfmove, fullmoves)
	if err != nil {
		return nil, fmt.Errorf("invalid position in FEN '%v': %w", fen, err)
	}
	return b, nil
}

// Encode encodes the board in FEN notation with all six fields.
func Encode(b *board.Board) string {
	var sb strings.Builder
	for r := board.NumRanks; r > 0; r-- {
		blanks := 0
		for f := board.ZeroFile; f < board.NumFiles; f++ {
			p := b.At(board.NewSquare(f, r-1))
			if p.IsEmpty() {
				blanks++
				continue
			}

			if blanks > 0 {
				sb.WriteString(strconv.Itoa(blanks))
				blanks = 0
			}
			sb.WriteRune(p.Char())
		}

		if blanks > 0 {
			sb.WriteString(strconv.Itoa(blanks))
		}
		if r > 1 {
			sb.WriteString("/")
		}
	}

	ep := "-"
	if sq, ok := b.EnPassant(); ok {
		ep = sq.String()
	}

	return fmt.Sprintf("%v %v %v %v %v %v", sb.String(), b.Turn(), b.Castling(), ep, b.HalfmoveClock(), b.FullMoves())
}

func parseColor(str string) (board.Color, bool) {
	switch str {
	case "w", "W":
		return board.White, true
	case "b", "B":
		return board.Black, true
	default:
		return 0, false
	}
}

func parseCastling(str string) (board.Castling, bool) {
	var ret board.Castling

	if str == "-" {
		return ret, true
	}
	for _, r := range str {
		switch r {
		case 'K':
			ret |= board.WhiteKingSideCastle
		case 'Q':
			ret |= board.WhiteQueenSideCastle
		case 'k':
			ret |= board.BlackKingSideCastle
		case 'q':
			ret |= board.BlackQueenSideCastle
		default:
			return 0, false
		}
	}
	return ret, true
}
