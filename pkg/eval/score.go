package eval

import "fmt"

// Score is a signed position score in centipawns, always from the side to
// move's perspective. Mate scores are Mate-ply, so shorter mates score higher.
type Score int32

const (
	// Mate is the score for delivering checkmate at the root.
	Mate Score = 100000
	// Inf is strictly larger than any reachable score. Useful as the initial
	// alpha-beta window.
	Inf Score = 1000000

	// mateHorizon bounds the ply distance encoded into mate scores.
	mateHorizon Score = 1000
)

// MateIn returns the score for mating at the given ply.
func MateIn(ply int) Score {
	return Mate - Score(ply)
}

// MatedIn returns the score for being mated at the given ply.
func MatedIn(ply int) Score {
	return -Mate + Score(ply)
}

// IsMate returns true iff the score encodes a forced mate for either side.
func (s Score) IsMate() bool {
	return s > Mate-mateHorizon || s < -Mate+mateHorizon
}

// MateDistance returns the mate distance in plies, if the score encodes a
// mate. Negative if the side to move is being mated.
func (s Score) MateDistance() (int, bool) {
	switch {
	case s > Mate-mateHorizon:
		return int(Mate - s), true
	case s < -Mate+mateHorizon:
		return -int(s + Mate), true
	default:
		return 0, false
	}
}

// Max returns the largest of the given scores.
func Max(a, b Score) Score {
	if a < b {
		return b
	}
	return a
}

// Min returns the smallest of the given scores.
func Min(a, b Score) Score {
	if a < b {
		return a
	}
	return b
}

func (s Score) String() string {
	if d, ok := s.MateDistance(); ok {
		if d < 0 {
			return fmt.Sprintf("#-%v", (-d+1)/2)
		}
		return fmt.Sprintf("#%v", (d+1)/2)
	}
	return fmt.Sprintf("%.2f", float64(s)/100)
}
