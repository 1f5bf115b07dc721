// Package rays holds the precomputed movement tables used by both the
// forward move counter and the backward predecessor enumerators in
// internal/movegen: for every piece
// kind, origin square, and direction, a lazy list of steps away from the
// origin, terminated by a sentinel that always "hits" occupancy (spec.md
// §4.A).
//
// Each list entry carries the target square and a one-bit mask for that
// square so a caller can test `step.Mask&occupied != 0` to decide whether
// the ray is blocked, without a second table lookup.
package rays

import "github.com/hailam/tablebase/internal/board"

// Step is one entry in a movement ray.
type Step struct {
	To   board.Square // target square, or board.NoSquare at the sentinel
	Mask board.Bitboard
}

// sentinel terminates every ray: an all-ones mask that always "hits"
// occupancy, so a caller's blocking test never needs a separate
// end-of-list check (spec.md §4.A, mirroring hoffman.cc's allones_bitvector).
var sentinel = Step{To: board.NoSquare, Mask: board.Universe}

// maxSteps bounds the longest direction (a queen can travel 7 squares).
const maxSteps = 7

// Directions for sliding and step pieces, indexed by direction ordinal.
const (
	dirRight = iota
	dirLeft
	dirUp
	dirDown
	dirUpLeft
	dirUpRight
	dirDownLeft
	dirDownRight
	numRayDirs
)

var slidingDeltas = [numRayDirs]int{
	dirRight:     +1,
	dirLeft:      -1,
	dirUp:        +8,
	dirDown:      -8,
	dirUpLeft:    +7,
	dirUpRight:   +9,
	dirDownLeft:  -9,
	dirDownRight: -7,
}

// knightDeltas enumerates the eight one-step knight jumps.
var knightDeltas = [8]int{+17, +15, -17, -15, +10, +6, -10, -6}

// kingDeltas enumerates the eight one-step king moves (same directions as
// a queen, but limited to a single step).
var kingDeltas = slidingDeltas

// Table holds the movement rays for the five non-pawn piece kinds plus
// both pawn states, one-time process-init data owned by the orchestrator
// (spec.md §9 "global mutable state").
type Table struct {
	// King, Queen, Rook, Bishop, Knight: [square][dir] -> ray (a single
	// step for King/Knight, up to 7 steps for sliders).
	nonPawn [5][64][8][]Step

	// Pawn forward, non-capturing moves: [square][color] -> one ray of up
	// to 2 steps (single push, then double push) plus the sentinel, so a
	// walk that stops at the first occupied step never passes a block.
	pawnFwd [64][2][]Step
	// Pawn captures: [square][color] -> up to 2 diagonal targets.
	pawnCap [64][2][]Step
	// Backward duals, used by the intra-table propagator to find who
	// could have just moved to reach this pawn's square.
	pawnFwdBkwd [64][2][]Step
	pawnCapBkwd [64][2][]Step
}

var kindToIndex = map[board.Kind]int{
	board.King:   0,
	board.Queen:  1,
	board.Rook:   2,
	board.Bishop: 3,
	board.Knight: 4,
}

// directionsFor returns the direction ordinals a given kind moves along.
func directionsFor(k board.Kind) []int {
	switch k {
	case board.King, board.Queen:
		return []int{dirRight, dirLeft, dirUp, dirDown, dirUpLeft, dirUpRight, dirDownLeft, dirDownRight}
	case board.Rook:
		return []int{dirRight, dirLeft, dirUp, dirDown}
	case board.Bishop:
		return []int{dirUpLeft, dirUpRight, dirDownLeft, dirDownRight}
	default:
		return nil
	}
}

// stepLimit returns how many steps a piece may take in one direction: 1 for
// the king, 7 for the sliders. Knight rays are built separately by
// buildKnightRay.
func stepLimit(k board.Kind) int {
	if k == board.King {
		return 1
	}
	return maxSteps
}

// NewTable builds the movement tables once; callers hold it as a
// long-lived singleton (spec.md §9).
func NewTable() *Table {
	t := &Table{}
	for k, idx := range kindToIndex {
		limit := stepLimit(k)
		for sq := board.Square(0); sq < 64; sq++ {
			for d, dir := range directionsFor(k) {
				t.nonPawn[idx][sq][d] = buildSlideRay(sq, slidingDeltas[dir], limit)
			}
		}
	}
	// Knight: eight independent one-step "directions", each a ray of length 1.
	for sq := board.Square(0); sq < 64; sq++ {
		for dir := 0; dir < 8; dir++ {
			t.nonPawn[kindToIndex[board.Knight]][sq][dir] = buildKnightRay(sq, knightDeltas[dir])
		}
	}
	t.initPawns()
	return t
}

// buildSlideRay builds the list of steps for a sliding (or single-step
// king) piece moving along one direction from sq, respecting file wraparound.
func buildSlideRay(sq board.Square, delta int, limit int) []Step {
	steps := make([]Step, 0, limit+1)
	cur := sq
	for i := 0; i < limit; i++ {
		next, ok := applyDelta(cur, delta)
		if !ok {
			break
		}
		steps = append(steps, Step{To: next, Mask: board.SquareBB(next)})
		cur = next
	}
	steps = append(steps, sentinel)
	return steps
}

func buildKnightRay(sq board.Square, delta int) []Step {
	next, ok := applyKnightDelta(sq, delta)
	if !ok {
		return []Step{sentinel}
	}
	return []Step{{To: next, Mask: board.SquareBB(next)}, sentinel}
}

// applyDelta moves one step in a queen/rook/bishop/king direction,
// rejecting moves that wrap around a file edge.
func applyDelta(sq board.Square, delta int) (board.Square, bool) {
	from := int(sq)
	file, rank := from&7, from>>3
	to := from + delta
	if to < 0 || to > 63 {
		return 0, false
	}
	toFile, toRank := to&7, to>>3
	// A legal queen/king step changes file by at most 1 and rank by at
	// most 1; anything else means we wrapped around file A/H.
	if abs(toFile-file) > 1 || abs(toRank-rank) > 1 {
		return 0, false
	}
	return board.Square(to), true
}

func applyKnightDelta(sq board.Square, delta int) (board.Square, bool) {
	from := int(sq)
	file, rank := from&7, from>>3
	to := from + delta
	if to < 0 || to > 63 {
		return 0, false
	}
	toFile, toRank := to&7, to>>3
	if abs(toFile-file) > 2 || abs(toRank-rank) > 2 {
		return 0, false
	}
	// Distinguish a genuine (1,2)/(2,1) jump from a same-magnitude wrap.
	if abs(toFile-file)+abs(toRank-rank) != 3 {
		return 0, false
	}
	return board.Square(to), true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// NonPawnRay returns the movement ray for a non-pawn kind from sq along
// direction dir (0-based, at most 8 for King/Queen, 4 for Rook/Bishop, 8
// for Knight). Iterate it per the ray contract in spec.md §4.A: walk steps
// in order until one's Mask intersects the occupancy bitboard.
func (t *Table) NonPawnRay(k board.Kind, sq board.Square, dir int) []Step {
	idx, ok := kindToIndex[k]
	if !ok {
		return []Step{sentinel}
	}
	return t.nonPawn[idx][sq][dir]
}

// NumDirections returns how many directions a non-pawn kind moves in.
func NumDirections(k board.Kind) int {
	switch k {
	case board.King, board.Queen, board.Knight:
		return 8
	case board.Rook, board.Bishop:
		return 4
	default:
		return 0
	}
}

// PawnForward returns the pawn's non-capturing forward moves (single and,
// from its starting rank, double push).
func (t *Table) PawnForward(sq board.Square, c board.Color) []Step {
	return t.pawnFwd[sq][c]
}

// PawnCapture returns the pawn's diagonal capture targets.
func (t *Table) PawnCapture(sq board.Square, c board.Color) []Step {
	return t.pawnCap[sq][c]
}

// PawnForwardBackward returns the squares a pawn of color c could have
// advanced from to reach sq (the backward dual of PawnForward), used by
// the intra-table propagator (spec.md §4.G).
func (t *Table) PawnForwardBackward(sq board.Square, c board.Color) []Step {
	return t.pawnFwdBkwd[sq][c]
}

// PawnCaptureBackward returns the squares a pawn of color c could have
// captured from to reach sq.
func (t *Table) PawnCaptureBackward(sq board.Square, c board.Color) []Step {
	return t.pawnCapBkwd[sq][c]
}

// Sentinel exposes the all-ones terminator so callers (and the self-test)
// can recognize it explicitly.
func Sentinel() Step { return sentinel }
