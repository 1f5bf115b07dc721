package rays

import "github.com/hailam/tablebase/internal/board"

// initPawns fills the four pawn table variants: forward pushes, diagonal
// captures, and their backward duals (spec.md §4.A).
//
// Pawns never occupy rank 0 or 7 (the back ranks), so those ranks get
// empty tables. A pawn on its starting rank (1 for white, 6 for black) may
// also double-push; the backward dual of a double push only exists on the
// landing rank (3 for white, 4 for black).
func (t *Table) initPawns() {
	for sq := board.Square(0); sq < 64; sq++ {
		rank := sq.Rank()
		if rank == 0 || rank == 7 {
			t.pawnFwd[sq][board.White] = []Step{sentinel}
			t.pawnFwd[sq][board.Black] = []Step{sentinel}
			t.pawnCap[sq][board.White] = []Step{sentinel}
			t.pawnCap[sq][board.Black] = []Step{sentinel}
			t.pawnFwdBkwd[sq][board.White] = []Step{sentinel}
			t.pawnFwdBkwd[sq][board.Black] = []Step{sentinel}
			t.pawnCapBkwd[sq][board.White] = []Step{sentinel}
			t.pawnCapBkwd[sq][board.Black] = []Step{sentinel}
			continue
		}

		t.pawnFwd[sq][board.White] = pawnForwardRay(sq, +8, rank == 1)
		t.pawnFwd[sq][board.Black] = pawnForwardRay(sq, -8, rank == 6)

		t.pawnCap[sq][board.White] = pawnCaptureRay(sq, +8)
		t.pawnCap[sq][board.Black] = pawnCaptureRay(sq, -8)

		t.pawnFwdBkwd[sq][board.White] = pawnForwardRay(sq, -8, rank == 3)
		t.pawnFwdBkwd[sq][board.Black] = pawnForwardRay(sq, +8, rank == 4)

		t.pawnCapBkwd[sq][board.White] = pawnCaptureRay(sq, -8)
		t.pawnCapBkwd[sq][board.Black] = pawnCaptureRay(sq, +8)
	}
}

// pawnForwardRay builds a non-capturing push ray: one step of size
// rankDelta, plus a second step of 2*rankDelta when allowDouble is set
// (the pawn sits on its own or the mirrored double-push rank). The steps
// are ordered by distance, so the ordinary walk that stops at the first
// occupied step also rejects a double push over an occupied square.
func pawnForwardRay(sq board.Square, rankDelta int, allowDouble bool) []Step {
	steps := make([]Step, 0, 3)
	one, ok := applyRankDelta(sq, rankDelta)
	if !ok {
		return []Step{sentinel}
	}
	steps = append(steps, Step{To: one, Mask: board.SquareBB(one)})
	if allowDouble {
		two, ok := applyRankDelta(sq, 2*rankDelta)
		if ok {
			steps = append(steps, Step{To: two, Mask: board.SquareBB(two)})
		}
	}
	return append(steps, sentinel)
}

// pawnCaptureRay builds the (at most two) diagonal capture targets.
func pawnCaptureRay(sq board.Square, rankDelta int) []Step {
	steps := make([]Step, 0, 3)
	for _, fileDelta := range [2]int{-1, +1} {
		to, ok := applyDelta(sq, rankDelta+fileDelta)
		if ok {
			steps = append(steps, Step{To: to, Mask: board.SquareBB(to)})
		}
	}
	return append(steps, sentinel)
}

func applyRankDelta(sq board.Square, delta int) (board.Square, bool) {
	to := int(sq) + delta
	if to < 0 || to > 63 {
		return 0, false
	}
	return board.Square(to), true
}
