package rays

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hailam/tablebase/internal/board"
)

// TestSelfTestNonPawnReversibility checks spec.md §4.A's self-test: for
// every non-pawn (piece, A, B), if A->B is enumerated then B->A must be
// enumerated in some direction, and no direction ever re-enumerates the
// same target square twice.
func TestSelfTestNonPawnReversibility(t *testing.T) {
	tbl := NewTable()

	for _, kind := range []board.Kind{board.King, board.Queen, board.Rook, board.Bishop, board.Knight} {
		for a := board.Square(0); a < 64; a++ {
			seen := map[board.Square]bool{}
			targets := []board.Square{}

			for dir := 0; dir < NumDirections(kind); dir++ {
				ray := tbl.NonPawnRay(kind, a, dir)
				require.NotEmpty(t, ray)
				require.Equal(t, sentinel, ray[len(ray)-1], "%s ray from %s dir %d must end in the sentinel", kind, a, dir)

				for _, step := range ray[:len(ray)-1] {
					require.False(t, seen[step.To], "%s from %s re-enumerates %s", kind, a, step.To)
					seen[step.To] = true
					targets = append(targets, step.To)
				}
			}

			for _, b := range targets {
				require.True(t, reachableInSomeDirection(tbl, kind, b, a), "%s: %s->%s enumerated but not %s->%s", kind, a, b, b, a)
			}
		}
	}
}

func reachableInSomeDirection(tbl *Table, kind board.Kind, from, to board.Square) bool {
	for dir := 0; dir < NumDirections(kind); dir++ {
		for _, step := range tbl.NonPawnRay(kind, from, dir) {
			if step.To == to {
				return true
			}
		}
	}
	return false
}

func TestSentinelAlwaysAllOnes(t *testing.T) {
	require.Equal(t, board.Universe, sentinel.Mask)
	require.Equal(t, board.NoSquare, sentinel.To)
}

// TestPawnVariantsPairwise checks the four pawn table variants (fwd/bkwd x
// normal/capture) are mutual inverses, as spec.md §4.A requires.
func TestPawnVariantsPairwise(t *testing.T) {
	tbl := NewTable()

	for _, c := range []board.Color{board.White, board.Black} {
		for sq := board.Square(0); sq < 64; sq++ {
			if sq.Rank() == 0 || sq.Rank() == 7 {
				continue
			}
			for _, step := range withoutSentinel(tbl.PawnForward(sq, c)) {
				require.True(t, withinSet(withoutSentinel(tbl.PawnForwardBackward(step.To, c)), sq),
					"pawn fwd %s %s->%s has no backward dual", c, sq, step.To)
			}
			for _, step := range withoutSentinel(tbl.PawnCapture(sq, c)) {
				require.True(t, withinSet(withoutSentinel(tbl.PawnCaptureBackward(step.To, c)), sq),
					"pawn cap %s %s->%s has no backward dual", c, sq, step.To)
			}
		}
	}
}

func withoutSentinel(steps []Step) []Step {
	if len(steps) == 0 {
		return nil
	}
	return steps[:len(steps)-1]
}

func withinSet(steps []Step, sq board.Square) bool {
	for _, s := range steps {
		if s.To == sq {
			return true
		}
	}
	return false
}

func TestNoPawnMovesFromBackRanks(t *testing.T) {
	tbl := NewTable()
	for _, c := range []board.Color{board.White, board.Black} {
		for _, sq := range []board.Square{board.A1, board.H1, board.A8, board.H8} {
			require.Equal(t, []Step{sentinel}, tbl.PawnForward(sq, c))
			require.Equal(t, []Step{sentinel}, tbl.PawnCapture(sq, c))
		}
	}
}

func TestDoublePushOnlyFromStartingRank(t *testing.T) {
	tbl := NewTable()
	// e2 (white) should have two forward steps plus the sentinel.
	ray := tbl.PawnForward(board.NewSquare(4, 1), board.White)
	require.Len(t, ray, 3)
	// e3 (white, not starting rank) should have exactly one.
	ray = tbl.PawnForward(board.NewSquare(4, 2), board.White)
	require.Len(t, ray, 2)
}
