package movegen

import (
	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/position"
	"github.com/hailam/tablebase/internal/rays"
)

// SquareAttackedBy reports whether any mobile belonging to attacker
// attacks sq in local. This is the check-detection component.E's
// zero-legal-moves case needs to tell a checkmate (the side to move's
// king attacked, zero replies) from a stalemate (zero replies, no
// attack) — the two resolve to opposite game values.
//
// Sliding and stepping attacks are found by walking the candidate
// attacker's own piece-type rays outward from sq, the same
// symmetric-ray trick IntraTablePredecessors uses: a rook attacks sq
// exactly where sq's rook rays would reach a rook.
func SquareAttackedBy(cfg *config.Config, tbl *rays.Table, local *position.Local, sq board.Square, attacker board.Color) bool {
	for i, p := range cfg.Mobiles {
		if p.Color != attacker {
			continue
		}
		from := local.Squares[i]
		if from == board.NoSquare {
			continue
		}
		if p.Kind.IsPawn() {
			for _, step := range tbl.PawnCapture(from, attacker) {
				if step.To == board.NoSquare {
					break
				}
				if step.To == sq {
					return true
				}
			}
			continue
		}
		for dir := 0; dir < rays.NumDirections(p.Kind); dir++ {
			for _, step := range tbl.NonPawnRay(p.Kind, sq, dir) {
				if step.To == board.NoSquare {
					break
				}
				if step.To == from {
					return true
				}
				if step.Mask&local.All != 0 {
					break // blocked by some other piece before reaching `from`
				}
			}
		}
	}
	return false
}

// KingSquare returns the square of cfg's king of the given color.
func KingSquare(cfg *config.Config, local *position.Local, c board.Color) board.Square {
	slot := config.WhiteKingSlot
	if c == board.Black {
		slot = config.BlackKingSlot
	}
	return local.Squares[slot]
}
