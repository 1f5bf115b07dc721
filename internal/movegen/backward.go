package movegen

import (
	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/position"
	"github.com/hailam/tablebase/internal/rays"
)

// IntraTablePredecessors enumerates the positions that could have moved
// to reach local by moving the mobile that is NOT to move there — the
// side that just played the move reaching local (spec.md §4.G).
//
// Sliding/step pieces are reversible along the same rays used going
// forward, so this walks tbl.NonPawnRay from the mobile's current
// square rather than a separate backward table. Pawns use the dedicated
// pawn_fwd_bkwd table; pawn-capture predecessors are deliberately not
// produced here, since those are the inverse of forward captures, which
// live in futurebases rather than this table.
func IntraTablePredecessors(cfg *config.Config, tbl *rays.Table, local *position.Local) []position.Local {
	movedColor := local.SideToMove.Other()
	var preds []position.Local

	for i, p := range cfg.Mobiles {
		if p.Color != movedColor {
			continue
		}
		sq := local.Squares[i]
		if sq == board.NoSquare {
			continue
		}
		if p.Kind.IsPawn() {
			for _, step := range tbl.PawnForwardBackward(sq, p.Color) {
				if step.To == board.NoSquare {
					break
				}
				if step.Mask&local.All != 0 {
					break
				}
				preds = append(preds, buildPredecessor(cfg, local, i, step.To, movedColor))
			}
			continue
		}
		for dir := 0; dir < rays.NumDirections(p.Kind); dir++ {
			for _, step := range tbl.NonPawnRay(p.Kind, sq, dir) {
				if step.To == board.NoSquare {
					break
				}
				if step.Mask&local.All != 0 {
					break
				}
				preds = append(preds, buildPredecessor(cfg, local, i, step.To, movedColor))
			}
		}
	}
	return preds
}

func buildPredecessor(cfg *config.Config, local *position.Local, mobile int, origin board.Square, movedColor board.Color) position.Local {
	pred := *local
	pred.Squares[mobile] = origin
	pred.SideToMove = movedColor
	position.RecomputeOccupancy(&pred, cfg)
	return pred
}
