// Package movegen enumerates pseudo-legal forward moves (component E's
// counting pass) and intra-table backward predecessor positions
// (component G) over the movement rays in internal/rays, for a position tied to a
// internal/config configuration.
package movegen

import (
	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/position"
	"github.com/hailam/tablebase/internal/rays"
)

// FutureKind classifies a futuremove the way spec.md §4.F's three
// futurebase relationships do.
type FutureKind int

const (
	FutureCapture FutureKind = iota
	FuturePromotion
	FuturePromotionCapture
)

// Futuremove identifies one forward move whose result leaves the current
// configuration. Its position in ForwardResult.Futuremoves, as returned
// by ForwardMoves, is its canonical ID: both the initializer (tallying "possible"
// futuremoves) and the futurebase back-propagator (matching a resolved
// move to mark "handled") re-derive this same list from the same Local
// position, so the ordering is what keeps the two sides in agreement —
// neither stores an explicit ID anywhere.
type Futuremove struct {
	Kind      FutureKind
	Mobile    int
	Dest      board.Square
	SubChoice int // promotion choice 0..PromotionPossibilities-1; 0 for plain captures
}

// ForwardResult is the outcome of one index's forward move count
// (spec.md §4.E).
type ForwardResult struct {
	RegularMoves int
	Futuremoves  []Futuremove
	// KingCaptured is set when the side to move has a pseudo-legal
	// capture of the enemy king: the decoded index represents a
	// position the enemy left illegally in check, and per spec.md §4.E
	// this is resolved as an immediate PTM-WINS at mate_in=0 rather than
	// counted as a normal move.
	KingCaptured bool
}

// ForwardMoves enumerates every pseudo-legal move of the side to move in
// local, classifying each as a plain move, a futuremove, or (if it
// reaches the enemy king) an immediate win.
func ForwardMoves(cfg *config.Config, tbl *rays.Table, local *position.Local) ForwardResult {
	var res ForwardResult
	stm := local.SideToMove

	for i, p := range cfg.Mobiles {
		if p.Color != stm {
			continue
		}
		sq := local.Squares[i]
		if sq == board.NoSquare {
			continue
		}
		if p.Kind.IsPawn() {
			pawnMoves(cfg, tbl, local, i, p, sq, &res)
			if res.KingCaptured {
				return res
			}
			continue
		}
		nonPawnMoves(cfg, tbl, local, i, p, sq, &res)
		if res.KingCaptured {
			return res
		}
	}
	return res
}

func enemyMask(local *position.Local, c board.Color) board.Bitboard {
	if c == board.White {
		return local.Black
	}
	return local.White
}

func isEnemyKingSquare(cfg *config.Config, local *position.Local, sq board.Square, enemyColor board.Color) bool {
	slot := config.WhiteKingSlot
	if enemyColor == board.Black {
		slot = config.BlackKingSlot
	}
	return local.Squares[slot] == sq
}

func nonPawnMoves(cfg *config.Config, tbl *rays.Table, local *position.Local, mobile int, p board.Piece, sq board.Square, res *ForwardResult) {
	enemy := enemyMask(local, p.Color)
	for dir := 0; dir < rays.NumDirections(p.Kind); dir++ {
		ray := tbl.NonPawnRay(p.Kind, sq, dir)
		for _, step := range ray {
			if step.To == board.NoSquare {
				break // sentinel: ran off the board in this direction
			}
			if step.Mask&local.All != 0 {
				if step.Mask&enemy != 0 {
					if isEnemyKingSquare(cfg, local, step.To, p.Color.Other()) {
						res.KingCaptured = true
						return
					}
					res.Futuremoves = append(res.Futuremoves, Futuremove{Kind: FutureCapture, Mobile: mobile, Dest: step.To})
				}
				break // blocked either way; ray traversal stops
			}
			res.RegularMoves++
		}
	}
}

func pawnMoves(cfg *config.Config, tbl *rays.Table, local *position.Local, mobile int, p board.Piece, sq board.Square, res *ForwardResult) {
	for _, step := range tbl.PawnForward(sq, p.Color) {
		if step.To == board.NoSquare {
			break
		}
		if step.Mask&local.All != 0 {
			break // blocked; a pawn cannot jump over an occupied square
		}
		if onLastRank(step.To) {
			for k := 0; k < cfg.PromotionPossibilities; k++ {
				res.Futuremoves = append(res.Futuremoves, Futuremove{Kind: FuturePromotion, Mobile: mobile, Dest: step.To, SubChoice: k})
			}
		} else {
			res.RegularMoves++
		}
	}

	enemy := enemyMask(local, p.Color)
	for _, step := range tbl.PawnCapture(sq, p.Color) {
		if step.To == board.NoSquare {
			break
		}
		if step.Mask&enemy == 0 {
			continue // nothing to capture on this diagonal
		}
		if isEnemyKingSquare(cfg, local, step.To, p.Color.Other()) {
			res.KingCaptured = true
			return
		}
		if onLastRank(step.To) {
			for k := 0; k < cfg.PromotionPossibilities; k++ {
				res.Futuremoves = append(res.Futuremoves, Futuremove{Kind: FuturePromotionCapture, Mobile: mobile, Dest: step.To, SubChoice: k})
			}
		} else {
			res.Futuremoves = append(res.Futuremoves, Futuremove{Kind: FutureCapture, Mobile: mobile, Dest: step.To})
		}
	}
}

func onLastRank(sq board.Square) bool {
	r := sq.Rank()
	return r == 0 || r == 7
}
