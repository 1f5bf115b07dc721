package generate

import (
	"github.com/golang/glog"

	"github.com/hailam/tablebase/internal/artifact"
	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/entry"
	"github.com/hailam/tablebase/internal/index"
	"github.com/hailam/tablebase/internal/movegen"
	"github.com/hailam/tablebase/internal/position"
	"github.com/hailam/tablebase/internal/proptable"
	"github.com/hailam/tablebase/internal/rays"
	"github.com/hailam/tablebase/internal/tberr"
)

// FutureBackprop runs component F: reading a smaller, already-generated
// futurebase and back-propagating its resolved values into this
// configuration's proptable as predecessor-indexed events (spec.md
// §4.F/§4.H). The events are applied to the entry store only after the
// orchestrator promotes and drains this pass's queue, which is what lets
// the queue spill to disk for configurations too large to hold every
// pending event in memory.
type FutureBackprop struct {
	Config *config.Config
	Rays   *rays.Table
	Store  *entry.Store
	Prop   *proptable.Table
	Ref    config.FuturebaseRef
	Source *artifact.Reader

	// sourceConfig is the futurebase's own mobile list, needed to decode
	// its indices; it is not necessarily identical to fbp.Config.
	SourceConfig *config.Config

	handled map[uint64]entry.FutureVector
}

// NewFutureBackprop builds a back-propagator for one opened futurebase.
func NewFutureBackprop(cfg, sourceCfg *config.Config, tbl *rays.Table, store *entry.Store, prop *proptable.Table, ref config.FuturebaseRef, src *artifact.Reader) *FutureBackprop {
	return &FutureBackprop{
		Config: cfg, Rays: tbl, Store: store, Prop: prop,
		Ref: ref, Source: src, SourceConfig: sourceCfg,
		handled: make(map[uint64]entry.FutureVector),
	}
}

// Run walks every index of the source futurebase and propagates it
// (spec.md §4.F).
func (fbp *FutureBackprop) Run() error {
	max := index.MaxIndex(fbp.SourceConfig)
	for i := uint64(0); i < max; i++ {
		src := fbp.Source.EntryAt(i)
		if src.IsIllegal() {
			continue
		}
		g, err := index.IndexToGlobal(fbp.SourceConfig, i)
		if err != nil {
			continue
		}
		if fbp.Ref.Invert {
			g = position.InvertColorsOfGlobal(g)
		}
		g.SideToMove = g.SideToMove.Other() // step back one half-move

		for _, predLocal := range fbp.candidatePredecessors(&g) {
			if err := position.Validate(fbp.Config, &predLocal); err != nil {
				continue
			}
			predIdx := index.LocalToIndex(fbp.Config, &predLocal)
			predEntry := fbp.Store.Get(predIdx)
			if predEntry.IsIllegal() {
				continue // dropped per the illegal-futurebase guard
			}

			fmID, err := fbp.matchFuturemove(predIdx, &predLocal)
			if err != nil {
				return err
			}
			seen := fbp.handled[predIdx]
			if seen.Has(fmID) {
				return tberr.AtIndex(tberr.Consistency, predIdx, "futuremove %d applied twice", fmID)
			}
			fbp.handled[predIdx] = seen.Set(fmID)

			mateIn := src.MateIn
			if mateIn != entry.MateInUnknown {
				mateIn++
			}
			flag := proptable.PropagateDraw
			switch {
			case src.IsPTMWins():
				flag = proptable.PropagatePNTMWins
			case src.IsPNTMWins():
				flag = proptable.PropagatePTMWins
			}
			if err := fbp.Prop.InsertNewPropentry(proptable.Entry{
				Index: predIdx, DTM: mateIn, Flag: flag, FuturemoveID: fmID,
			}); err != nil {
				return err
			}
		}
	}
	glog.V(1).Infof("[futureprop] %s: processed %d source indices", fbp.Ref.Filename, max)
	return nil
}

// ApplyPropagatedEntry applies one drained proptable event to the entry
// store: PTMWins/AddOnePNTMWins narrow or advance mate_in as appropriate,
// and every event (including a plain draw) decrements the predecessor's
// futuremove_cnt once, since it marks that one futuremove as resolved
// regardless of outcome (spec.md §4.F step 6).
func ApplyPropagatedEntry(store *entry.Store, e proptable.Entry) error {
	switch e.Flag {
	case proptable.PropagatePTMWins:
		if err := store.PTMWins(e.Index, e.DTM, 0); err != nil {
			return err
		}
	case proptable.PropagatePNTMWins:
		if err := store.AddOnePNTMWins(e.Index, e.DTM, 0); err != nil {
			return err
		}
	}
	return store.DecrementFuturemove(e.Index)
}

// candidatePredecessors enumerates the predecessor positions in the
// current configuration that could have produced g via a capture,
// promotion, or promotion-capture move, per the futurebase's declared
// type (spec.md §4.F).
func (fbp *FutureBackprop) candidatePredecessors(g *position.Global) []position.Local {
	switch fbp.Ref.Type {
	case config.FuturebaseCapture:
		return fbp.captureePredecessors(g)
	case config.FuturebasePromotion:
		return fbp.promotionPredecessors(g, false)
	case config.FuturebasePromotionCapture:
		return fbp.promotionPredecessors(g, true)
	default:
		return nil
	}
}

// captureePredecessors reinstates a captured piece of the side to move
// on every square one of our mobiles could have captured from, for each
// mobile kind our config has beyond the futurebase's (the captured
// piece).
func (fbp *FutureBackprop) captureePredecessors(g *position.Global) []position.Local {
	var out []position.Local
	capturedColor := g.SideToMove // the side about to move in the predecessor is the capturer
	for _, captured := range fbp.configExtraMobiles() {
		if captured.Color != capturedColor {
			continue
		}
		for sq := board.Square(0); sq < 64; sq++ {
			if g.Board[sq] != ' ' {
				continue
			}
			cand := *g
			cand.Board[sq] = captured.Char()
			local, err := position.GlobalToLocal(fbp.Config, &cand)
			if err != nil {
				continue
			}
			fbp.fillMissingFromGlobal(&local, &cand)
			out = append(out, local)
		}
	}
	return out
}

// promotionPredecessors reinstates the pre-promotion pawn on the rank
// behind a promoted piece of the moving color, optionally also
// reinstating a captured piece on the promotion square (for
// promotion-captures).
func (fbp *FutureBackprop) promotionPredecessors(g *position.Global, withCapture bool) []position.Local {
	var out []position.Local
	moverColor := g.SideToMove
	lastRank := 7
	behindDelta := -8
	if moverColor == board.Black {
		lastRank = 0
		behindDelta = 8
	}
	for sq := board.Square(0); sq < 64; sq++ {
		if sq.Rank() != lastRank {
			continue
		}
		c := g.Board[sq]
		if c == ' ' || isBlackChar(c) == (moverColor == board.White) {
			continue
		}
		behind := int(sq) + behindDelta
		if behind < 0 || behind > 63 {
			continue
		}
		behindSq := board.Square(behind)
		if g.Board[behindSq] != ' ' {
			continue
		}
		pawn := board.Piece{Kind: board.Pawn, Color: moverColor}

		if !withCapture {
			cand := *g
			cand.Board[sq] = ' '
			cand.Board[behindSq] = pawn.Char()
			local, err := position.GlobalToLocal(fbp.Config, &cand)
			if err != nil {
				continue
			}
			fbp.fillMissingFromGlobal(&local, &cand)
			out = append(out, local)
			continue
		}

		for _, captured := range fbp.configExtraMobiles() {
			if captured.Color != moverColor.Other() {
				continue
			}
			cand := *g
			cand.Board[sq] = captured.Char()
			cand.Board[behindSq] = pawn.Char()
			local, err := position.GlobalToLocal(fbp.Config, &cand)
			if err != nil {
				continue
			}
			fbp.fillMissingFromGlobal(&local, &cand)
			out = append(out, local)
		}
	}
	return out
}

func isBlackChar(c byte) bool { return c >= 'a' && c <= 'z' }

// configExtraMobiles returns the mobiles present in fbp.Config but not
// in fbp.SourceConfig: the piece(s) the futurebase doesn't track, which
// must be reinstated to build a predecessor (spec.md §4.F).
func (fbp *FutureBackprop) configExtraMobiles() []board.Piece {
	present := make(map[board.Piece]int)
	for _, p := range fbp.SourceConfig.Mobiles {
		present[p]++
	}
	var extra []board.Piece
	for _, p := range fbp.Config.Mobiles {
		if present[p] > 0 {
			present[p]--
			continue
		}
		extra = append(extra, p)
	}
	return extra
}

// fillMissingFromGlobal recomputes local's occupancy masks against
// fbp.Config. It does not place mobiles GlobalToLocal left at NoSquare;
// a candidate with such a slot stays unplaced and is rejected by the
// position.Validate check in Run.
func (fbp *FutureBackprop) fillMissingFromGlobal(local *position.Local, cand *position.Global) {
	position.RecomputeOccupancy(local, fbp.Config)
}

// matchFuturemove re-enumerates predIdx's forward futuremoves and
// returns the canonical ID of the first one not yet marked handled for
// predIdx, or the last ID when all are handled. It does not check which
// futuremove produced this predecessor.
func (fbp *FutureBackprop) matchFuturemove(predIdx uint64, predLocal *position.Local) (int, error) {
	res := movegen.ForwardMoves(fbp.Config, fbp.Rays, predLocal)
	if len(res.Futuremoves) == 0 {
		return 0, tberr.AtIndex(tberr.FuturebaseMismatch, predIdx, "predecessor has no futuremoves to match")
	}
	// Without the originating move's exact identity carried through the
	// global position, the first unhandled futuremove slot is used; see
	// DESIGN.md for why this is an accepted simplification here.
	seen := fbp.handled[predIdx]
	for i := range res.Futuremoves {
		if !seen.Has(i) {
			return i, nil
		}
	}
	return len(res.Futuremoves) - 1, nil
}
