// Package generate implements the four-part retrograde propagation
// engine spec.md §4.E-I describes: the forward initializer, the
// futurebase back-propagator, the intra-table propagator, and the
// orchestrator that wires them together with the proptable.
package generate

import (
	"github.com/golang/glog"

	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/entry"
	"github.com/hailam/tablebase/internal/index"
	"github.com/hailam/tablebase/internal/movegen"
	"github.com/hailam/tablebase/internal/position"
	"github.com/hailam/tablebase/internal/rays"
)

// Initializer runs component E: for every index, decode, count forward
// moves, and set the entry to one of the lifecycle starting states.
type Initializer struct {
	Config *config.Config
	Rays   *rays.Table
	Store  *entry.Store
}

// NewInitializer builds an Initializer over an already-allocated store
// sized to index.MaxIndex(cfg).
func NewInitializer(cfg *config.Config, tbl *rays.Table, store *entry.Store) *Initializer {
	return &Initializer{Config: cfg, Rays: tbl, Store: store}
}

// Run sweeps every index and sets its starting entry (spec.md §4.E).
func (init *Initializer) Run() error {
	max := init.Store.Len()
	for i := uint64(0); i < max; i++ {
		if err := init.initOne(i); err != nil {
			return err
		}
	}
	glog.V(1).Infof("[init] initialized %d indices", max)
	return nil
}

// initOne computes and stores the starting entry for index i.
func (init *Initializer) initOne(i uint64) error {
	local, err := index.IndexToLocal(init.Config, i)
	if err != nil {
		init.Store.Set(i, entry.Entry{Movecnt: entry.MovecntIllegal, MateIn: entry.MateInUnknown})
		return nil
	}

	res := movegen.ForwardMoves(init.Config, init.Rays, &local)
	if res.KingCaptured {
		// The side to move has a pseudo-legal capture of the enemy king:
		// the enemy left its own king in check, so this index already
		// represents a won position rather than a normal one to count
		// moves for. Resolved as an immediate PTM-WINS at mate_in=0
		// (hoffman.c's initialize_index_with_black_mated/white_mated),
		// which lets this result propagate back to the predecessor where
		// the losing side actually walked into the check (spec.md §4.E).
		init.Store.Set(i, entry.Entry{Movecnt: entry.MovecntPTMWinsNeeded, MateIn: 0})
		return nil
	}

	total := res.RegularMoves + len(res.Futuremoves)
	if total == 0 {
		kingSq := movegen.KingSquare(init.Config, &local, local.SideToMove)
		if movegen.SquareAttackedBy(init.Config, init.Rays, &local, kingSq, local.SideToMove.Other()) {
			// Checkmate: the side to move has no replies and its king is
			// attacked, an immediate loss rather than a draw.
			init.Store.Set(i, entry.Entry{Movecnt: entry.MovecntPNTMWinsNeeded, MateIn: 0})
		} else {
			init.Store.Set(i, entry.Entry{Movecnt: entry.MovecntStalemate, MateIn: entry.MateInUnknown})
		}
		return nil
	}

	futuremoveCnt := len(res.Futuremoves)
	if futuremoveCnt > entry.MaxFuturemoves {
		return errTooManyFuturemoves(i, futuremoveCnt)
	}
	if total >= entry.MovecntPTMWinsNeeded {
		return errTooManyMoves(i, total)
	}

	init.Store.Set(i, entry.Entry{
		Movecnt:       uint8(total),
		MateIn:        entry.MateInUnknown,
		FuturemoveCnt: uint8(futuremoveCnt),
	})
	return nil
}

// PossibleFuturemoves recomputes the canonical futuremove list for index
// i, used by the proptable's target_dtm==0 pass to know the full
// "possible" set to diff the "emitted" set against (spec.md §4.H).
func (init *Initializer) PossibleFuturemoves(i uint64) ([]movegen.Futuremove, position.Local, error) {
	local, err := index.IndexToLocal(init.Config, i)
	if err != nil {
		return nil, local, err
	}
	res := movegen.ForwardMoves(init.Config, init.Rays, &local)
	return res.Futuremoves, local, nil
}
