package generate

import (
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/entry"
	"github.com/hailam/tablebase/internal/index"
	"github.com/hailam/tablebase/internal/tberr"
)

// ApplyMoveRestrictions runs component I's restriction pass once after
// every futurebase has committed and before intra-table propagation
// (spec.md §4.I): any index with futuremove_cnt still nonzero has
// unresolved futuremoves, handled per the side-to-move's configured
// policy.
func ApplyMoveRestrictions(cfg *config.Config, store *entry.Store) error {
	max := store.Len()
	for i := uint64(0); i < max; i++ {
		e := store.Get(i)
		if e.IsIllegal() || e.IsDone() || e.FuturemoveCnt == 0 {
			continue
		}
		local, err := index.IndexToLocal(cfg, i)
		if err != nil {
			continue
		}
		policy := cfg.Restriction[local.SideToMove]
		switch policy {
		case config.RestrictNone:
			return tberr.AtIndex(tberr.Completeness, i, "%d unresolved futuremoves remain under the NONE restriction", e.FuturemoveCnt)
		case config.RestrictDiscard:
			if err := store.ReduceMovecntForDiscard(i); err != nil {
				return err
			}
		case config.RestrictConcede:
			if err := store.PTMWins(i, 1, 1); err != nil {
				return err
			}
			if err := store.MarkPropagated(i); err != nil {
				return err
			}
			clearFuturemoveCnt(store, i)
		}
	}
	return nil
}

// clearFuturemoveCnt zeroes futuremove_cnt on a conceded entry so the
// restriction pass doesn't reprocess it as still outstanding; CONCEDE's
// PTMWins call already fixed movecnt and mate_in.
func clearFuturemoveCnt(store *entry.Store, idx uint64) {
	e := store.Get(idx)
	e.FuturemoveCnt = 0
	store.Set(idx, e)
}
