package generate

import (
	"github.com/golang/glog"

	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/entry"
	"github.com/hailam/tablebase/internal/index"
	"github.com/hailam/tablebase/internal/movegen"
	"github.com/hailam/tablebase/internal/rays"
)

// IntraProp runs component G: repeated sweeps over the entry array in
// increasing target_dtm, resolving WINS-needed entries and propagating
// their effect to predecessors found by reversing the movement rays.
type IntraProp struct {
	Config *config.Config
	Rays   *rays.Table
	Store  *entry.Store

	maxMateInSeen uint8
}

// NewIntraProp builds an IntraProp over an already-initialized and
// futurebase-committed store.
func NewIntraProp(cfg *config.Config, tbl *rays.Table, store *entry.Store) *IntraProp {
	return &IntraProp{Config: cfg, Rays: tbl, Store: store}
}

// NoteMateIn records an externally observed mate_in (from the futurebase
// pass) so RunUntilDone's termination check accounts for it (spec.md
// §4.G's termination condition spans both futurebase and intra-table
// events).
func (ip *IntraProp) NoteMateIn(mateIn uint8) {
	if mateIn != entry.MateInUnknown && mateIn > ip.maxMateInSeen {
		ip.maxMateInSeen = mateIn
	}
}

// RunPass sweeps every index whose entry is WINS-needed at mate_in ==
// targetDTM, resolves it, and propagates to its predecessors. It returns
// whether any index was resolved this pass.
func (ip *IntraProp) RunPass(targetDTM uint8) (bool, error) {
	progressed := false
	max := ip.Store.Len()
	for i := uint64(0); i < max; i++ {
		e := ip.Store.Get(i)
		if !e.NeedsPropagation() || e.MateIn != targetDTM {
			continue
		}
		progressed = true
		if err := ip.resolveOne(i, e); err != nil {
			return progressed, err
		}
	}
	if progressed {
		glog.V(2).Infof("[intraprop] target_dtm=%d resolved at least one index", targetDTM)
	}
	return progressed, nil
}

func (ip *IntraProp) resolveOne(i uint64, e entry.Entry) error {
	local, err := index.IndexToLocal(ip.Config, i)
	if err != nil {
		return err
	}

	ptmWins := e.IsPTMWins()
	nextMateIn := e.MateIn + 1
	nextStalemate := e.StalemateCnt + 1
	ip.NoteMateIn(nextMateIn)

	if e.StalemateCnt < entry.StalemateCount {
		for _, pred := range movegen.IntraTablePredecessors(ip.Config, ip.Rays, &local) {
			predIdx := index.LocalToIndex(ip.Config, &pred)
			if predIdx == i {
				continue
			}
			predEntry := ip.Store.Get(predIdx)
			if predEntry.IsIllegal() {
				continue
			}
			if ptmWins {
				if err := ip.Store.AddOnePNTMWins(predIdx, nextMateIn, nextStalemate); err != nil {
					return err
				}
			} else {
				if err := ip.Store.PTMWins(predIdx, nextMateIn, nextStalemate); err != nil {
					return err
				}
			}
		}
	}

	return ip.Store.MarkPropagated(i)
}

// RunUntilDone iterates RunPass over increasing target_dtm until a pass
// makes no progress and target_dtm has exceeded the largest mate_in
// observed so far across both futurebase and intra-table events (spec.md
// §4.G's termination rule).
func (ip *IntraProp) RunUntilDone() error {
	var target uint8
	for {
		progressed, err := ip.RunPass(target)
		if err != nil {
			return err
		}
		if !progressed && target >= ip.maxMateInSeen {
			return nil
		}
		if target == 255 {
			return nil
		}
		target++
	}
}
