package generate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/entry"
	"github.com/hailam/tablebase/internal/index"
	"github.com/hailam/tablebase/internal/position"
	"github.com/hailam/tablebase/internal/rays"
)

func kkOnlyConfig() *config.Config {
	return &config.Config{
		Mobiles: []board.Piece{
			{Kind: board.King, Color: board.White},
			{Kind: board.King, Color: board.Black},
		},
		PromotionPossibilities: config.DefaultPromotionPossibilities,
	}
}

// King vs king can never be won: no mobile can ever be captured, so
// every legal (non-adjacent-kings) index should stay in the unresolved
// "draw" movecnt range after a full generation run.
func TestKKNeverResolvesToAWin(t *testing.T) {
	cfg := kkOnlyConfig()
	tbl := rays.NewTable()
	store := setupGeneratedStore(t, cfg, tbl)

	local := position.Local{SideToMove: board.White}
	local.Squares[config.WhiteKingSlot] = board.A1
	local.Squares[config.BlackKingSlot] = board.H8
	position.RecomputeOccupancy(&local, cfg)
	idx := index.LocalToIndex(cfg, &local)

	e := store.Get(idx)
	require.True(t, e.IsUnresolved(), "far-apart kings must remain a draw, got movecnt=%d", e.Movecnt)
}

// Kings may never be adjacent in a legal position; the index space
// still enumerates such placements, and the side to move always has a
// pseudo-legal capture of the enemy king from an adjacent square. That
// resolves as an immediate PTM-WINS at mate_in=0 rather than ILLEGAL,
// so the predecessor that actually walked a king into the attack learns
// it was a loss (spec.md §4.E's self-penalizing king-safety mechanism).
func TestKKAdjacentKingsResolveAsImmediateCapture(t *testing.T) {
	cfg := kkOnlyConfig()
	tbl := rays.NewTable()
	store := setupGeneratedStore(t, cfg, tbl)

	local := position.Local{SideToMove: board.White}
	local.Squares[config.WhiteKingSlot] = board.E4
	local.Squares[config.BlackKingSlot] = board.E5
	position.RecomputeOccupancy(&local, cfg)
	idx := index.LocalToIndex(cfg, &local)

	e := store.Get(idx)
	require.True(t, e.IsPTMWins(), "expected an immediate PTM-WINS, got movecnt=%d", e.Movecnt)
	require.EqualValues(t, 0, e.MateIn)
}

func setupGeneratedStore(t *testing.T, cfg *config.Config, tbl *rays.Table) *entry.Store {
	t.Helper()
	max := index.MaxIndex(cfg)
	s := entry.NewStore(max)
	init := NewInitializer(cfg, tbl, s)
	require.NoError(t, init.Run())
	require.NoError(t, ApplyMoveRestrictions(cfg, s))
	ip := NewIntraProp(cfg, tbl, s)
	require.NoError(t, ip.RunUntilDone())
	return s
}
