package generate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/index"
	"github.com/hailam/tablebase/internal/position"
	"github.com/hailam/tablebase/internal/rays"
)

// krkOnlyConfig builds a king+rook vs king configuration with black's
// otherwise-unresolved rook-capture futuremoves discarded, standing in
// for the real king+rook-vs-king-minus-rook futurebase this engine
// would normally consult (spec.md §4.F) to resolve them properly.
func krkOnlyConfig() *config.Config {
	cfg := &config.Config{
		Mobiles: []board.Piece{
			{Kind: board.King, Color: board.White},
			{Kind: board.King, Color: board.Black},
			{Kind: board.Rook, Color: board.White},
		},
		PromotionPossibilities: config.DefaultPromotionPossibilities,
	}
	cfg.Restriction[board.Black] = config.RestrictDiscard
	return cfg
}

func localIndex(t *testing.T, cfg *config.Config, stm board.Color, wk, bk, wr board.Square) uint64 {
	t.Helper()
	local := position.Local{SideToMove: stm}
	local.Squares[0] = wk
	local.Squares[1] = bk
	local.Squares[2] = wr
	position.RecomputeOccupancy(&local, cfg)
	return index.LocalToIndex(cfg, &local)
}

// The textbook ladder-mate position: White king b6 boxes in the a8 king
// together with a rook delivering check along the back rank. Every
// pseudo-legal reply of Black's leaves its king capturable (mate_in 0),
// so this resolves as an immediate loss for the side to move, one ply
// above those king captures: mate_in 1.
func TestKRKBackRankMateIsImmediateLoss(t *testing.T) {
	cfg := krkOnlyConfig()
	tbl := rays.NewTable()
	store := setupGeneratedStore(t, cfg, tbl)

	idx := localIndex(t, cfg, board.Black, board.B6, board.A8, board.H8)
	e := store.Get(idx)
	require.True(t, e.IsPNTMWins(), "expected an immediate loss for black, got movecnt=%d", e.Movecnt)
	require.EqualValues(t, 1, e.MateIn)
}

// One ply earlier, with White to move and the rook still on the h-file
// rather than the back rank, White's Rh8 reaches the mate above; the
// predecessor resolves as a win in one move, stored as mate_in 2 (one
// more than the mated position's mate_in 1).
func TestKRKOneMoveFromMateResolvesToWinInOne(t *testing.T) {
	cfg := krkOnlyConfig()
	tbl := rays.NewTable()
	store := setupGeneratedStore(t, cfg, tbl)

	idx := localIndex(t, cfg, board.White, board.B6, board.A8, board.H5)
	e := store.Get(idx)
	require.True(t, e.IsPTMWins(), "expected a win for white, got movecnt=%d", e.Movecnt)
	require.EqualValues(t, 2, e.MateIn)
}

// Kings adjacent is never a legal configuration regardless of the
// rook's placement; the side to move always has a pseudo-legal capture
// of the enemy king, resolving as an immediate PTM-WINS at mate_in=0
// rather than ILLEGAL (spec.md §4.E).
func TestKRKAdjacentKingsResolveAsImmediateCapture(t *testing.T) {
	cfg := krkOnlyConfig()
	tbl := rays.NewTable()
	store := setupGeneratedStore(t, cfg, tbl)

	idx := localIndex(t, cfg, board.White, board.E4, board.E5, board.A1)
	e := store.Get(idx)
	require.True(t, e.IsPTMWins(), "expected an immediate PTM-WINS, got movecnt=%d", e.Movecnt)
	require.EqualValues(t, 0, e.MateIn)
}
