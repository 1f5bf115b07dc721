package generate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/rays"
)

// kqkOnlyConfig builds a king+queen vs king configuration, discarding
// black's otherwise-unresolved queen-capture futuremoves the same way
// krkOnlyConfig stands in for a real king+queen-vs-king-minus-queen
// futurebase (spec.md §4.F).
func kqkOnlyConfig() *config.Config {
	cfg := &config.Config{
		Mobiles: []board.Piece{
			{Kind: board.King, Color: board.White},
			{Kind: board.King, Color: board.Black},
			{Kind: board.Queen, Color: board.White},
		},
		PromotionPossibilities: config.DefaultPromotionPossibilities,
	}
	cfg.Restriction[board.Black] = config.RestrictDiscard
	return cfg
}

// The queen delivers mate on g7 with the white king supporting from g6,
// boxing the black king on h8: both king steps leave it capturable
// (mate_in 0) and the queen capture is a discarded futuremove, so this
// resolves as an immediate loss for the side to move at mate_in 1.
func TestKQKCornerMateIsImmediateLoss(t *testing.T) {
	cfg := kqkOnlyConfig()
	tbl := rays.NewTable()
	store := setupGeneratedStore(t, cfg, tbl)

	idx := localIndex(t, cfg, board.Black, board.G6, board.H8, board.G7)
	e := store.Get(idx)
	require.True(t, e.IsPNTMWins(), "expected an immediate loss for black, got movecnt=%d", e.Movecnt)
	require.EqualValues(t, 1, e.MateIn)
}

// Kings may never be adjacent regardless of the queen's placement; the
// side to move always has a pseudo-legal capture of the enemy king,
// resolving as an immediate PTM-WINS at mate_in=0 rather than ILLEGAL
// (spec.md §4.E).
func TestKQKAdjacentKingsResolveAsImmediateCapture(t *testing.T) {
	cfg := kqkOnlyConfig()
	tbl := rays.NewTable()
	store := setupGeneratedStore(t, cfg, tbl)

	idx := localIndex(t, cfg, board.White, board.E4, board.E5, board.A1)
	e := store.Get(idx)
	require.True(t, e.IsPTMWins(), "expected an immediate PTM-WINS, got movecnt=%d", e.Movecnt)
	require.EqualValues(t, 0, e.MateIn)
}
