package position

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
)

func krkConfig() *config.Config {
	return &config.Config{
		Mobiles: []board.Piece{
			{Kind: board.King, Color: board.White},
			{Kind: board.King, Color: board.Black},
			{Kind: board.Rook, Color: board.White},
		},
	}
}

func TestLocalGlobalRoundTrip(t *testing.T) {
	cfg := krkConfig()
	local := Local{SideToMove: board.White}
	local.Squares[0] = board.E1
	local.Squares[1] = board.D3
	local.Squares[2] = board.A1
	RecomputeOccupancy(&local, cfg)
	require.NoError(t, Validate(cfg, &local))

	g := LocalToGlobal(cfg, &local)
	require.Equal(t, byte('K'), g.Board[board.E1])
	require.Equal(t, byte('k'), g.Board[board.D3])
	require.Equal(t, byte('R'), g.Board[board.A1])

	back, err := GlobalToLocal(cfg, &g)
	require.NoError(t, err)
	require.Equal(t, local.SideToMove, back.SideToMove)
	require.Equal(t, local.Squares, back.Squares)
	require.Equal(t, local.All, back.All)
}

func TestGlobalToLocalLeavesMissingMobileUnplaced(t *testing.T) {
	cfg := krkConfig()
	g := NewEmptyGlobal()
	g.Board[board.E1] = 'K'
	g.Board[board.D3] = 'k'
	// Rook omitted, as if the futurebase doesn't carry it yet.

	local, err := GlobalToLocal(cfg, &g)
	require.NoError(t, err)
	require.Equal(t, board.NoSquare, local.Squares[2])
}

func TestInvertColorsIsInvolution(t *testing.T) {
	cfg := krkConfig()
	local := Local{SideToMove: board.Black}
	local.Squares[0] = board.E1
	local.Squares[1] = board.D7
	local.Squares[2] = board.H4
	RecomputeOccupancy(&local, cfg)

	g := LocalToGlobal(cfg, &local)
	twice := InvertColorsOfGlobal(InvertColorsOfGlobal(g))
	require.Equal(t, g, twice)

	once := InvertColorsOfGlobal(g)
	require.Equal(t, byte('k'), once.Board[board.E1.Mirror()])
	require.Equal(t, board.Black.Other(), once.SideToMove)
}

func TestValidateRejectsSquareCollision(t *testing.T) {
	cfg := krkConfig()
	local := Local{SideToMove: board.White}
	local.Squares[0] = board.E1
	local.Squares[1] = board.D3
	local.Squares[2] = board.E1 // collides with the white king
	RecomputeOccupancy(&local, cfg)
	require.Error(t, Validate(cfg, &local))
}

func TestValidateRejectsPawnOnBackRank(t *testing.T) {
	cfg := &config.Config{Mobiles: []board.Piece{
		{Kind: board.King, Color: board.White},
		{Kind: board.King, Color: board.Black},
		{Kind: board.Pawn, Color: board.White},
	}}
	local := Local{SideToMove: board.White}
	local.Squares[0] = board.E1
	local.Squares[1] = board.D7
	local.Squares[2] = board.A8
	RecomputeOccupancy(&local, cfg)
	require.Error(t, Validate(cfg, &local))
}
