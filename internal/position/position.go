// Package position holds the two position representations spec.md §3
// defines and the conversions between them: LocalPosition, tied to a
// specific mobile piece list and index space, and GlobalPosition, a
// portable 64-square board used to translate between tablebases whose
// mobile lists differ.
package position

import (
	"fmt"

	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
)

// NoSquarePlaceholder marks a mobile-piece slot that a global-to-local
// conversion couldn't place because the source global position lacks
// that piece (spec.md §4.B); the futurebase back-propagator fills it in
// before the position is used for indexing.
const NoSquarePlaceholder = board.NoSquare

// Local is the tuple spec.md §3 requires: side-to-move, one square per
// mobile piece, and three occupancy masks that must stay in sync with
// the squares.
type Local struct {
	SideToMove board.Color
	Squares    [config.MaxMobiles]board.Square
	All        board.Bitboard
	White      board.Bitboard
	Black      board.Bitboard
}

// RecomputeOccupancy rebuilds l's All, White and Black masks from its
// squares; the caller supplies cfg since Local itself carries no
// reference to the config.
func RecomputeOccupancy(l *Local, cfg *config.Config) {
	l.All, l.White, l.Black = 0, 0, 0
	for i, p := range cfg.Mobiles {
		sq := l.Squares[i]
		if sq == board.NoSquare {
			continue
		}
		l.All = l.All.Set(sq)
		if p.Color == board.White {
			l.White = l.White.Set(sq)
		} else {
			l.Black = l.Black.Set(sq)
		}
	}
}

// Global is the portable 64-square representation spec.md §3 defines:
// an ASCII board (' ' for empty, FEN letters, lowercase for black),
// side-to-move, and an optional en-passant square.
type Global struct {
	Board      [64]byte
	SideToMove board.Color
	EnPassant  board.Square // board.NoSquare if none
}

// NewEmptyGlobal returns a Global with every square blank.
func NewEmptyGlobal() Global {
	g := Global{EnPassant: board.NoSquare}
	for i := range g.Board {
		g.Board[i] = ' '
	}
	return g
}

// LocalToGlobal renders a local position against cfg's mobile list into
// a portable global position (spec.md §4.B). A mobile at PawnEP is
// rendered as a plain pawn on the board, and the EnPassant field is set
// to that pawn's square so the condition round-trips.
func LocalToGlobal(cfg *config.Config, l *Local) Global {
	g := NewEmptyGlobal()
	g.SideToMove = l.SideToMove
	for i, p := range cfg.Mobiles {
		sq := l.Squares[i]
		if sq == board.NoSquare {
			continue
		}
		piece := board.Piece{Kind: p.Kind, Color: p.Color}
		g.Board[sq] = piece.Char()
		if p.Kind == board.PawnEP {
			g.EnPassant = sq
		}
	}
	return g
}

// GlobalToLocal matches cfg's mobile kinds+colors against the board
// letters. Mobiles the global position lacks are left at NoSquare
// (spec.md §4.B); the caller (typically the futurebase back-propagator)
// is expected to fill those in before treating the result as a complete
// position.
//
// A pawn on the global position's EnPassant square is recognized as
// PawnEP rather than a plain Pawn if cfg's corresponding mobile slot is
// declared PawnEP — callers that want en-passant completion (spec.md
// §9) must request it by configuring that mobile as PawnEP.
func GlobalToLocal(cfg *config.Config, g *Global) (Local, error) {
	l := Local{SideToMove: g.SideToMove}
	for i := range l.Squares {
		l.Squares[i] = board.NoSquare
	}

	used := make([]bool, 64)
	for i, m := range cfg.Mobiles {
		sq, ok := findMatchingSquare(g, m, used)
		if !ok {
			continue
		}
		used[sq] = true
		l.Squares[i] = sq
	}
	RecomputeOccupancy(&l, cfg)
	return l, nil
}

// findMatchingSquare scans the board for an unused square whose letter
// matches m's kind and color, preferring the EnPassant square when m is
// PawnEP.
func findMatchingSquare(g *Global, m board.Piece, used []bool) (board.Square, bool) {
	if m.Kind == board.PawnEP {
		if g.EnPassant != board.NoSquare && !used[g.EnPassant] {
			want := board.Piece{Kind: board.Pawn, Color: m.Color}
			if g.Board[g.EnPassant] == want.Char() {
				return g.EnPassant, true
			}
		}
		return board.NoSquare, false
	}
	want := m
	wantChar := want.Char()
	for sq := board.Square(0); sq < 64; sq++ {
		if used[sq] {
			continue
		}
		if g.Board[sq] == wantChar {
			if m.Kind == board.Pawn && sq == g.EnPassant {
				// Reserved for a PawnEP mobile slot, if one exists.
				continue
			}
			return sq, true
		}
	}
	return board.NoSquare, false
}

// InvertColorsOfGlobal exchanges piece case and mirrors the board
// vertically (rank r -> 7-r) so that pawn legality (never on rank 0/7)
// is preserved (spec.md §4.F). It is an involution: applying it twice
// returns the original position.
func InvertColorsOfGlobal(g Global) Global {
	out := NewEmptyGlobal()
	out.SideToMove = g.SideToMove.Other()
	for sq := board.Square(0); sq < 64; sq++ {
		c := g.Board[sq]
		if c == ' ' {
			continue
		}
		mirrored := mirrorVertical(sq)
		out.Board[mirrored] = invertCase(c)
	}
	if g.EnPassant != board.NoSquare {
		out.EnPassant = mirrorVertical(g.EnPassant)
	}
	return out
}

func mirrorVertical(sq board.Square) board.Square {
	file, rank := sq.File(), sq.Rank()
	return board.NewSquare(file, 7-rank)
}

func invertCase(c byte) byte {
	switch {
	case c >= 'A' && c <= 'Z':
		return c + ('a' - 'A')
	case c >= 'a' && c <= 'z':
		return c - ('a' - 'A')
	default:
		return c
	}
}

// Validate checks the invariants spec.md §3 states for a Local
// position: no two mobiles share a square, pawns only on ranks 1-6, and
// the occupancy masks match the squares exactly. It does not check
// side-to-move legality (king left in check) — that is the initializer's
// job, applied lazily per spec.md §4.B.
func Validate(cfg *config.Config, l *Local) error {
	seen := make(map[board.Square]int, len(cfg.Mobiles))
	for i, p := range cfg.Mobiles {
		sq := l.Squares[i]
		if sq == board.NoSquare {
			return fmt.Errorf("position: mobile %d has no square", i)
		}
		if other, dup := seen[sq]; dup {
			return fmt.Errorf("position: mobiles %d and %d share square %s", other, i, sq)
		}
		seen[sq] = i
		if p.Kind.IsPawn() {
			r := sq.Rank()
			if r == 0 || r == 7 {
				return fmt.Errorf("position: mobile %d (pawn) on back rank %s", i, sq)
			}
		}
	}
	var all, white, black board.Bitboard
	for i, p := range cfg.Mobiles {
		sq := l.Squares[i]
		all = all.Set(sq)
		if p.Color == board.White {
			white = white.Set(sq)
		} else {
			black = black.Set(sq)
		}
	}
	if all != l.All || white != l.White || black != l.Black {
		return fmt.Errorf("position: occupancy masks out of sync with squares")
	}
	return nil
}
