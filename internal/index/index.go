// Package index implements the position-to-integer bijection spec.md
// §3/§4.C: the deliberately unminimized "naive" indexing, where illegal
// positions occupy holes in the index space that the entry store marks
// ILLEGAL rather than excluding from the range.
package index

import (
	"fmt"

	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/position"
)

// Index is the dense integer a Local position maps to. uint64 holds
// max_index even for MaxMobiles=8 (2*64^8 = 2^49, which would overflow
// uint32; see MaxIndex).
type Index = uint64

// MaxIndex returns 2 * 64^N for a configuration with N mobiles, per
// spec.md §3's index formula.
func MaxIndex(cfg *config.Config) Index {
	n := uint64(cfg.NumMobiles())
	max := uint64(2)
	for i := uint64(0); i < n; i++ {
		max *= 64
	}
	return max
}

// LocalToIndex builds `side_to_move | (sq[0]<<1) | (sq[1]<<7) | ...`
// (spec.md §3). It does not validate the position; callers that need a
// guaranteed-legal round trip should call position.Validate first, or
// rely on IndexToLocal's own decoding checks when going the other way.
func LocalToIndex(cfg *config.Config, l *position.Local) Index {
	idx := Index(l.SideToMove)
	shift := uint(1)
	for i := range cfg.Mobiles {
		idx |= Index(l.Squares[i]) << shift
		shift += 6
	}
	return idx
}

// IndexToLocal is LocalToIndex's strict inverse over legal indices. It
// fails (returns an error, not a panic) on blatant illegality: square
// collisions, same-square duplicates, or a pawn decoded onto rank 0 or 7
// (spec.md §4.C). Legality beyond that — e.g. the side not to move being
// left in check — is the initializer's job, enforced lazily by marking
// such an index ILLEGAL in the entry store rather than rejecting it here.
func IndexToLocal(cfg *config.Config, idx Index) (position.Local, error) {
	var l position.Local
	l.SideToMove = board.Color(idx & 1)

	rest := idx >> 1
	seen := make(map[board.Square]bool, len(cfg.Mobiles))
	for i, p := range cfg.Mobiles {
		sq := board.Square(rest & 0x3F)
		rest >>= 6

		if !sq.IsValid() {
			return l, fmt.Errorf("index: square %d out of range decoding mobile %d", sq, i)
		}
		if seen[sq] {
			return l, fmt.Errorf("index: square collision at %s decoding mobile %d", sq, i)
		}
		seen[sq] = true

		if p.Kind.IsPawn() {
			r := sq.Rank()
			if r == 0 || r == 7 {
				return l, fmt.Errorf("index: pawn mobile %d decoded onto back rank %s", i, sq)
			}
		}
		l.Squares[i] = sq
	}

	position.RecomputeOccupancy(&l, cfg)
	return l, nil
}

// IndexToGlobal decodes idx to a Local, then renders it as a Global
// position, for consumers (futurebase readers, probe tools) that want
// the portable representation directly.
func IndexToGlobal(cfg *config.Config, idx Index) (position.Global, error) {
	l, err := IndexToLocal(cfg, idx)
	if err != nil {
		return position.Global{}, err
	}
	return position.LocalToGlobal(cfg, &l), nil
}
