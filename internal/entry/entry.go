// Package entry implements the bit-packed per-index record spec.md §3/
// §4.D defines: a 32-bit word holding movecnt, mate_in, stalemate_cnt,
// and futuremove_cnt, plus the flat entry store that holds one per
// index. Updates go through typed transition methods (PTMWins,
// AddOnePNTMWins, MarkPropagated) rather than raw field writes, so the
// monotonicity invariants spec.md §3 states are enforced at a single
// choke point.
package entry

import (
	"sync/atomic"

	"github.com/hailam/tablebase/internal/tberr"
)

// Sentinel movecnt values (spec.md §3).
const (
	MovecntIllegal        = 255
	MovecntPTMWinsDone    = 254
	MovecntPNTMWinsDone   = 253
	MovecntPTMWinsNeeded  = 252
	MovecntPNTMWinsNeeded = 0
	MovecntStalemate      = 251
	MateInUnknown         = 255

	// StalemateCount caps how many half-moves since the last
	// irreversible move a propagation may travel before it's dropped.
	StalemateCount = 100
)

// Entry is the decoded logical view of one 32-bit record.
type Entry struct {
	Movecnt       uint8
	MateIn        uint8
	StalemateCnt  uint8
	FuturemoveCnt uint8
}

// pack/unpack lay the four fields out as
// [movecnt, mate_in, stalemate_cnt, futuremove_cnt], matching the output
// artifact's four-byte entry format (spec.md §6) bit for bit.
func pack(e Entry) uint32 {
	return uint32(e.Movecnt) | uint32(e.MateIn)<<8 | uint32(e.StalemateCnt)<<16 | uint32(e.FuturemoveCnt)<<24
}

func unpack(w uint32) Entry {
	return Entry{
		Movecnt:       uint8(w),
		MateIn:        uint8(w >> 8),
		StalemateCnt:  uint8(w >> 16),
		FuturemoveCnt: uint8(w >> 24),
	}
}

// IsIllegal, IsPTMWins, IsPNTMWins classify an entry's movecnt state.
func (e Entry) IsIllegal() bool { return e.Movecnt == MovecntIllegal }
func (e Entry) IsPTMWins() bool {
	return e.Movecnt == MovecntPTMWinsDone || e.Movecnt == MovecntPTMWinsNeeded
}
func (e Entry) IsPNTMWins() bool {
	return e.Movecnt == MovecntPNTMWinsDone || e.Movecnt == MovecntPNTMWinsNeeded
}
func (e Entry) IsDone() bool {
	return e.Movecnt == MovecntPTMWinsDone || e.Movecnt == MovecntPNTMWinsDone
}
func (e Entry) NeedsPropagation() bool {
	return e.Movecnt == MovecntPTMWinsNeeded || e.Movecnt == MovecntPNTMWinsNeeded
}
func (e Entry) IsStalemate() bool { return e.Movecnt == MovecntStalemate }
func (e Entry) IsUnresolved() bool {
	return e.Movecnt > MovecntPNTMWinsNeeded && e.Movecnt < MovecntPTMWinsNeeded
}

// Store is a flat array of word-packed entries, one per index. Updates
// go through atomic.Uint32 so a multi-threaded back-propagator (spec.md
// §5) can perform read-modify-write at word granularity without a
// separate lock; single-threaded callers pay only the cost of an atomic
// load/CAS, not a real lock.
type Store struct {
	words []atomic.Uint32
}

// NewStore allocates a zeroed store of size entries. A freshly allocated
// entry decodes to Movecnt=0 (the PNTM-WINS-needed sentinel, harmlessly
// overwritten before use) — the initializer (component E) sets every
// entry to one of the lifecycle states before anything reads it.
func NewStore(size uint64) *Store {
	return &Store{words: make([]atomic.Uint32, size)}
}

// Len returns the number of entries.
func (s *Store) Len() uint64 { return uint64(len(s.words)) }

// Get returns the decoded entry at idx.
func (s *Store) Get(idx uint64) Entry {
	return unpack(s.words[idx].Load())
}

// Set overwrites the entry at idx unconditionally. Used only by the
// initializer (component E), which is establishing first state rather
// than transitioning an existing one.
func (s *Store) Set(idx uint64, e Entry) {
	s.words[idx].Store(pack(e))
}

// PTMWins records that idx has a winning move for the player to move,
// narrowing mate_in to the smaller of the existing and proposed value if
// the entry is already PTM-WINS, and never regressing a PNTM-WINS entry
// (spec.md §4.F's mate-in discipline). Returns a Consistency error if
// idx is already PNTM-WINS, needed or done, since a position cannot flip
// sides.
func (s *Store) PTMWins(idx uint64, mateIn, stalemateCnt uint8) error {
	for {
		old := s.words[idx].Load()
		cur := unpack(old)
		if cur.IsIllegal() {
			return tberr.AtIndex(tberr.Consistency, idx, "PTMWins on an illegal entry")
		}
		if cur.IsPNTMWins() {
			return tberr.AtIndex(tberr.Consistency, idx, "PTMWins on a PNTM-WINS entry")
		}
		next := cur
		if cur.IsPTMWins() {
			if mateIn < cur.MateIn {
				next.MateIn = mateIn
				next.StalemateCnt = stalemateCnt
			}
			// Already PTM-WINS-needed or -done; leave movecnt as is,
			// just narrow mate_in.
		} else {
			next.Movecnt = MovecntPTMWinsNeeded
			next.MateIn = mateIn
			next.StalemateCnt = stalemateCnt
		}
		if s.words[idx].CompareAndSwap(old, pack(next)) {
			return nil
		}
	}
}

// AddOnePNTMWins records one more PTM-losing reply out of idx, only
// flipping the entry to PNTM-WINS-needed once movecnt decrements to 0
// (spec.md §4.F): movecnt starts at the forward move count recorded by
// the initializer and is decremented once per resolved losing reply.
// mate_in is the *maximum* observed mate distance among replies, since
// the player to move at idx will pick the slowest loss.
func (s *Store) AddOnePNTMWins(idx uint64, mateIn, stalemateCnt uint8) error {
	for {
		old := s.words[idx].Load()
		cur := unpack(old)
		if cur.IsIllegal() {
			return tberr.AtIndex(tberr.Consistency, idx, "AddOnePNTMWins on an illegal entry")
		}
		if cur.IsPTMWins() {
			// Already resolved the other way; this reply arrived too
			// late to matter, which is expected under index-order
			// futurebase scanning (spec.md §9) and is not an error.
			return nil
		}
		if cur.Movecnt == MovecntPNTMWinsDone {
			return tberr.AtIndex(tberr.Consistency, idx, "AddOnePNTMWins on an already-finalized PNTM-WINS entry")
		}
		if cur.Movecnt == MovecntPNTMWinsNeeded {
			if mateIn > cur.MateIn || cur.MateIn == MateInUnknown {
				cur.MateIn = mateIn
				cur.StalemateCnt = stalemateCnt
			}
			if s.words[idx].CompareAndSwap(old, pack(cur)) {
				return nil
			}
			continue
		}
		if cur.Movecnt == 0 {
			return tberr.AtIndex(tberr.Consistency, idx, "movecnt underflow")
		}
		next := cur
		next.Movecnt--
		if mateIn > next.MateIn || next.MateIn == MateInUnknown {
			next.MateIn = mateIn
			next.StalemateCnt = stalemateCnt
		}
		if next.Movecnt == MovecntPNTMWinsNeeded {
			// Falls through to PNTM-WINS-needed automatically: the
			// sentinel value and "zero remaining moves" coincide by
			// construction (spec.md §3).
		}
		if s.words[idx].CompareAndSwap(old, pack(next)) {
			return nil
		}
	}
}

// MarkPropagated transitions a WINS-needed entry to its WINS-done
// counterpart, used by the intra-table propagator once it has emitted
// every backward event for that index (spec.md §4.G).
func (s *Store) MarkPropagated(idx uint64) error {
	for {
		old := s.words[idx].Load()
		cur := unpack(old)
		next := cur
		switch cur.Movecnt {
		case MovecntPTMWinsNeeded:
			next.Movecnt = MovecntPTMWinsDone
		case MovecntPNTMWinsNeeded:
			next.Movecnt = MovecntPNTMWinsDone
		default:
			return tberr.AtIndex(tberr.Consistency, idx, "MarkPropagated on an entry that is not WINS-needed (movecnt=%d)", cur.Movecnt)
		}
		if s.words[idx].CompareAndSwap(old, pack(next)) {
			return nil
		}
	}
}

// DecrementFuturemove drops idx's futuremove_cnt by one, returning a
// Consistency error on underflow (spec.md §4.F's "same futuremove
// identity applied twice" guard, enforced by the caller tracking
// FutureVector membership before calling this).
func (s *Store) DecrementFuturemove(idx uint64) error {
	for {
		old := s.words[idx].Load()
		cur := unpack(old)
		if cur.FuturemoveCnt == 0 {
			return tberr.AtIndex(tberr.Consistency, idx, "futuremove_cnt underflow")
		}
		next := cur
		next.FuturemoveCnt--
		if s.words[idx].CompareAndSwap(old, pack(next)) {
			return nil
		}
	}
}

// ReduceMovecntForDiscard subtracts the entry's current futuremove_cnt
// from its movecnt, used by the DISCARD move-restriction policy
// (spec.md §4.I) to treat unhandled futuremoves as impossible.
func (s *Store) ReduceMovecntForDiscard(idx uint64) error {
	for {
		old := s.words[idx].Load()
		cur := unpack(old)
		if cur.IsIllegal() || cur.IsDone() {
			return nil
		}
		next := cur
		if uint8(next.FuturemoveCnt) > next.Movecnt {
			return tberr.AtIndex(tberr.Consistency, idx, "discard would underflow movecnt")
		}
		next.Movecnt -= next.FuturemoveCnt
		next.FuturemoveCnt = 0
		if next.Movecnt == MovecntPNTMWinsNeeded {
			// Coincides with the PNTM-WINS-needed sentinel; correct by
			// construction.
		}
		if s.words[idx].CompareAndSwap(old, pack(next)) {
			return nil
		}
	}
}
