// Package proptable implements the external-memory propagation table
// spec.md §4.H describes: a priority queue of propagation events keyed
// by destination index ascending, presenting a sequential-in,
// sequential-out interface to the propagators even though it may spill
// to disk when its in-memory budget is exceeded.
//
// The in-memory tier is a container/heap priority queue; once it grows
// past the configured budget, further entries spill into a badger
// key-value store keyed by a big-endian index so badger's own LSM
// ordering does the sorting for the spilled portion. This mirrors how
// the teacher's internal/storage package already wraps badger for
// simple keyed persistence (SavePreferences/LoadStats), adapted here
// into an ordered spill rather than a settings blob.
package proptable

import (
	"container/heap"
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/tablebase/internal/tberr"
)

// PTMWinsFlag narrows a proptable entry's propagation kind, matching
// spec.md §3's proptable_entry fields.
type PTMWinsFlag int

const (
	PropagateDraw PTMWinsFlag = iota
	PropagatePTMWins
	PropagatePNTMWins
)

// Entry is one propagation event: spec.md §3's (index, dtm, movecnt,
// PTM_wins_flag, futuremove_id) tuple. DTM carries the proposed mate_in
// to apply; there is no separate movecnt field.
type Entry struct {
	Index       uint64
	DTM         uint8
	Flag        PTMWinsFlag
	FuturemoveID int // -1 if this event isn't tied to a specific futuremove
}

// heapItem adapts Entry for container/heap, ordering by Index ascending
// (spec.md §3: "Sorted by index ascending; stable w.r.t. producer order
// is not required").
type heapItem Entry

type entryHeap []heapItem

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].Index < h[j].Index }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Table is the proptable itself: an output queue being filled by the
// current propagation pass, and (after Promote moves it) an input queue
// being drained in index order.
type Table struct {
	memBudget int // max in-heap entries before spilling to db

	output   entryHeap
	spillOut *badger.DB
	spillDir string

	input     entryHeap
	inputDB   *badger.DB
	lastInKey uint64
	haveLast  bool

	spillSeq uint64
}

// NewTable builds an empty proptable. memBudgetEntries bounds how many
// entries the in-memory heap holds before new inserts spill to a badger
// store rooted at spillDir.
func NewTable(memBudgetEntries int, spillDir string) *Table {
	return &Table{memBudget: memBudgetEntries, spillDir: spillDir}
}

// Close releases any spill databases this table opened.
func (t *Table) Close() error {
	if t.spillOut != nil {
		if err := t.spillOut.Close(); err != nil {
			return err
		}
		t.spillOut = nil
	}
	if t.inputDB != nil {
		if err := t.inputDB.Close(); err != nil {
			return err
		}
		t.inputDB = nil
	}
	return nil
}

// InsertNewPropentry pushes one propagation event into the output queue
// (spec.md §4.H), spilling to badger once the in-memory heap is full.
func (t *Table) InsertNewPropentry(e Entry) error {
	if len(t.output) < t.memBudget || t.memBudget <= 0 {
		heap.Push(&t.output, heapItem(e))
		return nil
	}
	db, err := t.outputSpillDB()
	if err != nil {
		return err
	}
	t.spillSeq++
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(spillKey(e.Index, t.spillSeq), encodeEntry(e))
	})
}

// spillKey is index-major so a prefix scan on indexKey(idx) finds every
// entry spilled for that index, with a sequence suffix keeping entries
// for the same index from colliding.
func spillKey(idx, seq uint64) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], idx)
	binary.BigEndian.PutUint64(b[8:16], seq)
	return b
}

func (t *Table) outputSpillDB() (*badger.DB, error) {
	if t.spillOut != nil {
		return t.spillOut, nil
	}
	opts := badger.DefaultOptions(t.spillDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, tberr.Wrap(tberr.IO, err, "opening proptable spill directory %s", t.spillDir)
	}
	t.spillOut = db
	return db, nil
}

func indexKey(idx uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, idx)
	return b
}

func encodeEntry(e Entry) []byte {
	b := make([]byte, 14)
	binary.BigEndian.PutUint64(b[0:8], e.Index)
	b[8] = e.DTM
	b[9] = byte(e.Flag)
	binary.BigEndian.PutUint32(b[10:14], uint32(int32(e.FuturemoveID)))
	return b
}

func decodeEntry(b []byte) Entry {
	return Entry{
		Index:        binary.BigEndian.Uint64(b[0:8]),
		DTM:          b[8],
		Flag:         PTMWinsFlag(b[9]),
		FuturemoveID: int(int32(binary.BigEndian.Uint32(b[10:14]))),
	}
}

// Promote moves the current output queue (and its spill store, if any)
// into the input position, ready for the next Pass to drain, and resets
// the output side to empty (spec.md §4.H step 1).
func (t *Table) Promote() {
	t.input = t.output
	t.output = nil
	t.inputDB = t.spillOut
	t.spillOut = nil
	t.lastInKey = 0
	t.haveLast = false
}

// DrainIndex removes and returns every promoted entry whose Index equals
// idx, from both the in-memory heap and the spill store, enforcing
// monotonic delivery (spec.md §4.H's queue contract): a key observed
// smaller than one already delivered is a fatal consistency error.
func (t *Table) DrainIndex(idx uint64) ([]Entry, error) {
	var out []Entry

	for len(t.input) > 0 && t.input[0].Index == idx {
		item := heap.Pop(&t.input).(heapItem)
		out = append(out, Entry(item))
	}
	if len(t.input) > 0 && t.input[0].Index < idx {
		return nil, tberr.AtIndex(tberr.Consistency, idx, "proptable heap delivered out-of-order key %d", t.input[0].Index)
	}

	if t.inputDB != nil {
		spilled, err := t.drainSpillIndex(idx)
		if err != nil {
			return nil, err
		}
		out = append(out, spilled...)
	}

	if t.haveLast && idx < t.lastInKey {
		return nil, tberr.AtIndex(tberr.Consistency, idx, "proptable drained out of order (last=%d)", t.lastInKey)
	}
	t.lastInKey = idx
	t.haveLast = true
	return out, nil
}

func (t *Table) drainSpillIndex(idx uint64) ([]Entry, error) {
	var out []Entry
	err := t.inputDB.Update(func(txn *badger.Txn) error {
		key := indexKey(idx)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		var toDelete [][]byte
		for it.Seek(key); it.ValidForPrefix(key); it.Next() {
			item := it.Item()
			var raw []byte
			err := item.Value(func(v []byte) error {
				raw = append(raw, v...)
				return nil
			})
			if err != nil {
				return err
			}
			out = append(out, decodeEntry(raw))
			toDelete = append(toDelete, append([]byte{}, item.Key()...))
		}
		for _, k := range toDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, tberr.Wrap(tberr.IO, err, "draining proptable spill at index %d", idx)
	}
	return out, nil
}

// Discard drops the input side entirely once a pass completes (spec.md
// §4.H step 3).
func (t *Table) Discard() error {
	t.input = nil
	if t.inputDB != nil {
		if err := t.inputDB.Close(); err != nil {
			return fmt.Errorf("proptable: closing spent input spill: %w", err)
		}
		t.inputDB = nil
	}
	return nil
}
