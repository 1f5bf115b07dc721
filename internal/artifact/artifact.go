// Package artifact implements the output/futurebase container format
// spec.md §6 describes: a text header padded to a declared offset,
// followed by the entry blob in index-ascending four-byte records. The
// header records enough identity and provenance to make a tablebase
// file self-describing, and a checksum lets a reader detect a truncated
// or corrupted blob before trusting it.
package artifact

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/config"
	"github.com/hailam/tablebase/internal/entry"
	"github.com/hailam/tablebase/internal/tberr"
)

// DefaultHeaderOffset is where the entry blob starts when a generator
// doesn't override it (spec.md §6).
const DefaultHeaderOffset = 0x1000

// Header is the textual envelope spec.md §6 requires: piece list,
// restrictions, generator identity, generation timestamp, host, and the
// entry-blob offset. It has no mandated schema, so this is a simple
// line-oriented key: value format, one declaration per line, easy to
// both write and mmap-skip-past.
type Header struct {
	Mobiles        []board.Piece
	Restriction    [2]config.Restriction
	GeneratorID    string
	GeneratedAt    time.Time
	Host           string
	EntryBlobOffset int64
	EntryChecksum  uint64
}

func mobileToken(p board.Piece) string {
	color := "white"
	if p.Color == board.Black {
		color = "black"
	}
	return color + ":" + strings.ToLower(p.Kind.String())
}

func parseMobileToken(s string) (board.Piece, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return board.Piece{}, fmt.Errorf("artifact: malformed mobile token %q", s)
	}
	var color board.Color
	switch parts[0] {
	case "white":
		color = board.White
	case "black":
		color = board.Black
	default:
		return board.Piece{}, fmt.Errorf("artifact: unknown color in mobile token %q", s)
	}
	var kind board.Kind
	switch parts[1] {
	case "king":
		kind = board.King
	case "queen":
		kind = board.Queen
	case "rook":
		kind = board.Rook
	case "bishop":
		kind = board.Bishop
	case "knight":
		kind = board.Knight
	case "pawn":
		kind = board.Pawn
	case "pawnep":
		kind = board.PawnEP
	default:
		return board.Piece{}, fmt.Errorf("artifact: unknown kind in mobile token %q", s)
	}
	return board.Piece{Kind: kind, Color: color}, nil
}

// writeHeaderBytes renders h as lines of "key: value", padded with trailing
// newlines out to offset bytes.
func writeHeaderBytes(h Header) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "format: tablebase-v1\n")
	mobiles := make([]string, len(h.Mobiles))
	for i, p := range h.Mobiles {
		mobiles[i] = mobileToken(p)
	}
	fmt.Fprintf(&b, "mobiles: %s\n", strings.Join(mobiles, ","))
	fmt.Fprintf(&b, "restriction.white: %s\n", h.Restriction[board.White])
	fmt.Fprintf(&b, "restriction.black: %s\n", h.Restriction[board.Black])
	fmt.Fprintf(&b, "generator: %s\n", h.GeneratorID)
	fmt.Fprintf(&b, "generated_at: %s\n", h.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "host: %s\n", h.Host)
	fmt.Fprintf(&b, "entry_blob_offset: %d\n", h.EntryBlobOffset)
	fmt.Fprintf(&b, "entry_checksum: %d\n", h.EntryChecksum)
	out := make([]byte, h.EntryBlobOffset)
	copy(out, b.String())
	for i := len(b.String()); i < len(out); i++ {
		out[i] = '\n'
	}
	return out
}

func parseHeaderBytes(raw []byte) (Header, error) {
	var h Header
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		kv := strings.SplitN(line, ": ", 2)
		if len(kv) != 2 {
			continue
		}
		key, val := kv[0], kv[1]
		switch key {
		case "mobiles":
			if val != "" {
				for _, tok := range strings.Split(val, ",") {
					p, err := parseMobileToken(tok)
					if err != nil {
						return h, err
					}
					h.Mobiles = append(h.Mobiles, p)
				}
			}
		case "restriction.white":
			r, err := config.ParseRestriction(val)
			if err != nil {
				return h, err
			}
			h.Restriction[board.White] = r
		case "restriction.black":
			r, err := config.ParseRestriction(val)
			if err != nil {
				return h, err
			}
			h.Restriction[board.Black] = r
		case "generator":
			h.GeneratorID = val
		case "generated_at":
			t, err := time.Parse(time.RFC3339, val)
			if err != nil {
				return h, err
			}
			h.GeneratedAt = t
		case "host":
			h.Host = val
		case "entry_blob_offset":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return h, err
			}
			h.EntryBlobOffset = n
		case "entry_checksum":
			n, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return h, err
			}
			h.EntryChecksum = n
		}
	}
	return h, scanner.Err()
}

// entryBlobBytes renders a store's entries in index-ascending
// [movecnt, mate_in, stalemate_cnt, futuremove_cnt] quadruplets.
func entryBlobBytes(s *entry.Store) []byte {
	n := s.Len()
	out := make([]byte, n*4)
	for i := uint64(0); i < n; i++ {
		e := s.Get(i)
		out[i*4+0] = e.Movecnt
		out[i*4+1] = e.MateIn
		out[i*4+2] = e.StalemateCnt
		out[i*4+3] = e.FuturemoveCnt
	}
	return out
}

// Write renders h and s to path atomically: the file is built in a
// temp location and renamed into place, so a crash mid-write never
// leaves a partially-written artifact at path (spec.md §7's "no partial
// outputs" rule).
func Write(path string, h Header, s *entry.Store) error {
	if h.EntryBlobOffset == 0 {
		h.EntryBlobOffset = DefaultHeaderOffset
	}
	blob := entryBlobBytes(s)
	h.EntryChecksum = xxhash.Sum64(blob)

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return tberr.Wrap(tberr.IO, err, "creating artifact temp file %s", tmp)
	}
	defer os.Remove(tmp)

	if _, err := f.Write(writeHeaderBytes(h)); err != nil {
		f.Close()
		return tberr.Wrap(tberr.IO, err, "writing artifact header")
	}
	if _, err := f.Write(blob); err != nil {
		f.Close()
		return tberr.Wrap(tberr.IO, err, "writing artifact entry blob")
	}
	if err := f.Close(); err != nil {
		return tberr.Wrap(tberr.IO, err, "closing artifact temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return tberr.Wrap(tberr.IO, err, "renaming artifact into place")
	}
	return nil
}

// Reader is a memory-mapped, read-only view of an artifact: a
// futurebase input or an artifact reopened for probing.
type Reader struct {
	file   *os.File
	mapped mmap.MMap
	Header Header
}

// Open memory-maps path and parses its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tberr.Wrap(tberr.IO, err, "opening artifact %s", path)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, tberr.Wrap(tberr.IO, err, "mmap artifact %s", path)
	}
	h, err := parseHeaderBytes(m)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, tberr.Wrap(tberr.IO, err, "parsing artifact header %s", path)
	}
	return &Reader{file: f, mapped: m, Header: h}, nil
}

// Close unmaps the artifact and closes its file handle.
func (r *Reader) Close() error {
	if err := r.mapped.Unmap(); err != nil {
		return err
	}
	return r.file.Close()
}

// EntryAt decodes the four-byte record at index idx from the mapped
// entry blob.
func (r *Reader) EntryAt(idx uint64) entry.Entry {
	off := r.Header.EntryBlobOffset + int64(idx)*4
	b := r.mapped[off : off+4]
	return entry.Entry{
		Movecnt:       b[0],
		MateIn:        b[1],
		StalemateCnt:  b[2],
		FuturemoveCnt: b[3],
	}
}

// VerifyChecksum re-hashes the mapped entry blob and compares it against
// the header's recorded checksum, catching truncation or corruption
// before a reader trusts the file.
func (r *Reader) VerifyChecksum(numEntries uint64) error {
	end := r.Header.EntryBlobOffset + int64(numEntries)*4
	if end > int64(len(r.mapped)) {
		return tberr.New(tberr.IO, "artifact entry blob truncated")
	}
	blob := r.mapped[r.Header.EntryBlobOffset:end]
	if xxhash.Sum64(blob) != r.Header.EntryChecksum {
		return tberr.New(tberr.IO, "artifact entry blob checksum mismatch")
	}
	return nil
}
