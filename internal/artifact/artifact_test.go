package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hailam/tablebase/internal/board"
	"github.com/hailam/tablebase/internal/entry"
)

func TestWriteReadRoundTrip(t *testing.T) {
	store := entry.NewStore(8)
	store.Set(0, entry.Entry{Movecnt: 5, MateIn: 3, StalemateCnt: 1, FuturemoveCnt: 2})
	store.Set(7, entry.Entry{Movecnt: entry.MovecntIllegal})

	h := Header{
		Mobiles: []board.Piece{
			{Kind: board.King, Color: board.White},
			{Kind: board.King, Color: board.Black},
		},
		GeneratorID: "tablebase-test",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Host:        "testhost",
	}

	path := filepath.Join(t.TempDir(), "kk.tbb")
	require.NoError(t, Write(path, h, store))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, h.GeneratorID, r.Header.GeneratorID)
	require.Len(t, r.Header.Mobiles, 2)
	require.NoError(t, r.VerifyChecksum(store.Len()))

	e0 := r.EntryAt(0)
	require.Equal(t, store.Get(0), e0)
	e7 := r.EntryAt(7)
	require.Equal(t, store.Get(7), e7)
}

func TestVerifyChecksumDetectsCorruption(t *testing.T) {
	store := entry.NewStore(4)
	store.Set(0, entry.Entry{Movecnt: 1, MateIn: 1})
	h := Header{GeneratorID: "x", GeneratedAt: time.Now(), Host: "h"}
	path := filepath.Join(t.TempDir(), "bad.tbb")
	require.NoError(t, Write(path, h, store))

	// The reader's mapping is read-only, so corrupt the file on disk.
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xFF}, DefaultHeaderOffset)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Error(t, r.VerifyChecksum(store.Len()))
}

func TestMobileTokenRoundTrip(t *testing.T) {
	p := board.Piece{Kind: board.Knight, Color: board.Black}
	tok := mobileToken(p)
	back, err := parseMobileToken(tok)
	require.NoError(t, err)
	require.Equal(t, p, back)
}
