package entry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hailam/tablebase/internal/tberr"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	e := Entry{Movecnt: 12, MateIn: 7, StalemateCnt: 3, FuturemoveCnt: 2}
	require.Equal(t, e, unpack(pack(e)))
}

func TestStoreSetGet(t *testing.T) {
	s := NewStore(4)
	s.Set(2, Entry{Movecnt: MovecntIllegal})
	require.True(t, s.Get(2).IsIllegal())
	require.False(t, s.Get(0).IsIllegal())
}

func TestPTMWinsNarrowsMateIn(t *testing.T) {
	s := NewStore(1)
	s.Set(0, Entry{Movecnt: 5})
	require.NoError(t, s.PTMWins(0, 10, 0))
	require.True(t, s.Get(0).IsPTMWins())
	require.EqualValues(t, 10, s.Get(0).MateIn)

	require.NoError(t, s.PTMWins(0, 4, 0))
	require.EqualValues(t, 4, s.Get(0).MateIn)

	// A larger mate_in arriving later must not regress the smaller one.
	require.NoError(t, s.PTMWins(0, 9, 0))
	require.EqualValues(t, 4, s.Get(0).MateIn)
}

func TestPTMWinsRejectsFinalizedPNTM(t *testing.T) {
	s := NewStore(1)
	s.Set(0, Entry{Movecnt: MovecntPNTMWinsDone})
	err := s.PTMWins(0, 3, 0)
	require.Error(t, err)
	require.True(t, tberr.Is(err, tberr.Consistency))
}

func TestAddOnePNTMWinsDecrementsToZero(t *testing.T) {
	s := NewStore(1)
	s.Set(0, Entry{Movecnt: 2, MateIn: MateInUnknown})
	require.NoError(t, s.AddOnePNTMWins(0, 3, 0))
	require.False(t, s.Get(0).NeedsPropagation())
	require.EqualValues(t, 1, s.Get(0).Movecnt)

	require.NoError(t, s.AddOnePNTMWins(0, 5, 0))
	require.True(t, s.Get(0).IsPNTMWins())
	require.EqualValues(t, MovecntPNTMWinsNeeded, s.Get(0).Movecnt)
	require.EqualValues(t, 5, s.Get(0).MateIn)

	// A larger mate_in replaces the smaller: PNTM picks the slowest loss.
	require.NoError(t, s.AddOnePNTMWins(0, 2, 0))
	require.EqualValues(t, 5, s.Get(0).MateIn)
	require.NoError(t, s.AddOnePNTMWins(0, 9, 0))
	require.EqualValues(t, 9, s.Get(0).MateIn)
}

func TestAddOnePNTMWinsIgnoredOncePTMWins(t *testing.T) {
	s := NewStore(1)
	s.Set(0, Entry{Movecnt: MovecntPTMWinsDone, MateIn: 1})
	require.NoError(t, s.AddOnePNTMWins(0, 99, 0))
	require.EqualValues(t, 1, s.Get(0).MateIn)
}

func TestAddOnePNTMWinsUnderflowIsFatal(t *testing.T) {
	s := NewStore(1)
	s.Set(0, Entry{Movecnt: MovecntPNTMWinsNeeded})
	err := s.AddOnePNTMWins(0, 1, 0)
	require.Error(t, err)
	require.True(t, tberr.Is(err, tberr.Consistency))
}

func TestMarkPropagated(t *testing.T) {
	s := NewStore(2)
	s.Set(0, Entry{Movecnt: MovecntPTMWinsNeeded, MateIn: 3})
	require.NoError(t, s.MarkPropagated(0))
	require.EqualValues(t, MovecntPTMWinsDone, s.Get(0).Movecnt)

	s.Set(1, Entry{Movecnt: MovecntPNTMWinsNeeded})
	require.NoError(t, s.MarkPropagated(1))
	require.EqualValues(t, MovecntPNTMWinsDone, s.Get(1).Movecnt)
}

func TestMarkPropagatedRejectsNonNeededEntry(t *testing.T) {
	s := NewStore(1)
	s.Set(0, Entry{Movecnt: 10})
	err := s.MarkPropagated(0)
	require.Error(t, err)
}

func TestDecrementFuturemove(t *testing.T) {
	s := NewStore(1)
	s.Set(0, Entry{Movecnt: 5, FuturemoveCnt: 2})
	require.NoError(t, s.DecrementFuturemove(0))
	require.EqualValues(t, 1, s.Get(0).FuturemoveCnt)
	require.NoError(t, s.DecrementFuturemove(0))
	require.EqualValues(t, 0, s.Get(0).FuturemoveCnt)
	require.Error(t, s.DecrementFuturemove(0))
}

func TestReduceMovecntForDiscard(t *testing.T) {
	s := NewStore(1)
	s.Set(0, Entry{Movecnt: 5, FuturemoveCnt: 3})
	require.NoError(t, s.ReduceMovecntForDiscard(0))
	require.EqualValues(t, 2, s.Get(0).Movecnt)
	require.EqualValues(t, 0, s.Get(0).FuturemoveCnt)
}

func TestFutureVectorSetHasCount(t *testing.T) {
	var v FutureVector
	v = v.Set(0).Set(3)
	require.True(t, v.Has(0))
	require.True(t, v.Has(3))
	require.False(t, v.Has(1))
	require.Equal(t, 2, v.Count())
}

func TestFutureVectorUnhandled(t *testing.T) {
	possible := FutureVector(0).Set(0).Set(1).Set(2)
	handled := FutureVector(0).Set(0).Set(2)
	unhandled := handled.Unhandled(possible)
	require.True(t, unhandled.Has(1))
	require.False(t, unhandled.Has(0))
	require.False(t, unhandled.Has(2))
}
