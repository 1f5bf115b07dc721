package proptable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertAndDrainInMemory(t *testing.T) {
	tbl := NewTable(1024, t.TempDir())
	defer tbl.Close()

	require.NoError(t, tbl.InsertNewPropentry(Entry{Index: 5, DTM: 3, Flag: PropagatePTMWins, FuturemoveID: -1}))
	require.NoError(t, tbl.InsertNewPropentry(Entry{Index: 2, DTM: 1, Flag: PropagatePNTMWins, FuturemoveID: -1}))
	require.NoError(t, tbl.InsertNewPropentry(Entry{Index: 5, DTM: 4, Flag: PropagateDraw, FuturemoveID: 7}))

	tbl.Promote()

	got, err := tbl.DrainIndex(2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.EqualValues(t, 1, got[0].DTM)

	got, err = tbl.DrainIndex(5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = tbl.DrainIndex(9)
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, tbl.Discard())
}

func TestSpillsPastBudget(t *testing.T) {
	tbl := NewTable(1, t.TempDir())
	defer tbl.Close()

	require.NoError(t, tbl.InsertNewPropentry(Entry{Index: 1, DTM: 1, FuturemoveID: -1}))
	require.NoError(t, tbl.InsertNewPropentry(Entry{Index: 3, DTM: 2, FuturemoveID: -1}))
	require.NoError(t, tbl.InsertNewPropentry(Entry{Index: 3, DTM: 9, FuturemoveID: 2}))

	tbl.Promote()

	got, err := tbl.DrainIndex(1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = tbl.DrainIndex(3)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestOutOfOrderDrainIsFatal(t *testing.T) {
	tbl := NewTable(1024, t.TempDir())
	defer tbl.Close()

	require.NoError(t, tbl.InsertNewPropentry(Entry{Index: 5, FuturemoveID: -1}))
	tbl.Promote()

	_, err := tbl.DrainIndex(5)
	require.NoError(t, err)

	_, err = tbl.DrainIndex(2)
	require.Error(t, err)
}
