package exec

import (
	"testing"

	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
	"github.com/stretchr/testify/require"
)

func firstTileGroupTile(t *testing.T) *LogicalTile {
	t.Helper()
	table := createTable(t)
	tg, err := table.GetTileGroup(0)
	require.NoError(t, err)
	return WrapTileGroup(tg)
}

func TestWrapTileGroup(t *testing.T) {
	tile := firstTileGroupTile(t)
	require.Equal(t, 4, tile.NumCols())
	require.Equal(t, testTileGroupCapacity, tile.NumTuples())
	require.Equal(t, testTileGroupCapacity, tile.TotalTuples())
	for colID := 0; colID < tile.NumCols(); colID++ {
		src, err := tile.GetColumnSource(colID)
		require.NoError(t, err)
		require.Equal(t, SourcePhysical, src.Kind)
		require.Equal(t, colID, src.ColumnID)
		require.Equal(t, testSchema.GetColumn(colID), src.Info)
	}
	v, err := tile.GetValue(12, 2)
	require.NoError(t, err)
	require.Equal(t, float64(122), v.GetFloat64())
	schema, err := tile.Schema()
	require.NoError(t, err)
	require.True(t, schema.Equal(testSchema))
}

func TestRemoveVisibility(t *testing.T) {
	tile := firstTileGroupTile(t)
	require.NoError(t, tile.RemoveVisibility(3))
	require.NoError(t, tile.RemoveVisibility(3))
	require.Equal(t, testTileGroupCapacity-1, tile.NumTuples())
	require.False(t, tile.IsVisible(3))
	require.True(t, tile.IsVisible(4))

	_, err := tile.GetValue(3, 0)
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.OutOfRange))

	err = tile.RemoveVisibility(testTileGroupCapacity)
	require.True(t, errors.HasCode(err, errors.OutOfRange))
	err = tile.RemoveVisibility(-1)
	require.True(t, errors.HasCode(err, errors.OutOfRange))
}

func TestIteratorSkipsRemovedTuples(t *testing.T) {
	tile := firstTileGroupTile(t)
	for i := 0; i < testTileGroupCapacity; i++ {
		if i%7 != 0 {
			require.NoError(t, tile.RemoveVisibility(i))
		}
	}
	require.Equal(t, []int{0, 7, 14, 21, 28, 35, 42, 49}, tile.TupleIDs())
	iter := tile.Iterator()
	var ids []int
	for {
		id, ok := iter.Next()
		if !ok {
			break
		}
		ids = append(ids, id)
	}
	require.Equal(t, tile.TupleIDs(), ids)
	_, ok := iter.Next()
	require.False(t, ok)
}

func TestGetValueOutOfRange(t *testing.T) {
	tile := firstTileGroupTile(t)
	_, err := tile.GetValue(testTileGroupCapacity, 0)
	require.True(t, errors.HasCode(err, errors.OutOfRange))
	_, err = tile.GetValue(0, 4)
	require.True(t, errors.HasCode(err, errors.OutOfRange))
	_, err = tile.GetValue(-1, 0)
	require.True(t, errors.HasCode(err, errors.OutOfRange))
	_, err = tile.GetColumnSource(4)
	require.True(t, errors.HasCode(err, errors.OutOfRange))
	_, err = tile.GetColumnSource(-1)
	require.True(t, errors.HasCode(err, errors.OutOfRange))
}

func TestProjectColumns(t *testing.T) {
	tile := firstTileGroupTile(t)
	require.NoError(t, tile.ProjectColumns(nil))
	require.Equal(t, 4, tile.NumCols())

	require.NoError(t, tile.ProjectColumns([]int{3, 0}))
	require.Equal(t, 2, tile.NumCols())
	require.Equal(t, []string{"d", "a"}, []string{tile.ColumnInfos()[0].Name, tile.ColumnInfos()[1].Name})
	requireTuple(t, tile, 0, 0)
	v, err := tile.GetValue(9, 0)
	require.NoError(t, err)
	require.Equal(t, "93", v.GetString())

	err = tile.ProjectColumns([]int{2})
	require.True(t, errors.HasCode(err, errors.OutOfRange))
	require.Equal(t, 2, tile.NumCols())
}

func TestWrapLogicalTile(t *testing.T) {
	parent := firstTileGroupTile(t)
	require.NoError(t, parent.RemoveVisibility(1))

	child, err := WrapLogicalTile(parent, []int{1, 3})
	require.NoError(t, err)
	require.Equal(t, 2, child.NumCols())
	require.Equal(t, parent.NumTuples(), child.NumTuples())
	require.False(t, child.IsVisible(1))
	src, err := child.GetColumnSource(1)
	require.NoError(t, err)
	require.Equal(t, SourceUpstream, src.Kind)
	require.Same(t, parent, src.Upstream)
	require.Equal(t, 3, src.ColumnID)

	v, err := child.GetValue(2, 1)
	require.NoError(t, err)
	require.Equal(t, "23", v.GetString())

	// visibility of the two tiles is independent from here on
	require.NoError(t, child.RemoveVisibility(2))
	require.True(t, parent.IsVisible(2))

	all, err := WrapLogicalTile(parent, nil)
	require.NoError(t, err)
	require.Equal(t, 4, all.NumCols())

	_, err = WrapLogicalTile(parent, []int{4})
	require.True(t, errors.HasCode(err, errors.OutOfRange))
}

func TestLogicalTupleReadsThroughTile(t *testing.T) {
	tile := firstTileGroupTile(t)
	require.NoError(t, tile.ProjectColumns([]int{1}))
	tuple := tile.Tuple(6)
	require.Equal(t, 6, tuple.TupleID())
	v, err := tuple.GetValue(0)
	require.NoError(t, err)
	require.Equal(t, int64(61), v.GetInt64())
	require.Equal(t, common.TypeInt, v.Type())
}

func TestLogicalTileString(t *testing.T) {
	tile := firstTileGroupTile(t)
	for i := 1; i < testTileGroupCapacity; i++ {
		require.NoError(t, tile.RemoveVisibility(i))
	}
	require.Equal(t, "logical_tile[cols=4,tuples=1/50]\na|b|c|d\n0:0|1|2|3\n", tile.String())
}
