package exec

import (
	"fmt"
	"testing"

	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/expression"
	"github.com/squareup/tilestore/storage"
	"github.com/stretchr/testify/require"
)

// Test utils for this package

const testTileGroupCapacity = 50

var testSchema = common.MustNewSchema(
	common.NewColumnInfo("a", common.IntColumnType),
	common.NewColumnInfo("b", common.IntColumnType),
	common.NewColumnInfo("c", common.DoubleColumnType),
	common.NewColumnInfo("d", common.VarcharColumnType),
)

// populatedValue is the value stored in column colID of the tuple at tupleID within its tile group.
func populatedValue(tupleID int, colID int) int {
	return 10*tupleID + colID
}

func populatedTuple(t *testing.T, tupleID int) []common.Value {
	t.Helper()
	return []common.Value{
		common.NewIntValue(int32(populatedValue(tupleID, 0))),
		common.NewIntValue(int32(populatedValue(tupleID, 1))),
		common.NewDoubleValue(float64(populatedValue(tupleID, 2))),
		common.NewVarcharValue(fmt.Sprintf("%d", populatedValue(tupleID, 3))),
	}
}

// createTable builds a four column table with two full tile groups, the first split into column groups {a,b}
// and {c,d}, the second into {a} and {b,c,d}. Both tile groups hold the same values.
func createTable(t *testing.T) *storage.DataTable {
	t.Helper()
	return createTableWithLayout(t, [][]int{{2, 2}, {1, 3}}, testTileGroupCapacity)
}

func createTableWithLayout(t *testing.T, layouts [][]int, capacity int) *storage.DataTable {
	t.Helper()
	table := storage.NewDataTable(1, "test_table", testSchema, storage.NewHeapBackend())
	factory := storage.NewTileGroupFactoryFromOne()
	for _, widths := range layouts {
		tg, err := factory.NewTileGroupWithWidths(table, widths, capacity)
		require.NoError(t, err)
		for i := 0; i < capacity; i++ {
			tupleID, err := tg.InsertTuple(populatedTuple(t, i))
			require.NoError(t, err)
			require.Equal(t, i, tupleID)
		}
		require.True(t, tg.IsFull())
		require.NoError(t, table.AddTileGroup(tg))
	}
	return table
}

// createPredicate matches the tuples with the given ids within a tile group. It is a chain of ORs starting from
// a FALSE constant, alternating between an equality on the first column and one on the last column.
func createPredicate(t *testing.T, tupleIDs []int) expression.Expression {
	t.Helper()
	var predicate expression.Expression = expression.NewConstant(common.FalseValue)
	for i, tupleID := range tupleIDs {
		var eq expression.Expression
		if i%2 == 0 {
			eq = expression.Equal(expression.NewTupleValue(0),
				expression.NewConstant(common.NewIntValue(int32(populatedValue(tupleID, 0)))))
		} else {
			eq = expression.Equal(expression.NewTupleValue(3),
				expression.NewConstant(common.NewVarcharValue(fmt.Sprintf("%d", populatedValue(tupleID, 3)))))
		}
		predicate = expression.Or(predicate, eq)
	}
	return predicate
}

// requireTuple checks that the visible tuple at tupleID is the populated tuple expectedID, with
// the first output column a and the last output column d.
func requireTuple(t *testing.T, tile *LogicalTile, tupleID int, expectedID int) {
	t.Helper()
	first, err := tile.GetValue(tupleID, 0)
	require.NoError(t, err)
	require.Equal(t, int64(populatedValue(expectedID, 0)), first.GetInt64())
	last, err := tile.GetValue(tupleID, tile.NumCols()-1)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("%d", populatedValue(expectedID, 3)), last.GetString())
}

func drain(t *testing.T, executor Executor) []*LogicalTile {
	t.Helper()
	var tiles []*LogicalTile
	for {
		ok, err := executor.Execute()
		require.NoError(t, err)
		if !ok {
			return tiles
		}
		tile := executor.GetOutput()
		require.NotNil(t, tile)
		tiles = append(tiles, tile)
	}
}
