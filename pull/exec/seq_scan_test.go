package exec

import (
	"testing"

	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
	"github.com/squareup/tilestore/expression"
	"github.com/squareup/tilestore/failinject"
	"github.com/squareup/tilestore/planner"
	"github.com/squareup/tilestore/storage"
	"github.com/squareup/tilestore/txn"
	"github.com/stretchr/testify/require"
)

var matchingTupleIDs = []int{0, 3, 5, 7}

func beginTx(t *testing.T) (*txn.Manager, *txn.Transaction) {
	t.Helper()
	manager := txn.NewManager(common.NewAtomicSeqGenerator(1))
	tx, err := manager.BeginTransaction()
	require.NoError(t, err)
	return manager, tx
}

func endTx(t *testing.T, manager *txn.Manager, tx *txn.Transaction) {
	t.Helper()
	require.NoError(t, manager.CommitTransaction(tx))
	require.NoError(t, manager.EndTransaction(tx))
}

func requireMatchingTiles(t *testing.T, tiles []*LogicalTile, expectedTiles int, expectedCols int) {
	t.Helper()
	require.Equal(t, expectedTiles, len(tiles))
	for _, tile := range tiles {
		require.Equal(t, expectedCols, tile.NumCols())
		require.Equal(t, len(matchingTupleIDs), tile.NumTuples())
		remaining := map[int]struct{}{}
		for _, id := range matchingTupleIDs {
			remaining[id] = struct{}{}
		}
		iter := tile.Iterator()
		for {
			tupleID, ok := iter.Next()
			if !ok {
				break
			}
			first, err := tile.GetValue(tupleID, 0)
			require.NoError(t, err)
			oldID := int(first.GetInt64()) / 10
			_, ok = remaining[oldID]
			require.True(t, ok, "unexpected tuple %d", oldID)
			delete(remaining, oldID)

			second, err := tile.GetValue(tupleID, 1)
			require.NoError(t, err)
			require.Equal(t, int64(populatedValue(oldID, 1)), second.GetInt64())
			requireTuple(t, tile, tupleID, oldID)
		}
		require.Equal(t, 0, len(remaining))
	}
}

func TestSeqScanTwoTileGroupsWithPredicate(t *testing.T) {
	table := createTable(t)
	columnIDs := []int{0, 1, 3}
	node := planner.NewSeqScanNode(table, createPredicate(t, matchingTupleIDs), columnIDs)
	manager, tx := beginTx(t)

	scan := NewSeqScanExecutor(node, tx)
	require.NoError(t, scan.Init())
	tiles := drain(t, scan)
	requireMatchingTiles(t, tiles, table.GetTileGroupCount(), len(columnIDs))

	endTx(t, manager, tx)
}

func TestSeqScanNonLeafWithPredicate(t *testing.T) {
	table := createTable(t)
	tg0, err := table.GetTileGroup(0)
	require.NoError(t, err)
	tg1, err := table.GetTileGroup(1)
	require.NoError(t, err)

	node := planner.NewSeqScanNode(nil, createPredicate(t, matchingTupleIDs), nil)
	manager, tx := beginTx(t)

	scan := NewSeqScanExecutor(node, tx)
	scan.AddChild(NewStaticTiles(WrapTileGroup(tg0), WrapTileGroup(tg1)))
	require.NoError(t, scan.Init())
	tiles := drain(t, scan)
	requireMatchingTiles(t, tiles, 2, testSchema.ColumnCount())

	endTx(t, manager, tx)
}

func TestSeqScanKeepsTupleIDs(t *testing.T) {
	table := createTable(t)
	node := planner.NewSeqScanNode(table, createPredicate(t, matchingTupleIDs), nil)
	scan := NewSeqScanExecutor(node, nil)
	require.NoError(t, scan.Init())
	for _, tile := range drain(t, scan) {
		require.Equal(t, testTileGroupCapacity, tile.TotalTuples())
		require.Equal(t, matchingTupleIDs, tile.TupleIDs())
		for _, id := range matchingTupleIDs {
			requireTuple(t, tile, id, id)
		}
		require.False(t, tile.IsVisible(1))
	}
}

func TestSeqScanNoMatchesStillProducesTiles(t *testing.T) {
	table := createTable(t)
	node := planner.NewSeqScanNode(table, expression.NewConstant(common.FalseValue), nil)
	scan := NewSeqScanExecutor(node, nil)
	require.NoError(t, scan.Init())
	tiles := drain(t, scan)
	require.Equal(t, 2, len(tiles))
	for _, tile := range tiles {
		require.Equal(t, 0, tile.NumTuples())
		_, ok := tile.Iterator().Next()
		require.False(t, ok)
	}
}

func TestSeqScanNilPredicateKeepsEverything(t *testing.T) {
	table := createTable(t)
	node := planner.NewSeqScanNode(table, nil, nil)
	scan := NewSeqScanExecutor(node, nil)
	require.NoError(t, scan.Init())
	tiles := drain(t, scan)
	require.Equal(t, 2, len(tiles))
	for _, tile := range tiles {
		require.Equal(t, testSchema.ColumnCount(), tile.NumCols())
		require.Equal(t, testTileGroupCapacity, tile.NumTuples())
		for i := 0; i < testTileGroupCapacity; i++ {
			requireTuple(t, tile, i, i)
		}
	}
}

func TestSeqScanPartiallyFilledTileGroup(t *testing.T) {
	table := storage.NewDataTable(2, "partial", testSchema, storage.NewHeapBackend())
	tg, err := storage.NewTileGroupFactoryFromOne().NewTileGroupWithWidths(table, []int{2, 2}, testTileGroupCapacity)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := tg.InsertTuple(populatedTuple(t, i))
		require.NoError(t, err)
	}
	require.NoError(t, table.AddTileGroup(tg))

	scan := NewSeqScanExecutor(planner.NewSeqScanNode(table, nil, []int{3}), nil)
	require.NoError(t, scan.Init())
	tiles := drain(t, scan)
	require.Equal(t, 1, len(tiles))
	require.Equal(t, 5, tiles[0].NumTuples())
	require.Equal(t, 5, tiles[0].TotalTuples())
	require.Equal(t, 1, tiles[0].NumCols())
	v, err := tiles[0].GetValue(4, 0)
	require.NoError(t, err)
	require.Equal(t, "43", v.GetString())
}

func TestSeqScanEmptyTable(t *testing.T) {
	table := createTableWithLayout(t, nil, testTileGroupCapacity)
	node := planner.NewSeqScanNode(table, nil, nil)
	scan := NewSeqScanExecutor(node, nil)
	require.NoError(t, scan.Init())
	ok, err := scan.Execute()
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, scan.GetOutput())
}

func TestSeqScanExhaustionIsTerminal(t *testing.T) {
	table := createTable(t)
	node := planner.NewSeqScanNode(table, createPredicate(t, matchingTupleIDs), nil)
	scan := NewSeqScanExecutor(node, nil)
	require.NoError(t, scan.Init())
	drain(t, scan)
	for i := 0; i < 3; i++ {
		ok, err := scan.Execute()
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, scan.GetOutput())
	}
}

func TestSeqScanGetOutputHandsOverOnce(t *testing.T) {
	table := createTable(t)
	node := planner.NewSeqScanNode(table, nil, nil)
	scan := NewSeqScanExecutor(node, nil)
	require.NoError(t, scan.Init())
	ok, err := scan.Execute()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, scan.GetOutput())
	require.Nil(t, scan.GetOutput())
}

func TestSeqScanExecuteBeforeInit(t *testing.T) {
	table := createTable(t)
	scan := NewSeqScanExecutor(planner.NewSeqScanNode(table, nil, nil), nil)
	ok, err := scan.Execute()
	require.Error(t, err)
	require.False(t, ok)
	require.True(t, errors.HasCode(err, errors.NotInitialized))
}

func TestSeqScanInitErrors(t *testing.T) {
	table := createTable(t)

	leafWithChild := NewSeqScanExecutor(planner.NewSeqScanNode(table, nil, nil), nil)
	leafWithChild.AddChild(NewStaticTiles())
	err := leafWithChild.Init()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.InvalidPlan))

	internalNoChild := NewSeqScanExecutor(planner.NewSeqScanNode(nil, nil, nil), nil)
	err = internalNoChild.Init()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.InvalidPlan))

	badColumn := NewSeqScanExecutor(planner.NewSeqScanNode(table, nil, []int{0, 4}), nil)
	err = badColumn.Init()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.InvalidPlan))

	noNode := NewSeqScanExecutor(nil, nil)
	err = noNode.Init()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.InitFailed))
}

func TestSeqScanChildInitFailurePropagates(t *testing.T) {
	scan := NewSeqScanExecutor(planner.NewSeqScanNode(nil, nil, nil), nil)
	scan.AddChild(NewFailingStaticTiles(errors.NewInitFailedError("StaticTiles", "boom")))
	err := scan.Init()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.InitFailed))

	// a failed Init leaves the executor unusable
	_, err = scan.Execute()
	require.True(t, errors.HasCode(err, errors.NotInitialized))
}

func TestSeqScanInitFailpoint(t *testing.T) {
	injector := failinject.NewInjector()
	require.NoError(t, injector.Start())
	defer func() {
		require.NoError(t, injector.Stop())
	}()
	fp := injector.GetFailpoint(failinject.SeqScanInit)
	require.NoError(t, fp.SetFailAction(func() error {
		return errors.NewInitFailedError("SeqScan", "injected")
	}))

	table := createTable(t)
	scan := NewSeqScanExecutor(planner.NewSeqScanNode(table, nil, nil), nil)
	scan.SetInjector(injector)
	err := scan.Init()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.InitFailed))

	require.NoError(t, fp.Deactivate())
	require.NoError(t, scan.Init())
	require.Equal(t, 2, len(drain(t, scan)))
}

func TestSeqScanPredicateErrorExhausts(t *testing.T) {
	table := createTable(t)
	// varchar column against an int constant
	predicate := expression.Equal(expression.NewTupleValue(3), expression.NewConstant(common.NewIntValue(3)))
	scan := NewSeqScanExecutor(planner.NewSeqScanNode(table, predicate, nil), nil)
	require.NoError(t, scan.Init())
	ok, err := scan.Execute()
	require.Error(t, err)
	require.False(t, ok)
	require.True(t, errors.HasCode(err, errors.TypeMismatch))

	ok, err = scan.Execute()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSeqScanChildErrorPropagates(t *testing.T) {
	table := createTable(t)
	predicate := expression.Equal(expression.NewTupleValue(3), expression.NewConstant(common.NewIntValue(3)))
	child := NewSeqScanExecutor(planner.NewSeqScanNode(table, predicate, nil), nil)
	parent := NewSeqScanExecutor(planner.NewSeqScanNode(nil, nil, nil), nil)
	ConnectExecutors([]Executor{child}, parent)
	require.NoError(t, parent.Init())
	ok, err := parent.Execute()
	require.Error(t, err)
	require.False(t, ok)
	require.True(t, errors.HasCode(err, errors.TypeMismatch))
}

func TestSeqScanRefiltersChildOutput(t *testing.T) {
	table := createTable(t)
	child := NewSeqScanExecutor(planner.NewSeqScanNode(table, createPredicate(t, matchingTupleIDs), nil), nil)
	// keeps 3 and 7 out of 0, 3, 5 and 7
	second := expression.Or(
		expression.Equal(expression.NewTupleValue(0), expression.NewConstant(common.NewIntValue(30))),
		expression.Equal(expression.NewTupleValue(1), expression.NewConstant(common.NewIntValue(71))))
	parent := NewSeqScanExecutor(planner.NewSeqScanNode(nil, second, []int{3, 0}), nil)
	parent.AddChild(child)
	require.NoError(t, parent.Init())
	tiles := drain(t, parent)
	require.Equal(t, 2, len(tiles))
	for _, tile := range tiles {
		require.Equal(t, []int{3, 7}, tile.TupleIDs())
		require.Equal(t, 2, tile.NumCols())
		v, err := tile.GetValue(7, 0)
		require.NoError(t, err)
		require.Equal(t, "73", v.GetString())
		v, err = tile.GetValue(7, 1)
		require.NoError(t, err)
		require.Equal(t, int64(70), v.GetInt64())
	}
}

func TestSeqScanFilteringIsIdempotent(t *testing.T) {
	table := createTable(t)
	predicate := createPredicate(t, matchingTupleIDs)
	for i := 0; i < table.GetTileGroupCount(); i++ {
		tg, err := table.GetTileGroup(i)
		require.NoError(t, err)

		// the same predicate applied twice to one tile
		inner := NewSeqScanExecutor(planner.NewSeqScanNode(nil, predicate, nil), nil)
		inner.AddChild(NewStaticTiles(WrapTileGroup(tg)))
		outer := NewSeqScanExecutor(planner.NewSeqScanNode(nil, predicate, nil), nil)
		outer.AddChild(inner)
		require.NoError(t, outer.Init())
		twice := drain(t, outer)
		require.Equal(t, 1, len(twice))

		// applied once to a fresh tile over the same tile group
		single := NewSeqScanExecutor(planner.NewSeqScanNode(nil, predicate, nil), nil)
		single.AddChild(NewStaticTiles(WrapTileGroup(tg)))
		require.NoError(t, single.Init())
		once := drain(t, single)
		require.Equal(t, 1, len(once))

		require.Equal(t, matchingTupleIDs, once[0].TupleIDs())
		require.Equal(t, once[0].TupleIDs(), twice[0].TupleIDs())
		for _, tupleID := range once[0].TupleIDs() {
			requireTuple(t, twice[0], tupleID, tupleID)
		}
	}
}

func TestSeqScanNullPredicateFilters(t *testing.T) {
	table := createTable(t)
	predicate := expression.Or(
		expression.Equal(expression.NewTupleValue(0), expression.NewConstant(common.NewNullValue(common.TypeInt))),
		expression.Equal(expression.NewTupleValue(0), expression.NewConstant(common.NewIntValue(50))))
	scan := NewSeqScanExecutor(planner.NewSeqScanNode(table, predicate, nil), nil)
	require.NoError(t, scan.Init())
	for _, tile := range drain(t, scan) {
		require.Equal(t, []int{5}, tile.TupleIDs())
	}
}

func TestSeqScanTransaction(t *testing.T) {
	manager, tx := beginTx(t)
	scan := NewSeqScanExecutor(planner.NewSeqScanNode(createTable(t), nil, nil), tx)
	require.Same(t, tx, scan.Transaction())
	require.NoError(t, manager.AbortTransaction(tx))
	require.NoError(t, manager.EndTransaction(tx))
}
