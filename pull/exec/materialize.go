package exec

import (
	"fmt"

	"github.com/cznic/mathutil"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
	"github.com/squareup/tilestore/failinject"
	"github.com/squareup/tilestore/metrics"
	"github.com/squareup/tilestore/planner"
	"github.com/squareup/tilestore/storage"
)

// MaterializeExecutor copies the visible tuples of each child tile into a new physical tile group and outputs a
// tile over it. The output tile owns that storage and its tuple ids are dense.
type MaterializeExecutor struct {
	executorBase
	node          *planner.MaterializeNode
	backend       storage.Backend
	idGen         common.SeqGenerator
	failpoint     failinject.Failpoint
	tilesProduced metrics.Counter
}

var _ Executor = &MaterializeExecutor{}

// NewMaterializeExecutor creates an executor that allocates from backend, or from a private heap backend if
// backend is nil.
func NewMaterializeExecutor(node *planner.MaterializeNode, backend storage.Backend) *MaterializeExecutor {
	if backend == nil {
		backend = storage.NewHeapBackend()
	}
	return &MaterializeExecutor{
		executorBase:  executorBase{name: "Materialize"},
		node:          node,
		backend:       backend,
		idGen:         common.NewAtomicSeqGenerator(1),
		failpoint:     failinject.NewDummyInjector().GetFailpoint(failinject.MaterializeTile),
		tilesProduced: tilesProducedVec.WithLabelValues("materialize"),
	}
}

func (m *MaterializeExecutor) SetInjector(injector failinject.Injector) {
	m.failpoint = injector.GetFailpoint(failinject.MaterializeTile)
}

func (m *MaterializeExecutor) Init() error {
	if m.node == nil {
		return errors.NewInitFailedError(m.name, "no plan node")
	}
	if len(m.children) != 1 {
		return errors.NewInvalidPlanError(fmt.Sprintf("materialize needs exactly one child, has %d", len(m.children)))
	}
	if err := m.initChildren(); err != nil {
		return err
	}
	if err := checkMappingTargets(m.node.OldToNewCols); err != nil {
		return err
	}
	if m.node.Schema != nil {
		if len(m.node.ColumnNames) != 0 && len(m.node.ColumnNames) != m.node.Schema.ColumnCount() {
			return errors.NewInvalidPlanError(fmt.Sprintf("materialize has %d column names for %d columns",
				len(m.node.ColumnNames), m.node.Schema.ColumnCount()))
		}
		for old, nw := range m.node.OldToNewCols {
			if old < 0 || nw < 0 || nw >= m.node.Schema.ColumnCount() {
				return errors.NewInvalidPlanError(fmt.Sprintf("invalid column mapping %d->%d", old, nw))
			}
		}
	}
	m.initialized()
	return nil
}

func (m *MaterializeExecutor) Execute() (bool, error) {
	exhausted, err := m.checkExecutable()
	if err != nil || exhausted {
		return false, err
	}
	child := m.children[0]
	ok, err := child.Execute()
	if err != nil {
		m.exhaust()
		return false, errors.WithStack(err)
	}
	if !ok {
		m.exhaust()
		return false, nil
	}
	input := child.GetOutput()
	if input == nil {
		m.exhaust()
		return false, errors.New("child executor reported output but produced no tile")
	}
	output, err := m.materialize(input)
	// the input tile was handed to us, it is not needed past this point
	input.Release()
	if err != nil {
		m.exhaust()
		return false, err
	}
	m.tilesProduced.Inc()
	m.produced(output)
	return true, nil
}

func (m *MaterializeExecutor) outputSchema(input *LogicalTile) (*common.Schema, error) {
	schema := m.node.Schema
	if schema == nil {
		var err error
		schema, err = input.Schema()
		if err != nil {
			return nil, err
		}
	}
	if len(m.node.ColumnNames) == 0 {
		return schema, nil
	}
	if len(m.node.ColumnNames) != schema.ColumnCount() {
		return nil, errors.NewInvalidPlanError(fmt.Sprintf("materialize has %d column names for %d columns",
			len(m.node.ColumnNames), schema.ColumnCount()))
	}
	cols := make([]common.ColumnInfo, schema.ColumnCount())
	for i, col := range schema.Columns() {
		cols[i] = common.NewColumnInfo(m.node.ColumnNames[i], col.ColumnType)
	}
	return common.NewSchema(cols...)
}

func (m *MaterializeExecutor) columnMapping(input *LogicalTile, schema *common.Schema) (map[int]int, error) {
	mapping := m.node.OldToNewCols
	if len(mapping) == 0 {
		if input.NumCols() != schema.ColumnCount() {
			return nil, errors.NewSchemaMismatchError(fmt.Sprintf("input tile has %d columns, output schema has %d",
				input.NumCols(), schema.ColumnCount()))
		}
		mapping = make(map[int]int, input.NumCols())
		for i := 0; i < input.NumCols(); i++ {
			mapping[i] = i
		}
	}
	if err := checkMappingTargets(mapping); err != nil {
		return nil, err
	}
	for old, nw := range mapping {
		if old < 0 || old >= input.NumCols() {
			return nil, errors.NewColumnOutOfRangeError(old, input.NumCols())
		}
		if nw < 0 || nw >= schema.ColumnCount() {
			return nil, errors.NewColumnOutOfRangeError(nw, schema.ColumnCount())
		}
	}
	return mapping, nil
}

// checkMappingTargets rejects mappings that send two input columns to the same output column.
func checkMappingTargets(mapping map[int]int) error {
	sources := make(map[int]int, len(mapping))
	for old, nw := range mapping {
		if other, ok := sources[nw]; ok {
			return errors.NewInvalidPlanError(fmt.Sprintf("columns %d and %d both map to output column %d",
				mathutil.Min(old, other), mathutil.Max(old, other), nw))
		}
		sources[nw] = old
	}
	return nil
}

func (m *MaterializeExecutor) materialize(input *LogicalTile) (*LogicalTile, error) {
	if err := m.failpoint.CheckFail(); err != nil {
		return nil, errors.Wrap(err, "materialize failpoint")
	}
	schema, err := m.outputSchema(input)
	if err != nil {
		return nil, err
	}
	mapping, err := m.columnMapping(input, schema)
	if err != nil {
		return nil, err
	}
	capacity := mathutil.Max(input.NumTuples(), 1)
	tg, err := storage.NewTileGroup(storage.InvalidTileGroupID, m.idGen.GenerateSequence(), m.backend,
		[]*common.Schema{schema}, capacity)
	if err != nil {
		return nil, err
	}
	values := make([]common.Value, schema.ColumnCount())
	iter := input.Iterator()
	for {
		tupleID, ok := iter.Next()
		if !ok {
			break
		}
		for i, col := range schema.Columns() {
			values[i] = common.NewNullValue(col.Type)
		}
		for old, nw := range mapping {
			v, err := input.GetValue(tupleID, old)
			if err != nil {
				tg.Release()
				return nil, err
			}
			values[nw] = v
		}
		if _, err := tg.InsertTuple(values); err != nil {
			tg.Release()
			return nil, err
		}
	}
	log.Debugf("materialized %d tuples into %s", tg.GetTupleCount(), tg)
	output := WrapTileGroup(tg)
	output.owned = tg
	return output, nil
}
