package exec

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/tilestore/errors"
	"github.com/squareup/tilestore/expression"
	"github.com/squareup/tilestore/failinject"
	"github.com/squareup/tilestore/planner"
	"github.com/squareup/tilestore/txn"
)

// SeqScanExecutor filters tuples with a predicate. With a table in its plan node it is a leaf that produces one
// logical tile per tile group, in table order. Without a table it filters, in place, the tiles of its single
// child.
type SeqScanExecutor struct {
	executorBase
	node            *planner.SeqScanNode
	tx              *txn.Transaction
	tileGroupCursor int
	initFailpoint   failinject.Failpoint
	counters        scanCounters
}

var _ Executor = &SeqScanExecutor{}

func NewSeqScanExecutor(node *planner.SeqScanNode, tx *txn.Transaction) *SeqScanExecutor {
	source := logicalSourceLabel
	if node != nil && node.Table != nil {
		source = node.Table.GetName()
	}
	return &SeqScanExecutor{
		executorBase:  executorBase{name: "SeqScan"},
		node:          node,
		tx:            tx,
		initFailpoint: failinject.NewDummyInjector().GetFailpoint(failinject.SeqScanInit),
		counters:      newScanCounters(source),
	}
}

// SetInjector makes Init consult the injector's seq_scan_init failpoint.
func (s *SeqScanExecutor) SetInjector(injector failinject.Injector) {
	s.initFailpoint = injector.GetFailpoint(failinject.SeqScanInit)
}

// Transaction returns the handle the executor was built with. The executor itself never inspects it.
func (s *SeqScanExecutor) Transaction() *txn.Transaction {
	return s.tx
}

func (s *SeqScanExecutor) isLeaf() bool {
	return s.node.Table != nil
}

func (s *SeqScanExecutor) Init() error {
	if s.node == nil {
		return errors.NewInitFailedError(s.name, "no plan node")
	}
	if s.isLeaf() {
		if len(s.children) != 0 {
			return errors.NewInvalidPlanError(fmt.Sprintf("sequential scan over table %s cannot have children",
				s.node.Table.GetName()))
		}
		colCount := s.node.Table.GetSchema().ColumnCount()
		for _, colID := range s.node.ColumnIDs {
			if colID < 0 || colID >= colCount {
				return errors.NewInvalidPlanError(fmt.Sprintf("column id %d out of range for table %s with %d columns",
					colID, s.node.Table.GetName(), colCount))
			}
		}
	} else {
		if len(s.children) != 1 {
			return errors.NewInvalidPlanError(fmt.Sprintf("sequential scan without a table needs exactly one child, has %d",
				len(s.children)))
		}
		if err := s.initChildren(); err != nil {
			return err
		}
	}
	if err := s.initFailpoint.CheckFail(); err != nil {
		return errors.Wrap(err, "sequential scan init failpoint")
	}
	s.tileGroupCursor = 0
	s.initialized()
	return nil
}

func (s *SeqScanExecutor) Execute() (bool, error) {
	exhausted, err := s.checkExecutable()
	if err != nil || exhausted {
		return false, err
	}
	var tile *LogicalTile
	if s.isLeaf() {
		tile, err = s.executeLeaf()
	} else {
		tile, err = s.executeInternal()
	}
	if err != nil {
		s.exhaust()
		return false, err
	}
	if tile == nil {
		s.exhaust()
		return false, nil
	}
	s.counters.tiles.Inc()
	s.produced(tile)
	return true, nil
}

func (s *SeqScanExecutor) executeLeaf() (*LogicalTile, error) {
	table := s.node.Table
	if s.tileGroupCursor >= table.GetTileGroupCount() {
		return nil, nil
	}
	tg, err := table.GetTileGroup(s.tileGroupCursor)
	if err != nil {
		return nil, err
	}
	tile := WrapTileGroup(tg)
	err = s.filter(tile, func(tupleID int) expression.Tuple {
		return tg.Tuple(tupleID)
	})
	if err != nil {
		return nil, err
	}
	if err := tile.ProjectColumns(s.node.ColumnIDs); err != nil {
		return nil, err
	}
	log.Debugf("seq scan of %s produced %d of %d tuples from %s", table.GetName(), tile.NumTuples(),
		tile.TotalTuples(), tg)
	s.tileGroupCursor++
	return tile, nil
}

func (s *SeqScanExecutor) executeInternal() (*LogicalTile, error) {
	child := s.children[0]
	ok, err := child.Execute()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !ok {
		return nil, nil
	}
	tile := child.GetOutput()
	if tile == nil {
		return nil, errors.New("child executor reported output but produced no tile")
	}
	err = s.filter(tile, func(tupleID int) expression.Tuple {
		return tile.Tuple(tupleID)
	})
	if err != nil {
		return nil, err
	}
	if err := tile.ProjectColumns(s.node.ColumnIDs); err != nil {
		return nil, err
	}
	log.Debugf("seq scan over child tile retained %d of %d tuples", tile.NumTuples(), tile.TotalTuples())
	return tile, nil
}

// filter evaluates the predicate once for each visible tuple and removes the ones it does not accept.
func (s *SeqScanExecutor) filter(tile *LogicalTile, tupleSource func(tupleID int) expression.Tuple) error {
	predicate := s.node.Predicate
	examined := 0
	for _, tupleID := range tile.TupleIDs() {
		examined++
		accept, err := expression.IsTrue(predicate, tupleSource(tupleID))
		if err != nil {
			return errors.Wrapf(err, "evaluating %s on tuple %d", predicate, tupleID)
		}
		if !accept {
			if err := tile.RemoveVisibility(tupleID); err != nil {
				return err
			}
		}
	}
	s.counters.examined.Add(float64(examined))
	s.counters.retained.Add(float64(tile.NumTuples()))
	return nil
}
