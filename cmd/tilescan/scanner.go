package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/cznic/mathutil"
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/conf"
	"github.com/squareup/tilestore/errors"
	"github.com/squareup/tilestore/expression"
	"github.com/squareup/tilestore/expression/parser"
	"github.com/squareup/tilestore/metrics"
	"github.com/squareup/tilestore/metrics/prometheus"
	"github.com/squareup/tilestore/planner"
	"github.com/squareup/tilestore/pull"
	"github.com/squareup/tilestore/pull/exec"
	"github.com/squareup/tilestore/storage"
	"github.com/squareup/tilestore/txn"
)

const tableID = 1

// scanSchema is the layout of the generated table. Column c of tuple i in a tile group holds 10*i+c, the varchar
// column holds the same number as text.
var scanSchema = common.MustNewSchema(
	common.NewColumnInfo("a", common.IntColumnType),
	common.NewColumnInfo("b", common.IntColumnType),
	common.NewColumnInfo("c", common.DoubleColumnType),
	common.NewColumnInfo("d", common.VarcharColumnType),
)

type scanner struct {
	cfg            conf.Config
	out            io.Writer
	backend        *storage.HeapBackend
	table          *storage.DataTable
	engine         *pull.Engine
	metricsFactory metrics.Factory
	tuplesPrinted  metrics.Counter
}

func newScanner(cfg conf.Config, out io.Writer) (*scanner, error) {
	s := &scanner{
		cfg:           cfg,
		out:           out,
		backend:       storage.NewHeapBackend(),
		tuplesPrinted: metrics.NoopCounter{},
	}
	if cfg.MetricsEnabled {
		s.metricsFactory = prometheus.NewFactory(cfg.MetricsAddr)
		if err := s.metricsFactory.Start(); err != nil {
			return nil, err
		}
		counter, err := s.metricsFactory.CreateCounter("tilestore_tilescan_tuples_printed_total",
			"counter of tuples printed by tilescan")
		if err != nil {
			s.close()
			return nil, err
		}
		s.tuplesPrinted = counter
	}
	table, err := s.buildTable()
	if err != nil {
		s.close()
		return nil, err
	}
	s.table = table
	s.engine = pull.NewEngine(s.backend, txn.NewManager(common.NewAtomicSeqGenerator(1)), nil)
	if err := s.engine.Start(); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *scanner) buildTable() (*storage.DataTable, error) {
	layouts, err := s.cfg.ParsePartitions()
	if err != nil {
		return nil, err
	}
	table := storage.NewDataTable(tableID, s.cfg.TableName, scanSchema, s.backend)
	factory := storage.NewTileGroupFactoryFromOne()
	for i := 0; i < s.cfg.TileGroupCount; i++ {
		tg, err := factory.NewTileGroupWithWidths(table, layouts[i%len(layouts)], s.cfg.TileGroupCapacity)
		if err != nil {
			table.Close()
			return nil, err
		}
		for tupleID := 0; tupleID < s.cfg.TileGroupCapacity; tupleID++ {
			if _, err := tg.InsertTuple(generatedTuple(tupleID)); err != nil {
				tg.Release()
				table.Close()
				return nil, err
			}
		}
		if err := table.AddTileGroup(tg); err != nil {
			tg.Release()
			table.Close()
			return nil, err
		}
	}
	log.Infof("built %s with %s tuples using %s", table, humanize.Comma(int64(table.GetTupleCount())),
		humanize.Bytes(s.backend.AllocatedBytes()))
	return table, nil
}

func generatedTuple(tupleID int) []common.Value {
	return []common.Value{
		common.NewIntValue(int32(10 * tupleID)),
		common.NewIntValue(int32(10*tupleID + 1)),
		common.NewDoubleValue(float64(10*tupleID + 2)),
		common.NewVarcharValue(fmt.Sprintf("%d", 10*tupleID+3)),
	}
}

func (s *scanner) buildPlan() (*planner.Plan, error) {
	var predicate expression.Expression
	if strings.TrimSpace(s.cfg.Predicate) != "" {
		var err error
		predicate, err = parser.Parse(s.cfg.Predicate, scanSchema)
		if err != nil {
			return nil, err
		}
	}
	plan := planner.NewPlan(planner.NewSeqScanNode(s.table, predicate, s.cfg.Columns))
	if s.cfg.Materialize {
		plan = planner.NewPlan(planner.NewMaterializeNode(nil, nil, nil), plan)
	}
	return plan, nil
}

func (s *scanner) run() error {
	plan, err := s.buildPlan()
	if err != nil {
		return err
	}
	log.Debugf("running %s", plan)
	tileIndex := 0
	tupleCount := 0
	tileCount, err := s.engine.ExecuteQuery(plan, func(tile *exec.LogicalTile) error {
		tupleCount += tile.NumTuples()
		err := s.printTile(tileIndex, tile)
		tileIndex++
		return err
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.out, "%d tiles, %s tuples matched, backend holds %s\n", tileCount,
		humanize.Comma(int64(tupleCount)), humanize.Bytes(s.backend.AllocatedBytes()))
	return err
}

func (s *scanner) printTile(index int, tile *exec.LogicalTile) error {
	infos := tile.ColumnInfos()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	if _, err := fmt.Fprintf(s.out, "tile %d: %d of %d tuples [%s]\n", index, tile.NumTuples(), tile.TotalTuples(),
		strings.Join(names, ", ")); err != nil {
		return errors.WithStack(err)
	}
	limit := mathutil.Min(s.cfg.PrintLimit, tile.NumTuples())
	iter := tile.Iterator()
	for printed := 0; printed < limit; printed++ {
		tupleID, ok := iter.Next()
		if !ok {
			break
		}
		values := make([]string, tile.NumCols())
		for colID := range values {
			v, err := tile.GetValue(tupleID, colID)
			if err != nil {
				return err
			}
			values[colID] = v.String()
		}
		if _, err := fmt.Fprintf(s.out, "  %d: %s\n", tupleID, strings.Join(values, " | ")); err != nil {
			return errors.WithStack(err)
		}
		s.tuplesPrinted.Inc()
	}
	if limit < tile.NumTuples() {
		if _, err := fmt.Fprintf(s.out, "  ... %d more\n", tile.NumTuples()-limit); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (s *scanner) close() {
	if s.engine != nil {
		s.engine.Stop()
	}
	if s.table != nil {
		s.table.Close()
	}
	if s.metricsFactory != nil {
		if err := s.metricsFactory.Stop(); err != nil {
			log.Warnf("failed to stop metrics: %v", err)
		}
	}
}
