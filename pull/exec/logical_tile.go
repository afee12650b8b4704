package exec

import (
	"fmt"
	"strings"

	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
	"github.com/squareup/tilestore/storage"
)

type SourceKind int

const (
	// SourcePhysical columns read a base column of a tile group.
	SourcePhysical SourceKind = iota
	// SourceUpstream columns read a column of another logical tile at the same position.
	SourceUpstream
)

// ColumnSource says where an output column of a logical tile gets its values from.
type ColumnSource struct {
	Kind      SourceKind
	TileGroup *storage.TileGroup
	Upstream  *LogicalTile
	ColumnID  int
	Info      common.ColumnInfo
}

// LogicalTile is a filtered, projected view over a tile group or over another logical tile. Fixed size data is
// never copied: every output column resolves back to its source by position.
//
// Positions run over [0, TotalTuples()). Filtering clears positions without compacting them, so the ids handed
// out by iteration stay stable for the life of the tile.
type LogicalTile struct {
	columns     []ColumnSource
	visible     bitmap
	totalTuples int
	numVisible  int
	// owned is storage that belongs to this tile, set for tiles built by materialization
	owned *storage.TileGroup
}

// WrapTileGroup returns a tile exposing every column of tg, with every populated tuple visible. The tile does not
// own tg.
func WrapTileGroup(tg *storage.TileGroup) *LogicalTile {
	schema := tg.GetSchema()
	columns := make([]ColumnSource, tg.GetColumnCount())
	for i := range columns {
		columns[i] = ColumnSource{
			Kind:      SourcePhysical,
			TileGroup: tg,
			ColumnID:  i,
			Info:      schema.GetColumn(i),
		}
	}
	total := tg.GetTupleCount()
	return &LogicalTile{
		columns:     columns,
		visible:     newFullBitmap(total),
		totalTuples: total,
		numVisible:  total,
	}
}

// WrapLogicalTile builds a narrower tile over parent exposing columnIDs of parent in the given order, all
// columns if columnIDs is empty. Positions and visibility start out as the parent's. The new tile does not own
// parent, which must stay alive as long as the new tile is read.
func WrapLogicalTile(parent *LogicalTile, columnIDs []int) (*LogicalTile, error) {
	if len(columnIDs) == 0 {
		columnIDs = allColumnIDs(parent.NumCols())
	}
	columns := make([]ColumnSource, len(columnIDs))
	for i, colID := range columnIDs {
		if colID < 0 || colID >= parent.NumCols() {
			return nil, errors.NewColumnOutOfRangeError(colID, parent.NumCols())
		}
		columns[i] = ColumnSource{
			Kind:     SourceUpstream,
			Upstream: parent,
			ColumnID: colID,
			Info:     parent.columns[colID].Info,
		}
	}
	return &LogicalTile{
		columns:     columns,
		visible:     parent.visible.clone(),
		totalTuples: parent.totalTuples,
		numVisible:  parent.numVisible,
	}, nil
}

func allColumnIDs(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func (l *LogicalTile) NumCols() int {
	return len(l.columns)
}

// NumTuples is the number of visible tuples.
func (l *LogicalTile) NumTuples() int {
	return l.numVisible
}

// TotalTuples is the size of the position space, visible or not.
func (l *LogicalTile) TotalTuples() int {
	return l.totalTuples
}

func (l *LogicalTile) IsVisible(tupleID int) bool {
	if tupleID < 0 || tupleID >= l.totalTuples {
		return false
	}
	return l.visible.isSet(tupleID)
}

func (l *LogicalTile) GetColumnSource(columnID int) (ColumnSource, error) {
	if columnID < 0 || columnID >= len(l.columns) {
		return ColumnSource{}, errors.NewColumnOutOfRangeError(columnID, len(l.columns))
	}
	return l.columns[columnID], nil
}

func (l *LogicalTile) ColumnInfos() []common.ColumnInfo {
	infos := make([]common.ColumnInfo, len(l.columns))
	for i, col := range l.columns {
		infos[i] = col.Info
	}
	return infos
}

func (l *LogicalTile) Schema() (*common.Schema, error) {
	return common.NewSchema(l.ColumnInfos()...)
}

func (l *LogicalTile) GetValue(tupleID int, columnID int) (common.Value, error) {
	if tupleID < 0 || tupleID >= l.totalTuples {
		return common.Value{}, errors.NewTupleOutOfRangeError(tupleID, l.totalTuples)
	}
	if !l.visible.isSet(tupleID) {
		return common.Value{}, errors.NewTileErrorf(errors.OutOfRange, "Tuple id %d has been filtered out", tupleID)
	}
	if columnID < 0 || columnID >= len(l.columns) {
		return common.Value{}, errors.NewColumnOutOfRangeError(columnID, len(l.columns))
	}
	src := l.columns[columnID]
	switch src.Kind {
	case SourcePhysical:
		return src.TileGroup.GetValue(tupleID, src.ColumnID)
	case SourceUpstream:
		return src.Upstream.GetValue(tupleID, src.ColumnID)
	default:
		return common.Value{}, errors.Errorf("unexpected column source kind %d", src.Kind)
	}
}

// RemoveVisibility filters out tupleID. Removing an already removed tuple is a no-op.
func (l *LogicalTile) RemoveVisibility(tupleID int) error {
	if tupleID < 0 || tupleID >= l.totalTuples {
		return errors.NewTupleOutOfRangeError(tupleID, l.totalTuples)
	}
	if l.visible.clear(tupleID) {
		l.numVisible--
	}
	return nil
}

// ProjectColumns narrows the output schema in place to columnIDs, in the given order. Ids refer to the current
// output schema. An empty list leaves the tile unchanged.
func (l *LogicalTile) ProjectColumns(columnIDs []int) error {
	if len(columnIDs) == 0 {
		return nil
	}
	columns := make([]ColumnSource, len(columnIDs))
	for i, colID := range columnIDs {
		if colID < 0 || colID >= len(l.columns) {
			return errors.NewColumnOutOfRangeError(colID, len(l.columns))
		}
		columns[i] = l.columns[colID]
	}
	l.columns = columns
	return nil
}

// Iterator returns an iterator over the visible tuple ids in ascending order. Each call starts afresh.
func (l *LogicalTile) Iterator() *TileIterator {
	return &TileIterator{tile: l}
}

// TupleIDs returns the visible tuple ids in ascending order.
func (l *LogicalTile) TupleIDs() []int {
	ids := make([]int, 0, l.numVisible)
	iter := l.Iterator()
	for {
		id, ok := iter.Next()
		if !ok {
			return ids
		}
		ids = append(ids, id)
	}
}

// Tuple returns a view of one position that predicates can be evaluated against.
func (l *LogicalTile) Tuple(tupleID int) LogicalTuple {
	return LogicalTuple{tile: l, tupleID: tupleID}
}

// Release frees storage owned by the tile. Tiles that only reference storage own nothing.
func (l *LogicalTile) Release() {
	if l.owned != nil {
		l.owned.Release()
		l.owned = nil
	}
}

func (l *LogicalTile) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("logical_tile[cols=%d,tuples=%d/%d]\n", len(l.columns), l.numVisible,
		l.totalTuples))
	for i, col := range l.columns {
		if i > 0 {
			sb.WriteString("|")
		}
		sb.WriteString(col.Info.Name)
	}
	sb.WriteString("\n")
	iter := l.Iterator()
	for {
		id, ok := iter.Next()
		if !ok {
			break
		}
		sb.WriteString(fmt.Sprintf("%d:", id))
		for colID := range l.columns {
			v, err := l.GetValue(id, colID)
			if colID > 0 {
				sb.WriteString("|")
			}
			if err != nil {
				sb.WriteString("<" + err.Error() + ">")
				continue
			}
			sb.WriteString(v.String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

type TileIterator struct {
	tile *LogicalTile
	next int
}

// Next returns the next visible tuple id, false once the tile is exhausted.
func (it *TileIterator) Next() (int, bool) {
	id := it.tile.visible.nextSet(it.next)
	if id < 0 {
		it.next = it.tile.totalTuples
		return 0, false
	}
	it.next = id + 1
	return id, true
}

// LogicalTuple addresses one position of a logical tile.
type LogicalTuple struct {
	tile    *LogicalTile
	tupleID int
}

func (t LogicalTuple) GetValue(columnID int) (common.Value, error) {
	return t.tile.GetValue(t.tupleID, columnID)
}

func (t LogicalTuple) TupleID() int {
	return t.tupleID
}
