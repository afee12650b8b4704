package storage

import (
	"fmt"

	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
)

type columnLocation struct {
	tileOffset   int
	tileColumnID int
}

// TileGroup holds a fixed capacity batch of tuples split vertically into column groups, one Tile per group.
// A tuple's value for any column lives at the tuple's slot index in the tile that owns the column.
type TileGroup struct {
	tableID       uint64
	tileGroupID   uint64
	capacity      int
	schemas       []*common.Schema
	schema        *common.Schema
	tiles         []*Tile
	columnMap     []columnLocation
	nextTupleSlot int
}

// NewTileGroup allocates a tile per column group schema, each with room for capacity tuples. Most callers
// should go through TileGroupFactory which also validates the layout against the owning table.
func NewTileGroup(tableID uint64, tileGroupID uint64, backend Backend, schemas []*common.Schema,
	capacity int) (*TileGroup, error) {
	if capacity <= 0 {
		return nil, errors.NewSchemaMismatchError(fmt.Sprintf("tile group capacity must be > 0, got %d", capacity))
	}
	if len(schemas) == 0 {
		return nil, errors.NewSchemaMismatchError("tile group needs at least one column group")
	}
	schema, err := common.ConcatSchemas(schemas...)
	if err != nil {
		return nil, err
	}
	tg := &TileGroup{
		tableID:     tableID,
		tileGroupID: tileGroupID,
		capacity:    capacity,
		schemas:     schemas,
		schema:      schema,
	}
	for tileOffset, s := range schemas {
		tile, err := newTile(backend, s, capacity)
		if err != nil {
			tg.Release()
			return nil, err
		}
		tg.tiles = append(tg.tiles, tile)
		for colID := 0; colID < s.ColumnCount(); colID++ {
			tg.columnMap = append(tg.columnMap, columnLocation{tileOffset: tileOffset, tileColumnID: colID})
		}
	}
	return tg, nil
}

func (tg *TileGroup) GetTableID() uint64 {
	return tg.tableID
}

func (tg *TileGroup) GetTileGroupID() uint64 {
	return tg.tileGroupID
}

// GetTupleCount returns the number of slots that have been populated.
func (tg *TileGroup) GetTupleCount() int {
	return tg.nextTupleSlot
}

// GetAllocatedTupleCount returns the fixed capacity.
func (tg *TileGroup) GetAllocatedTupleCount() int {
	return tg.capacity
}

func (tg *TileGroup) GetColumnCount() int {
	return len(tg.columnMap)
}

func (tg *TileGroup) GetSchema() *common.Schema {
	return tg.schema
}

func (tg *TileGroup) GetSchemas() []*common.Schema {
	return tg.schemas
}

func (tg *TileGroup) GetTileCount() int {
	return len(tg.tiles)
}

func (tg *TileGroup) GetTile(tileOffset int) *Tile {
	return tg.tiles[tileOffset]
}

// LocateColumn maps a table column id to the column group holding it and the column's position inside it.
func (tg *TileGroup) LocateColumn(columnID int) (tileOffset int, tileColumnID int, err error) {
	if columnID < 0 || columnID >= len(tg.columnMap) {
		return 0, 0, errors.NewColumnOutOfRangeError(columnID, len(tg.columnMap))
	}
	loc := tg.columnMap[columnID]
	return loc.tileOffset, loc.tileColumnID, nil
}

func (tg *TileGroup) GetValue(tupleID int, columnID int) (common.Value, error) {
	tileOffset, tileColumnID, err := tg.LocateColumn(columnID)
	if err != nil {
		return common.Value{}, err
	}
	return tg.tiles[tileOffset].GetValue(tupleID, tileColumnID)
}

func (tg *TileGroup) SetValue(tupleID int, columnID int, value common.Value) error {
	tileOffset, tileColumnID, err := tg.LocateColumn(columnID)
	if err != nil {
		return err
	}
	return tg.tiles[tileOffset].SetValue(tupleID, tileColumnID, value)
}

// InsertTuple writes values into the next free slot and returns its tuple id.
func (tg *TileGroup) InsertTuple(values []common.Value) (int, error) {
	if len(values) != tg.GetColumnCount() {
		return 0, errors.NewSchemaMismatchError(fmt.Sprintf("tuple has %d values, tile group has %d columns",
			len(values), tg.GetColumnCount()))
	}
	if tg.nextTupleSlot >= tg.capacity {
		return 0, errors.NewTileErrorf(errors.OutOfRange, "tile group %d is full, capacity %d", tg.tileGroupID,
			tg.capacity)
	}
	tupleID := tg.nextTupleSlot
	for colID, v := range values {
		if err := tg.SetValue(tupleID, colID, v); err != nil {
			return 0, err
		}
	}
	tg.nextTupleSlot++
	return tupleID, nil
}

func (tg *TileGroup) IsFull() bool {
	return tg.nextTupleSlot >= tg.capacity
}

// Tuple returns a read only view of one tuple, suitable as a predicate input.
func (tg *TileGroup) Tuple(tupleID int) TupleRef {
	return TupleRef{tileGroup: tg, tupleID: tupleID}
}

// Release hands all tile storage back to the backend. The tile group must not be read afterwards.
func (tg *TileGroup) Release() {
	for _, tile := range tg.tiles {
		tile.release()
	}
}

func (tg *TileGroup) String() string {
	return fmt.Sprintf("tile_group[table=%d,id=%d,tuples=%d/%d,groups=%d]", tg.tableID, tg.tileGroupID,
		tg.nextTupleSlot, tg.capacity, len(tg.tiles))
}

// TupleRef addresses one physical tuple in a tile group.
type TupleRef struct {
	tileGroup *TileGroup
	tupleID   int
}

func (t TupleRef) GetValue(columnID int) (common.Value, error) {
	return t.tileGroup.GetValue(t.tupleID, columnID)
}

func (t TupleRef) TupleID() int {
	return t.tupleID
}
