package storage

import (
	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
)

// Tile is the physical storage of one column group. Slots are fixed width and laid out row by row, varchar
// columns hold a handle into the uninlined pool owned by the tile.
type Tile struct {
	schema    *common.Schema
	capacity  int
	data      []byte
	nulls     []bool
	uninlined []string
	backend   Backend
}

func newTile(backend Backend, schema *common.Schema, capacity int) (*Tile, error) {
	data, err := backend.Allocate(capacity * schema.Length())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Tile{
		schema:   schema,
		capacity: capacity,
		data:     data,
		nulls:    make([]bool, capacity*schema.ColumnCount()),
		backend:  backend,
	}, nil
}

func (t *Tile) Schema() *common.Schema {
	return t.schema
}

func (t *Tile) Capacity() int {
	return t.capacity
}

func (t *Tile) ColumnCount() int {
	return t.schema.ColumnCount()
}

func (t *Tile) checkBounds(tupleID int, columnID int) error {
	if tupleID < 0 || tupleID >= t.capacity {
		return errors.NewTupleOutOfRangeError(tupleID, t.capacity)
	}
	if columnID < 0 || columnID >= t.schema.ColumnCount() {
		return errors.NewColumnOutOfRangeError(columnID, t.schema.ColumnCount())
	}
	return nil
}

func (t *Tile) slotOffset(tupleID int, columnID int) int {
	return tupleID*t.schema.Length() + t.schema.Offset(columnID)
}

func (t *Tile) GetValue(tupleID int, columnID int) (common.Value, error) {
	if err := t.checkBounds(tupleID, columnID); err != nil {
		return common.Value{}, err
	}
	colType := t.schema.GetColumn(columnID).ColumnType
	if t.nulls[tupleID*t.schema.ColumnCount()+columnID] {
		return common.NewNullValue(colType.Type), nil
	}
	off := t.slotOffset(tupleID, columnID)
	switch colType.Type {
	case common.TypeBoolean:
		return common.NewBooleanValue(t.data[off] != 0), nil
	case common.TypeTinyInt:
		return common.NewTinyIntValue(int8(t.data[off])), nil
	case common.TypeInt:
		u, _ := common.ReadUint32FromBufferLE(t.data, off)
		return common.NewIntValue(int32(u)), nil
	case common.TypeBigInt:
		i, _ := common.ReadInt64FromBufferLE(t.data, off)
		return common.NewBigIntValue(i), nil
	case common.TypeDouble:
		f, _ := common.ReadFloat64FromBufferLE(t.data, off)
		return common.NewDoubleValue(f), nil
	case common.TypeVarchar:
		handle, _ := common.ReadUint64FromBufferLE(t.data, off)
		if handle == 0 {
			// never written
			return common.NewVarcharValue(""), nil
		}
		return common.NewVarcharValue(t.uninlined[handle-1]), nil
	default:
		return common.Value{}, errors.Errorf("unexpected column type %s", colType)
	}
}

func (t *Tile) SetValue(tupleID int, columnID int, value common.Value) error {
	if err := t.checkBounds(tupleID, columnID); err != nil {
		return err
	}
	colType := t.schema.GetColumn(columnID).ColumnType
	if value.Type() != colType.Type {
		return errors.NewTileErrorf(errors.TypeMismatch, "cannot store %s value in %s column %d",
			value.Type(), colType, columnID)
	}
	nullIndex := tupleID*t.schema.ColumnCount() + columnID
	t.nulls[nullIndex] = value.IsNull()
	if value.IsNull() {
		return nil
	}
	off := t.slotOffset(tupleID, columnID)
	switch colType.Type {
	case common.TypeBoolean:
		if value.GetBoolean() {
			t.data[off] = 1
		} else {
			t.data[off] = 0
		}
	case common.TypeTinyInt:
		t.data[off] = byte(int8(value.GetInt64()))
	case common.TypeInt:
		common.WriteUint32ToBufferLE(t.data, off, uint32(int32(value.GetInt64())))
	case common.TypeBigInt:
		common.WriteUint64ToBufferLE(t.data, off, uint64(value.GetInt64()))
	case common.TypeDouble:
		common.WriteFloat64ToBufferLE(t.data, off, value.GetFloat64())
	case common.TypeVarchar:
		handle, _ := common.ReadUint64FromBufferLE(t.data, off)
		if handle != 0 {
			t.uninlined[handle-1] = value.GetString()
		} else {
			t.uninlined = append(t.uninlined, value.GetString())
			common.WriteUint64ToBufferLE(t.data, off, uint64(len(t.uninlined)))
		}
	}
	return nil
}

// UninlinedCount is the number of varchar values held in the tile's pool.
func (t *Tile) UninlinedCount() int {
	return len(t.uninlined)
}

func (t *Tile) release() {
	if t.data == nil {
		return
	}
	t.backend.Release(t.data)
	t.data = nil
	t.nulls = nil
	t.uninlined = nil
}
