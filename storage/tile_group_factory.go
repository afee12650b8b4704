package storage

import (
	"fmt"

	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
)

// InvalidTileGroupID is never handed out by a factory.
const InvalidTileGroupID uint64 = 0

// TileGroupFactory builds tile groups for tables. Ids come from the generator it is given, so separate
// factories (for example in separate tests) never share state.
type TileGroupFactory struct {
	idGen common.SeqGenerator
}

func NewTileGroupFactory(idGen common.SeqGenerator) *TileGroupFactory {
	return &TileGroupFactory{idGen: idGen}
}

// NewTileGroupFactoryFromOne is a factory whose first tile group id is 1.
func NewTileGroupFactoryFromOne() *TileGroupFactory {
	return NewTileGroupFactory(common.NewAtomicSeqGenerator(1))
}

// NewTileGroup creates a tile group for table partitioned into the given column groups. The column groups must
// rebuild the table schema when concatenated in order.
func (f *TileGroupFactory) NewTileGroup(table *DataTable, schemas []*common.Schema, capacity int) (*TileGroup, error) {
	if err := validatePartitioning(table.GetSchema(), schemas); err != nil {
		return nil, err
	}
	id := f.idGen.GenerateSequence()
	if id == InvalidTileGroupID {
		return nil, errors.Errorf("id generator returned the invalid tile group id %d", id)
	}
	return NewTileGroup(table.GetTableID(), id, table.GetBackend(), schemas, capacity)
}

// NewTileGroupWithWidths partitions the table schema into consecutive column groups of the given widths, so
// {2, 2} over a four column table gives two groups of two columns.
func (f *TileGroupFactory) NewTileGroupWithWidths(table *DataTable, widths []int, capacity int) (*TileGroup, error) {
	schemas, err := PartitionSchema(table.GetSchema(), widths)
	if err != nil {
		return nil, err
	}
	return f.NewTileGroup(table, schemas, capacity)
}

// PartitionSchema splits schema into consecutive column groups of the given widths.
func PartitionSchema(schema *common.Schema, widths []int) ([]*common.Schema, error) {
	total := 0
	for _, w := range widths {
		if w <= 0 {
			return nil, errors.NewSchemaMismatchError(fmt.Sprintf("column group width must be > 0, got %d", w))
		}
		total += w
	}
	if total != schema.ColumnCount() {
		return nil, errors.NewSchemaMismatchError(fmt.Sprintf("column group widths add up to %d, table has %d columns",
			total, schema.ColumnCount()))
	}
	var schemas []*common.Schema
	start := 0
	for _, w := range widths {
		ids := make([]int, w)
		for i := range ids {
			ids[i] = start + i
		}
		s, err := schema.Project(ids)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
		start += w
	}
	return schemas, nil
}

func validatePartitioning(tableSchema *common.Schema, schemas []*common.Schema) error {
	if len(schemas) == 0 {
		return errors.NewSchemaMismatchError("tile group needs at least one column group")
	}
	concat, err := common.ConcatSchemas(schemas...)
	if err != nil {
		return err
	}
	if !concat.Equal(tableSchema) {
		return errors.NewSchemaMismatchError(fmt.Sprintf("column groups %s do not rebuild table schema %s",
			concat, tableSchema))
	}
	return nil
}
