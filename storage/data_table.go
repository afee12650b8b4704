package storage

import (
	"fmt"

	"github.com/google/btree"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
)

// DataTable owns an ordered sequence of tile groups. Tile groups are appended and never reordered; each may be
// partitioned differently but must rebuild the table schema.
type DataTable struct {
	id             uint64
	name           string
	schema         *common.Schema
	backend        Backend
	tileGroups     []*TileGroup
	tileGroupIndex *btree.BTree
}

func NewDataTable(id uint64, name string, schema *common.Schema, backend Backend) *DataTable {
	return &DataTable{
		id:             id,
		name:           name,
		schema:         schema,
		backend:        backend,
		tileGroupIndex: btree.New(3),
	}
}

func (d *DataTable) GetTableID() uint64 {
	return d.id
}

func (d *DataTable) GetName() string {
	return d.name
}

func (d *DataTable) GetSchema() *common.Schema {
	return d.schema
}

func (d *DataTable) GetBackend() Backend {
	return d.backend
}

// AddTileGroup appends tg, the table takes ownership of it.
func (d *DataTable) AddTileGroup(tg *TileGroup) error {
	if tg.GetTableID() != d.id {
		return errors.NewSchemaMismatchError(fmt.Sprintf("tile group %d belongs to table %d, not %d",
			tg.GetTileGroupID(), tg.GetTableID(), d.id))
	}
	if !tg.GetSchema().Equal(d.schema) {
		return errors.NewSchemaMismatchError(fmt.Sprintf("tile group %d schema %s does not match table schema %s",
			tg.GetTileGroupID(), tg.GetSchema(), d.schema))
	}
	item := &tileGroupItem{id: tg.GetTileGroupID(), offset: len(d.tileGroups)}
	if d.tileGroupIndex.Has(item) {
		return errors.Errorf("table %s already has a tile group with id %d", d.name, tg.GetTileGroupID())
	}
	d.tileGroupIndex.ReplaceOrInsert(item)
	d.tileGroups = append(d.tileGroups, tg)
	log.Debugf("added %s to table %s at offset %d", tg, d.name, item.offset)
	return nil
}

func (d *DataTable) GetTileGroup(offset int) (*TileGroup, error) {
	if offset < 0 || offset >= len(d.tileGroups) {
		return nil, errors.NewTileGroupOutOfRangeError(offset, len(d.tileGroups))
	}
	return d.tileGroups[offset], nil
}

func (d *DataTable) GetTileGroupByID(tileGroupID uint64) (*TileGroup, bool) {
	item := d.tileGroupIndex.Get(&tileGroupItem{id: tileGroupID})
	if item == nil {
		return nil, false
	}
	return d.tileGroups[item.(*tileGroupItem).offset], true
}

func (d *DataTable) GetTileGroupCount() int {
	return len(d.tileGroups)
}

// GetTupleCount sums the populated slots over all tile groups.
func (d *DataTable) GetTupleCount() int {
	count := 0
	for _, tg := range d.tileGroups {
		count += tg.GetTupleCount()
	}
	return count
}

// Close releases every tile group back to the backend.
func (d *DataTable) Close() {
	for _, tg := range d.tileGroups {
		tg.Release()
	}
	d.tileGroups = nil
	d.tileGroupIndex = btree.New(3)
}

func (d *DataTable) String() string {
	return fmt.Sprintf("table[name=%s,id=%d,tile_groups=%d]", d.name, d.id, len(d.tileGroups))
}

type tileGroupItem struct {
	id     uint64
	offset int
}

func (t *tileGroupItem) Less(than btree.Item) bool {
	return t.id < than.(*tileGroupItem).id
}
