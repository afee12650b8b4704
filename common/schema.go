package common

import (
	"fmt"
	"strings"

	"github.com/squareup/tilestore/errors"
)

// Schema is an ordered sequence of typed columns. It also describes the physical layout of one slot in a tile:
// columns are laid out back to back in declaration order.
type Schema struct {
	columns []ColumnInfo
	offsets []int
	length  int
}

func NewSchema(columns ...ColumnInfo) (*Schema, error) {
	if len(columns) == 0 {
		return nil, errors.NewSchemaMismatchError("schema must have at least one column")
	}
	s := &Schema{
		columns: make([]ColumnInfo, len(columns)),
		offsets: make([]int, len(columns)),
	}
	for i, col := range columns {
		if col.Type == TypeUnknown {
			return nil, errors.NewSchemaMismatchError(fmt.Sprintf("column %d (%s) has unknown type", i, col.Name))
		}
		s.columns[i] = col
		s.offsets[i] = s.length
		s.length += col.FixedLength()
	}
	return s, nil
}

// MustNewSchema is for static schemas in tests and tools.
func MustNewSchema(columns ...ColumnInfo) *Schema {
	s, err := NewSchema(columns...)
	if err != nil {
		panic(err)
	}
	return s
}

// ConcatSchemas joins schemas in order. It is how a tile group's column groups rebuild the table schema.
func ConcatSchemas(schemas ...*Schema) (*Schema, error) {
	var cols []ColumnInfo
	for _, s := range schemas {
		cols = append(cols, s.columns...)
	}
	return NewSchema(cols...)
}

func (s *Schema) ColumnCount() int {
	return len(s.columns)
}

func (s *Schema) GetColumn(columnID int) ColumnInfo {
	return s.columns[columnID]
}

func (s *Schema) Columns() []ColumnInfo {
	return s.columns
}

func (s *Schema) ColumnTypes() []ColumnType {
	res := make([]ColumnType, len(s.columns))
	for i, col := range s.columns {
		res[i] = col.ColumnType
	}
	return res
}

func (s *Schema) ColumnNames() []string {
	res := make([]string, len(s.columns))
	for i, col := range s.columns {
		res[i] = col.Name
	}
	return res
}

// Offset is the byte offset of the column within a slot.
func (s *Schema) Offset(columnID int) int {
	return s.offsets[columnID]
}

// Length is the number of bytes in one slot.
func (s *Schema) Length() int {
	return s.length
}

// Project returns the schema made of the given columns, in the given order.
func (s *Schema) Project(columnIDs []int) (*Schema, error) {
	cols := make([]ColumnInfo, len(columnIDs))
	for i, colID := range columnIDs {
		if colID < 0 || colID >= len(s.columns) {
			return nil, errors.NewColumnOutOfRangeError(colID, len(s.columns))
		}
		cols[i] = s.columns[colID]
	}
	return NewSchema(cols...)
}

// Equal compares column names and types.
func (s *Schema) Equal(other *Schema) bool {
	if other == nil || len(s.columns) != len(other.columns) {
		return false
	}
	for i, col := range s.columns {
		if col != other.columns[i] {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	sb := strings.Builder{}
	sb.WriteString("(")
	for i, col := range s.columns {
		sb.WriteString(col.String())
		if i != len(s.columns)-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteString(")")
	return sb.String()
}
