package common

import (
	"fmt"
	"strings"

	"github.com/squareup/tilestore/errors"
)

type Type int

const (
	TypeUnknown Type = iota
	TypeBoolean
	TypeTinyInt
	TypeInt
	TypeBigInt
	TypeDouble
	TypeVarchar
)

func (t Type) String() string {
	switch t {
	case TypeBoolean:
		return "BOOLEAN"
	case TypeTinyInt:
		return "TINYINT"
	case TypeInt:
		return "INT"
	case TypeBigInt:
		return "BIGINT"
	case TypeDouble:
		return "DOUBLE"
	case TypeVarchar:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

// Capture lets participle and kong decode a type name.
func (t *Type) Capture(tokens []string) error {
	text := strings.ToUpper(strings.Join(tokens, " "))
	switch text {
	case "BOOLEAN", "BOOL":
		*t = TypeBoolean
	case "TINYINT":
		*t = TypeTinyInt
	case "INT", "INTEGER":
		*t = TypeInt
	case "BIGINT":
		*t = TypeBigInt
	case "DOUBLE":
		*t = TypeDouble
	case "VARCHAR":
		*t = TypeVarchar
	default:
		return errors.Errorf("unknown column type %s", text)
	}
	return nil
}

func (t Type) IsInteger() bool {
	return t == TypeTinyInt || t == TypeInt || t == TypeBigInt
}

func (t Type) IsNumeric() bool {
	return t.IsInteger() || t == TypeDouble
}

var (
	BooleanColumnType = ColumnType{Type: TypeBoolean}
	TinyIntColumnType = ColumnType{Type: TypeTinyInt}
	IntColumnType     = ColumnType{Type: TypeInt}
	BigIntColumnType  = ColumnType{Type: TypeBigInt}
	DoubleColumnType  = ColumnType{Type: TypeDouble}
	VarcharColumnType = ColumnType{Type: TypeVarchar}
	UnknownColumnType = ColumnType{Type: TypeUnknown}

	// ColumnTypesByType allows lookup of ColumnType by Type.
	ColumnTypesByType = map[Type]ColumnType{
		TypeBoolean: BooleanColumnType,
		TypeTinyInt: TinyIntColumnType,
		TypeInt:     IntColumnType,
		TypeBigInt:  BigIntColumnType,
		TypeDouble:  DoubleColumnType,
		TypeVarchar: VarcharColumnType,
	}
)

type ColumnType struct {
	Type Type
}

func (c ColumnType) String() string {
	return c.Type.String()
}

// FixedLength is the number of bytes a column of this type occupies in a tile slot. Varchar columns store a
// handle into the tile's uninlined pool rather than the string bytes.
func (c ColumnType) FixedLength() int {
	switch c.Type {
	case TypeBoolean, TypeTinyInt:
		return 1
	case TypeInt:
		return 4
	case TypeBigInt, TypeDouble, TypeVarchar:
		return 8
	default:
		panic(fmt.Sprintf("no fixed length for column type %s", c.Type))
	}
}

func (c ColumnType) IsInlined() bool {
	return c.Type != TypeVarchar
}

type ColumnInfo struct {
	Name string
	ColumnType
}

func NewColumnInfo(name string, colType ColumnType) ColumnInfo {
	return ColumnInfo{Name: name, ColumnType: colType}
}

func (c ColumnInfo) String() string {
	return fmt.Sprintf("%s %s", c.Name, c.ColumnType)
}

// InferColumnType from Go type.
func InferColumnType(value interface{}) ColumnType {
	switch value.(type) {
	case bool:
		return BooleanColumnType
	case string:
		return VarcharColumnType
	case int, int64:
		return BigIntColumnType
	case int16, int32:
		return IntColumnType
	case int8:
		return TinyIntColumnType
	case float64, float32:
		return DoubleColumnType
	default:
		panic(fmt.Sprintf("can't infer column of type %T", value))
	}
}
