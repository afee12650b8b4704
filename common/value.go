package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/squareup/tilestore/errors"
)

// Value is a single typed datum. Varchar values own their bytes.
type Value struct {
	typ  Type
	null bool
	i    int64
	f    float64
	s    string
}

var (
	TrueValue  = NewBooleanValue(true)
	FalseValue = NewBooleanValue(false)
)

func NewBooleanValue(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{typ: TypeBoolean, i: i}
}

func NewTinyIntValue(v int8) Value {
	return Value{typ: TypeTinyInt, i: int64(v)}
}

func NewIntValue(v int32) Value {
	return Value{typ: TypeInt, i: int64(v)}
}

func NewBigIntValue(v int64) Value {
	return Value{typ: TypeBigInt, i: v}
}

func NewDoubleValue(v float64) Value {
	return Value{typ: TypeDouble, f: v}
}

func NewVarcharValue(v string) Value {
	return Value{typ: TypeVarchar, s: v}
}

func NewNullValue(typ Type) Value {
	return Value{typ: typ, null: true}
}

// NewValue builds a value of the given column type from a Go value. Integers are range checked against the
// column width.
func NewValue(colType ColumnType, v interface{}) (Value, error) {
	if v == nil {
		return NewNullValue(colType.Type), nil
	}
	switch colType.Type {
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return Value{}, errors.Errorf("cannot convert %T to %s", v, colType)
		}
		return NewBooleanValue(b), nil
	case TypeTinyInt, TypeInt, TypeBigInt:
		var i int64
		switch iv := v.(type) {
		case int:
			i = int64(iv)
		case int8:
			i = int64(iv)
		case int16:
			i = int64(iv)
		case int32:
			i = int64(iv)
		case int64:
			i = iv
		default:
			return Value{}, errors.Errorf("cannot convert %T to %s", v, colType)
		}
		switch colType.Type {
		case TypeTinyInt:
			if i < math.MinInt8 || i > math.MaxInt8 {
				return Value{}, errors.NewTileErrorf(errors.OutOfRange, "value %d out of range for %s", i, colType)
			}
		case TypeInt:
			if i < math.MinInt32 || i > math.MaxInt32 {
				return Value{}, errors.NewTileErrorf(errors.OutOfRange, "value %d out of range for %s", i, colType)
			}
		}
		return Value{typ: colType.Type, i: i}, nil
	case TypeDouble:
		switch fv := v.(type) {
		case float64:
			return NewDoubleValue(fv), nil
		case float32:
			return NewDoubleValue(float64(fv)), nil
		}
		return Value{}, errors.Errorf("cannot convert %T to %s", v, colType)
	case TypeVarchar:
		s, ok := v.(string)
		if !ok {
			return Value{}, errors.Errorf("cannot convert %T to %s", v, colType)
		}
		return NewVarcharValue(s), nil
	default:
		return Value{}, errors.Errorf("unexpected column type %s", colType)
	}
}

func (v Value) Type() Type {
	return v.typ
}

func (v Value) IsNull() bool {
	return v.null
}

func (v Value) GetBoolean() bool {
	return v.i != 0
}

func (v Value) GetInt64() int64 {
	return v.i
}

func (v Value) GetFloat64() float64 {
	if v.typ.IsInteger() {
		return float64(v.i)
	}
	return v.f
}

func (v Value) GetString() string {
	return v.s
}

// IsTrue is false for NULL and for anything that is not a true boolean.
func (v Value) IsTrue() bool {
	return !v.null && v.typ == TypeBoolean && v.i != 0
}

// Compare orders two non null values. Integers of any width and doubles compare numerically, varchars compare
// bytewise, booleans order false before true. Any other pairing is a type mismatch.
func (v Value) Compare(other Value) (int, error) {
	switch {
	case v.typ.IsInteger() && other.typ.IsInteger():
		return compareInt64(v.i, other.i), nil
	case v.typ.IsNumeric() && other.typ.IsNumeric():
		return compareFloat64(v.GetFloat64(), other.GetFloat64()), nil
	case v.typ == TypeVarchar && other.typ == TypeVarchar:
		return strings.Compare(v.s, other.s), nil
	case v.typ == TypeBoolean && other.typ == TypeBoolean:
		return compareInt64(v.i, other.i), nil
	default:
		return 0, errors.NewTypeMismatchError(v.typ, other.typ)
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareFloat64 orders NaN after every number and equal to itself.
func compareFloat64(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (v Value) String() string {
	if v.null {
		return "NULL"
	}
	switch v.typ {
	case TypeBoolean:
		return strconv.FormatBool(v.i != 0)
	case TypeTinyInt, TypeInt, TypeBigInt:
		return strconv.FormatInt(v.i, 10)
	case TypeDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeVarchar:
		return v.s
	default:
		return fmt.Sprintf("unknown(%d)", v.typ)
	}
}
