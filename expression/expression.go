// Package expression contains the predicate trees evaluated by scans. A tree is read only once built and is
// evaluated against anything that can hand out column values by position, so the same predicate runs over a
// physical tile group tuple or a logical tile tuple.
package expression

import (
	"fmt"

	"github.com/squareup/tilestore/common"
)

// Tuple is a source of column values addressed by position.
type Tuple interface {
	GetValue(columnID int) (common.Value, error)
}

type ExpressionType int

const (
	ExpressionTypeConstant ExpressionType = iota
	ExpressionTypeTupleValue
	ExpressionTypeCompareEqual
	ExpressionTypeCompareNotEqual
	ExpressionTypeCompareLessThan
	ExpressionTypeCompareLessThanOrEqual
	ExpressionTypeCompareGreaterThan
	ExpressionTypeCompareGreaterThanOrEqual
	ExpressionTypeConjunctionAnd
	ExpressionTypeConjunctionOr
)

func (e ExpressionType) String() string {
	switch e {
	case ExpressionTypeConstant:
		return "constant"
	case ExpressionTypeTupleValue:
		return "tuple_value"
	case ExpressionTypeCompareEqual:
		return "="
	case ExpressionTypeCompareNotEqual:
		return "<>"
	case ExpressionTypeCompareLessThan:
		return "<"
	case ExpressionTypeCompareLessThanOrEqual:
		return "<="
	case ExpressionTypeCompareGreaterThan:
		return ">"
	case ExpressionTypeCompareGreaterThanOrEqual:
		return ">="
	case ExpressionTypeConjunctionAnd:
		return "AND"
	case ExpressionTypeConjunctionOr:
		return "OR"
	default:
		return fmt.Sprintf("unknown(%d)", int(e))
	}
}

func (e ExpressionType) IsComparison() bool {
	return e >= ExpressionTypeCompareEqual && e <= ExpressionTypeCompareGreaterThanOrEqual
}

func (e ExpressionType) IsConjunction() bool {
	return e == ExpressionTypeConjunctionAnd || e == ExpressionTypeConjunctionOr
}

type Expression interface {
	Evaluate(tuple Tuple) (common.Value, error)
	ExpressionType() ExpressionType
	String() string
}

// IsTrue evaluates expr and reports whether it produced boolean true. NULL counts as not true. A nil expression
// accepts everything.
func IsTrue(expr Expression, tuple Tuple) (bool, error) {
	if expr == nil {
		return true, nil
	}
	v, err := expr.Evaluate(tuple)
	if err != nil {
		return false, err
	}
	return v.IsTrue(), nil
}

type Constant struct {
	value common.Value
}

func NewConstant(value common.Value) *Constant {
	return &Constant{value: value}
}

func (c *Constant) Evaluate(Tuple) (common.Value, error) {
	return c.value, nil
}

func (c *Constant) ExpressionType() ExpressionType {
	return ExpressionTypeConstant
}

func (c *Constant) Value() common.Value {
	return c.value
}

func (c *Constant) String() string {
	if c.value.Type() == common.TypeVarchar && !c.value.IsNull() {
		return fmt.Sprintf("'%s'", c.value.GetString())
	}
	return c.value.String()
}

// TupleValue reads the column at a fixed position of whatever tuple it is evaluated against.
type TupleValue struct {
	columnID int
}

func NewTupleValue(columnID int) *TupleValue {
	return &TupleValue{columnID: columnID}
}

func (t *TupleValue) Evaluate(tuple Tuple) (common.Value, error) {
	return tuple.GetValue(t.columnID)
}

func (t *TupleValue) ExpressionType() ExpressionType {
	return ExpressionTypeTupleValue
}

func (t *TupleValue) ColumnID() int {
	return t.columnID
}

func (t *TupleValue) String() string {
	return fmt.Sprintf("$%d", t.columnID)
}
