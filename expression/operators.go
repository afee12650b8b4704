package expression

import (
	"fmt"

	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
)

// Comparison compares its two children. The result is NULL if either side is NULL.
type Comparison struct {
	exprType ExpressionType
	left     Expression
	right    Expression
}

func NewComparison(exprType ExpressionType, left Expression, right Expression) (*Comparison, error) {
	if !exprType.IsComparison() {
		return nil, errors.Errorf("%s is not a comparison", exprType)
	}
	if left == nil || right == nil {
		return nil, errors.New("comparison needs two operands")
	}
	return &Comparison{exprType: exprType, left: left, right: right}, nil
}

// Equal is NewComparison for =, which never fails with two operands.
func Equal(left Expression, right Expression) *Comparison {
	return &Comparison{exprType: ExpressionTypeCompareEqual, left: left, right: right}
}

func (c *Comparison) Evaluate(tuple Tuple) (common.Value, error) {
	lv, err := c.left.Evaluate(tuple)
	if err != nil {
		return common.Value{}, err
	}
	rv, err := c.right.Evaluate(tuple)
	if err != nil {
		return common.Value{}, err
	}
	if lv.IsNull() || rv.IsNull() {
		return common.NewNullValue(common.TypeBoolean), nil
	}
	cmp, err := lv.Compare(rv)
	if err != nil {
		return common.Value{}, errors.WithStack(err)
	}
	var res bool
	switch c.exprType {
	case ExpressionTypeCompareEqual:
		res = cmp == 0
	case ExpressionTypeCompareNotEqual:
		res = cmp != 0
	case ExpressionTypeCompareLessThan:
		res = cmp < 0
	case ExpressionTypeCompareLessThanOrEqual:
		res = cmp <= 0
	case ExpressionTypeCompareGreaterThan:
		res = cmp > 0
	case ExpressionTypeCompareGreaterThanOrEqual:
		res = cmp >= 0
	}
	return common.NewBooleanValue(res), nil
}

func (c *Comparison) ExpressionType() ExpressionType {
	return c.exprType
}

func (c *Comparison) Left() Expression {
	return c.left
}

func (c *Comparison) Right() Expression {
	return c.right
}

func (c *Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", c.left, c.exprType, c.right)
}

// Conjunction is AND or OR with SQL three valued logic. Both children are always evaluated.
type Conjunction struct {
	exprType ExpressionType
	left     Expression
	right    Expression
}

func NewConjunction(exprType ExpressionType, left Expression, right Expression) (*Conjunction, error) {
	if !exprType.IsConjunction() {
		return nil, errors.Errorf("%s is not a conjunction", exprType)
	}
	if left == nil || right == nil {
		return nil, errors.New("conjunction needs two operands")
	}
	return &Conjunction{exprType: exprType, left: left, right: right}, nil
}

func And(left Expression, right Expression) *Conjunction {
	return &Conjunction{exprType: ExpressionTypeConjunctionAnd, left: left, right: right}
}

func Or(left Expression, right Expression) *Conjunction {
	return &Conjunction{exprType: ExpressionTypeConjunctionOr, left: left, right: right}
}

func (c *Conjunction) Evaluate(tuple Tuple) (common.Value, error) {
	lv, err := c.left.Evaluate(tuple)
	if err != nil {
		return common.Value{}, err
	}
	rv, err := c.right.Evaluate(tuple)
	if err != nil {
		return common.Value{}, err
	}
	l, lNull, err := asBoolean(lv)
	if err != nil {
		return common.Value{}, err
	}
	r, rNull, err := asBoolean(rv)
	if err != nil {
		return common.Value{}, err
	}
	if c.exprType == ExpressionTypeConjunctionAnd {
		switch {
		case (!lNull && !l) || (!rNull && !r):
			return common.FalseValue, nil
		case lNull || rNull:
			return common.NewNullValue(common.TypeBoolean), nil
		default:
			return common.TrueValue, nil
		}
	}
	switch {
	case (!lNull && l) || (!rNull && r):
		return common.TrueValue, nil
	case lNull || rNull:
		return common.NewNullValue(common.TypeBoolean), nil
	default:
		return common.FalseValue, nil
	}
}

func asBoolean(v common.Value) (val bool, null bool, err error) {
	if v.IsNull() {
		return false, true, nil
	}
	if v.Type() != common.TypeBoolean {
		return false, false, errors.NewTileErrorf(errors.TypeMismatch, "conjunction operand must be BOOLEAN, got %s",
			v.Type())
	}
	return v.GetBoolean(), false, nil
}

func (c *Conjunction) ExpressionType() ExpressionType {
	return c.exprType
}

func (c *Conjunction) Left() Expression {
	return c.left
}

func (c *Conjunction) Right() Expression {
	return c.right
}

func (c *Conjunction) String() string {
	return fmt.Sprintf("(%s %s %s)", c.left, c.exprType, c.right)
}
