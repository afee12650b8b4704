// Package parser turns textual predicates such as `id = 30 OR name = '33'` into expression trees. Columns are
// referenced by name and resolved against a schema.
//
//nolint:govet
package parser

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer/stateful"
	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
	"github.com/squareup/tilestore/expression"
)

var (
	lex = stateful.MustSimple([]stateful.Rule{
		{`Ident`, "((?i)[a-zA-Z_][a-zA-Z_0-9]*)|`[^`]*`", nil},
		{`Number`, `[-+]?\d*\.?\d+([eE][-+]?\d+)?`, nil},
		{`String`, `'[^']*'|"[^"]*"`, nil},
		{`Punct`, `<>|!=|<=|>=|[(),=<>]`, nil},
		{`Whitespace`, `\s+`, nil},
	})
	parser = participle.MustBuild(&PredicateAST{},
		participle.Lexer(lex),
		participle.CaseInsensitive("Ident"),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
		participle.Unquote("String"),
	)
)

// PredicateAST is the root of a parsed predicate.
type PredicateAST struct {
	Or *OrExpr `@@`
}

type OrExpr struct {
	And []*AndExpr `@@ ( "OR" @@ )*`
}

type AndExpr struct {
	Terms []*Term `@@ ( "AND" @@ )*`
}

type Term struct {
	Sub        *OrExpr     `  "(" @@ ")"`
	Comparison *Comparison `| @@`
}

type Comparison struct {
	Left  *Operand `@@`
	Op    string   `@( "<>" | "!=" | "<=" | ">=" | "=" | "<" | ">" )`
	Right *Operand `@@`
}

type Operand struct {
	Null   bool    `  @"NULL"`
	True   bool    `| @"TRUE"`
	False  bool    `| @"FALSE"`
	Number *string `| @Number`
	Str    *string `| @String`
	Column *string `| @Ident`
}

// ParseAST parses text without resolving column names.
func ParseAST(text string) (*PredicateAST, error) {
	ast := &PredicateAST{}
	if err := parser.ParseString("", text, ast); err != nil {
		return nil, errors.WithStack(err)
	}
	return ast, nil
}

// Parse parses text and binds column names to positions in schema.
func Parse(text string, schema *common.Schema) (expression.Expression, error) {
	ast, err := ParseAST(text)
	if err != nil {
		return nil, err
	}
	b := &binder{schema: schema}
	return b.bindOr(ast.Or)
}

type binder struct {
	schema *common.Schema
}

func (b *binder) bindOr(or *OrExpr) (expression.Expression, error) {
	var res expression.Expression
	for _, and := range or.And {
		e, err := b.bindAnd(and)
		if err != nil {
			return nil, err
		}
		if res == nil {
			res = e
		} else {
			res = expression.Or(res, e)
		}
	}
	return res, nil
}

func (b *binder) bindAnd(and *AndExpr) (expression.Expression, error) {
	var res expression.Expression
	for _, term := range and.Terms {
		var e expression.Expression
		var err error
		if term.Sub != nil {
			e, err = b.bindOr(term.Sub)
		} else {
			e, err = b.bindComparison(term.Comparison)
		}
		if err != nil {
			return nil, err
		}
		if res == nil {
			res = e
		} else {
			res = expression.And(res, e)
		}
	}
	return res, nil
}

var comparisonTypes = map[string]expression.ExpressionType{
	"=":  expression.ExpressionTypeCompareEqual,
	"<>": expression.ExpressionTypeCompareNotEqual,
	"!=": expression.ExpressionTypeCompareNotEqual,
	"<":  expression.ExpressionTypeCompareLessThan,
	"<=": expression.ExpressionTypeCompareLessThanOrEqual,
	">":  expression.ExpressionTypeCompareGreaterThan,
	">=": expression.ExpressionTypeCompareGreaterThanOrEqual,
}

func (b *binder) bindComparison(c *Comparison) (expression.Expression, error) {
	left, err := b.bindOperand(c.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.bindOperand(c.Right)
	if err != nil {
		return nil, err
	}
	exprType, ok := comparisonTypes[c.Op]
	if !ok {
		return nil, errors.Errorf("unknown comparison operator %q", c.Op)
	}
	return expression.NewComparison(exprType, left, right)
}

func (b *binder) bindOperand(o *Operand) (expression.Expression, error) {
	switch {
	case o.Null:
		return expression.NewConstant(common.NewNullValue(common.TypeUnknown)), nil
	case o.True:
		return expression.NewConstant(common.TrueValue), nil
	case o.False:
		return expression.NewConstant(common.FalseValue), nil
	case o.Number != nil:
		return numberConstant(*o.Number)
	case o.Str != nil:
		return expression.NewConstant(common.NewVarcharValue(*o.Str)), nil
	case o.Column != nil:
		return b.bindColumn(*o.Column)
	default:
		return nil, errors.New("empty operand")
	}
}

func numberConstant(text string) (expression.Expression, error) {
	if !strings.ContainsAny(text, ".eE") {
		i, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return expression.NewConstant(common.NewBigIntValue(i)), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid number %s", text)
	}
	return expression.NewConstant(common.NewDoubleValue(f)), nil
}

func (b *binder) bindColumn(name string) (expression.Expression, error) {
	name = strings.Trim(name, "`")
	for i, col := range b.schema.Columns() {
		if strings.EqualFold(col.Name, name) {
			return expression.NewTupleValue(i), nil
		}
	}
	return nil, errors.NewTileErrorf(errors.InvalidPlan, "unknown column %s", name)
}
