// Package planner holds the plan nodes executors are built from. Plan nodes are read only once handed to an
// executor.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/expression"
	"github.com/squareup/tilestore/storage"
)

type PlanNodeType int

const (
	PlanNodeTypeSeqScan PlanNodeType = iota
	PlanNodeTypeMaterialize
)

func (p PlanNodeType) String() string {
	switch p {
	case PlanNodeTypeSeqScan:
		return "SeqScan"
	case PlanNodeTypeMaterialize:
		return "Materialize"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

type PlanNode interface {
	GetPlanNodeType() PlanNodeType
	String() string
}

// SeqScanNode describes a sequential scan. A nil Table means the scan filters the tiles of its child executor.
// An empty ColumnIDs means all columns.
type SeqScanNode struct {
	Table     *storage.DataTable
	Predicate expression.Expression
	ColumnIDs []int
}

var _ PlanNode = &SeqScanNode{}

func NewSeqScanNode(table *storage.DataTable, predicate expression.Expression, columnIDs []int) *SeqScanNode {
	return &SeqScanNode{
		Table:     table,
		Predicate: predicate,
		ColumnIDs: columnIDs,
	}
}

func (s *SeqScanNode) GetPlanNodeType() PlanNodeType {
	return PlanNodeTypeSeqScan
}

func (s *SeqScanNode) IsLeaf() bool {
	return s.Table != nil
}

func (s *SeqScanNode) String() string {
	target := "child"
	if s.Table != nil {
		target = s.Table.GetName()
	}
	pred := "true"
	if s.Predicate != nil {
		pred = s.Predicate.String()
	}
	return fmt.Sprintf("SeqScan(target=%s, predicate=%s, columns=%v)", target, pred, s.ColumnIDs)
}

// MaterializeNode copies the visible tuples of its child's tiles into physical storage. OldToNewCols maps a
// column id of the input tile to the output column id; an empty map keeps every column in place.
type MaterializeNode struct {
	OldToNewCols map[int]int
	ColumnNames  []string
	Schema       *common.Schema
}

var _ PlanNode = &MaterializeNode{}

func NewMaterializeNode(oldToNewCols map[int]int, columnNames []string, schema *common.Schema) *MaterializeNode {
	return &MaterializeNode{
		OldToNewCols: oldToNewCols,
		ColumnNames:  columnNames,
		Schema:       schema,
	}
}

func (m *MaterializeNode) GetPlanNodeType() PlanNodeType {
	return PlanNodeTypeMaterialize
}

func (m *MaterializeNode) String() string {
	olds := make([]int, 0, len(m.OldToNewCols))
	for old := range m.OldToNewCols {
		olds = append(olds, old)
	}
	sort.Ints(olds)
	var mappings []string
	for _, old := range olds {
		mappings = append(mappings, fmt.Sprintf("%d->%d", old, m.OldToNewCols[old]))
	}
	return fmt.Sprintf("Materialize(columns=[%s], names=%v)", strings.Join(mappings, ", "), m.ColumnNames)
}

// Plan is a plan node together with the plans of the executors that feed it.
type Plan struct {
	Node     PlanNode
	Children []*Plan
}

func NewPlan(node PlanNode, children ...*Plan) *Plan {
	return &Plan{Node: node, Children: children}
}

func (p *Plan) String() string {
	if len(p.Children) == 0 {
		return p.Node.String()
	}
	children := make([]string, len(p.Children))
	for i, child := range p.Children {
		children[i] = child.String()
	}
	return fmt.Sprintf("%s <- [%s]", p.Node.String(), strings.Join(children, ", "))
}
