package pull

import (
	"github.com/squareup/tilestore/errors"
	"github.com/squareup/tilestore/planner"
	"github.com/squareup/tilestore/pull/exec"
	"github.com/squareup/tilestore/txn"
)

func (p *Engine) buildDAG(plan *planner.Plan, tx *txn.Transaction) (exec.Executor, error) {
	if plan == nil || plan.Node == nil {
		return nil, errors.NewInvalidPlanError("empty plan")
	}
	var executor exec.Executor
	switch node := plan.Node.(type) {
	case *planner.SeqScanNode:
		scan := exec.NewSeqScanExecutor(node, tx)
		scan.SetInjector(p.injector)
		executor = scan
	case *planner.MaterializeNode:
		mat := exec.NewMaterializeExecutor(node, p.backend)
		mat.SetInjector(p.injector)
		executor = mat
	default:
		return nil, errors.NewInvalidPlanError("unexpected plan node " + plan.Node.String())
	}

	var childExecutors []exec.Executor
	for _, child := range plan.Children {
		childExecutor, err := p.buildDAG(child, tx)
		if err != nil {
			return nil, err
		}
		childExecutors = append(childExecutors, childExecutor)
	}
	exec.ConnectExecutors(childExecutors, executor)

	return executor, nil
}
