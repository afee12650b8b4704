// Package pull runs plans as pull based executor trees inside a transaction.
package pull

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/tilestore/errors"
	"github.com/squareup/tilestore/failinject"
	"github.com/squareup/tilestore/planner"
	"github.com/squareup/tilestore/pull/exec"
	"github.com/squareup/tilestore/storage"
	"github.com/squareup/tilestore/txn"
)

// TileHandler receives every output tile of a query. The tile is released once the handler returns.
type TileHandler func(tile *exec.LogicalTile) error

type Engine struct {
	lock       sync.RWMutex
	started    bool
	backend    storage.Backend
	txnManager *txn.Manager
	injector   failinject.Injector
}

// NewEngine creates an engine whose materialized tiles are allocated from backend. A nil injector means no
// failpoints are consulted.
func NewEngine(backend storage.Backend, txnManager *txn.Manager, injector failinject.Injector) *Engine {
	if injector == nil {
		injector = failinject.NewDummyInjector()
	}
	return &Engine{
		backend:    backend,
		txnManager: txnManager,
		injector:   injector,
	}
}

func (p *Engine) Start() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.started {
		return nil
	}
	p.started = true
	return nil
}

func (p *Engine) Stop() {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.started {
		return
	}
	p.started = false
}

// BuildQuery builds the executor tree for plan. The tree is not initialized.
func (p *Engine) BuildQuery(plan *planner.Plan, tx *txn.Transaction) (exec.Executor, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if !p.started {
		return nil, errors.New("pull engine is not started")
	}
	return p.buildDAG(plan, tx)
}

// ExecuteQuery runs plan to completion in a new transaction and passes each output tile to handler. It returns
// the number of tiles produced. The transaction is committed if the query and every handler call succeed, and
// aborted otherwise.
func (p *Engine) ExecuteQuery(plan *planner.Plan, handler TileHandler) (int, error) {
	tx, err := p.txnManager.BeginTransaction()
	if err != nil {
		return 0, err
	}
	count, err := p.executeInTx(plan, tx, handler)
	if err != nil {
		if err2 := p.txnManager.AbortTransaction(tx); err2 != nil {
			log.Warnf("failed to abort %s: %v", tx, err2)
		} else if err2 := p.txnManager.EndTransaction(tx); err2 != nil {
			log.Warnf("failed to end %s: %v", tx, err2)
		}
		return count, err
	}
	if err := p.txnManager.CommitTransaction(tx); err != nil {
		return count, err
	}
	return count, p.txnManager.EndTransaction(tx)
}

func (p *Engine) executeInTx(plan *planner.Plan, tx *txn.Transaction, handler TileHandler) (int, error) {
	root, err := p.BuildQuery(plan, tx)
	if err != nil {
		return 0, err
	}
	if err := root.Init(); err != nil {
		return 0, err
	}
	log.Debugf("executing %s in %s", plan, tx)
	count := 0
	for {
		ok, err := root.Execute()
		if err != nil {
			return count, err
		}
		if !ok {
			return count, nil
		}
		tile := root.GetOutput()
		count++
		err = handler(tile)
		tile.Release()
		if err != nil {
			return count, err
		}
	}
}
