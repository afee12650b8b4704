// Package txn provides the transaction handle executors carry. Executors never look inside it.
package txn

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/tilestore/common"
	"github.com/squareup/tilestore/errors"
)

type State int

const (
	StateActive State = iota
	StateCommitted
	StateAborted
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

type Transaction struct {
	id    uint64
	ref   uuid.UUID
	lock  sync.Mutex
	state State
}

func (t *Transaction) ID() uint64 {
	return t.id
}

// Ref is a globally unique reference for log correlation.
func (t *Transaction) Ref() string {
	return t.ref.String()
}

func (t *Transaction) State() State {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.state
}

func (t *Transaction) String() string {
	return fmt.Sprintf("txn[id=%d,ref=%s,state=%s]", t.id, t.ref, t.State())
}

type Manager struct {
	idGen  common.SeqGenerator
	lock   sync.Mutex
	active map[uint64]*Transaction
}

func NewManager(idGen common.SeqGenerator) *Manager {
	return &Manager{idGen: idGen, active: make(map[uint64]*Transaction)}
}

func (m *Manager) BeginTransaction() (*Transaction, error) {
	ref, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	tx := &Transaction{id: m.idGen.GenerateSequence(), ref: ref, state: StateActive}
	m.lock.Lock()
	m.active[tx.id] = tx
	m.lock.Unlock()
	log.Debugf("began %s", tx)
	return tx, nil
}

func (m *Manager) CommitTransaction(tx *Transaction) error {
	return m.transition(tx, StateActive, StateCommitted)
}

func (m *Manager) AbortTransaction(tx *Transaction) error {
	return m.transition(tx, StateActive, StateAborted)
}

// EndTransaction forgets a committed or aborted transaction.
func (m *Manager) EndTransaction(tx *Transaction) error {
	tx.lock.Lock()
	defer tx.lock.Unlock()
	if tx.state != StateCommitted && tx.state != StateAborted {
		return errors.Errorf("cannot end transaction %d in state %s", tx.id, tx.state)
	}
	tx.state = StateEnded
	m.lock.Lock()
	delete(m.active, tx.id)
	m.lock.Unlock()
	return nil
}

func (m *Manager) ActiveCount() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.active)
}

func (m *Manager) transition(tx *Transaction, from State, to State) error {
	tx.lock.Lock()
	defer tx.lock.Unlock()
	if tx.state != from {
		return errors.Errorf("cannot move transaction %d from %s to %s", tx.id, tx.state, to)
	}
	tx.state = to
	log.Debugf("transaction %d %s", tx.id, to)
	return nil
}
