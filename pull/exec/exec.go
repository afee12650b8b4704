package exec

import (
	"github.com/squareup/tilestore/errors"
)

// Executor is a node of a pull based operator tree. A caller calls Init once, then Execute until it returns
// false, taking the produced tile with GetOutput after every Execute that returned true.
type Executor interface {
	// Init initializes children first, then the executor itself.
	Init() error
	// Execute produces the next output tile. It returns false once the executor is exhausted, and keeps
	// returning false after that.
	Execute() (bool, error)
	// GetOutput hands over the tile produced by the last successful Execute. It returns nil if there is none.
	GetOutput() *LogicalTile
	AddChild(child Executor)
	GetChildren() []Executor
}

type executorState int

const (
	stateUninitialized executorState = iota
	stateInitialized
	stateExecuting
	stateExhausted
)

func (s executorState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitialized:
		return "initialized"
	case stateExecuting:
		return "executing"
	case stateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

type executorBase struct {
	name     string
	children []Executor
	state    executorState
	output   *LogicalTile
}

func (e *executorBase) AddChild(child Executor) {
	e.children = append(e.children, child)
}

func (e *executorBase) GetChildren() []Executor {
	return e.children
}

func (e *executorBase) GetOutput() *LogicalTile {
	out := e.output
	e.output = nil
	return out
}

func (e *executorBase) initChildren() error {
	for _, child := range e.children {
		if err := child.Init(); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (e *executorBase) initialized() {
	e.state = stateInitialized
}

// checkExecutable reports whether Execute may go ahead. exhausted is true once the executor has finished.
func (e *executorBase) checkExecutable() (exhausted bool, err error) {
	switch e.state {
	case stateUninitialized:
		return false, errors.NewNotInitializedError(e.name)
	case stateExhausted:
		return true, nil
	default:
		return false, nil
	}
}

func (e *executorBase) produced(tile *LogicalTile) {
	e.output = tile
	e.state = stateExecuting
}

// exhaust moves the executor to its terminal state. Executors also call it after an error so nothing more is
// produced.
func (e *executorBase) exhaust() {
	e.output = nil
	e.state = stateExhausted
}

func ConnectExecutors(childExecutors []Executor, parent Executor) {
	for _, child := range childExecutors {
		parent.AddChild(child)
	}
}
