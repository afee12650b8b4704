package failinject

import (
	"fmt"
	"sync"

	"github.com/pingcap/failpoint"
	"github.com/squareup/tilestore/errors"
	"go.uber.org/atomic"
)

const (
	// SeqScanInit fails SeqScanExecutor.Init when active.
	SeqScanInit = "seq_scan_init"
	// MaterializeTile fails MaterializeExecutor.Execute when active.
	MaterializeTile = "materialize_tile"

	pathPrefix = "github.com/squareup/tilestore/failinject/"
)

func NewInjector() Injector {
	return &defaultInjector{failpoints: make(map[string]*defaultFailpoint)}
}

type Injector interface {
	RegisterFailpoint(name string) (Failpoint, error)
	GetFailpoint(name string) Failpoint
	Start() error
	Stop() error
}

type Failpoint interface {
	CheckFail() error
	SetFailAction(action FailAction) error
	Deactivate() error
}

type FailAction func() error

type defaultInjector struct {
	failpoints map[string]*defaultFailpoint
	lock       sync.Mutex
}

// defaultFailpoint is switched through the pingcap/failpoint registry so it can also be driven from the
// GO_FAILPOINTS environment variable.
type defaultFailpoint struct {
	name       string
	active     atomic.Bool
	lock       sync.Mutex
	failAction FailAction
}

func (i *defaultInjector) RegisterFailpoint(name string) (Failpoint, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	if _, ok := i.failpoints[name]; ok {
		return nil, errors.Errorf("failpoint %s already registered", name)
	}
	fp := &defaultFailpoint{
		name: name,
	}
	i.failpoints[name] = fp
	return fp, nil
}

func (i *defaultInjector) GetFailpoint(name string) Failpoint {
	i.lock.Lock()
	defer i.lock.Unlock()
	fp, ok := i.failpoints[name]
	if !ok {
		panic(fmt.Sprintf("no failpoint registered with name %s", name))
	}
	return fp
}

func (f *defaultFailpoint) path() string {
	return pathPrefix + f.name
}

func (f *defaultFailpoint) CheckFail() error {
	if !f.active.Load() {
		return nil
	}
	if _, err := failpoint.Eval(f.path()); err != nil {
		// not enabled in the registry
		return nil
	}
	f.lock.Lock()
	action := f.failAction
	f.lock.Unlock()
	if action == nil {
		return errors.Errorf("no fail action specified for failpoint %s", f.name)
	}
	return action()
}

func (f *defaultFailpoint) SetFailAction(action FailAction) error {
	f.lock.Lock()
	f.failAction = action
	f.lock.Unlock()
	if err := failpoint.Enable(f.path(), "return(true)"); err != nil {
		return errors.WithStack(err)
	}
	f.active.Store(true)
	return nil
}

func (f *defaultFailpoint) Deactivate() error {
	f.active.Store(false)
	f.lock.Lock()
	f.failAction = nil
	f.lock.Unlock()
	if err := failpoint.Disable(f.path()); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (i *defaultInjector) Start() error {
	return i.registerFailpoints()
}

func (i *defaultInjector) Stop() error {
	i.lock.Lock()
	defer i.lock.Unlock()
	for _, fp := range i.failpoints {
		if fp.active.Load() {
			if err := fp.Deactivate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (i *defaultInjector) registerFailpoints() error {
	if _, err := i.RegisterFailpoint(SeqScanInit); err != nil {
		return err
	}
	_, err := i.RegisterFailpoint(MaterializeTile)
	return err
}
