package failinject

// NewDummyInjector returns an injector whose failpoints never fire. Executors use it unless a test installs a
// real one.
func NewDummyInjector() Injector {
	return &dummyInjector{}
}

type dummyInjector struct {
}

func (d *dummyInjector) RegisterFailpoint(name string) (Failpoint, error) {
	return &dummyFailpoint{}, nil
}

func (d *dummyInjector) GetFailpoint(name string) Failpoint {
	return &dummyFailpoint{}
}

func (d *dummyInjector) Start() error {
	return nil
}

func (d *dummyInjector) Stop() error {
	return nil
}

type dummyFailpoint struct {
}

func (df *dummyFailpoint) CheckFail() error {
	return nil
}

func (df *dummyFailpoint) SetFailAction(action FailAction) error {
	return nil
}

func (df *dummyFailpoint) Deactivate() error {
	return nil
}
