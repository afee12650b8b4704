package metrics

type Counter interface {
	Inc()
	Add(v float64)
}

type Factory interface {
	CreateCounter(name string, description string) (Counter, error)

	Start() error

	Stop() error
}

// NoopCounter discards everything. Executors built without metrics use it.
type NoopCounter struct{}

func (NoopCounter) Inc() {}

func (NoopCounter) Add(float64) {}
