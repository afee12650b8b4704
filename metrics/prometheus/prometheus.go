package prometheus

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/tilestore/errors"
	"github.com/squareup/tilestore/metrics"
)

const DefaultListenAddr = "localhost:2112"

// Factory creates prometheus counters and serves them over http while started.
type Factory struct {
	listenAddr string
	lock       sync.Mutex
	httpServer *http.Server
	started    bool
}

func NewFactory(listenAddr string) metrics.Factory {
	if listenAddr == "" {
		listenAddr = DefaultListenAddr
	}
	return &Factory{listenAddr: listenAddr}
}

func (f *Factory) CreateCounter(name string, description string) (metrics.Counter, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.started {
		return nil, errors.New("not started")
	}
	counter := promauto.NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: description,
	})
	return &Counter{pCounter: counter}, nil
}

func (f *Factory) Start() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.started {
		return errors.New("already started")
	}
	f.httpServer = &http.Server{Addr: f.listenAddr, Handler: promhttp.Handler()}
	f.started = true
	go func(srv *http.Server, addr string) {
		log.Debugf("starting prometheus http server on address %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("prometheus http export server failed to listen %v", err)
		}
	}(f.httpServer, f.listenAddr)
	return nil
}

func (f *Factory) Stop() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.started {
		return errors.New("not started")
	}
	f.started = false
	if f.httpServer != nil {
		return errors.WithStack(f.httpServer.Close())
	}
	return nil
}

type Counter struct {
	pCounter prometheus.Counter
}

func (c *Counter) Inc() {
	c.pCounter.Inc()
}

func (c *Counter) Add(v float64) {
	c.pCounter.Add(v)
}
