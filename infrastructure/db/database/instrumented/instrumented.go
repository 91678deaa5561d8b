// Package instrumented wraps a block store with fetch accounting and
// Prometheus metrics.
package instrumented

import (
	"context"
	"sync/atomic"

	"github.com/ipfs/go-cid"
	"github.com/kaspanet/merkleclock/domain/clock/model"
	"github.com/kaspanet/merkleclock/infrastructure/db/database"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

// Metrics are the Prometheus collectors updated by Store.
type Metrics struct {
	operations *prometheus.CounterVec
	bytesRead  prometheus.Counter
}

// NewMetrics creates the store collectors and registers them with
// registerer. A nil registerer leaves them unregistered.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "merkleclock",
			Subsystem: "blockstore",
			Name:      "operations_total",
			Help:      "Block store operations by kind and result.",
		}, []string{"op", "result"}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "merkleclock",
			Subsystem: "blockstore",
			Name:      "read_bytes_total",
			Help:      "Bytes returned by block store fetches.",
		}),
	}
	if registerer != nil {
		registerer.MustRegister(m.operations, m.bytesRead)
	}
	return m
}

// Store counts the operations performed on an underlying model.BlockStore.
type Store struct {
	model.BlockStore
	metrics *Metrics

	gets   uint64
	misses uint64
	puts   uint64
}

// New wraps store. metrics may be nil.
func New(store model.BlockStore, metrics *Metrics) *Store {
	return &Store{BlockStore: store, metrics: metrics}
}

// Get fetches from the underlying store and records the outcome.
func (s *Store) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	atomic.AddUint64(&s.gets, 1)
	bytes, err := s.BlockStore.Get(ctx, id)
	result := resultOK
	if err != nil {
		atomic.AddUint64(&s.misses, 1)
		result = resultError
		if database.IsNotFoundError(err) {
			result = resultNotFound
		}
	}
	if s.metrics != nil {
		s.metrics.operations.WithLabelValues("get", result).Inc()
		s.metrics.bytesRead.Add(float64(len(bytes)))
	}
	return bytes, err
}

// Put stores into the underlying store and records the outcome.
func (s *Store) Put(ctx context.Context, id cid.Cid, bytes []byte) error {
	atomic.AddUint64(&s.puts, 1)
	err := s.BlockStore.Put(ctx, id, bytes)
	if s.metrics != nil {
		result := resultOK
		if err != nil {
			result = resultError
		}
		s.metrics.operations.WithLabelValues("put", result).Inc()
	}
	return err
}

// Gets returns the number of Get calls so far.
func (s *Store) Gets() uint64 {
	return atomic.LoadUint64(&s.gets)
}

// Misses returns the number of Get calls that failed.
func (s *Store) Misses() uint64 {
	return atomic.LoadUint64(&s.misses)
}

// Puts returns the number of Put calls so far.
func (s *Store) Puts() uint64 {
	return atomic.LoadUint64(&s.puts)
}
