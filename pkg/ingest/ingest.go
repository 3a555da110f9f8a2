// Package ingest feeds a stream into per-worker loglogbeta counters and
// folds them into a single counter once ingestion completes. The core
// counter has no internal locking, so concurrency is achieved by sharding:
// every worker owns one counter and one input channel, and equal elements
// always route to the same worker.
package ingest

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huynhanx03/go-cardinality/pkg/datastructs/loglogbeta"
	"github.com/huynhanx03/go-cardinality/pkg/hash"
	"github.com/huynhanx03/go-cardinality/pkg/utils"
)

// Options configures a sharded ingester.
type Options struct {
	// ErrorRate is the target relative standard error of the combined
	// counter, e.g. 0.05 for 5%.
	ErrorRate float64 `validate:"gt=0,lt=1"`
	// Workers is the number of shard counters. Rounded up to a power of two
	// so elements can be routed with a mask.
	Workers int `validate:"gte=1"`
	// Seed is the digest seed shared by every shard counter. Zero selects
	// loglogbeta.DefaultSeed.
	Seed uint64
	// Buffer is the per-worker input channel capacity.
	Buffer int `validate:"gte=0"`
}

var validate = validator.New()

// Sharded ingests elements concurrently while keeping every underlying
// counter single-writer.
type Sharded struct {
	counters []*loglogbeta.Counter
	inputs   []chan []byte
	group    *errgroup.Group
	logger   *zap.Logger
	mask     uint64
	dropped  []uint64
}

// New validates opts and starts one goroutine per worker. A nil logger
// disables logging.
func New(opts Options, logger *zap.Logger) (*Sharded, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, errors.Wrap(err, "invalid ingest options")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = loglogbeta.DefaultSeed
	}

	workers := utils.CeilToPowerOfTwo(opts.Workers)
	s := &Sharded{
		counters: make([]*loglogbeta.Counter, workers),
		inputs:   make([]chan []byte, workers),
		group:    &errgroup.Group{},
		logger:   logger,
		mask:     uint64(workers - 1),
		dropped:  make([]uint64, workers),
	}

	for i := range s.counters {
		c, err := loglogbeta.NewWithSeed(opts.ErrorRate, seed)
		if err != nil {
			return nil, err
		}
		s.counters[i] = c
		s.inputs[i] = make(chan []byte, opts.Buffer)
	}

	for i := range s.counters {
		i := i
		s.group.Go(func() error {
			return s.run(i)
		})
	}
	return s, nil
}

// run drains one worker's channel into its private counter. Invariant
// failures on the insert path are logged and counted but never stop
// ingestion.
func (s *Sharded) run(worker int) error {
	for element := range s.inputs[worker] {
		if err := s.counters[worker].Insert(element); err != nil {
			s.dropped[worker]++
			s.logger.Warn("element dropped: digest violated the rho window",
				zap.Int("worker", worker),
				zap.Error(err))
		}
	}
	return nil
}

// Insert routes a byte-slice element to its worker. It blocks while that
// worker's buffer is full. The slice must not be modified until Close
// returns. Must not be called after Close.
func (s *Sharded) Insert(element []byte) {
	s.inputs[hash.Shard(element)&s.mask] <- element
}

// InsertString routes a string element to its worker. The bytes are aliased
// rather than copied; strings being immutable, the worker can read them
// safely.
func (s *Sharded) InsertString(element string) {
	s.inputs[hash.ShardString(element)&s.mask] <- utils.StringToBytes(element)
}

// Close stops the workers, folds every shard counter into one with pairwise
// merges and returns the combined counter. Close consumes the Sharded: the
// returned counter aliases internal state, so after Close only Dropped may
// be called, never Insert or another Close.
func (s *Sharded) Close() (*loglogbeta.Counter, error) {
	for _, ch := range s.inputs {
		close(ch)
	}
	if err := s.group.Wait(); err != nil {
		return nil, err
	}

	combined := s.counters[0]
	for _, c := range s.counters[1:] {
		if err := combined.Merge(c); err != nil {
			return nil, errors.Wrap(err, "failed to merge shard counter")
		}
	}
	return combined, nil
}

// Dropped returns how many elements were rejected by invariant checks on
// the insert path. Only valid after Close.
func (s *Sharded) Dropped() uint64 {
	var total uint64
	for _, n := range s.dropped {
		total += n
	}
	return total
}
