// Package loglogbeta estimates the number of distinct elements in a stream
// with bounded memory, using the LogLog-Beta algorithm
// (https://arxiv.org/abs/1612.02284). The memory footprint is fixed at
// construction time regardless of stream size, in exchange for a
// configurable relative error on the estimate.
package loglogbeta

import (
	"math"

	"github.com/pkg/errors"

	"github.com/huynhanx03/go-cardinality/pkg/hash"
)

const (
	// minPrecision is the smallest register-count exponent the alpha table
	// covers.
	minPrecision = 4
	// maxPrecision caps the register array at 1<<30 one-byte registers.
	maxPrecision = 30

	// DefaultSeed is the digest seed used by New. Two counters can only be
	// merged when they share a seed.
	DefaultSeed = 42
)

// Counter is a LogLog-Beta cardinality estimator.
// NOT thread-safe: Insert and Merge require exclusive access. Callers that
// ingest concurrently should keep one Counter per worker and merge the
// counters once ingestion completes (see pkg/ingest).
type Counter struct {
	alpha         float64
	seed          uint64
	precision     uint8
	registerCount uint64
	registers     []uint8
}

// New creates a Counter sized for the given target relative standard error,
// e.g. 0.05 for 5%. errorRate must lie in (0, 1).
func New(errorRate float64) (*Counter, error) {
	return NewWithSeed(errorRate, DefaultSeed)
}

// NewWithSeed creates a Counter whose elements are digested with the given
// seed. The seed is carried by the counter for its lifetime, so equal
// elements always collide and independently built counters with the same
// seed can be merged.
func NewWithSeed(errorRate float64, seed uint64) (*Counter, error) {
	// Written as a positive range check so that NaN is rejected too.
	if !(errorRate > 0 && errorRate < 1) {
		return nil, errors.Wrapf(ErrInvalidErrorRate, "got %v", errorRate)
	}

	p := int(math.Ceil(math.Log2(math.Pow(1.04/errorRate, 2))))
	if p < minPrecision {
		p = minPrecision
	}
	if p > maxPrecision {
		return nil, errors.Wrapf(ErrPrecisionOverflow, "error rate %v needs precision %d", errorRate, p)
	}

	m := uint64(1) << p
	return &Counter{
		alpha:         alpha(uint8(p), m),
		seed:          seed,
		precision:     uint8(p),
		registerCount: m,
		registers:     make([]uint8, m),
	}, nil
}

// InsertKey adds any digestible key to the counter.
func InsertKey[K hash.Key](c *Counter, key K) error {
	return c.InsertDigest(hash.Digest(key, c.seed))
}

// Insert adds a byte-slice element to the counter.
func (c *Counter) Insert(element []byte) error {
	return c.InsertDigest(hash.Digest(element, c.seed))
}

// InsertString adds a string element to the counter.
func (c *Counter) InsertString(element string) error {
	return c.InsertDigest(hash.Digest(element, c.seed))
}

// InsertUint64 adds an integer element to the counter. The value is
// digested through its little-endian encoding, so equal values always
// collide.
func (c *Counter) InsertUint64(element uint64) error {
	return c.InsertDigest(hash.Digest(element, c.seed))
}

// InsertDigest adds a pre-computed 64-bit digest to the counter. The digest
// must come from a uniform, seed-stable hash over the full 64-bit space
// (see pkg/hash). The low precision bits select a register; the register
// keeps the maximum rho statistic of the remaining bits, so it never
// decreases.
func (c *Counter) InsertDigest(x uint64) error {
	j := x & (c.registerCount - 1)
	w := x >> c.precision

	r, err := rho(w, 64-int(c.precision))
	if err != nil {
		return err
	}
	if r > c.registers[j] {
		c.registers[j] = r
	}
	return nil
}

// Estimate returns the current cardinality estimate. It is a pure read and
// never fails; an untouched counter reports exactly 0.
func (c *Counter) Estimate() float64 {
	var zeros uint64
	inverseSum := 0.0
	for _, v := range c.registers {
		if v == 0 {
			zeros++
		}
		inverseSum += 1 / float64(uint64(1)<<v)
	}

	m := float64(c.registerCount)
	z := float64(zeros)
	denom := beta(z) + inverseSum
	if denom == 0 {
		return 0
	}
	return c.alpha * m * (m - z) / denom
}

// Merge returns a new Counter statistically equivalent to one that observed
// the union of both inputs' streams. The inputs must share precision and
// digest seed; neither is mutated.
func Merge(a, b *Counter) (*Counter, error) {
	merged := a.Clone()
	if err := merged.Merge(b); err != nil {
		return nil, err
	}
	return merged, nil
}

// Merge folds other into c, taking the element-wise maximum of the two
// register arrays. other is left untouched. Merging is commutative and
// associative, so shard counters may be folded in any order.
func (c *Counter) Merge(other *Counter) error {
	if c.precision != other.precision {
		return errors.Wrapf(ErrPrecisionMismatch, "%d != %d", c.precision, other.precision)
	}
	if c.seed != other.seed {
		return errors.Wrapf(ErrSeedMismatch, "%d != %d", c.seed, other.seed)
	}

	for j, v := range other.registers {
		if v > c.registers[j] {
			c.registers[j] = v
		}
	}
	return nil
}

// Clone returns a deep copy of the counter.
func (c *Counter) Clone() *Counter {
	registers := make([]uint8, c.registerCount)
	copy(registers, c.registers)
	return &Counter{
		alpha:         c.alpha,
		seed:          c.seed,
		precision:     c.precision,
		registerCount: c.registerCount,
		registers:     registers,
	}
}

// Clear resets every register to zero, keeping precision and seed.
func (c *Counter) Clear() {
	for i := range c.registers {
		c.registers[i] = 0
	}
}

// Precision returns log2 of the register count.
func (c *Counter) Precision() uint8 {
	return c.precision
}

// RegisterCount returns the number of registers.
func (c *Counter) RegisterCount() uint64 {
	return c.registerCount
}

// Seed returns the digest seed carried by the counter.
func (c *Counter) Seed() uint64 {
	return c.seed
}

// TotalSize returns the register-array footprint in bytes.
func (c *Counter) TotalSize() uint64 {
	return c.registerCount
}
