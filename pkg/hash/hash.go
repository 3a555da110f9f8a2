package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/twmb/murmur3"
)

// Key is the set of element types a deterministic digest can be produced for.
// Any other type can be digested by serializing it to a string or []byte
// first.
type Key interface {
	uint64 | string | []byte | byte | int | uint | int32 | uint32 | int64
}

// Digest returns a seed-stable 64-bit digest of key, uniformly distributed
// across the 64-bit space. Equal keys under the same seed always produce
// equal digests, within a run and across runs.
//
// Integer keys are digested through their little-endian encoding rather than
// passed through raw, so that sequential values still spread uniformly.
func Digest[K Key](key K, seed uint64) uint64 {
	switch k := any(key).(type) {
	case string:
		return murmur3.SeedStringSum64(seed, k)
	case []byte:
		return murmur3.SeedSum64(seed, k)
	case uint64:
		return digestUint64(k, seed)
	case byte:
		return digestUint64(uint64(k), seed)
	case uint:
		return digestUint64(uint64(k), seed)
	case int:
		return digestUint64(uint64(k), seed)
	case int32:
		return digestUint64(uint64(k), seed)
	case uint32:
		return digestUint64(uint64(k), seed)
	case int64:
		return digestUint64(uint64(k), seed)
	default:
		panic("Key type not supported")
	}
}

// Shard returns an unseeded routing hash for partitioning keys across
// workers or shards. It is independent of Digest so that routing never
// correlates with register placement.
func Shard(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// ShardString returns the routing hash of a string key.
func ShardString(key string) uint64 {
	return xxhash.Sum64String(key)
}

func digestUint64(v, seed uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return murmur3.SeedSum64(seed, b[:])
}
