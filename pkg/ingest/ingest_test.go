package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-cardinality/pkg/datastructs/loglogbeta"
)

func TestNew_OptionValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"valid", Options{ErrorRate: 0.05, Workers: 4, Buffer: 64}, false},
		{"single_worker", Options{ErrorRate: 0.05, Workers: 1}, false},
		{"zero_error_rate", Options{ErrorRate: 0, Workers: 4}, true},
		{"error_rate_equals_1", Options{ErrorRate: 1, Workers: 4}, true},
		{"negative_error_rate", Options{ErrorRate: -0.1, Workers: 4}, true},
		{"zero_workers", Options{ErrorRate: 0.05, Workers: 0}, true},
		{"negative_buffer", Options{ErrorRate: 0.05, Workers: 4, Buffer: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.opts, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, s)
			_, err = s.Close()
			assert.NoError(t, err)
		})
	}
}

func TestNew_WorkerSizing(t *testing.T) {
	t.Run("rounded_to_power_of_two", func(t *testing.T) {
		s, err := New(Options{ErrorRate: 0.05, Workers: 3}, nil)
		require.NoError(t, err)
		assert.Len(t, s.counters, 4)
		_, err = s.Close()
		require.NoError(t, err)
	})

	t.Run("one_worker_stays_one", func(t *testing.T) {
		s, err := New(Options{ErrorRate: 0.05, Workers: 1}, nil)
		require.NoError(t, err)
		assert.Len(t, s.counters, 1)
		_, err = s.Close()
		require.NoError(t, err)
	})
}

func TestNew_SeedDefaulting(t *testing.T) {
	s, err := New(Options{ErrorRate: 0.05, Workers: 2}, nil)
	require.NoError(t, err)
	c, err := s.Close()
	require.NoError(t, err)
	assert.Equal(t, uint64(loglogbeta.DefaultSeed), c.Seed())
}

func TestSharded_EndToEnd(t *testing.T) {
	const total = 50000
	s, err := New(Options{ErrorRate: 0.05, Workers: 8, Buffer: 256}, zap.NewNop())
	require.NoError(t, err)

	for i := 0; i < total; i++ {
		s.InsertString(fmt.Sprintf("element-%d", i))
	}

	combined, err := s.Close()
	require.NoError(t, err)

	// ~3x the 4.6% standard error of e=0.05, so a single run passes reliably.
	got := combined.Estimate()
	assert.Greater(t, got, float64(total)*0.85)
	assert.Less(t, got, float64(total)*1.15)
	assert.Zero(t, s.Dropped())
}

func TestSharded_DuplicatesRouteToSameWorker(t *testing.T) {
	const distinct = 1000
	s, err := New(Options{ErrorRate: 0.05, Workers: 4, Buffer: 128}, nil)
	require.NoError(t, err)

	single, err := loglogbeta.New(0.05)
	require.NoError(t, err)

	// Five passes over the same elements must not inflate the estimate:
	// equal elements always land on the same shard counter, so the folded
	// result matches a single counter that saw each element once.
	for pass := 0; pass < 5; pass++ {
		for i := 0; i < distinct; i++ {
			element := fmt.Sprintf("dup-%d", i)
			s.InsertString(element)
			if pass == 0 {
				require.NoError(t, single.InsertString(element))
			}
		}
	}

	combined, err := s.Close()
	require.NoError(t, err)

	assert.Equal(t, single.Estimate(), combined.Estimate())
}

func TestSharded_MatchesSingleCounter(t *testing.T) {
	const total = 20000
	s, err := New(Options{ErrorRate: 0.05, Workers: 4, Buffer: 128}, nil)
	require.NoError(t, err)

	single, err := loglogbeta.New(0.05)
	require.NoError(t, err)

	for i := 0; i < total; i++ {
		element := fmt.Sprintf("element-%d", i)
		s.InsertString(element)
		require.NoError(t, single.InsertString(element))
	}

	combined, err := s.Close()
	require.NoError(t, err)

	// Same elements, same seed, same precision: the folded shard counters
	// must land on exactly the single counter's estimate.
	assert.Equal(t, single.Estimate(), combined.Estimate())
}
