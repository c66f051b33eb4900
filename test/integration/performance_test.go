package integration

import (
	"context"
	"testing"
	"time"

	"github.com/iwvelando/sector-clearing/internal/config"
	"github.com/iwvelando/sector-clearing/internal/simulation"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestPerformance checks that the example model clears well within the
// default HTTP run timeout.
func TestPerformance(t *testing.T) {
	conf, err := config.LoadConfiguration(testModel)
	require.NoError(t, err)

	const runs = 20
	start := time.Now()
	for i := 0; i < runs; i++ {
		_, err := simulation.Run(context.Background(), zap.NewNop(), *conf, simulation.Options{})
		require.NoError(t, err)
	}
	avg := time.Since(start) / runs

	t.Logf("average run time over %d runs: %v", runs, avg)
	if avg > time.Second {
		t.Errorf("model run too slow: %v", avg)
	}
}

// TestDataConsistency runs the same model repeatedly and expects identical
// results despite regions clearing concurrently.
func TestDataConsistency(t *testing.T) {
	conf, err := config.LoadConfiguration(testModel)
	require.NoError(t, err)

	first, err := simulation.Run(context.Background(), zap.NewNop(), *conf, simulation.Options{})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := simulation.Run(context.Background(), zap.NewNop(), *conf, simulation.Options{})
		require.NoError(t, err)
		require.Equal(t, first, again, "run %d differs", i)
	}
}

func BenchmarkRun(b *testing.B) {
	conf, err := config.LoadConfiguration(testModel)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := simulation.Run(context.Background(), zap.NewNop(), *conf, simulation.Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
