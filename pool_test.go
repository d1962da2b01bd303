package synthgen

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorkerPoolForEachRunsAllItems(t *testing.T) {
	topo := newTopology(nil)
	cfg := NewGeneratorConfig(0, WithMaxThreads(4))
	pool := newWorkerPool(cfg, topo, nil)
	defer pool.close()

	const n = 500
	var count int64
	pool.forEach(n, func(i int) {
		atomic.AddInt64(&count, 1)
	})

	require.EqualValues(t, n, count)
}

func TestWorkerPoolSingleThreadRunsSerially(t *testing.T) {
	topo := newTopology(nil)
	cfg := NewGeneratorConfig(0, WithMaxThreads(1))
	pool := newWorkerPool(cfg, topo, nil)
	defer pool.close()

	require.Equal(t, 1, pool.size())

	var seen []int
	pool.forEach(10, func(i int) { seen = append(seen, i) })
	require.Len(t, seen, 10)
}

func TestWorkerPoolCloseIsIdempotent(t *testing.T) {
	topo := newTopology(nil)
	pool := newWorkerPool(NewGeneratorConfig(0), topo, nil)
	pool.close()
	pool.close()
}

func TestComputePinPlanDisabledIsUnpinned(t *testing.T) {
	topo := newTopology(nil)
	cfg := NewGeneratorConfig(0, WithNUMAMode(NUMADisabled))
	plan := computePinPlan(4, cfg, topo)
	require.Nil(t, plan)
}
