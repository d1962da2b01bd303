package synthgen

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/TheEntropyCollective/synthgen/internal/synthlog"
)

// automaxprocsOnce ensures GOMAXPROCS is adjusted for cgroup CPU quota
// at most once per process, the way the teacher's dependency chain
// pulls in go.uber.org/automaxprocs for containerized deployments.
// Without this, a generator's default worker count would be sized to
// the host's full core count even when the benchmark container is
// quota-limited to a fraction of it.
var automaxprocsOnce sync.Once

func applyAutomaxprocs(log *synthlog.Logger) {
	automaxprocsOnce.Do(func() {
		if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			log.Debug(fmt.Sprintf(format, args...))
		})); err != nil {
			log.Warnf("automaxprocs: %v", err)
		}
	})
}

// workerPool is a persistent, fixed-size pool of worker goroutines built
// once per generator and destroyed with it (spec §4.4). Its only
// operation, forEach, partitions a slice of block indices across
// workers and blocks until every fill has completed — a barrier, with
// no cross-call ordering guarantee.
type workerPool struct {
	n        int
	jobs     chan func()
	wg       sync.WaitGroup
	closed   bool
	closeMu  sync.Mutex
	closeCh  chan struct{}
	pinPlan  []CPUID // pinPlan[k] is the CPU worker k pins to, empty if unpinned
	topology Topology
}

// newWorkerPool builds N = min(maxThreads or hardware concurrency,
// hardware concurrency) workers and applies the pinning policy from
// spec §4.4.
func newWorkerPool(cfg GeneratorConfig, topo Topology, log *synthlog.Logger) *workerPool {
	if log == nil {
		log = synthlog.Default.WithComponent("workerpool")
	}
	applyAutomaxprocs(log)

	hw := runtime.GOMAXPROCS(0) // quota-adjusted by applyAutomaxprocs
	n := hw
	if cfg.MaxThreads != nil && *cfg.MaxThreads < n {
		n = *cfg.MaxThreads
	}
	if n < 1 {
		n = 1
	}

	pinPlan := computePinPlan(n, cfg, topo)

	p := &workerPool{
		n:        n,
		jobs:     make(chan func()),
		closeCh:  make(chan struct{}),
		pinPlan:  pinPlan,
		topology: topo,
	}

	for k := 0; k < n; k++ {
		p.wg.Add(1)
		go p.worker(k)
	}
	return p
}

// computePinPlan implements the pinning policy of spec §4.4.
func computePinPlan(n int, cfg GeneratorConfig, topo Topology) []CPUID {
	if topo.NumNodes() <= 1 || cfg.NUMAMode == NUMADisabled {
		return nil
	}

	if cfg.NUMANode != nil {
		cpus := topo.CPUsOf(NodeID(*cfg.NUMANode))
		if len(cpus) == 0 {
			return nil
		}
		plan := make([]CPUID, n)
		for k := 0; k < n; k++ {
			plan[k] = cpus[k%len(cpus)]
		}
		return plan
	}

	// Auto/Forced with no node pinned: spread round-robin across nodes
	// (the single-process "spread" mode).
	numNodes := topo.NumNodes()
	plan := make([]CPUID, n)
	for k := 0; k < n; k++ {
		node := NodeID(k % numNodes)
		cpus := topo.CPUsOf(node)
		if len(cpus) == 0 {
			continue
		}
		plan[k] = cpus[(k/numNodes)%len(cpus)]
	}
	return plan
}

func (p *workerPool) worker(id int) {
	defer p.wg.Done()

	if id < len(p.pinPlan) {
		p.topology.PinCurrentThread(p.pinPlan[id])
	}

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			job()
		case <-p.closeCh:
			return
		}
	}
}

// forEach partitions items across workers, invoking f(i) for each index
// in [0, items), and blocks until all have completed (spec §4.4: "a
// barrier"). Safe to call repeatedly on the same pool.
func (p *workerPool) forEach(items int, f func(i int)) {
	if items <= 0 {
		return
	}
	if p.size() == 1 {
		for i := 0; i < items; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(items)
	for i := 0; i < items; i++ {
		i := i
		select {
		case p.jobs <- func() { defer wg.Done(); f(i) }:
		case <-p.closeCh:
			wg.Done()
		}
	}
	wg.Wait()
}

func (p *workerPool) size() int { return p.n }

// close stops all workers. Idempotent.
func (p *workerPool) close() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.closeCh)
	p.wg.Wait()
}
