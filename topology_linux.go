//go:build linux

package synthgen

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"unsafe"

	"github.com/shirou/gopsutil/v4/cpu"
	"golang.org/x/sys/unix"

	"github.com/TheEntropyCollective/synthgen/internal/synthlog"
)

const sysNodePath = "/sys/devices/system/node"

// linuxTopology implements Topology by reading sysfs for the node/CPU
// layout and using mmap + (best-effort) mbind + first-touch for
// NUMA-local allocation, per spec §4.3.
type linuxTopology struct {
	log      *synthlog.Logger
	nodes    []NodeID
	cpusOf   map[NodeID][]CPUID
	allCPUs  []CPUID
	physical int
}

func newTopology(log *synthlog.Logger) Topology {
	if log == nil {
		log = synthlog.Default.WithComponent("topology")
	}

	nodes, cpusOf, err := readSysfsNodes()
	if err != nil || len(nodes) == 0 {
		log.Warnf("%s: falling back to single-node topology: %v", errLabel(ErrTopologyUnavailable), err)
		nodes = []NodeID{0}
		cpusOf = map[NodeID][]CPUID{0: allLogicalCPUs()}
	}

	var all []CPUID
	for _, cpus := range cpusOf {
		all = append(all, cpus...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	physical, err := cpu.Counts(false)
	if err != nil || physical <= 0 {
		physical = runtime.NumCPU()
	}

	return &linuxTopology{log: log, nodes: nodes, cpusOf: cpusOf, allCPUs: all, physical: physical}
}

func errLabel(err error) string { return err.Error() }

func (t *linuxTopology) NumNodes() int { return len(t.nodes) }

func (t *linuxTopology) CPUsOf(node NodeID) []CPUID {
	if cpus, ok := t.cpusOf[node]; ok && len(cpus) > 0 {
		return cpus
	}
	return t.allCPUs
}

func (t *linuxTopology) Probe() TopologyProbe {
	perNode := make([]int, len(t.nodes))
	for i, n := range t.nodes {
		perNode[i] = len(t.CPUsOf(n))
	}
	deployment := "uma"
	if len(t.nodes) > 1 {
		deployment = "numa"
	}
	return TopologyProbe{
		NumNodes:      len(t.nodes),
		CPUsPerNode:   perNode,
		TotalCPUs:     len(t.allCPUs),
		PhysicalCores: t.physical,
		Deployment:    deployment,
	}
}

func (t *linuxTopology) PinCurrentThread(id CPUID) bool {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(int(id))
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		t.log.Warnf("pin_current_thread: cpu %d: %v", id, err)
		return false
	}
	return true
}

func (t *linuxTopology) AllocateLocal(node NodeID, nbytes int) ([]byte, bool, error) {
	if nbytes <= 0 {
		return nil, false, fmt.Errorf("%w: nbytes must be positive", ErrAllocationFailure)
	}

	region, err := unix.Mmap(-1, 0, nbytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, false, fmt.Errorf("%w: mmap %d bytes: %v", ErrAllocationFailure, nbytes, err)
	}

	if len(t.nodes) <= 1 {
		return region, false, nil
	}

	if mbindToNode(region, node) {
		return region, false, nil
	}

	// No bind-and-fault primitive available for this arch/kernel:
	// first-touch from a thread pinned to the node's CPUs so demand
	// paging allocates on the writing CPU's local node (spec §4.3).
	// Unlike the worker pool's PinCurrentThread calls (intentionally
	// permanent for the lifetime of a pool goroutine), this pin is
	// local to the allocation: the caller of AllocateLocal is typically
	// an arbitrary caller goroutine, not a pool worker, and must get its
	// OS thread affinity back afterwards.
	cpus := t.CPUsOf(node)
	if len(cpus) > 0 {
		runtime.LockOSThread()
		var prev unix.CPUSet
		saved := unix.SchedGetaffinity(0, &prev) == nil
		t.PinCurrentThread(cpus[0]) // takes a second, nested LockOSThread
		firstTouch(region)
		if saved {
			_ = unix.SchedSetaffinity(0, &prev)
		}
		runtime.UnlockOSThread()
		runtime.UnlockOSThread()
		return region, true, nil
	}
	firstTouch(region)
	return region, true, nil
}

// firstTouch writes one byte per page so the kernel's demand-paging
// policy allocates physical pages on the touching CPU's local node.
func firstTouch(region []byte) {
	const pageSize = 4096
	for off := 0; off < len(region); off += pageSize {
		region[off] = region[off]
	}
	if len(region) > 0 {
		region[len(region)-1] = region[len(region)-1]
	}
}

func allLogicalCPUs() []CPUID {
	n := runtime.NumCPU()
	out := make([]CPUID, n)
	for i := 0; i < n; i++ {
		out[i] = CPUID(i)
	}
	return out
}

// readSysfsNodes parses /sys/devices/system/node to build the node->CPU
// map the way numactl and similar tools do, without requiring libnuma.
func readSysfsNodes() ([]NodeID, map[NodeID][]CPUID, error) {
	entries, err := os.ReadDir(sysNodePath)
	if err != nil {
		return nil, nil, err
	}

	nodes := make([]NodeID, 0)
	cpusOf := make(map[NodeID][]CPUID)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "node") {
			continue
		}
		idStr := strings.TrimPrefix(name, "node")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		node := NodeID(id)

		cpuList, err := os.ReadFile(filepath.Join(sysNodePath, name, "cpulist"))
		if err != nil {
			continue
		}
		cpus := parseCPUList(strings.TrimSpace(string(cpuList)))
		nodes = append(nodes, node)
		cpusOf[node] = cpus
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	if len(nodes) == 0 {
		return nil, nil, fmt.Errorf("no nodeN directories under %s", sysNodePath)
	}
	return nodes, cpusOf, nil
}

// parseCPUList parses the Linux "list format" used by cpulist/cpumap
// sysfs files, e.g. "0-3,8,10-11".
func parseCPUList(s string) []CPUID {
	var out []CPUID
	if s == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			loN, err1 := strconv.Atoi(lo)
			hiN, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil {
				continue
			}
			for c := loN; c <= hiN; c++ {
				out = append(out, CPUID(c))
			}
		} else {
			n, err := strconv.Atoi(part)
			if err != nil {
				continue
			}
			out = append(out, CPUID(n))
		}
	}
	return out
}

// mbindToNode attempts the explicit bind-and-fault primitive (spec
// §4.3) via the raw mbind(2) syscall on architectures where the
// syscall number is known. Returns false when unsupported or when the
// call fails, in which case the caller falls back to first-touch.
func mbindToNode(region []byte, node NodeID) bool {
	sysMbind, ok := mbindSyscallNumber()
	if !ok || len(region) == 0 {
		return false
	}

	const mpolBind = 2
	mask := uint64(1) << uint(node)
	addr := uintptr(unsafe.Pointer(&region[0]))

	_, _, errno := unix.Syscall6(sysMbind, addr, uintptr(len(region)),
		uintptr(mpolBind), uintptr(unsafe.Pointer(&mask)), unsafe.Sizeof(mask)*8, 0)
	return errno == 0
}

func mbindSyscallNumber() (uintptr, bool) {
	switch runtime.GOARCH {
	case "amd64":
		return 237, true
	case "arm64":
		return 235, true
	default:
		return 0, false
	}
}
