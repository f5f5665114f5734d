// Package memory keeps the crawl inside the container's memory budget.
//
// It covers two jobs. [ConfigureFromEnv] derives GOMEMLIMIT from the
// container limit, since Go never reads the cgroup memory limit on its
// own the way GOMAXPROCS reads the CPU quota. [Monitor] then samples heap
// usage against that limit and gates the crawl's per-file loop when the
// heap runs hot.
//
// # Environment variables
//
//   - GOMEMLIMIT: standard Go variable; when set it wins outright.
//   - MEMORY_LIMIT: container memory limit in bytes, typically injected
//     by the container runtime or orchestrator.
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap,
//     default 0.85. The remainder stays free for ffmpeg frame grabs,
//     libvips buffers, and other allocations GOMEMLIMIT cannot see.
//
// ConfigureFromEnv must run first thing in main, before the catalog load
// starts allocating:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// # Crawl backpressure
//
// GOMEMLIMIT is a soft limit; a crawl that decodes cover art for
// thousands of albums can outrun the collector and get the process
// OOM-killed anyway. The monitor closes a gate when heap usage crosses
// the pause watermark and reopens it once a collection brings usage back
// under the resume watermark. The crawl coordinator checks the gate
// between files:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	coordinator.SetMemoryMonitor(monitor)
//
// Only file reconciliation is gated. HTTP serving, the sync loop, and
// the watcher never block on memory.
package memory
