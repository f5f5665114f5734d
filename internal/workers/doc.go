// Package workers sizes the crawl's enumeration worker pool.
//
// GOMAXPROCS tracks the container CPU quota, so counts derived from it
// shrink with the container instead of the host. runtime.NumCPU does not,
// which is why nothing here calls it.
//
// The walker asks for an I/O-sized pool, two workers per CPU, capped:
//
//	numWorkers := workers.ForScan(8)
//
// Deployments pin the pool with the CRAWL_WORKERS environment variable,
// which overrides the computed count but never the caller's cap. Library
// enumeration over NFS in particular often wants fewer workers than the
// CPU-derived default.
package workers
