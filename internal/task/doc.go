// Package task implements the generation work queue: a coalescing queue of
// per-definition work items and a single-consumer runner that drains it in
// fixed-size batches.
//
// The queue guarantees at most one outstanding work item per definition ID
// (duplicate enqueues OR their force-regenerate flags into the existing
// item), and the runner guarantees at most one generation pass in flight per
// process. Items within a batch execute concurrently; batches are strictly
// sequential with a short pause between them so generation never starves
// other work.
package task
