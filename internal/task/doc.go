// Package task manages background job queuing, processing, and lifecycle.
//
// A Scheduler accepts jobs, one per first-time transcript submission, and
// runs them strictly one at a time in enqueue order on a single worker
// goroutine, so calls to the external task extractor never overlap. Jobs live
// only in memory: a restart forgets pending jobs, and their transcripts stay
// pending.
//
// ExtractionProcessor is the per-job work: it asks the extractor for tasks,
// runs the taskgraph integrity pipeline and persists the batch.
package task
