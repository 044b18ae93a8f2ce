// Package dispatch turns one job submission into persisted tasks and a job
// record.
//
// Submit normalizes the request, expands the bounding box into WRS-2 regions,
// resolves the three phase digests once, then runs a Pipeline: a single
// producer walks every day × region pair, asks the availability oracle, and
// feeds task descriptors through a bounded channel to a fixed worker pool that
// writes them to the catalog. The job record is written by JobRecordWriter
// only after every worker has returned.
//
// Ids are deterministic. Resubmitting an identical request yields the same job
// id and task ids, and catalog writes are idempotent, so a failed or cancelled
// submission can simply be sent again.
package dispatch
