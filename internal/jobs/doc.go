// Package jobs tracks the lifecycle of conversion work, one record per
// source filename.
//
// The Registry is the single source of truth for job status. It is purely
// in-memory and resets on restart; long-term records belong to the history
// store. Records are created lazily on first reference and never evicted for
// the process lifetime. Mutation happens through whole-record replacement so
// readers never observe a half-updated job.
package jobs
