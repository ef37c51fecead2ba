// Package dispatch decides whether a source model needs converting, drives
// the external converter, and owns every job-status transition.
//
// Per-filename mutexes guarantee at most one in-flight conversion per source
// file; a bounded queue with a small worker pool keeps long-running tool
// invocations off the request path. Conversion failures are results, not
// errors: callers get a failed job back. Only precondition problems (unknown
// filename, unlaunchable tool) surface as errors.
package dispatch
