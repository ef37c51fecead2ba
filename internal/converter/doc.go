// Package converter wraps the external model-to-fragments tool as a bounded
// subprocess call.
//
// The tool is opaque: the only contract is the argv shape
// (--input/--output), the exit code, and whatever it prints. The adapter
// enforces a wall-clock timeout and reports outcomes as data; deciding
// whether the produced artifact is acceptable is the dispatcher's job.
package converter
