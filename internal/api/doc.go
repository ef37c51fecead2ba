// Package api defines the JSON payloads served by the daemon and the
// projections that build them from registry and filesystem state. The same
// types are consumed by the CLI client.
package api
