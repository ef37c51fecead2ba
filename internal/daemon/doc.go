// Package daemon ties the conversion services together: it enforces
// single-instance execution, starts the dispatcher worker pool and
// directory watcher, and serves the HTTP status API.
package daemon
