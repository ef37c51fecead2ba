// Package client provides typed HTTP access to a running fragmill daemon.
// The CLI commands are built on it.
package client
