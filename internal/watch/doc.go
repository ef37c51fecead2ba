// Package watch monitors the input directory for IFC files and hands settled
// files to the dispatcher. Files are debounced per filename so that a file
// still being copied in is not converted until writes stop for the configured
// settle window.
package watch
