package dispatch

import "errors"

// ErrNotFound indicates the referenced filename has no source file.
var ErrNotFound = errors.New("source file not found")

// ErrQueueFull indicates the conversion queue rejected an enqueue.
var ErrQueueFull = errors.New("conversion queue full")

// ErrNotRunning indicates asynchronous dispatch was used before Start.
var ErrNotRunning = errors.New("dispatcher not running")
