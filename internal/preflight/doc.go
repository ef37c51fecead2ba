// Package preflight runs environment diagnostics before the daemon starts:
// converter tool availability, directory access, and disk headroom.
package preflight
