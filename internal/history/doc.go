// Package history records finished conversion attempts in SQLite.
//
// This is an append-only audit trail, not job state: the live registry stays
// in memory and the daemon never reads history back to decide anything. It
// exists so operators can answer "what happened to this model last week"
// after restarts.
package history
