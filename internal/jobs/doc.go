// Package jobs persists processing jobs in SQLite and provides the queued →
// processing → completed/failed state machine the workflow manager drives.
package jobs
