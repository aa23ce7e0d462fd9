// Package daemon ties the workflow manager, job store, and HTTP API
// together into the single-instance gleanerd process.
package daemon
