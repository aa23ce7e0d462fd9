// Package preflight runs the startup readiness checks the daemon and the
// CLI status command share.
package preflight
