// Package logs reads the daemon log file for the CLI show command:
// trailing-window reads plus offset-based follow polling.
package logs
