// Package stage defines the handler contract the workflow manager drives
// and the health reporting shared by stage implementations.
package stage
