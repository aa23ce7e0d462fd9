// Package process implements the stage that takes a claimed job from
// validated parameters through corpus materialization, result writing, and
// the upload gate to its terminal state.
package process
