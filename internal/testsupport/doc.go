// Package testsupport provides shared helpers for package tests: temp-dir
// configs, job store setup, and stubbed external binaries.
package testsupport
