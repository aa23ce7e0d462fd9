// Package langid downloads and caches the fastText language-identification
// models and composes sentence filters on top of a pluggable prediction
// backend.
package langid
