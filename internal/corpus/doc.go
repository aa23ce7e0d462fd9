// Package corpus owns the corpus domain model: the validated ProcessSpec,
// the closed source/language/script enums, the cache materializer, and the
// local corpus reader.
//
// The materializer is the only writer of corpus cache files. It streams from
// a remote source through an optional language/script filter, bounds the
// output, stages writes in a temp file, and renames into place so the
// "exists means materialized" invariant holds even across crashes. Zero-yield
// materializations are deleted rather than cached.
package corpus
