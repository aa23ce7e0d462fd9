package corpus

import "context"

// Iterator yields sentences from a remote source one at a time. Streams are
// forward-only and non-restartable; Next returns io.EOF once the source is
// exhausted. Close releases the underlying connection and is safe to call
// more than once.
type Iterator interface {
	Next() (string, error)
	Close() error
}

// Streamer opens a lazy sentence stream for one language. Implementations
// yield trimmed, non-empty strings only.
type Streamer interface {
	Stream(ctx context.Context, lang Language) (Iterator, error)
}

// FilterBuilder produces a keep-predicate for the requested language, optional
// script, and confidence threshold. An empty script means "no script filter".
type FilterBuilder func(ctx context.Context, lang Language, script Script, threshold float64) (func(string) bool, error)
