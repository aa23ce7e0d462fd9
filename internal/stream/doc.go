// Package stream implements the remote corpus acquisition strategies: the
// Hugging Face datasets-server rows API for OSCAR-style datasets and
// streaming decompression of Wikipedia article dumps.
package stream
