// Package fasttext wraps the fastText CLI as a language-identification
// backend. A persistent predict-prob process is kept per model and fed one
// sentence per line.
package fasttext
