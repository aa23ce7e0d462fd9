// Package translit renders corpus text into IPA using per-language rule
// tables loaded from a rules directory.
package translit
