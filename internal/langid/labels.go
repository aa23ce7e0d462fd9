package langid

import "strings"

const labelPrefix = "__label__"

// Classifier labels carry an ISO 639-3 code plus a script suffix, for
// example "__label__kaz_Cyrl". The queue-facing surface speaks two-letter
// codes, so the common Turkic three-letter codes are folded down here.
// Unknown codes pass through unchanged.
var iso3To2 = map[string]string{
	"kaz": "kk",
	"kir": "ky",
	"tur": "tr",
	"uzn": "uz",
	"uzs": "uz",
	"uig": "ug",
}

// ParseLabel splits a raw classifier label into a normalized language code
// and a script code. Labels without a script suffix (the legacy model emits
// bare codes such as "__label__kk") return an empty script.
func ParseLabel(raw string) (lang, script string) {
	trimmed := strings.TrimPrefix(raw, labelPrefix)
	code, scriptPart, found := strings.Cut(trimmed, "_")
	if found {
		script = scriptPart
	}
	if mapped, ok := iso3To2[code]; ok {
		return mapped, script
	}
	return code, script
}
