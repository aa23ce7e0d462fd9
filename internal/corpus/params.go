package corpus

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gleaner/internal/services"
)

// Parameter-bag defaults applied when a key is absent. These mirror the job
// submission defaults so a re-run from a stored parameter snapshot behaves
// identically.
const (
	DefaultMaxSentences        = 1000
	DefaultTransliterate       = true
	DefaultConfidenceThreshold = 0.95
)

var scriptTitle = cases.Title(language.Und)

// ParseParams strictly type-checks an untyped parameter bag and builds the
// ProcessSpec plus the optional script filter. Wrong dynamic types and enum
// violations both surface as validation errors; nothing about the bag is
// trusted before this call.
func ParseParams(params map[string]any) (ProcessSpec, Script, error) {
	srcVal, ok := stringParam(params, "source")
	if !ok {
		return ProcessSpec{}, "", services.Wrap(services.ErrValidation, "params", "source", "must be a string", nil)
	}
	langVal, ok := stringParam(params, "language")
	if !ok {
		return ProcessSpec{}, "", services.Wrap(services.ErrValidation, "params", "language", "must be a string", nil)
	}

	maxSentences, err := intParam(params, "max_sentences", DefaultMaxSentences)
	if err != nil {
		return ProcessSpec{}, "", err
	}
	transliterate, err := boolParam(params, "transliterate", DefaultTransliterate)
	if err != nil {
		return ProcessSpec{}, "", err
	}
	threshold, err := floatParam(params, "confidence_threshold", DefaultConfidenceThreshold)
	if err != nil {
		return ProcessSpec{}, "", err
	}

	script, err := NormalizeScript(params["script"])
	if err != nil {
		return ProcessSpec{}, "", err
	}

	src := strings.TrimSpace(srcVal)
	lang := strings.TrimSpace(langVal)
	if !IsSource(src) || !IsLanguage(lang) {
		return ProcessSpec{}, "", services.Wrap(services.ErrValidation, "params", "source/language",
			fmt.Sprintf("invalid source %q or language %q", src, lang), nil)
	}
	if maxSentences < 1 || maxSentences > MaxSentenceLimit {
		return ProcessSpec{}, "", services.Wrap(services.ErrValidation, "params", "max_sentences",
			fmt.Sprintf("must be between 1 and %d, got %d", MaxSentenceLimit, maxSentences), nil)
	}
	if threshold < 0 || threshold > 1 {
		return ProcessSpec{}, "", services.Wrap(services.ErrValidation, "params", "confidence_threshold",
			fmt.Sprintf("must be within [0, 1], got %g", threshold), nil)
	}

	spec := ProcessSpec{
		Source:              Source(src),
		Language:            Language(lang),
		MaxSentences:        maxSentences,
		Transliterate:       transliterate,
		ConfidenceThreshold: threshold,
	}
	return spec, script, nil
}

// NormalizeScript canonicalizes an optional script filter value. Nil and
// blank strings mean "no filter"; any other string is title-cased and must
// be a member of the script enum.
func NormalizeScript(value any) (Script, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return "", nil
		}
		normalized := scriptTitle.String(strings.ToLower(trimmed))
		if !IsScript(normalized) {
			return "", services.Wrap(services.ErrValidation, "params", "script",
				fmt.Sprintf("expected Latn, Cyrl, or Arab, got %q", trimmed), nil)
		}
		return Script(normalized), nil
	default:
		return "", services.Wrap(services.ErrValidation, "params", "script", "must be a string or null", nil)
	}
}

func stringParam(params map[string]any, key string) (string, bool) {
	value, present := params[key]
	if !present {
		return "", true
	}
	s, ok := value.(string)
	return s, ok
}

func intParam(params map[string]any, key string, fallback int) (int, error) {
	value, present := params[key]
	if !present {
		return fallback, nil
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		// JSON decoding yields float64; only integral values qualify.
		if v == math.Trunc(v) {
			return int(v), nil
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
	}
	return 0, services.Wrap(services.ErrValidation, "params", key, "must be an integer", nil)
}

func boolParam(params map[string]any, key string, fallback bool) (bool, error) {
	value, present := params[key]
	if !present {
		return fallback, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, services.Wrap(services.ErrValidation, "params", key, "must be a boolean", nil)
	}
	return b, nil
}

func floatParam(params map[string]any, key string, fallback float64) (float64, error) {
	value, present := params[key]
	if !present {
		return fallback, nil
	}
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
	}
	return 0, services.Wrap(services.ErrValidation, "params", key, "must be numeric", nil)
}
