package corpus_test

import (
	"errors"
	"testing"

	"gleaner/internal/corpus"
	"gleaner/internal/services"
)

func TestParseParamsBuildsSpec(t *testing.T) {
	spec, script, err := corpus.ParseParams(map[string]any{
		"source":               "wikipedia",
		"language":             "kk",
		"max_sentences":        float64(250), // JSON numbers decode as float64
		"transliterate":        false,
		"confidence_threshold": 0.8,
		"script":               "cyrl",
	})
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	want := corpus.ProcessSpec{
		Source:              corpus.SourceWikipedia,
		Language:            corpus.LanguageKazakh,
		MaxSentences:        250,
		Transliterate:       false,
		ConfidenceThreshold: 0.8,
	}
	if spec != want {
		t.Fatalf("spec mismatch: got %+v want %+v", spec, want)
	}
	if script != corpus.ScriptCyrillic {
		t.Fatalf("script = %q, want Cyrl", script)
	}
}

func TestParseParamsAppliesDefaults(t *testing.T) {
	spec, script, err := corpus.ParseParams(map[string]any{
		"source":   "oscar",
		"language": "tr",
	})
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if spec.MaxSentences != corpus.DefaultMaxSentences {
		t.Fatalf("max sentences = %d, want default", spec.MaxSentences)
	}
	if !spec.Transliterate {
		t.Fatal("expected transliterate default true")
	}
	if spec.ConfidenceThreshold != corpus.DefaultConfidenceThreshold {
		t.Fatalf("threshold = %g, want default", spec.ConfidenceThreshold)
	}
	if script != "" {
		t.Fatalf("expected no script filter, got %q", script)
	}
}

func TestParseParamsRejectsBadTypes(t *testing.T) {
	base := map[string]any{"source": "oscar", "language": "kk"}
	cases := []struct {
		name     string
		override map[string]any
	}{
		{"source not string", map[string]any{"source": 7}},
		{"language not string", map[string]any{"language": true}},
		{"max_sentences fractional", map[string]any{"max_sentences": 10.5}},
		{"max_sentences string", map[string]any{"max_sentences": "10"}},
		{"transliterate not bool", map[string]any{"transliterate": "yes"}},
		{"threshold not numeric", map[string]any{"confidence_threshold": "high"}},
		{"script not string", map[string]any{"script": 12}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := map[string]any{}
			for k, v := range base {
				params[k] = v
			}
			for k, v := range tc.override {
				params[k] = v
			}
			_, _, err := corpus.ParseParams(params)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseParamsRejectsEnumViolationsAndBounds(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]any
	}{
		{"unknown source", map[string]any{"source": "commoncrawl", "language": "kk"}},
		{"unknown language", map[string]any{"source": "oscar", "language": "en"}},
		{"zero max", map[string]any{"source": "oscar", "language": "kk", "max_sentences": 0}},
		{"excessive max", map[string]any{"source": "oscar", "language": "kk", "max_sentences": corpus.MaxSentenceLimit + 1}},
		{"threshold above one", map[string]any{"source": "oscar", "language": "kk", "confidence_threshold": 1.5}},
		{"unknown script", map[string]any{"source": "oscar", "language": "kk", "script": "Grek"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := corpus.ParseParams(tc.params); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNormalizeScript(t *testing.T) {
	cases := []struct {
		in      any
		want    corpus.Script
		wantErr bool
	}{
		{nil, "", false},
		{"", "", false},
		{"   ", "", false},
		{"latn", corpus.ScriptLatin, false},
		{"LATN", corpus.ScriptLatin, false},
		{"cYRL", corpus.ScriptCyrillic, false},
		{"Arab", corpus.ScriptArabic, false},
		{"Hans", "", true},
		{42, "", true},
	}
	for _, tc := range cases {
		got, err := corpus.NormalizeScript(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeScript(%v): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeScript(%v): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeScript(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
