package translit

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, dir, lang, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, lang+"_ipa.rules"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTransliterateAppliesLongestMatchFirst(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "kk", `
# digraphs before single letters
ш ʃ
сш x
с s
`)
	rules, err := LoadRuleSet(dir, "kk")
	if err != nil {
		t.Fatalf("LoadRuleSet: %v", err)
	}
	got, err := rules.Transliterate("сшс")
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	if got != "xs" {
		t.Fatalf("got %q, want %q", got, "xs")
	}
}

func TestTransliteratePassesUnmappedThrough(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "uz", "o' oʻ\n")
	rules, err := LoadRuleSet(dir, "uz")
	if err != nil {
		t.Fatalf("LoadRuleSet: %v", err)
	}
	got, err := rules.Transliterate("o'zbek tili")
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	if got != "oʻzbek tili" {
		t.Fatalf("got %q", got)
	}
}

func TestTransliterateDeletionRule(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "ky", "ъ\nь\nа a\n")
	rules, err := LoadRuleSet(dir, "ky")
	if err != nil {
		t.Fatalf("LoadRuleSet: %v", err)
	}
	got, err := rules.Transliterate("аъ")
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	if got != "a" {
		t.Fatalf("got %q, want %q", got, "a")
	}
}

func TestLoadRuleSetMissingFile(t *testing.T) {
	if _, err := LoadRuleSet(t.TempDir(), "kk"); err == nil {
		t.Fatal("expected error for missing rules file")
	}
}

func TestLoadRuleSetEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "kk", "# only comments\n\n")
	if _, err := LoadRuleSet(dir, "kk"); err == nil {
		t.Fatal("expected error for empty rules file")
	}
}

func TestRegistrySupportedAndCaching(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "kk", "а a\n")
	writeRules(t, dir, "ug", "ئ ʔ\n")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := NewRegistry(dir)
	langs, err := registry.Supported()
	if err != nil {
		t.Fatalf("Supported: %v", err)
	}
	if len(langs) != 2 {
		t.Fatalf("expected 2 supported languages, got %v", langs)
	}

	first, err := registry.For("kk")
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	second, err := registry.For("kk")
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if first != second {
		t.Fatal("expected cached rule set to be reused")
	}

	if _, err := registry.For("tr"); err == nil {
		t.Fatal("expected error for language without rules")
	}
}
