package translit

import (
	"os"
	"strings"
	"sync"

	"gleaner/internal/services"
)

// Registry lazily loads and caches one RuleSet per language from a rules
// directory.
type Registry struct {
	rulesDir string

	mu     sync.Mutex
	loaded map[string]*RuleSet
}

func NewRegistry(rulesDir string) *Registry {
	return &Registry{rulesDir: rulesDir, loaded: make(map[string]*RuleSet)}
}

// Supported lists the languages that have a rules file present.
func (r *Registry) Supported() ([]string, error) {
	entries, err := os.ReadDir(r.rulesDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "translit", "scan_rules", "rules directory unavailable", err)
	}
	var langs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if lang, ok := strings.CutSuffix(name, rulesSuffix); ok && lang != "" {
			langs = append(langs, lang)
		}
	}
	return langs, nil
}

// For returns the transliterator for lang, loading its rules on first use.
func (r *Registry) For(lang string) (Transliterator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rules, ok := r.loaded[lang]; ok {
		return rules, nil
	}
	rules, err := LoadRuleSet(r.rulesDir, lang)
	if err != nil {
		return nil, err
	}
	r.loaded[lang] = rules
	return rules, nil
}
