package translit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"gleaner/internal/services"
)

// Transliterator converts text to its phonetic (IPA) rendering.
type Transliterator interface {
	Transliterate(text string) (string, error)
}

const rulesSuffix = "_ipa.rules"

// RuleSet is a table-driven transliterator loaded from a rules file. Each
// non-comment line holds a source sequence and its replacement separated by
// whitespace; a line with a single field deletes the sequence. Longer
// sequences win over shorter ones at the same position.
type RuleSet struct {
	lang  string
	rules []rule
}

type rule struct {
	from string
	to   string
}

// LoadRuleSet reads {rulesDir}/{lang}_ipa.rules. A missing or empty file is
// a configuration error: a job must not silently skip requested
// transliteration.
func LoadRuleSet(rulesDir, lang string) (*RuleSet, error) {
	path := filepath.Join(rulesDir, lang+rulesSuffix)
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "translit", "load_rules",
			fmt.Sprintf("transliteration rules for %s unavailable", lang), err)
	}
	defer file.Close()

	var rules []rule
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		switch len(fields) {
		case 1:
			rules = append(rules, rule{from: fields[0]})
		case 2:
			rules = append(rules, rule{from: fields[0], to: fields[1]})
		default:
			return nil, services.Wrap(services.ErrConfiguration, "translit", "load_rules",
				fmt.Sprintf("%s:%d: expected one or two fields", path, line), nil)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "translit", "load_rules", "read rules file", err)
	}
	if len(rules) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "translit", "load_rules",
			fmt.Sprintf("rules file %s contains no rules", path), nil)
	}

	// Longest source sequence first so multi-character digraphs apply
	// before their single-character prefixes.
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].from) > len(rules[j].from)
	})
	return &RuleSet{lang: lang, rules: rules}, nil
}

// Language returns the language code the rules were loaded for.
func (r *RuleSet) Language() string {
	return r.lang
}

// Transliterate applies the rule table left to right and NFC-normalizes the
// result. Characters without a rule pass through unchanged.
func (r *RuleSet) Transliterate(text string) (string, error) {
	text = norm.NFC.String(text)
	var out strings.Builder
	out.Grow(len(text))
	for pos := 0; pos < len(text); {
		matched := false
		for _, rule := range r.rules {
			if strings.HasPrefix(text[pos:], rule.from) {
				out.WriteString(rule.to)
				pos += len(rule.from)
				matched = true
				break
			}
		}
		if !matched {
			out.WriteByte(text[pos])
			pos++
		}
	}
	return norm.NFC.String(out.String()), nil
}
