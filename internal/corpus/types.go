package corpus

// Source identifies a remote corpus source.
type Source string

const (
	SourceOscar     Source = "oscar"
	SourceWikipedia Source = "wikipedia"
)

var allSources = []Source{SourceOscar, SourceWikipedia}

var sourceSet = func() map[Source]struct{} {
	set := make(map[Source]struct{}, len(allSources))
	for _, source := range allSources {
		set[source] = struct{}{}
	}
	return set
}()

// Language is one of the supported 2-letter language codes.
type Language string

const (
	LanguageKazakh  Language = "kk"
	LanguageKyrgyz  Language = "ky"
	LanguageUzbek   Language = "uz"
	LanguageTurkish Language = "tr"
	LanguageUyghur  Language = "ug"
)

var allLanguages = []Language{
	LanguageKazakh,
	LanguageKyrgyz,
	LanguageUzbek,
	LanguageTurkish,
	LanguageUyghur,
}

var languageSet = func() map[Language]struct{} {
	set := make(map[Language]struct{}, len(allLanguages))
	for _, lang := range allLanguages {
		set[lang] = struct{}{}
	}
	return set
}()

// Script is a writing-system filter value. The empty string means "no filter".
type Script string

const (
	ScriptLatin    Script = "Latn"
	ScriptCyrillic Script = "Cyrl"
	ScriptArabic   Script = "Arab"
)

var allScripts = []Script{ScriptLatin, ScriptCyrillic, ScriptArabic}

var scriptSet = func() map[Script]struct{} {
	set := make(map[Script]struct{}, len(allScripts))
	for _, script := range allScripts {
		set[script] = struct{}{}
	}
	return set
}()

// IsSource reports whether value is a member of the source enum.
func IsSource(value string) bool {
	_, ok := sourceSet[Source(value)]
	return ok
}

// IsLanguage reports whether value is a member of the language enum.
func IsLanguage(value string) bool {
	_, ok := languageSet[Language(value)]
	return ok
}

// IsScript reports whether value is a member of the script enum.
func IsScript(value string) bool {
	_, ok := scriptSet[Script(value)]
	return ok
}

// Sources returns the supported corpus sources.
func Sources() []Source {
	return append([]Source(nil), allSources...)
}

// Languages returns the supported language codes.
func Languages() []Language {
	return append([]Language(nil), allLanguages...)
}

// Scripts returns the supported script filter values.
func Scripts() []Script {
	return append([]Script(nil), allScripts...)
}

// MaxSentenceLimit bounds how many sentences a single job may request.
const MaxSentenceLimit = 100000

// ProcessSpec is the validated, immutable description of one corpus job.
// Construct it through ParseParams so enum membership and types are checked.
type ProcessSpec struct {
	Source              Source
	Language            Language
	MaxSentences        int
	Transliterate       bool
	ConfidenceThreshold float64
}
