package domain

import "sort"

// supportedLanguages mirrors the language selector of the onboarding UI.
// The pipeline only needs code -> display name lookup.
var supportedLanguages = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"zh": "Chinese",
	"hi": "Hindi",
	"ar": "Arabic",
	"tl": "Tagalog",
}

// LanguageName returns the display name for a language code. Unknown codes
// fall back to the code itself so a language change is never silently lost.
func LanguageName(code string) string {
	if name, ok := supportedLanguages[code]; ok {
		return name
	}
	return code
}

// KnownLanguage reports whether code is in the catalog.
func KnownLanguage(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}

// Language is one catalog entry, used by the HTTP surface.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages lists the catalog sorted by code.
func Languages() []Language {
	out := make([]Language, 0, len(supportedLanguages))
	for code, name := range supportedLanguages {
		out = append(out, Language{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
