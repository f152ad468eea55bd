// Package langmeta provides the locale registry used to label backend
// prompts: for each supported locale code, the human-readable language
// name and the backend-facing language code (which may differ from the
// locale code, e.g. "zh" → "zh-Hans").
package langmeta

// Meta describes how a target locale is presented to the backend.
type Meta struct {
	// Name is the human-readable language name ("Spanish").
	Name string
	// Code is the backend-facing language code ("es").
	Code string
}

// Registry contains the known locale → language mappings.
var Registry = map[string]Meta{
	"es":      {Name: "Spanish", Code: "es"},
	"fr":      {Name: "French", Code: "fr"},
	"de":      {Name: "German", Code: "de"},
	"it":      {Name: "Italian", Code: "it"},
	"pt":      {Name: "Portuguese", Code: "pt"},
	"pt-BR":   {Name: "Brazilian Portuguese", Code: "pt"},
	"ja":      {Name: "Japanese", Code: "ja"},
	"ko":      {Name: "Korean", Code: "ko"},
	"zh":      {Name: "Chinese", Code: "zh-Hans"},
	"zh-Hant": {Name: "Chinese", Code: "zh-Hant"},
	"ru":      {Name: "Russian", Code: "ru"},
	"uk":      {Name: "Ukrainian", Code: "uk"},
	"ar":      {Name: "Arabic", Code: "ar"},
	"hi":      {Name: "Hindi", Code: "hi"},
	"tr":      {Name: "Turkish", Code: "tr"},
	"nl":      {Name: "Dutch", Code: "nl"},
	"sv":      {Name: "Swedish", Code: "sv"},
	"no":      {Name: "Norwegian", Code: "no"},
	"da":      {Name: "Danish", Code: "da"},
	"fi":      {Name: "Finnish", Code: "fi"},
	"pl":      {Name: "Polish", Code: "pl"},
	"cs":      {Name: "Czech", Code: "cs"},
	"sk":      {Name: "Slovak", Code: "sk"},
	"sl":      {Name: "Slovenian", Code: "sl"},
	"bg":      {Name: "Bulgarian", Code: "bg"},
	"el":      {Name: "Greek", Code: "el"},
	"he":      {Name: "Hebrew", Code: "he"},
	"th":      {Name: "Thai", Code: "th"},
	"vi":      {Name: "Vietnamese", Code: "vi"},
	"id":      {Name: "Indonesian", Code: "id"},
}

// Resolve returns the metadata for a locale code. Unknown codes fall
// back to using the code itself as both the name and the backend code,
// so every locale remains translatable.
func Resolve(locale string) Meta {
	if m, ok := Registry[locale]; ok {
		return m
	}
	return Meta{Name: locale, Code: locale}
}
