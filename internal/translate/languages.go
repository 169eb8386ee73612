package translate

import "sort"

// AutoDetect is the sentinel source code for "let the model detect the
// source language".
const AutoDetect = "auto"

// langCodes maps supported display-language names to their codes.
var langCodes = map[string]string{
	"English":    "en",
	"Arabic":     "ar",
	"German":     "de",
	"Spanish":    "es",
	"French":     "fr",
	"Hindi":      "hi",
	"Italian":    "it",
	"Japanese":   "ja",
	"Korean":     "ko",
	"Portuguese": "pt",
	"Russian":    "ru",
	"Chinese":    "zh",
	"Bengali":    "bn",
	"Tamil":      "ta",
	"Telugu":     "te",
	"Thai":       "th",
	"Ukrainian":  "uk",
	"Turkish":    "tr",
	"Vietnamese": "vi",
	"Kannada":    "kn",
}

// codeNames is the reverse index, built once at init.
var codeNames = func() map[string]string {
	m := make(map[string]string, len(langCodes))
	for name, code := range langCodes {
		m[code] = name
	}
	return m
}()

// Code returns the language code for a display name.
func Code(name string) (string, bool) {
	code, ok := langCodes[name]
	return code, ok
}

// Name returns the display name for a language code, falling back to
// the code itself for unknown codes.
func Name(code string) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return code
}

// KnownCode reports whether code is a supported language code.
func KnownCode(code string) bool {
	_, ok := codeNames[code]
	return ok
}

// SupportedLanguages returns the sorted display names of all supported
// languages.
func SupportedLanguages() []string {
	names := make([]string, 0, len(langCodes))
	for name := range langCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
