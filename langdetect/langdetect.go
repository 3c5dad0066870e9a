// Package langdetect identifies the language of transcribed text.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Auto is returned when the language cannot be determined.
const Auto = "auto"

// Supported is the set of languages the detector distinguishes between.
var Supported = []lingua.Language{
	lingua.English,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Russian,
	lingua.Vietnamese,
	lingua.Thai,
	lingua.Indonesian,
}

var (
	once     sync.Once
	detector lingua.LanguageDetector
)

func get() lingua.LanguageDetector {
	once.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(Supported...).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}

// Detect returns the ISO 639-1 code and English name of text's language,
// or (Auto, "Auto") when it is empty or ambiguous.
func Detect(text string) (code, name string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Auto, "Auto"
	}
	lang, ok := get().DetectLanguageOf(text)
	if !ok {
		return Auto, "Auto"
	}
	return strings.ToLower(lang.IsoCode639_1().String()), lang.String()
}
