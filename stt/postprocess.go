package stt

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/longbridgeapp/opencc"
	"golang.org/x/text/language"
)

// NeedsS2T reports whether lang asks for Traditional Chinese output.
func NeedsS2T(lang string) bool {
	switch strings.ToLower(lang) {
	case "zh-tw", "zh_tw", "zh-hant":
		return true
	}
	return false
}

var s2t struct {
	once sync.Once
	cc   *opencc.OpenCC
	err  error
}

// SimplifiedToTraditional converts text with the OpenCC s2t profile. The
// input is returned unchanged if the converter cannot be loaded.
func SimplifiedToTraditional(text string) string {
	s2t.once.Do(func() {
		s2t.cc, s2t.err = opencc.New("s2t")
		if s2t.err != nil {
			slog.Warn("load opencc s2t", "error", s2t.err)
		}
	})
	if s2t.err != nil || text == "" {
		return text
	}
	out, err := s2t.cc.Convert(text)
	if err != nil {
		slog.Warn("opencc convert", "error", err)
		return text
	}
	return out
}

// isoLanguage reduces a settings language tag to the two-letter base
// most APIs accept ("zh-TW" → "zh"). "auto" and "" yield "".
func isoLanguage(lang string) string {
	lang = strings.TrimSpace(normalizedLanguage(lang))
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return lang
	}
	base, _ := tag.Base()
	return base.String()
}

// canonicalLanguage normalises a provider-reported language code to
// BCP 47 form ("eng" → "en", "zh_tw" → "zh-TW"). Unparseable values such
// as full language names are returned as is.
func canonicalLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	return tag.String()
}
