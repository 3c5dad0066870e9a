package enhance

import (
	"fmt"
	"slices"
	"strings"
)

// Mode selects what the rewrite does.
type Mode string

const (
	ModeFixGrammar     Mode = "fix_grammar"
	ModeAddPunctuation Mode = "add_punctuation"
	ModeAdjustTone     Mode = "adjust_tone"
	ModeCustom         Mode = "custom"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeFixGrammar, ModeAddPunctuation, ModeAdjustTone, ModeCustom}

// IsValidMode reports whether m names a supported mode.
func IsValidMode(m string) bool {
	return slices.Contains(Modes, Mode(m))
}

const defaultCustomPrompt = "Improve the following text. Return only the improved text."

// SystemPrompt builds the instruction sent ahead of the transcript.
// Unknown modes fall back to grammar fixing.
func SystemPrompt(mode Mode, language, customPrompt string) string {
	if language == "" {
		language = "en"
	}
	lang := strings.ToLower(language)
	zhTW := lang == "zh-tw" || lang == "zh"

	switch mode {
	case ModeAddPunctuation:
		return fmt.Sprintf("Add proper punctuation to the following %s text from speech recognition. "+
			"Return only the punctuated text, nothing else.", language)
	case ModeAdjustTone:
		return fmt.Sprintf("Adjust the tone of the following %s text to be more professional and polished. "+
			"Return only the adjusted text, nothing else.", language)
	case ModeCustom:
		if p := strings.TrimSpace(customPrompt); p != "" {
			return p
		}
		return defaultCustomPrompt
	default:
		if zhTW {
			return "請將以下語音轉文字內容修正為「臺灣繁體中文」，依語氣停頓補上自然標點（，。！？）；" +
				"修正常見同音字與錯字，但不要改變原意、不要擴寫。" +
				"只回傳修正後文字。"
		}
		return fmt.Sprintf("Fix grammar and spelling errors in the following %s text. "+
			"Return only the corrected text, nothing else.", language)
	}
}
