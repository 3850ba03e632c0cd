package locale

import (
	"strings"

	"golang.org/x/text/language"
)

const (
	LanguagePortuguese = "pt"
	LanguageEnglish    = "en"
)

type Preference struct {
	Language string
	Locale   string
	HTMLLang string
}

var (
	supportedTags = []language.Tag{language.BrazilianPortuguese, language.AmericanEnglish}
	matcher       = language.NewMatcher(supportedTags)
)

func NormalizeLanguage(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "pt") || trimmed == "br" {
		return LanguagePortuguese
	}
	if strings.HasPrefix(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

// LanguageFromAcceptLanguage 按 q 值匹配支持的语言，无法匹配时返回空串。
func LanguageFromAcceptLanguage(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(trimmed)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return ""
	}
	base, _ := supportedTags[index].Base()
	return NormalizeLanguage(base.String())
}

func PreferenceForLanguage(lang string) Preference {
	if NormalizeLanguage(lang) == LanguageEnglish {
		return Preference{Language: LanguageEnglish, Locale: "en_US", HTMLLang: "en-US"}
	}
	return Preference{Language: LanguagePortuguese, Locale: "pt_BR", HTMLLang: "pt-BR"}
}
