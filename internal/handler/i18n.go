package handler

import "github.com/spacetraveling/internal/locale"

var fixedTitleMap = map[string]string{
	"Início":                "Home",
	"Post":                  "Post",
	"Página não encontrada": "Page not found",
	"Algo deu errado":       "Something went wrong",
	"Pré-visualização":      "Preview",
}

func localizeFixedTitle(language, title string) string {
	if title == "" {
		return title
	}
	normalized := locale.NormalizeLanguage(language)
	if normalized == locale.LanguageEnglish {
		if mapped, ok := fixedTitleMap[title]; ok {
			return mapped
		}
		return title
	}
	for key, value := range fixedTitleMap {
		if value == title {
			return key
		}
	}
	return title
}
