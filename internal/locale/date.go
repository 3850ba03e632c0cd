package locale

import (
	"fmt"
	"time"
)

var portugueseMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// FormatLongDate 用于列表页，例如 "25 de março de 2021" / "25 March 2021"。
func FormatLongDate(language string, t time.Time) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		return t.Format("02 January 2006")
	}
	return fmt.Sprintf("%02d de %s de %d", t.Day(), portugueseMonths[t.Month()-1], t.Year())
}

// FormatShortDate 用于文章页，例如 "25 mar 2021" / "25 Mar 2021"。
func FormatShortDate(language string, t time.Time) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		return t.Format("02 Jan 2006")
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), shortMonth(t.Month()), t.Year())
}

// FormatDateTime 用于“编辑于”一行，例如 "25 mar 2021, às 19:25"。
func FormatDateTime(language string, t time.Time) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		return t.Format("02 Jan 2006, at 15:04")
	}
	return FormatShortDate(language, t) + t.Format(", às 15:04")
}

func shortMonth(month time.Month) string {
	return string([]rune(portugueseMonths[month-1])[:3])
}
