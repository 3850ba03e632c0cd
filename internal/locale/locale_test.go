package locale

import (
	"testing"
	"time"
)

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "pt", want: LanguagePortuguese},
		{input: "pt-BR", want: LanguagePortuguese},
		{input: "PT_pt", want: LanguagePortuguese},
		{input: "en", want: LanguageEnglish},
		{input: "en-US", want: LanguageEnglish},
		{input: "fr", want: ""},
		{input: "", want: ""},
	}

	for _, tc := range cases {
		if got := NormalizeLanguage(tc.input); got != tc.want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestLanguageFromAcceptLanguage(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "pt-BR,pt;q=0.9", want: LanguagePortuguese},
		{input: "en-US,en;q=0.9", want: LanguageEnglish},
		{input: "fr-FR,en;q=0.8,pt;q=0.5", want: LanguageEnglish},
		{input: "pt-PT", want: LanguagePortuguese},
		{input: "ja-JP", want: ""},
		{input: "", want: ""},
	}

	for _, tc := range cases {
		if got := LanguageFromAcceptLanguage(tc.input); got != tc.want {
			t.Fatalf("LanguageFromAcceptLanguage(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestPreferenceForLanguage(t *testing.T) {
	if pref := PreferenceForLanguage("en"); pref.HTMLLang != "en-US" {
		t.Fatalf("unexpected english preference %+v", pref)
	}
	if pref := PreferenceForLanguage("xx"); pref.Language != LanguagePortuguese || pref.HTMLLang != "pt-BR" {
		t.Fatalf("expected portuguese fallback, got %+v", pref)
	}
}

func TestPickAndT(t *testing.T) {
	if got := Pick("en", "Hello", "Olá"); got != "Hello" {
		t.Fatalf("expected english text, got %q", got)
	}
	if got := Pick("pt", "Hello", ""); got != "Hello" {
		t.Fatalf("expected fallback to english, got %q", got)
	}
	if got := T("", "load_more"); got != "Carregar mais posts" {
		t.Fatalf("unexpected default text %q", got)
	}
	if got := T("en", "missing.key"); got != "missing.key" {
		t.Fatalf("expected unknown key to be echoed, got %q", got)
	}
}

func TestFormatDates(t *testing.T) {
	ts := time.Date(2021, time.March, 5, 19, 25, 28, 0, time.UTC)

	cases := []struct {
		name string
		got  string
		want string
	}{
		{name: "long pt", got: FormatLongDate("pt", ts), want: "05 de março de 2021"},
		{name: "long en", got: FormatLongDate("en", ts), want: "05 March 2021"},
		{name: "short pt", got: FormatShortDate("pt", ts), want: "05 mar 2021"},
		{name: "short en", got: FormatShortDate("en", ts), want: "05 Mar 2021"},
		{name: "datetime pt", got: FormatDateTime("pt", ts), want: "05 mar 2021, às 19:25"},
		{name: "datetime en", got: FormatDateTime("en", ts), want: "05 Mar 2021, at 19:25"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}
