package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/locale"
)

const (
	localeContextKey   = "__request_locale"
	languageCookieName = "st_lang"
	languageCookieAge  = 365 * 24 * 60 * 60
)

var switchableLanguages = []string{locale.LanguagePortuguese, locale.LanguageEnglish}

// LocaleMiddleware 解析请求语言；页面内容随 Accept-Language 和语言 cookie 变化。
func (a *API) LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		pref := a.requestLocale(c)
		c.Header("Content-Language", pref.HTMLLang)
		c.Header("Vary", "Accept-Language, Cookie")
		c.Next()
	}
}

func (a *API) requestLocale(c *gin.Context) locale.Preference {
	if cached, ok := c.Get(localeContextKey); ok {
		if pref, ok := cached.(locale.Preference); ok {
			return pref
		}
	}

	language, explicit := a.resolveLanguage(c)
	if explicit {
		rememberLanguage(c, language)
	}
	pref := locale.PreferenceForLanguage(language)
	c.Set(localeContextKey, pref)
	return pref
}

// resolveLanguage 优先级：?lang= > cookie > Accept-Language > 站点默认语言。
// 第二个返回值表示语言来自 ?lang=，需要写回 cookie。
func (a *API) resolveLanguage(c *gin.Context) (string, bool) {
	if lang := locale.NormalizeLanguage(c.Query("lang")); lang != "" {
		return lang, true
	}
	if value, err := c.Cookie(languageCookieName); err == nil {
		if lang := locale.NormalizeLanguage(value); lang != "" {
			return lang, false
		}
	}
	if lang := locale.LanguageFromAcceptLanguage(c.GetHeader("Accept-Language")); lang != "" {
		return lang, false
	}
	return a.defaultLanguage(), false
}

func rememberLanguage(c *gin.Context, language string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     languageCookieName,
		Value:    language,
		Path:     "/",
		MaxAge:   languageCookieAge,
		HttpOnly: true,
		Secure:   requestScheme(c) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// buildLanguageSwitch 为每种语言生成保留当前查询参数的链接。
func buildLanguageSwitch(c *gin.Context) map[string]string {
	path, query := "/", url.Values{}
	if c.Request != nil && c.Request.URL != nil {
		path = c.Request.URL.Path
		query = c.Request.URL.Query()
	}

	links := make(map[string]string, len(switchableLanguages))
	for _, lang := range switchableLanguages {
		query.Set("lang", lang)
		links[lang] = path + "?" + query.Encode()
	}
	return links
}
