package locale

// Pick returns the text matching the request language, defaulting to Portuguese.
func Pick(language, english, portuguese string) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		if english != "" {
			return english
		}
		return portuguese
	}
	if portuguese != "" {
		return portuguese
	}
	return english
}

// 页面固定文案，key -> {pt, en}
var messages = map[string][2]string{
	"home":            {"Início", "Home"},
	"load_more":       {"Carregar mais posts", "Load more posts"},
	"reading_time":    {"%d min", "%d min"},
	"edited_at":       {"* editado em %s", "* edited on %s"},
	"previous_post":   {"Post anterior", "Previous post"},
	"next_post":       {"Próximo post", "Next post"},
	"exit_preview":    {"Sair do modo Preview", "Exit preview mode"},
	"not_found_title": {"Página não encontrada", "Page not found"},
	"not_found_body":  {"O post que você procura não existe.", "The post you are looking for does not exist."},
	"error_title":     {"Algo deu errado", "Something went wrong"},
	"error_body":      {"Não foi possível carregar o conteúdo agora.", "The content could not be loaded right now."},
	"back_home":       {"Voltar para o início", "Back to home"},
	"feed":            {"Feed RSS", "RSS feed"},
	"untitled":        {"Sem título", "Untitled"},
	"preview_banner":  {"Você está vendo um rascunho", "You are viewing a draft"},
	"comments":        {"Comentários", "Comments"},
	"language_switch": {"English", "Português"},
}

// T 返回固定文案；未知 key 原样返回。
func T(language, key string) string {
	pair, ok := messages[key]
	if !ok {
		return key
	}
	return Pick(language, pair[1], pair[0])
}
