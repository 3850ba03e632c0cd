package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CommentsConfig 描述文章页评论组件（utterances）的参数。
type CommentsConfig struct {
	Repo      string
	IssueTerm string
	Theme     string
}

// Enabled 仅在配置了仓库时才渲染评论组件。
func (c CommentsConfig) Enabled() bool {
	return strings.TrimSpace(c.Repo) != ""
}

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr       string
	Port             string
	GinMode          string
	SessionSecret    string
	SiteTitle        string
	SiteBaseURL      string
	DefaultLanguage  string
	CMSEndpoint      string
	CMSAccessToken   string
	CMSTimeout       time.Duration
	PageSize         int
	OutputDir        string
	BuildConcurrency int
	DatabasePath     string
	CMSListenAddr    string
	PreviewTTL       time.Duration
	LogLevel         string
	Comments         CommentsConfig
}

var defaults = map[string]interface{}{
	"port":                "8080",
	"gin_mode":            "release",
	"session_secret":      "spacetraveling-dev-secret",
	"site_title":          "spacetraveling",
	"site_base_url":       "http://localhost:8080",
	"default_language":    "pt",
	"cms_endpoint":        "http://localhost:8081/api/v2",
	"cms_access_token":    "",
	"cms_timeout":         "20s",
	"page_size":           1,
	"output_dir":          "public",
	"build_concurrency":   4,
	"database_path":       "spacetraveling.db",
	"cms_listen_addr":     ":8081",
	"preview_ttl":         "30m",
	"log_level":           "info",
	"comments_repo":       "",
	"comments_issue_term": "pathname",
	"comments_theme":      "dark-blue",
}

// Load 从环境变量（以及可选的 YAML 配置文件）读取应用配置，并为缺失项提供默认值。
// configFile 为空时尝试读取当前目录下的 config.yaml，不存在则忽略。
func Load(configFile string) (AppConfig, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// listen_addr 没有默认值，需要显式绑定才能被 AutomaticEnv 读到
	_ = v.BindEnv("listen_addr")
	v.AutomaticEnv()

	if path := strings.TrimSpace(configFile); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || strings.TrimSpace(configFile) != "" {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) AppConfig {
	port := trimmed(v, "port")
	if port == "" {
		port = "8080"
	}

	listenAddr := trimmed(v, "listen_addr")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	pageSize := v.GetInt("page_size")
	if pageSize <= 0 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}

	concurrency := v.GetInt("build_concurrency")
	if concurrency <= 0 {
		concurrency = 1
	}

	timeout := v.GetDuration("cms_timeout")
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	previewTTL := v.GetDuration("preview_ttl")
	if previewTTL <= 0 {
		previewTTL = 30 * time.Minute
	}

	return AppConfig{
		ListenAddr:       listenAddr,
		Port:             port,
		GinMode:          trimmed(v, "gin_mode"),
		SessionSecret:    trimmed(v, "session_secret"),
		SiteTitle:        trimmed(v, "site_title"),
		SiteBaseURL:      strings.TrimRight(trimmed(v, "site_base_url"), "/"),
		DefaultLanguage:  trimmed(v, "default_language"),
		CMSEndpoint:      strings.TrimRight(trimmed(v, "cms_endpoint"), "/"),
		CMSAccessToken:   trimmed(v, "cms_access_token"),
		CMSTimeout:       timeout,
		PageSize:         pageSize,
		OutputDir:        trimmed(v, "output_dir"),
		BuildConcurrency: concurrency,
		DatabasePath:     trimmed(v, "database_path"),
		CMSListenAddr:    trimmed(v, "cms_listen_addr"),
		PreviewTTL:       previewTTL,
		LogLevel:         trimmed(v, "log_level"),
		Comments: CommentsConfig{
			Repo:      trimmed(v, "comments_repo"),
			IssueTerm: trimmed(v, "comments_issue_term"),
			Theme:     trimmed(v, "comments_theme"),
		},
	}
}

func trimmed(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}
