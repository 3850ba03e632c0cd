package richtext

import (
	"fmt"
	htmlstd "html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	videoEmbedSrcPattern = regexp.MustCompile(
		`^https://(?:www\.youtube-nocookie\.com/embed/|www\.youtube\.com/embed/|player\.vimeo\.com/video/)`,
	)
	videoEmbedTimePattern = regexp.MustCompile(`(?i)(\d+)(h|m|s)`) // YouTube t=1h2m3s

	videoSanitizer = newVideoSanitizer()
)

func newVideoSanitizer() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("div", "iframe")
	policy.AllowAttrs("class", "data-video-embed", "data-video-platform", "data-video-source").OnElements("div")
	policy.AllowAttrs("src").Matching(videoEmbedSrcPattern).OnElements("iframe")
	policy.AllowAttrs("title", "allow", "allowfullscreen", "frameborder", "loading", "referrerpolicy").OnElements("iframe")
	return policy
}

// VideoEmbed is a recognised video link rewritten to its player URL.
type VideoEmbed struct {
	Platform string
	Source   string
	EmbedURL string
}

// ParseVideoURL recognises YouTube and Vimeo links.
func ParseVideoURL(raw string) (VideoEmbed, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "<")
	trimmed = strings.TrimSuffix(trimmed, ">")
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed == nil {
		return VideoEmbed{}, false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return VideoEmbed{}, false
	}
	if parsed.Hostname() == "" {
		return VideoEmbed{}, false
	}

	if embed, ok := parseYouTubeEmbed(parsed, trimmed); ok {
		return embed, true
	}
	if embed, ok := parseVimeoEmbed(parsed, trimmed); ok {
		return embed, true
	}
	return VideoEmbed{}, false
}

func parseYouTubeEmbed(u *url.URL, source string) (VideoEmbed, bool) {
	host := strings.ToLower(u.Hostname())
	var videoID string

	switch {
	case host == "youtu.be":
		videoID = strings.Trim(strings.TrimPrefix(u.Path, "/"), "/")
	case isHostOrSubdomain(host, "youtube.com"), isHostOrSubdomain(host, "youtube-nocookie.com"):
		path := strings.Trim(u.Path, "/")
		switch {
		case path == "watch":
			videoID = u.Query().Get("v")
		case strings.HasPrefix(path, "shorts/"):
			videoID = strings.TrimPrefix(path, "shorts/")
		case strings.HasPrefix(path, "embed/"):
			videoID = strings.TrimPrefix(path, "embed/")
		case strings.HasPrefix(path, "live/"):
			videoID = strings.TrimPrefix(path, "live/")
		}
	default:
		return VideoEmbed{}, false
	}
	if strings.Contains(videoID, "/") {
		videoID = strings.Split(videoID, "/")[0]
	}
	if videoID == "" {
		return VideoEmbed{}, false
	}

	values := url.Values{}
	values.Set("rel", "0")
	values.Set("playsinline", "1")
	if start := parseYouTubeStart(u); start > 0 {
		values.Set("start", strconv.Itoa(start))
	}

	return VideoEmbed{
		Platform: "youtube",
		Source:   source,
		EmbedURL: "https://www.youtube-nocookie.com/embed/" + url.PathEscape(videoID) + "?" + values.Encode(),
	}, true
}

func parseYouTubeStart(u *url.URL) int {
	query := u.Query()
	if value := query.Get("start"); value != "" {
		return parseYouTubeTime(value)
	}
	if value := query.Get("t"); value != "" {
		return parseYouTubeTime(value)
	}
	return 0
}

func parseYouTubeTime(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(trimmed); err == nil {
		if seconds > 0 {
			return seconds
		}
		return 0
	}

	total := 0
	for _, match := range videoEmbedTimePattern.FindAllStringSubmatch(trimmed, -1) {
		value, err := strconv.Atoi(match[1])
		if err != nil || value <= 0 {
			continue
		}
		switch strings.ToLower(match[2]) {
		case "h":
			total += value * 3600
		case "m":
			total += value * 60
		case "s":
			total += value
		}
	}
	return total
}

func parseVimeoEmbed(u *url.URL, source string) (VideoEmbed, bool) {
	host := strings.ToLower(u.Hostname())
	if !isHostOrSubdomain(host, "vimeo.com") {
		return VideoEmbed{}, false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	videoID := ""
	for _, segment := range segments {
		if _, err := strconv.ParseUint(segment, 10, 64); err == nil {
			videoID = segment
			break
		}
	}
	if videoID == "" {
		return VideoEmbed{}, false
	}

	return VideoEmbed{
		Platform: "vimeo",
		Source:   source,
		EmbedURL: "https://player.vimeo.com/video/" + videoID,
	}, true
}

// HTML renders the player. The markup only passes the video sanitizer when
// the iframe points at a known player.
func (e VideoEmbed) HTML() string {
	markup := fmt.Sprintf(
		`<div class="video-embed" data-video-embed="true" data-video-platform="%s" data-video-source="%s">`+
			`<iframe src="%s" title="%s" loading="lazy" allow="%s" allowfullscreen frameborder="0" referrerpolicy="strict-origin-when-cross-origin"></iframe>`+
			`</div>`,
		htmlstd.EscapeString(e.Platform),
		htmlstd.EscapeString(e.Source),
		htmlstd.EscapeString(e.EmbedURL),
		htmlstd.EscapeString(videoEmbedTitle(e.Platform)),
		"accelerometer; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share",
	)
	return videoSanitizer.Sanitize(markup)
}

func videoEmbedTitle(platform string) string {
	switch platform {
	case "youtube":
		return "YouTube video player"
	case "vimeo":
		return "Vimeo video player"
	default:
		return "Video player"
	}
}

func isHostOrSubdomain(host, domain string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	domain = strings.ToLower(strings.TrimSpace(domain))
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
