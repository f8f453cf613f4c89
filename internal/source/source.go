// Package source classifies submitted URLs by platform.
//
// Classification is pure string matching: no network I/O, deterministic for a
// given input.
package source

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sleeqtechnologies/rechef/internal/db"
)

type Kind string

const (
	YouTube   Kind = "youtube"
	TikTok    Kind = "tiktok"
	Instagram Kind = "instagram"
	Facebook  Kind = "facebook"
	Website   Kind = "website"
	Image     Kind = "image"
)

// Kinds lists every source in classification priority order.
var Kinds = []Kind{YouTube, TikTok, Instagram, Facebook, Image, Website}

// IsVideoPlatform reports whether k needs the heavy media pipeline.
func (k Kind) IsVideoPlatform() bool {
	switch k {
	case YouTube, TikTok, Instagram, Facebook:
		return true
	}
	return false
}

// DisplayName is the platform name as shown to users.
func (k Kind) DisplayName() string {
	switch k {
	case YouTube:
		return "YouTube"
	case TikTok:
		return "TikTok"
	case Instagram:
		return "Instagram"
	case Facebook:
		return "Facebook"
	case Image:
		return "Image"
	default:
		return "Website"
	}
}

// ContentType maps a source onto the persisted content type.
func (k Kind) ContentType() db.ContentType {
	switch k {
	case Image:
		return db.ContentTypeImage
	case Website:
		return db.ContentTypeWebsite
	default:
		return db.ContentTypeVideo
	}
}

// Info is the classification result. ID is empty when the platform's id
// could not be derived from the URL.
type Info struct {
	Source Kind   `json:"source"`
	URL    string `json:"url"`
	ID     string `json:"id,omitempty"`
}

var (
	imageExtPattern = regexp.MustCompile(`\.(jpg|jpeg|png|gif|webp|bmp)(\?.*)?$`)

	tiktokVideoPattern = regexp.MustCompile(`/@[\w.-]+/video/(\d+)`)
	tiktokShortPattern = regexp.MustCompile(`/t/(\w+)`)
	tiktokVMPattern    = regexp.MustCompile(`vm\.tiktok\.com/(\w+)`)

	instagramPaths = []string{"/p/", "/reel/", "/reels/", "/tv/"}
	facebookPaths  = []string{"/watch", "/reel/", "/reels/", "/videos/", "/posts/", "/share/v/", "/share/r/"}
)

// Classify detects the platform of rawURL, first match wins.
func Classify(rawURL string) Info {
	raw := strings.TrimSpace(rawURL)
	info := Info{URL: raw}

	host, path := splitHostPath(raw)
	lowerPath := strings.ToLower(path)

	switch {
	case isYouTubeHost(host):
		info.Source = YouTube
		info.ID, _ = ExtractYouTubeVideoID(raw)
	case strings.Contains(host, "tiktok.com"):
		info.Source = TikTok
		info.ID = ExtractTikTokVideoID(raw)
	case isInstagramHost(host) && containsAny(lowerPath, instagramPaths):
		info.Source = Instagram
		info.ID = pathIDAfter(path, instagramPaths)
	case isFacebookHost(host) && (host == "fb.watch" || containsAny(lowerPath, facebookPaths)):
		info.Source = Facebook
	case imageExtPattern.MatchString(lowerPath):
		info.Source = Image
	default:
		info.Source = Website
	}
	return info
}

func isYouTubeHost(host string) bool {
	return strings.Contains(host, "youtube.com") || host == "youtu.be" || strings.HasSuffix(host, ".youtu.be")
}

func isInstagramHost(host string) bool {
	return ResolveCanonicalDomain(host) == "instagram.com"
}

func isFacebookHost(host string) bool {
	return ResolveCanonicalDomain(host) == "facebook.com"
}

// ExtractTikTokVideoID best-effort extracts the numeric id or short code.
func ExtractTikTokVideoID(raw string) string {
	for _, re := range []*regexp.Regexp{tiktokVideoPattern, tiktokShortPattern, tiktokVMPattern} {
		if m := re.FindStringSubmatch(raw); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

func splitHostPath(raw string) (string, string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// Scheme-less input such as "youtu.be/abc".
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return "", raw
		}
	}
	p := u.EscapedPath()
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return normalizeHost(u.Host), p
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func pathIDAfter(path string, prefixes []string) string {
	lower := strings.ToLower(path)
	for _, p := range prefixes {
		if i := strings.Index(lower, p); i >= 0 {
			return firstPathSegment(path[i+len(p):])
		}
	}
	return ""
}
