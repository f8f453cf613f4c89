package source

import (
	"errors"
	"net/url"
	"strings"
)

// Well-known host aliases. Key: input host. Value: canonical domain.
var canonicalDomainByHost = map[string]string{
	"youtube.com":     "youtube.com",
	"www.youtube.com": "youtube.com",
	"m.youtube.com":   "youtube.com",
	"youtu.be":        "youtube.com",

	"tiktok.com":     "tiktok.com",
	"www.tiktok.com": "tiktok.com",
	"m.tiktok.com":   "tiktok.com",
	"vm.tiktok.com":  "tiktok.com",

	"instagram.com":     "instagram.com",
	"www.instagram.com": "instagram.com",
	"m.instagram.com":   "instagram.com",
	"instagr.am":        "instagram.com",

	"facebook.com":     "facebook.com",
	"www.facebook.com": "facebook.com",
	"m.facebook.com":   "facebook.com",
	"web.facebook.com": "facebook.com",
	"fb.com":           "facebook.com",
	"fb.watch":         "facebook.com",
}

// ResolveCanonicalDomain returns the canonical domain for host.
//
// host should be a hostname without port.
func ResolveCanonicalDomain(host string) string {
	h := normalizeHost(host)
	if h == "" {
		return ""
	}
	if c, ok := canonicalDomainByHost[h]; ok {
		return c
	}
	return h
}

func normalizeHost(hostport string) string {
	h := strings.TrimSpace(strings.ToLower(hostport))
	if h == "" {
		return ""
	}
	// url.URL.Host may include port.
	if strings.Contains(h, ":") {
		if parsed, err := url.Parse("//" + h); err == nil {
			if parsed.Hostname() != "" {
				h = parsed.Hostname()
			}
		}
	}
	h = strings.TrimSuffix(h, ".")
	return h
}

// ExtractYouTubeVideoID extracts the YouTube video ID from a URL.
// Returns empty string and error if not a valid YouTube URL or ID cannot be extracted.
func ExtractYouTubeVideoID(urlStr string) (string, error) {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return "", errors.New("empty url")
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		if u, err = url.Parse("https://" + urlStr); err != nil {
			return "", err
		}
	}

	host := normalizeHost(u.Host)

	// Handle youtu.be shortlinks
	if host == "youtu.be" {
		id := firstPathSegment(u.Path)
		if id == "" {
			return "", errors.New("not a youtube url or video id not found")
		}
		return id, nil
	}

	if strings.Contains(host, "youtube.com") {
		if q := u.Query().Get("v"); q != "" {
			return q, nil
		}
		for _, prefix := range []string{"/embed/", "/v/", "/shorts/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				if id := firstPathSegment(strings.TrimPrefix(u.Path, prefix)); id != "" {
					return id, nil
				}
			}
		}
	}

	return "", errors.New("not a youtube url or video id not found")
}

func firstPathSegment(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ""
	}
	seg, _, _ := strings.Cut(p, "/")
	seg, _, _ = strings.Cut(seg, "?")
	return strings.TrimSpace(seg)
}
