package ytdlp

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/sleeqtechnologies/rechef/pkg/utils/language"
)

// MaxFrameSourceHeight caps the rendition picked for frame sampling; higher
// resolutions only cost download time.
const MaxFrameSourceHeight = 720

func directProtocol(p string) bool {
	return p == "" || p == "http" || p == "https"
}

// MediaURL picks a directly downloadable video rendition from info. It
// prefers progressive (video+audio) formats over video-only ones, then the
// tallest rendition not above MaxFrameSourceHeight. Returns "" when only
// segmented (HLS/DASH) streams exist.
func (i *Info) MediaURL() string {
	candidates := make([]Format, 0, len(i.Formats))
	for _, f := range i.Formats {
		if f.URL == "" || !f.HasVideo() || !directProtocol(f.Protocol) {
			continue
		}
		candidates = append(candidates, f)
	}

	if len(candidates) == 0 {
		if i.URL != "" && i.VCodec != "none" {
			return i.URL
		}
		return ""
	}

	rank := func(f Format) (bool, bool, int) {
		progressive := f.ACodec != "" && f.ACodec != "none"
		fits := f.Height == 0 || f.Height <= MaxFrameSourceHeight
		return progressive, fits, f.Height
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		pa, fa, ha := rank(candidates[a])
		pb, fb, hb := rank(candidates[b])
		if fa != fb {
			return fa
		}
		if pa != pb {
			return pa
		}
		if fa {
			return ha > hb
		}
		return ha < hb
	})
	return candidates[0].URL
}

// SubtitleURL returns a WebVTT track URL in the language closest to the
// preferred ones, looking at uploaded subtitles before automatic captions.
func (i *Info) SubtitleURL(preferred ...string) string {
	for _, tracks := range []map[string][]SubtitleTrack{i.Subtitles, i.AutomaticCaptions} {
		if len(tracks) == 0 {
			continue
		}
		langs := make([]string, 0, len(tracks))
		for lang := range tracks {
			langs = append(langs, lang)
		}
		sort.Strings(langs)

		lang, ok := language.BestMatch(langs, preferred...)
		if !ok {
			continue
		}
		for _, t := range tracks[lang] {
			if t.Ext == "vtt" && t.URL != "" {
				return t.URL
			}
		}
	}
	return ""
}

var (
	vttTimingLine = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?[.,]\d{3}\s+-->`)
	vttInlineTag  = regexp.MustCompile(`<[^>]+>`)
)

// FlattenVTT reduces a WebVTT document to plain transcript text. Cue
// timings, headers and inline styling are dropped, and the rolling duplicate
// lines YouTube emits for automatic captions are collapsed.
func FlattenVTT(r io.Reader) (string, error) {
	var out []string
	last := ""
	inHeader := true

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if inHeader {
			if line == "" {
				inHeader = false
			}
			continue
		}
		if line == "" || vttTimingLine.MatchString(line) || isCueIdentifier(line) {
			continue
		}
		if strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") {
			continue
		}
		line = strings.TrimSpace(vttInlineTag.ReplaceAllString(line, ""))
		if line == "" || line == last {
			continue
		}
		out = append(out, line)
		last = line
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return strings.Join(out, " "), nil
}

func isCueIdentifier(line string) bool {
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
