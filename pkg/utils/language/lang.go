// package language wraps x/text/language for picking caption tracks by locale.
package language

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultPreferred is used when callers pass no preference.
var DefaultPreferred = []string{"en"}

// BestMatch returns the entry of available that best serves the preferred
// languages. Entries that are not valid BCP 47 tags are ignored. ok is false
// when nothing matches with at least low confidence.
func BestMatch(available []string, preferred ...string) (string, bool) {
	if len(preferred) == 0 {
		preferred = DefaultPreferred
	}

	var tags []language.Tag
	var names []string
	for _, a := range available {
		tag, err := language.Parse(strings.TrimSpace(a))
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		names = append(names, a)
	}
	if len(tags) == 0 {
		return "", false
	}

	var want []language.Tag
	for _, p := range preferred {
		if tag, err := language.Parse(p); err == nil {
			want = append(want, tag)
		}
	}
	if len(want) == 0 {
		return "", false
	}

	_, idx, conf := language.NewMatcher(tags).Match(want...)
	if conf == language.No {
		return "", false
	}
	return names[idx], true
}
