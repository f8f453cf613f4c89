package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sleeqtechnologies/rechef/pkg/utils/markdown"
)

// findRecipeSchema scans every JSON-LD block in doc and returns the first
// schema.org Recipe, or nil. Malformed blocks are skipped.
func findRecipeSchema(doc *goquery.Document) *RecipeSchema {
	var found *RecipeSchema
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return true
		}
		if obj := findRecipeNode(data); obj != nil {
			found = parseRecipeNode(obj)
			return false
		}
		return true
	})
	return found
}

func findRecipeNode(data any) map[string]any {
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			if r := findRecipeNode(item); r != nil {
				return r
			}
		}
	case map[string]any:
		if hasType(v, "Recipe") {
			return v
		}
		if graph, ok := v["@graph"].([]any); ok {
			return findRecipeNode(graph)
		}
	}
	return nil
}

// hasType matches "@type" given as a string or as an array of strings.
func hasType(obj map[string]any, want string) bool {
	switch t := obj["@type"].(type) {
	case string:
		return t == want
	case []any:
		for _, x := range t {
			if s, ok := x.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func parseRecipeNode(obj map[string]any) *RecipeSchema {
	return &RecipeSchema{
		Name:         markdown.StripHTML(scalarString(obj["name"])),
		Description:  markdown.StripHTML(scalarString(obj["description"])),
		Images:       normalizeImages(obj["image"]),
		Ingredients:  normalizeStrings(obj["recipeIngredient"]),
		Instructions: normalizeInstructions(obj["recipeInstructions"]),
		PrepTime:     scalarString(obj["prepTime"]),
		CookTime:     scalarString(obj["cookTime"]),
		TotalTime:    scalarString(obj["totalTime"]),
		Servings:     servingsString(obj["recipeYield"]),
		Author:       authorName(obj["author"]),
	}
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func normalizeImages(v any) []string {
	switch x := v.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return []string{s}
		}
	case map[string]any:
		if s := scalarString(x["url"]); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range x {
			out = append(out, normalizeImages(item)...)
		}
		return out
	}
	return nil
}

func normalizeStrings(v any) []string {
	switch x := v.(type) {
	case string:
		if s := markdown.StripHTML(x); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range x {
			if s := markdown.StripHTML(scalarString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// normalizeInstructions flattens plain strings, HowToStep objects and
// HowToSection groups into an ordered list of steps.
func normalizeInstructions(v any) []string {
	switch x := v.(type) {
	case string:
		if s := markdown.StripHTML(x); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range x {
			out = append(out, normalizeInstructions(item)...)
		}
		return out
	case map[string]any:
		switch {
		case hasType(x, "HowToStep"):
			text := scalarString(x["text"])
			if text == "" {
				text = scalarString(x["name"])
			}
			if s := markdown.StripHTML(text); s != "" {
				return []string{s}
			}
		case hasType(x, "HowToSection"):
			return normalizeInstructions(x["itemListElement"])
		}
	}
	return nil
}

func authorName(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case []any:
		if len(x) > 0 {
			return authorName(x[0])
		}
	case map[string]any:
		return scalarString(x["name"])
	}
	return ""
}

func servingsString(v any) string {
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if s := scalarString(item); s != "" {
				return s
			}
		}
		return ""
	default:
		return scalarString(v)
	}
}

var (
	isoDuration = regexp.MustCompile(`^P(?:(\d+(?:\.\d+)?)D)?(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)
	leadingInt  = regexp.MustCompile(`\d+`)
)

// DurationMinutes parses an ISO-8601 duration such as "PT1H30M" into whole
// minutes, rounding seconds up.
func DurationMinutes(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}
	part := func(i int) float64 {
		if m[i] == "" {
			return 0
		}
		f, _ := strconv.ParseFloat(m[i], 64)
		return f
	}
	seconds := part(1)*86400 + part(2)*3600 + part(3)*60 + part(4)
	minutes := int(seconds / 60)
	if float64(minutes*60) < seconds {
		minutes++
	}
	return minutes, nil
}

// Servings pulls the first integer out of a recipeYield value such as
// "4 servings" or "Makes 12".
func Servings(s string) (int, bool) {
	m := leadingInt.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
