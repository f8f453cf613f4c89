// Package recipe holds the recipe shape produced by synthesis and persisted on
// job completion.
package recipe

import "strings"

// DefaultName is used when synthesis yields no usable name.
const DefaultName = "Untitled Recipe"

type Ingredient struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Unit     *string `json:"unit,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// Generated is the structured output of a synthesizer.
type Generated struct {
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Ingredients     []Ingredient `json:"ingredients"`
	Instructions    []string     `json:"instructions"`
	Servings        *int         `json:"servings,omitempty"`
	PrepTimeMinutes *int         `json:"prepTimeMinutes,omitempty"`
	CookTimeMinutes *int         `json:"cookTimeMinutes,omitempty"`
	ImageURL        *string      `json:"imageUrl,omitempty"`
}

// Provenance describes where a generated recipe came from.
type Provenance struct {
	SourceURL             string
	SourceTitle           *string
	SourceAuthorName      *string
	SourceAuthorAvatarURL *string
}

// Normalize trims fields, drops empty ingredients and steps, and applies the
// default name.
func (g *Generated) Normalize() {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		g.Name = DefaultName
	}
	g.Description = strings.TrimSpace(g.Description)

	ingredients := g.Ingredients[:0]
	for _, ing := range g.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Quantity = strings.TrimSpace(ing.Quantity)
		if ing.Name == "" {
			continue
		}
		ing.Unit = trimmedOrNil(ing.Unit)
		ing.Notes = trimmedOrNil(ing.Notes)
		ingredients = append(ingredients, ing)
	}
	g.Ingredients = ingredients

	steps := g.Instructions[:0]
	for _, s := range g.Instructions {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	g.Instructions = steps

	g.Servings = positiveOrNil(g.Servings)
	g.PrepTimeMinutes = positiveOrNil(g.PrepTimeMinutes)
	g.CookTimeMinutes = positiveOrNil(g.CookTimeMinutes)
	g.ImageURL = trimmedOrNil(g.ImageURL)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func positiveOrNil(n *int) *int {
	if n == nil || *n <= 0 {
		return nil
	}
	return n
}
