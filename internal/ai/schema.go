package ai

import (
	"context"
	"log/slog"

	"github.com/sleeqtechnologies/rechef/internal/extract"
	"github.com/sleeqtechnologies/rechef/internal/recipe"
)

// SchemaSynthesizer builds a recipe straight from a page's schema.org data
// when it is complete, and hands everything else to Next.
type SchemaSynthesizer struct {
	Next Synthesizer
}

func (s *SchemaSynthesizer) Synthesize(ctx context.Context, in Input) (*recipe.Generated, error) {
	if in.Website != nil && in.Website.Schema.Complete() {
		g := FromSchema(in.Website.Schema)
		fallbackImage(g, in)
		slog.Info("Recipe built from embedded schema", "name", g.Name, "ingredients", len(g.Ingredients))
		return g, nil
	}
	if s.Next == nil {
		return nil, synthesisErr(nil)
	}
	return s.Next.Synthesize(ctx, in)
}

// FromSchema maps a schema.org Recipe onto a generated recipe. Ingredient
// lines are kept verbatim as names since the schema does not split them.
func FromSchema(s *extract.RecipeSchema) *recipe.Generated {
	g := &recipe.Generated{
		Name:         s.Name,
		Description:  s.Description,
		Instructions: append([]string(nil), s.Instructions...),
	}
	for _, line := range s.Ingredients {
		g.Ingredients = append(g.Ingredients, recipe.Ingredient{Name: line})
	}
	if n, ok := extract.Servings(s.Servings); ok {
		g.Servings = &n
	}
	g.PrepTimeMinutes = minutes(s.PrepTime)
	g.CookTimeMinutes = minutes(s.CookTime)
	if g.CookTimeMinutes == nil && g.PrepTimeMinutes == nil {
		g.CookTimeMinutes = minutes(s.TotalTime)
	}
	if len(s.Images) > 0 {
		img := s.Images[0]
		g.ImageURL = &img
	}
	g.Normalize()
	return g
}

func minutes(iso string) *int {
	if iso == "" {
		return nil
	}
	n, err := extract.DurationMinutes(iso)
	if err != nil {
		slog.Debug("Ignoring unparseable duration", "value", iso, "error", err)
		return nil
	}
	return &n
}
