package ai

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// Prompts is the catalogue of model instructions.
type Prompts struct {
	RecipeSystem     string `yaml:"recipe_system"`
	RecipeIntro      string `yaml:"recipe_intro"`
	ClassifierPrompt string `yaml:"classifier_prompt"`
	// RecipeSchema is the JSON schema used for structured output.
	RecipeSchema string `yaml:"recipe_schema"`
}

func (p Prompts) validate() error {
	var missing []string
	if strings.TrimSpace(p.RecipeSystem) == "" {
		missing = append(missing, "recipe_system")
	}
	if strings.TrimSpace(p.ClassifierPrompt) == "" {
		missing = append(missing, "classifier_prompt")
	}
	if strings.TrimSpace(p.RecipeSchema) == "" {
		missing = append(missing, "recipe_schema")
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompts: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// ParsePrompts decodes a prompt catalogue.
func ParsePrompts(data []byte) (Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prompts{}, fmt.Errorf("prompts: %w", err)
	}
	if err := p.validate(); err != nil {
		return Prompts{}, err
	}
	return p, nil
}

// LoadPrompts reads a catalogue from path. Keys absent from the file keep
// their embedded defaults.
func LoadPrompts(path string) (Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("read prompts: %w", err)
	}
	p := DefaultPrompts()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prompts{}, fmt.Errorf("prompts: %w", err)
	}
	return p, p.validate()
}

var defaultPrompts = sync.OnceValue(func() Prompts {
	p, err := ParsePrompts(defaultPromptsYAML)
	if err != nil {
		panic(err)
	}
	return p
})

// DefaultPrompts returns the embedded catalogue.
func DefaultPrompts() Prompts {
	return defaultPrompts()
}
