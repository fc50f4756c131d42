package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/tbxark/homi/types"
	"gopkg.in/yaml.v3"
)

// Prompt is a question and its canned quick replies.
type Prompt struct {
	Question    string   `yaml:"question"`
	Suggestions []string `yaml:"suggestions"`
}

// Specific is the follow-up asked for one category.
type Specific struct {
	Prompt   `yaml:",inline"`
	Keywords []string `yaml:"keywords"`
}

type Category struct {
	Name     string    `yaml:"name"`
	Keywords []string  `yaml:"keywords"`
	Specific *Specific `yaml:"specific,omitempty"`
}

// Catalog parameterizes the dialogue. Category order is significant: the first
// category whose keyword matches wins.
type Catalog struct {
	Categories      []Category             `yaml:"categories"`
	DefaultCategory string                 `yaml:"default_category"`
	Fields          map[types.Field]Prompt `yaml:"fields"`
	QuickStarters   []string               `yaml:"quick_starters"`
	DisplayNames    map[types.Field]string `yaml:"display_names,omitempty"`
}

// Category looks up a category by name.
func (c *Catalog) Category(name string) (Category, bool) {
	for _, category := range c.Categories {
		if category.Name == name {
			return category, true
		}
	}
	return Category{}, false
}

// SpecificFor returns the follow-up registered for the task type, if any.
func (c *Catalog) SpecificFor(taskType string) *Specific {
	category, ok := c.Category(taskType)
	if !ok {
		return nil
	}
	return category.Specific
}

func (c *Catalog) DisplayName(field types.Field) string {
	if name, ok := c.DisplayNames[field]; ok && name != "" {
		return name
	}
	return string(field)
}

func (c *Catalog) Validate() error {
	if len(c.Categories) == 0 {
		return errors.New("catalog has no categories")
	}
	if c.DefaultCategory == "" {
		return errors.New("catalog default_category is empty")
	}
	for _, field := range []types.Field{types.FieldLocation, types.FieldBudget, types.FieldTimeline} {
		if c.Fields[field].Question == "" {
			return fmt.Errorf("catalog has no question for field %q", field)
		}
	}
	for _, category := range c.Categories {
		if category.Name == "" {
			return errors.New("catalog category without name")
		}
		if len(category.Keywords) == 0 {
			return fmt.Errorf("category %q has no keywords", category.Name)
		}
		if category.Specific != nil && category.Specific.Question == "" {
			return fmt.Errorf("category %q has a specific block without question", category.Name)
		}
	}
	return nil
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
