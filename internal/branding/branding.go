package branding

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"assistant-portal/internal/components"
	"assistant-portal/pkg/navigation"
)

//go:embed variants.yaml
var defaultVariants []byte

var (
	ErrUnknownVariant = errors.New("unknown site variant")
	ErrInvalidVariant = errors.New("invalid site variant")
)

type Logo struct {
	Src    string `yaml:"src"`
	Alt    string `yaml:"alt"`
	Width  string `yaml:"width"`
	Height string `yaml:"height"`
}

// Variant is one branded deployment of the site. Variants differ only by
// strings and links.
type Variant struct {
	Key         string            `yaml:"key"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Keywords    string            `yaml:"keywords"`
	Author      string            `yaml:"author"`
	Greeting    string            `yaml:"greeting"`
	Logo        Logo              `yaml:"logo"`
	Navigation  []navigation.Item `yaml:"navigation"`
	ChatAPIBase string            `yaml:"chat_api_base"`
}

type variantFile struct {
	Variants []Variant `yaml:"variants"`
}

func (v Variant) Validate() error {
	if strings.TrimSpace(v.Key) == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidVariant)
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("%w: %s: name is required", ErrInvalidVariant, v.Key)
	}
	if err := navigation.Validate(v.Navigation); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidVariant, v.Key, err)
	}
	return nil
}

func (v Variant) HeaderConfig() components.HeaderConfig {
	return components.HeaderConfig{
		BrandName: v.Name,
		Logo: components.LogoConfig{
			Src:    v.Logo.Src,
			Alt:    v.Logo.Alt,
			Width:  v.Logo.Width,
			Height: v.Logo.Height,
		},
		Items:    navigation.Clone(v.Navigation),
		HomePath: "/",
	}
}

func (v Variant) PageMeta(title string) components.PageMeta {
	meta := components.PageMeta{
		Title:       v.Name,
		Description: v.Description,
		Keywords:    v.Keywords,
		Author:      v.Author,
	}
	if title = strings.TrimSpace(title); title != "" {
		meta.Title = fmt.Sprintf("%s - %s", title, v.Name)
	}
	return meta
}

type Registry struct {
	variants map[string]Variant
}

// Parse decodes a variants document and validates every entry.
func Parse(data []byte) (*Registry, error) {
	var file variantFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode site variants: %w", err)
	}
	if len(file.Variants) == 0 {
		return nil, fmt.Errorf("%w: no variants defined", ErrInvalidVariant)
	}

	registry := &Registry{variants: make(map[string]Variant, len(file.Variants))}
	for _, variant := range file.Variants {
		variant.Key = strings.ToLower(strings.TrimSpace(variant.Key))
		variant.Navigation = trimItems(variant.Navigation)
		if err := variant.Validate(); err != nil {
			return nil, err
		}
		if _, exists := registry.variants[variant.Key]; exists {
			return nil, fmt.Errorf("%w: duplicate key %s", ErrInvalidVariant, variant.Key)
		}
		registry.variants[variant.Key] = variant
	}

	return registry, nil
}

// trimItems strips the stray whitespace YAML authors leave around labels
// and paths. Rendering never alters entries after this point.
func trimItems(items []navigation.Item) []navigation.Item {
	if len(items) == 0 {
		return nil
	}
	trimmed := make([]navigation.Item, len(items))
	for i, item := range items {
		trimmed[i] = navigation.Item{
			Label: strings.TrimSpace(item.Label),
			Path:  strings.TrimSpace(item.Path),
		}
	}
	return trimmed
}

// Load reads variants from path, falling back to the built-in set when
// path is empty.
func Load(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site variants: %w", err)
	}
	return Parse(data)
}

func Default() (*Registry, error) {
	return Parse(defaultVariants)
}

func (r *Registry) Get(key string) (Variant, error) {
	variant, ok := r.variants[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %s", ErrUnknownVariant, key)
	}
	variant.Navigation = navigation.Clone(variant.Navigation)
	return variant, nil
}

func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.variants))
	for key := range r.variants {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
