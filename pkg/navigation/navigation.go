package navigation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidItem is returned when a navigation entry is missing its label or path.
var ErrInvalidItem = errors.New("invalid navigation item")

// Item represents a navigation link that can be rendered in shared layouts.
// Site variants supply an ordered list of Item values and every layout that
// renders navigation enumerates that list as-is.
type Item struct {
	Label string `yaml:"label" json:"label"`
	Path  string `yaml:"path" json:"path"`
}

// Validate checks every entry. Repeated paths are allowed: two labels may
// point to the same destination.
func Validate(items []Item) error {
	for i, item := range items {
		if strings.TrimSpace(item.Label) == "" {
			return fmt.Errorf("%w: entry %d has no label", ErrInvalidItem, i)
		}
		if strings.TrimSpace(item.Path) == "" {
			return fmt.Errorf("%w: entry %d (%q) has no path", ErrInvalidItem, i, item.Label)
		}
	}
	return nil
}

// Clone returns an exact copy of items.
func Clone(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	cloned := make([]Item, len(items))
	copy(cloned, items)
	return cloned
}
