package branding

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"assistant-portal/pkg/navigation"
)

func TestDefaultVariant(t *testing.T) {
	registry, err := Default()
	if err != nil {
		t.Fatalf("failed to load default variants: %v", err)
	}

	variant, err := registry.Get("drinfinity")
	if err != nil {
		t.Fatalf("expected default variant: %v", err)
	}

	expected := []navigation.Item{
		{Label: "Home", Path: "/"},
		{Label: "Ask Doc", Path: "/"},
		{Label: "Preferences", Path: "/preferences"},
	}
	header := variant.HeaderConfig()
	if len(header.Items) != len(expected) {
		t.Fatalf("expected %d items, got %d", len(expected), len(header.Items))
	}
	for i := range expected {
		if header.Items[i] != expected[i] {
			t.Fatalf("item %d: expected %+v, got %+v", i, expected[i], header.Items[i])
		}
	}
	if header.Logo.Src != "/static/logo.svg" {
		t.Fatalf("unexpected logo %q", header.Logo.Src)
	}
}

func TestParseRejectsInvalidVariants(t *testing.T) {
	cases := map[string]string{
		"missing key":  "variants:\n  - name: Site\n",
		"missing name": "variants:\n  - key: site\n",
		"bad nav":      "variants:\n  - key: site\n    name: Site\n    navigation:\n      - label: Home\n",
		"duplicate":    "variants:\n  - key: site\n    name: A\n  - key: SITE\n    name: B\n",
		"empty":        "variants: []\n",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); !errors.Is(err, ErrInvalidVariant) {
				t.Fatalf("expected ErrInvalidVariant, got %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	doc := `variants:
  - key: Clinic
    name: Clinic Assistant
    chat_api_base: https://clinic.example.com/api
    navigation:
      - label: Home
        path: /
      - label: Preferences
        path: /preferences
`
	path := filepath.Join(t.TempDir(), "variants.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("failed to write variants file: %v", err)
	}

	registry, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load variants: %v", err)
	}

	if keys := registry.Keys(); len(keys) != 1 || keys[0] != "clinic" {
		t.Fatalf("unexpected keys %v", keys)
	}

	variant, err := registry.Get("CLINIC")
	if err != nil {
		t.Fatalf("expected case-insensitive lookup: %v", err)
	}
	if variant.ChatAPIBase != "https://clinic.example.com/api" {
		t.Fatalf("unexpected api base %q", variant.ChatAPIBase)
	}
	if meta := variant.PageMeta("Preferences"); meta.Title != "Preferences - Clinic Assistant" {
		t.Fatalf("unexpected title %q", meta.Title)
	}

	if _, err := registry.Get("missing"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestParseTrimsNavigationEntries(t *testing.T) {
	doc := "variants:\n  - key: site\n    name: Site\n    navigation:\n      - label: \" Home \"\n        path: \" / \"\n"
	registry, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	variant, err := registry.Get("site")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := variant.Navigation[0]; got.Label != "Home" || got.Path != "/" {
		t.Fatalf("expected trimmed entry, got %+v", got)
	}
}
