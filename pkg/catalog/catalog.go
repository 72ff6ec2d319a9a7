package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry describes one selectable base model or dataset offered by the
// studio. Catalogs are keyed by the id the dashboard submits.
type Entry struct {
	Display  string `yaml:"display" json:"display"`
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`
	Format   string `yaml:"format,omitempty" json:"format,omitempty"`
}

type Catalog struct {
	Entries map[string]Entry `yaml:"entries" json:"entries"`
}

func Load(path string, fallback Catalog) (Catalog, error) {
	if path == "" {
		return fallback, nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fallback, err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, err
	}
	if len(cat.Entries) == 0 {
		return Catalog{}, fmt.Errorf("catalog %s is empty", path)
	}
	return cat, nil
}

func (c Catalog) Lookup(key string) (Entry, bool) {
	if c.Entries == nil {
		return Entry{}, false
	}
	entry, ok := c.Entries[key]
	if ok {
		return entry, true
	}
	for k, v := range c.Entries {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return Entry{}, false
}

func DefaultModelCatalog() Catalog {
	return Catalog{Entries: map[string]Entry{
		"llama3-8b-instruct": {
			Display:  "Llama 3 8B Instruct",
			Provider: "huggingface",
		},
		"qwen2-7b-instruct": {
			Display:  "Qwen2 7B Instruct",
			Provider: "huggingface",
		},
		"mistral-7b-v0.3": {
			Display:  "Mistral 7B v0.3",
			Provider: "huggingface",
		},
	}}
}

func DefaultDatasetCatalog() Catalog {
	return Catalog{Entries: map[string]Entry{
		"alpaca-gpt4-en": {
			Display: "Alpaca GPT-4 (English)",
			Format:  "jsonl",
		},
		"oaast-sft": {
			Display: "OpenAssistant SFT",
			Format:  "jsonl",
		},
		"belle-2m-zh": {
			Display: "BELLE 2M (Chinese)",
			Format:  "jsonl",
		},
	}}
}
