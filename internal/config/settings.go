package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"financialchecker/internal/core"
)

// Settings are the taxonomy defaults used when a store has none.
type Settings struct {
	Categories       []string `yaml:"categories"`
	IncomeCategories []string `yaml:"income_categories"`
	PaymentMethods   []string `yaml:"payment_methods"`
}

// DefaultSettings is used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{
		Categories:     []string{"Groceries", "Housing", "Transport", "Health", "Leisure", "Other"},
		PaymentMethods: []string{"Cash", "Debit Card", "Credit Card", "Bank Transfer"},
	}
}

// LoadSettings reads path. A missing file yields DefaultSettings; a
// malformed one is an error.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	def := DefaultSettings()
	if len(s.Categories) == 0 {
		s.Categories = def.Categories
	}
	if len(s.PaymentMethods) == 0 {
		s.PaymentMethods = def.PaymentMethods
	}
	return s, nil
}

// Taxonomy converts the settings into fallback form choices.
func (s Settings) Taxonomy() core.Taxonomy {
	return core.Taxonomy{
		Categories:       append([]string(nil), s.Categories...),
		IncomeCategories: append([]string(nil), s.IncomeCategories...),
		PaymentMethods:   append([]string(nil), s.PaymentMethods...),
	}
}
