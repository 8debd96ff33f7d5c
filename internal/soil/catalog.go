package soil

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogFile is the on-disk form of the crop catalog. Ranges is optional;
// when present it replaces the built-in nutrient table.
type CatalogFile struct {
	Crops  Catalog    `yaml:"crops"`
	Ranges RangeTable `yaml:"ranges,omitempty"`
}

// Validate checks the catalog and, if set, the range table.
func (f *CatalogFile) Validate() error {
	if err := f.Crops.Validate(); err != nil {
		return err
	}
	if len(f.Ranges) > 0 {
		if err := f.Ranges.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Options converts the file into engine options.
func (f *CatalogFile) Options() []Option {
	opts := []Option{WithCatalog(f.Crops)}
	if len(f.Ranges) > 0 {
		opts = append(opts, WithRanges(f.Ranges))
	}
	return opts
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*CatalogFile, error) {
	var f CatalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &f, nil
}

// LoadCatalogFile reads and parses the catalog at path.
func LoadCatalogFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// LoadEngine builds an engine from the catalog at path. An empty path gives
// the built-in tables.
func LoadEngine(path string) (*Engine, error) {
	if path == "" {
		return DefaultEngine(), nil
	}
	file, err := LoadCatalogFile(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(file.Options()...)
}
