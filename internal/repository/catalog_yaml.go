package repository

import (
	"fmt"
	"os"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"gopkg.in/yaml.v3"
)

// CatalogFile is the YAML seed format for development catalogs.
type CatalogFile struct {
	DisabledItems []uint32             `yaml:"disabled_items"`
	Items         []model.CatalogEntry `yaml:"items"`
}

func LoadCatalogFile(path string) (*CatalogFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (*CatalogFile, error) {
	var f CatalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[uint32]bool, len(f.Items))
	for _, e := range f.Items {
		if e.ID == 0 {
			return nil, fmt.Errorf("parse catalog: item %q has no id", e.Name)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("parse catalog: duplicate item id %d", e.ID)
		}
		seen[e.ID] = true
	}
	return &f, nil
}
