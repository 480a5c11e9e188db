package memory

import (
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
)

// Seed is the YAML layout of CATALOG_SEED_FILE. Prices are strings so they
// stay exact.
type Seed struct {
	Items []struct {
		ID          string `yaml:"id"`
		ChefID      string `yaml:"chefId"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Image       string `yaml:"image"`
		Price       string `yaml:"price"`
		Available   *bool  `yaml:"available"`
	} `yaml:"items"`
	Profiles []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
		Phone string `yaml:"phone"`
		Role  string `yaml:"role"`
	} `yaml:"profiles"`
}

// LoadSeedFile reads a seed file into the store.
func (s *Store) LoadSeedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("memory: open seed: %w", err)
	}
	defer f.Close()
	return s.LoadSeed(f)
}

// LoadSeed decodes YAML from r. Items default to available.
func (s *Store) LoadSeed(r io.Reader) error {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && err != io.EOF {
		return fmt.Errorf("memory: decode seed: %w", err)
	}

	for _, it := range seed.Items {
		if it.ID == "" || it.ChefID == "" {
			return fmt.Errorf("memory: seed item %q: id and chefId are required", it.Name)
		}
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return fmt.Errorf("memory: seed item %s: price %q: %w", it.ID, it.Price, err)
		}
		available := true
		if it.Available != nil {
			available = *it.Available
		}
		s.PutItem(domain.CatalogItem{
			ID:          it.ID,
			ChefID:      it.ChefID,
			Name:        it.Name,
			Description: it.Description,
			ImageURL:    it.Image,
			Price:       price,
			Available:   available,
		})
	}
	for _, p := range seed.Profiles {
		var role domain.Role
		if p.Role != "" {
			r, ok := domain.ParseRole(p.Role)
			if !ok {
				return fmt.Errorf("memory: seed profile %s: unknown role %q", p.ID, p.Role)
			}
			role = r
		}
		s.PutProfile(domain.Profile{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, Role: role})
	}
	return nil
}
