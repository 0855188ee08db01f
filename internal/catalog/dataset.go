package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/johnrirwin/autolot/internal/models"
)

//go:embed vehicles.yaml
var defaultDataset []byte

// Default returns a store over the compiled-in showroom dataset
func Default() *Store {
	s, err := parse(defaultDataset)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded dataset is invalid: %v", err))
	}
	return s
}

// LoadYAML reads a catalog file in the same layout as the embedded dataset
func LoadYAML(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a YAML vehicle list from r
func Decode(r io.Reader) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Store, error) {
	var vehicles []models.Vehicle
	if err := yaml.Unmarshal(data, &vehicles); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(vehicles)
}

// Encode writes the store's vehicles as YAML
func Encode(w io.Writer, s *Store) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.vehicles); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}
