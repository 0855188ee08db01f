package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/johnrirwin/autolot/internal/models"
)

var (
	// ErrNotFound is returned when a vehicle id is not in the store
	ErrNotFound = errors.New("vehicle not found")
	// ErrInvalidVehicle is returned by New when a record breaks a store invariant
	ErrInvalidVehicle = errors.New("invalid vehicle")
	// ErrInvalidCriteria is returned by Filter for unusable criteria
	ErrInvalidCriteria = errors.New("invalid filter criteria")
)

// DefaultMaxPrice is the upper bound of the Stock page slider
const DefaultMaxPrice = 150000

// Store is an immutable, ordered snapshot of the vehicle catalog.
// Distinct brands, fuel types and price bounds are computed once in New.
// Methods never hand out slices that alias the store's own records.
type Store struct {
	vehicles  []models.Vehicle
	index     map[string]int
	brands    []string
	fuelTypes []models.FuelType
	bounds    models.PriceRange
	inStock   int
	version   int64
}

// New builds a store from vehicles, validating ids, prices, mileage and galleries.
// The input slice is copied.
func New(vehicles []models.Vehicle) (*Store, error) {
	s := &Store{
		vehicles: make([]models.Vehicle, 0, len(vehicles)),
		index:    make(map[string]int, len(vehicles)),
		version:  1,
	}

	for i, v := range vehicles {
		v = v.Clone()
		v.ID = strings.TrimSpace(v.ID)

		if v.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrInvalidVehicle, i)
		}
		if _, dup := s.index[v.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidVehicle, v.ID)
		}
		if v.Price < 0 {
			return nil, fmt.Errorf("%w: %s has negative price", ErrInvalidVehicle, v.ID)
		}
		if v.Mileage < 0 {
			return nil, fmt.Errorf("%w: %s has negative mileage", ErrInvalidVehicle, v.ID)
		}

		// The gallery always starts with the primary image
		if v.Image != "" && !containsString(v.Gallery, v.Image) {
			v.Gallery = append([]string{v.Image}, v.Gallery...)
		}
		if len(v.Gallery) == 0 {
			return nil, fmt.Errorf("%w: %s has no images", ErrInvalidVehicle, v.ID)
		}
		if v.Image == "" {
			v.Image = v.Gallery[0]
		}

		s.index[v.ID] = len(s.vehicles)
		s.vehicles = append(s.vehicles, v)
	}

	s.derive()
	return s, nil
}

// MustNew is like New but panics on invalid input. Used for compiled-in datasets.
func MustNew(vehicles []models.Vehicle) *Store {
	s, err := New(vehicles)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Store) derive() {
	seenBrand := make(map[string]bool)
	seenFuel := make(map[models.FuelType]bool)
	s.brands = s.brands[:0]
	s.fuelTypes = s.fuelTypes[:0]
	s.inStock = 0

	for i, v := range s.vehicles {
		if !seenBrand[v.Brand] {
			seenBrand[v.Brand] = true
			s.brands = append(s.brands, v.Brand)
		}
		if !seenFuel[v.FuelType] {
			seenFuel[v.FuelType] = true
			s.fuelTypes = append(s.fuelTypes, v.FuelType)
		}
		if v.InStock {
			s.inStock++
		}

		if i == 0 {
			s.bounds = models.PriceRange{Min: v.Price, Max: v.Price}
			continue
		}
		if v.Price < s.bounds.Min {
			s.bounds.Min = v.Price
		}
		if v.Price > s.bounds.Max {
			s.bounds.Max = v.Price
		}
	}
}

// Vehicles returns a copy of all vehicles in catalog order
func (s *Store) Vehicles() []models.Vehicle {
	out := make([]models.Vehicle, len(s.vehicles))
	for i, v := range s.vehicles {
		out[i] = v.Clone()
	}
	return out
}

// Len returns the number of vehicles
func (s *Store) Len() int {
	return len(s.vehicles)
}

// Version increases each time a derived snapshot is produced
func (s *Store) Version() int64 {
	return s.version
}

// Get returns the vehicle with the given id
func (s *Store) Get(id string) (*models.Vehicle, error) {
	i, ok := s.index[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	v := s.vehicles[i].Clone()
	return &v, nil
}

// DistinctBrands returns each brand once, in order of first appearance
func (s *Store) DistinctBrands() []string {
	return append([]string(nil), s.brands...)
}

// DistinctFuelTypes returns each fuel type once, in order of first appearance
func (s *Store) DistinctFuelTypes() []models.FuelType {
	return append([]models.FuelType(nil), s.fuelTypes...)
}

// PriceBounds returns the cheapest and most expensive prices in the store.
// An empty store reports a zero range.
func (s *Store) PriceBounds() models.PriceRange {
	return s.bounds
}

// InStockCount returns how many vehicles are available to order
func (s *Store) InStockCount() int {
	return s.inStock
}

// Facets summarises the values the Stock page filters can take
func (s *Store) Facets() models.CatalogFacets {
	return models.CatalogFacets{
		Brands:     s.DistinctBrands(),
		FuelTypes:  s.DistinctFuelTypes(),
		PriceRange: s.bounds,
		Total:      len(s.vehicles),
		InStock:    s.inStock,
	}
}

// Featured returns up to n in-stock vehicles in catalog order
func (s *Store) Featured(n int) []models.Vehicle {
	if n <= 0 {
		return []models.Vehicle{}
	}
	out := make([]models.Vehicle, 0, n)
	for _, v := range s.vehicles {
		if !v.InStock {
			continue
		}
		out = append(out, v.Clone())
		if len(out) == n {
			break
		}
	}
	return out
}

// InStock returns the vehicles that can be ordered, in catalog order
func (s *Store) InStock() []models.Vehicle {
	out := make([]models.Vehicle, 0, s.inStock)
	for _, v := range s.vehicles {
		if v.InStock {
			out = append(out, v.Clone())
		}
	}
	return out
}

// Search matches token against brand or name, ignoring case.
// An empty token returns every vehicle.
func (s *Store) Search(token string) []models.Vehicle {
	m := newMatcher(token)
	out := make([]models.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		if m.match(&v) {
			out = append(out, v.Clone())
		}
	}
	return out
}

// WithStockToggled returns a new store in which the vehicle's stock flag is flipped.
// The receiver is left untouched.
func (s *Store) WithStockToggled(id string) (*Store, error) {
	i, ok := s.index[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := &Store{
		vehicles: make([]models.Vehicle, len(s.vehicles)),
		index:    s.index, // ids and positions are unchanged, the map is never written after New
		version:  s.version + 1,
	}
	for j, v := range s.vehicles {
		next.vehicles[j] = v.Clone()
	}
	next.vehicles[i].InStock = !next.vehicles[i].InStock
	next.derive()

	return next, nil
}

// DefaultCriteria is the Stock page's initial state: no filters and the full slider range
func DefaultCriteria() models.FilterCriteria {
	return models.FilterCriteria{
		PriceRange: &models.PriceRange{Min: 0, Max: DefaultMaxPrice},
	}
}

// ResetCriteria clears every filter and spans the store's own price bounds
func (s *Store) ResetCriteria() models.FilterCriteria {
	bounds := s.bounds
	return models.FilterCriteria{PriceRange: &bounds}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
