package models

import "strings"

// FuelType is the drivetrain energy source of a vehicle
type FuelType string

const (
	FuelElectric FuelType = "Electric"
	FuelPetrol   FuelType = "Petrol"
	FuelHybrid   FuelType = "Hybrid"
	FuelDiesel   FuelType = "Diesel"
)

// Vehicle is a single car in the dealership catalog
type Vehicle struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Brand         string   `json:"brand" yaml:"brand"`
	Price         float64  `json:"price" yaml:"price"`
	Year          int      `json:"year" yaml:"year"`
	FuelType      FuelType `json:"fuelType" yaml:"fuelType"`
	Transmission  string   `json:"transmission" yaml:"transmission"`
	Engine        string   `json:"engine" yaml:"engine"`
	Horsepower    int      `json:"horsepower" yaml:"horsepower"`
	Mileage       float64  `json:"mileage" yaml:"mileage"`
	ExteriorColor string   `json:"exteriorColor" yaml:"exteriorColor"`
	InteriorColor string   `json:"interiorColor" yaml:"interiorColor"`
	BodyType      string   `json:"bodyType" yaml:"bodyType"`
	Description   string   `json:"description" yaml:"description"`
	Features      []string `json:"features" yaml:"features"`
	InStock       bool     `json:"inStock" yaml:"inStock"`
	Image         string   `json:"image" yaml:"image"`
	Gallery       []string `json:"gallery" yaml:"gallery"`
}

// DisplayName returns "Brand Name", e.g. "Tesla Model S"
func (v *Vehicle) DisplayName() string {
	return strings.TrimSpace(v.Brand + " " + v.Name)
}

// Clone returns a copy that shares no slices with v
func (v Vehicle) Clone() Vehicle {
	if v.Features != nil {
		v.Features = append([]string(nil), v.Features...)
	}
	if v.Gallery != nil {
		v.Gallery = append([]string(nil), v.Gallery...)
	}
	return v
}

// PriceRange is an inclusive [Min, Max] price window
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether price lies within the range, both ends inclusive
func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

// FilterCriteria selects a subset of the catalog.
// Empty Brand/FuelType/Search and a nil PriceRange mean "no filter".
type FilterCriteria struct {
	Brand      string      `json:"brand,omitempty"`
	FuelType   FuelType    `json:"fuelType,omitempty"`
	PriceRange *PriceRange `json:"priceRange,omitempty"`
	Search     string      `json:"search,omitempty"`
}

// IsEmpty reports whether the criteria select everything
func (c FilterCriteria) IsEmpty() bool {
	return c.Brand == "" && c.FuelType == "" && c.PriceRange == nil && strings.TrimSpace(c.Search) == ""
}

// CatalogFacets describes the values available to the Stock page filters
type CatalogFacets struct {
	Brands     []string   `json:"brands"`
	FuelTypes  []FuelType `json:"fuelTypes"`
	PriceRange PriceRange `json:"priceRange"`
	Total      int        `json:"total"`
	InStock    int        `json:"inStock"`
}

// VehicleListResponse is the result of a catalog query
type VehicleListResponse struct {
	Vehicles   []Vehicle      `json:"vehicles"`
	TotalCount int            `json:"totalCount"`
	Criteria   FilterCriteria `json:"criteria"`
}
