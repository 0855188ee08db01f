package database

import (
	"context"
	"testing"

	"github.com/johnrirwin/autolot/internal/models"
	"github.com/johnrirwin/autolot/internal/testutil"
)

func setupVehicleStore(t *testing.T) (*VehicleStore, context.Context) {
	t.Helper()

	tdb := testutil.NewTestDB(t)

	ctx := context.Background()
	db := Wrap(tdb.DB)
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tdb.TableExists(ctx, "vehicles") {
		t.Fatal("vehicles table missing after Migrate()")
	}

	tdb.Truncate(ctx, "vehicles")
	t.Cleanup(func() { tdb.Truncate(ctx, "vehicles") })

	return NewVehicleStore(db), ctx
}

func sampleVehicles() []models.Vehicle {
	return []models.Vehicle{
		{
			ID: "2", Name: "A4", Brand: "Audi", Price: 39900, Year: 2023,
			FuelType: models.FuelPetrol, Transmission: "Automatic", Mileage: 5000,
			Features: []string{"Virtual Cockpit", "MMI Navigation"}, InStock: true,
			Image: "a4.jpg", Gallery: []string{"a4.jpg", "a4-side.jpg"},
		},
		{
			ID: "1", Name: "Model S", Brand: "Tesla", Price: 79990, Year: 2023,
			FuelType: models.FuelElectric, Transmission: "Automatic",
			InStock: true, Image: "s.jpg", Gallery: []string{"s.jpg"},
		},
	}
}

func TestVehicleStore_SeedAndLoad(t *testing.T) {
	store, ctx := setupVehicleStore(t)

	if err := store.Seed(ctx, sampleVehicles()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadAll() returned %d vehicles, want 2", len(got))
	}

	// Seed order is catalog order, not id order
	if got[0].ID != "2" || got[1].ID != "1" {
		t.Errorf("LoadAll() order = [%s %s], want [2 1]", got[0].ID, got[1].ID)
	}
	if got[0].Price != 39900 || got[0].Mileage != 5000 || got[0].FuelType != models.FuelPetrol {
		t.Errorf("LoadAll()[0] = %+v", got[0])
	}
	if len(got[0].Features) != 2 || got[0].Gallery[1] != "a4-side.jpg" {
		t.Errorf("arrays not round-tripped: %+v", got[0])
	}
	if got[1].Features == nil || len(got[1].Features) != 0 {
		t.Errorf("missing features should load as an empty list, got %#v", got[1].Features)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("Count() = %d, %v, want 2", n, err)
	}
}

func TestVehicleStore_SeedIsUpsert(t *testing.T) {
	store, ctx := setupVehicleStore(t)

	vehicles := sampleVehicles()
	if err := store.Seed(ctx, vehicles); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	vehicles[0].Price = 37500
	if err := store.Seed(ctx, vehicles); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}

	got, _ := store.LoadAll(ctx)
	if len(got) != 2 {
		t.Fatalf("LoadAll() returned %d vehicles, want 2", len(got))
	}
	if got[0].Price != 37500 {
		t.Errorf("Price = %v, want 37500", got[0].Price)
	}
}

func TestVehicleStore_SetInStock(t *testing.T) {
	store, ctx := setupVehicleStore(t)

	if err := store.Seed(ctx, sampleVehicles()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	ok, err := store.SetInStock(ctx, "1", false)
	if err != nil || !ok {
		t.Fatalf("SetInStock() = %v, %v", ok, err)
	}

	got, _ := store.LoadAll(ctx)
	if got[1].InStock {
		t.Error("vehicle 1 should be out of stock")
	}

	ok, err = store.SetInStock(ctx, "missing", true)
	if err != nil || ok {
		t.Errorf("SetInStock(missing) = %v, %v, want false, nil", ok, err)
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := DefaultConfig()
	want := "host=localhost port=5432 user=postgres password=postgres dbname=autolot sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
