package catalog

import (
	"sync/atomic"

	"github.com/johnrirwin/autolot/internal/models"
)

// Inventory holds the current catalog snapshot shared by all requests.
// Readers take a snapshot with Current and keep using it even if a toggle
// publishes a newer one afterwards.
type Inventory struct {
	current atomic.Pointer[Store]
}

// NewInventory starts an inventory at the given snapshot
func NewInventory(s *Store) *Inventory {
	inv := &Inventory{}
	inv.current.Store(s)
	return inv
}

// Current returns the latest published snapshot
func (inv *Inventory) Current() *Store {
	return inv.current.Load()
}

// ToggleStock flips a vehicle's stock flag by publishing a new snapshot.
// Returns the updated vehicle and the snapshot it belongs to.
func (inv *Inventory) ToggleStock(id string) (*models.Vehicle, *Store, error) {
	for {
		prev := inv.current.Load()
		next, err := prev.WithStockToggled(id)
		if err != nil {
			return nil, nil, err
		}
		if inv.current.CompareAndSwap(prev, next) {
			v, err := next.Get(id)
			if err != nil {
				return nil, nil, err
			}
			return v, next, nil
		}
	}
}
