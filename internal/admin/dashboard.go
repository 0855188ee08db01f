// Package admin backs the staff dashboard: the live inventory plus the
// order, service and sell-request queues.
package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/johnrirwin/autolot/internal/catalog"
	"github.com/johnrirwin/autolot/internal/logging"
	"github.com/johnrirwin/autolot/internal/metrics"
	"github.com/johnrirwin/autolot/internal/models"
)

// StockWriter persists stock flags, e.g. database.VehicleStore
type StockWriter interface {
	SetInStock(ctx context.Context, id string, inStock bool) (bool, error)
}

// Dashboard serves the admin views. The order, service and sell-request
// queues are fixed sample data; only inventory stock is mutable.
type Dashboard struct {
	// toggleMu keeps the snapshot swap, the write and any revert together
	toggleMu  sync.Mutex
	inventory *catalog.Inventory
	stock     StockWriter
	metrics   *metrics.Metrics
	logger    *logging.Logger

	orders       []models.AdminOrder
	services     []models.AdminServiceBooking
	sellRequests []models.AdminSellRequest
}

// NewDashboard creates a dashboard over inv. stock may be nil when the
// catalog is not backed by a database.
func NewDashboard(inv *catalog.Inventory, stock StockWriter, m *metrics.Metrics, logger *logging.Logger) *Dashboard {
	return &Dashboard{
		inventory:    inv,
		stock:        stock,
		metrics:      m,
		logger:       logger,
		orders:       sampleOrders(),
		services:     sampleServices(),
		sellRequests: sampleSellRequests(),
	}
}

// Inventory lists the current snapshot, optionally narrowed by a brand/name search
func (d *Dashboard) Inventory(query string) []models.InventoryRow {
	vehicles := d.inventory.Current().Search(query)

	rows := make([]models.InventoryRow, len(vehicles))
	for i, v := range vehicles {
		rows[i] = models.InventoryRow{
			ID:      v.ID,
			Name:    v.Name,
			Brand:   v.Brand,
			Year:    v.Year,
			Price:   v.Price,
			Fuel:    v.FuelType,
			InStock: v.InStock,
		}
	}
	return rows
}

// ToggleStock flips a vehicle between in stock and out of stock.
// With a StockWriter configured the change is written through; if that
// fails the snapshot is toggled back and the error returned.
func (d *Dashboard) ToggleStock(ctx context.Context, id string) (*models.Vehicle, error) {
	d.toggleMu.Lock()
	defer d.toggleMu.Unlock()

	vehicle, snapshot, err := d.inventory.ToggleStock(id)
	if err != nil {
		return nil, err
	}

	if d.stock != nil {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if _, err := d.stock.SetInStock(writeCtx, vehicle.ID, vehicle.InStock); err != nil {
			if _, _, revertErr := d.inventory.ToggleStock(id); revertErr != nil {
				d.logger.Error("Failed to revert stock toggle", logging.WithFields(map[string]interface{}{
					"vehicle_id": vehicle.ID,
					"error":      revertErr.Error(),
				}))
			}
			return nil, fmt.Errorf("persist stock flag: %w", err)
		}
	}

	d.metrics.StockToggled()
	d.logger.Info("Vehicle stock toggled", logging.WithFields(map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"in_stock":   vehicle.InStock,
		"version":    snapshot.Version(),
	}))
	return vehicle, nil
}

// Orders returns the order queue
func (d *Dashboard) Orders() []models.AdminOrder {
	return append([]models.AdminOrder(nil), d.orders...)
}

// Services returns the workshop bookings
func (d *Dashboard) Services() []models.AdminServiceBooking {
	return append([]models.AdminServiceBooking(nil), d.services...)
}

// SellRequests returns the trade-in queue
func (d *Dashboard) SellRequests() []models.AdminSellRequest {
	out := make([]models.AdminSellRequest, len(d.sellRequests))
	for i, r := range d.sellRequests {
		r.CanMakeOffer = r.Status.CanMakeOffer()
		out[i] = r
	}
	return out
}

// Summary counts the dashboard tabs by status
func (d *Dashboard) Summary() models.AdminSummary {
	snapshot := d.inventory.Current()

	summary := models.AdminSummary{
		InventoryTotal: snapshot.Len(),
		InStock:        snapshot.InStockCount(),
		OutOfStock:     snapshot.Len() - snapshot.InStockCount(),
		Orders:         make(map[models.OrderStatus]int),
		Services:       make(map[models.ServiceStatus]int),
		SellRequests:   make(map[models.SellStatus]int),
	}
	for _, o := range d.orders {
		summary.Orders[o.Status]++
		summary.OrderValue += o.Amount
	}
	for _, s := range d.services {
		summary.Services[s.Status]++
	}
	for _, r := range d.sellRequests {
		summary.SellRequests[r.Status]++
	}
	return summary
}

func sampleOrders() []models.AdminOrder {
	return []models.AdminOrder{
		{ID: "ORD-001", Customer: "John Smith", Car: "Tesla Model S", Date: "2023-05-15", Status: models.OrderCompleted, Amount: 82500},
		{ID: "ORD-002", Customer: "Sarah Johnson", Car: "BMW X5", Date: "2023-05-18", Status: models.OrderProcessing, Amount: 64200},
		{ID: "ORD-003", Customer: "Mike Wilson", Car: "Audi A4", Date: "2023-05-20", Status: models.OrderProcessing, Amount: 42300},
		{ID: "ORD-004", Customer: "Emily Davis", Car: "Ford Mustang", Date: "2023-05-22", Status: models.OrderPending, Amount: 46700},
	}
}

func sampleServices() []models.AdminServiceBooking {
	return []models.AdminServiceBooking{
		{ID: "SRV-001", Customer: "Robert Brown", Car: "Tesla Model S", Type: "Full Service", Date: "2023-05-16", Status: models.ServiceCompleted},
		{ID: "SRV-002", Customer: "Alice Green", Car: "Land Rover Range Rover", Type: "Basic Service", Date: "2023-05-19", Status: models.ServiceScheduled},
		{ID: "SRV-003", Customer: "David Lee", Car: "BMW X5", Type: "Custom Service", Date: "2023-05-21", Status: models.ServiceInProgress},
		{ID: "SRV-004", Customer: "Lisa Chen", Car: "Porsche 911", Type: "Full Service", Date: "2023-05-23", Status: models.ServiceScheduled},
	}
}

func sampleSellRequests() []models.AdminSellRequest {
	return []models.AdminSellRequest{
		{ID: "SELL-001", Customer: "James Wilson", Car: "Audi A6", Year: "2019", Date: "2023-05-15", Status: models.SellPendingInspection},
		{ID: "SELL-002", Customer: "Emma Taylor", Car: "BMW 3 Series", Year: "2018", Date: "2023-05-17", Status: models.SellOfferMade},
		{ID: "SELL-003", Customer: "Michael Johnson", Car: "Mercedes C-Class", Year: "2020", Date: "2023-05-19", Status: models.SellPendingInspection},
		{ID: "SELL-004", Customer: "Sophia Brown", Car: "Lexus RX", Year: "2017", Date: "2023-05-21", Status: models.SellDeclined},
	}
}
