package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/johnrirwin/autolot/internal/catalog"
	"github.com/johnrirwin/autolot/internal/models"
	"github.com/johnrirwin/autolot/internal/testutil"
)

type fakeStock struct {
	calls map[string]bool
	err   error
}

func (f *fakeStock) SetInStock(ctx context.Context, id string, inStock bool) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.calls == nil {
		f.calls = make(map[string]bool)
	}
	f.calls[id] = inStock
	return true, nil
}

func TestDashboard_Inventory(t *testing.T) {
	d := NewDashboard(catalog.NewInventory(catalog.Default()), nil, nil, testutil.NullLogger())

	if rows := d.Inventory(""); len(rows) != 6 {
		t.Fatalf("Inventory(\"\") returned %d rows, want 6", len(rows))
	}

	rows := d.Inventory("ROVER")
	if len(rows) != 1 || rows[0].ID != "6" || rows[0].Brand != "Land Rover" {
		t.Errorf("Inventory(ROVER) = %+v", rows)
	}

	rows = d.Inventory("mustang")
	if len(rows) != 1 || rows[0].InStock {
		t.Errorf("Inventory(mustang) = %+v, want the out of stock Mustang", rows)
	}
}

func TestDashboard_ToggleStock(t *testing.T) {
	inv := catalog.NewInventory(catalog.Default())
	stock := &fakeStock{}
	d := NewDashboard(inv, stock, nil, testutil.NullLogger())
	before := inv.Current()

	v, err := d.ToggleStock(context.Background(), "5")
	if err != nil {
		t.Fatalf("ToggleStock() error = %v", err)
	}
	if !v.InStock {
		t.Error("Mustang should now be in stock")
	}
	if inStock, ok := stock.calls["5"]; !ok || !inStock {
		t.Errorf("stock writer calls = %v, want 5 -> true", stock.calls)
	}

	// Earlier snapshots are unchanged
	old, _ := before.Get("5")
	if old.InStock {
		t.Error("previous snapshot was mutated")
	}
	if got := d.Summary().InStock; got != 6 {
		t.Errorf("Summary().InStock = %d, want 6", got)
	}

	if _, err := d.ToggleStock(context.Background(), "99"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("ToggleStock(99) error = %v, want ErrNotFound", err)
	}
}

func TestDashboard_ToggleStock_WriteFailureReverts(t *testing.T) {
	inv := catalog.NewInventory(catalog.Default())
	d := NewDashboard(inv, &fakeStock{err: errors.New("connection refused")}, nil, testutil.NullLogger())

	if _, err := d.ToggleStock(context.Background(), "1"); err == nil {
		t.Fatal("ToggleStock() expected error")
	}

	v, _ := inv.Current().Get("1")
	if !v.InStock {
		t.Error("failed write should leave the vehicle in stock")
	}
}

// gatedStock blocks its first write until release is closed, then fails it.
// Later writes succeed immediately.
type gatedStock struct {
	started chan struct{}
	release chan struct{}

	mu     sync.Mutex
	calls  int
	stored map[string]bool
}

func (g *gatedStock) SetInStock(ctx context.Context, id string, inStock bool) (bool, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()

	if first {
		close(g.started)
		<-g.release
		return false, errors.New("connection reset")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.stored[id] = inStock
	return true, nil
}

func TestDashboard_ToggleStock_ConcurrentRevert(t *testing.T) {
	inv := catalog.NewInventory(catalog.Default())
	stock := &gatedStock{
		started: make(chan struct{}),
		release: make(chan struct{}),
		stored:  make(map[string]bool),
	}
	d := NewDashboard(inv, stock, nil, testutil.NullLogger())

	firstErr := make(chan error, 1)
	go func() {
		_, err := d.ToggleStock(context.Background(), "5")
		firstErr <- err
	}()
	<-stock.started

	type toggleResult struct {
		v   *models.Vehicle
		err error
	}
	second := make(chan toggleResult, 1)
	go func() {
		v, err := d.ToggleStock(context.Background(), "5")
		second <- toggleResult{v, err}
	}()

	// Give the second toggle a chance to run while the first write is stuck
	time.Sleep(20 * time.Millisecond)
	close(stock.release)

	if err := <-firstErr; err == nil {
		t.Fatal("first ToggleStock() expected error")
	}
	res := <-second
	if res.err != nil {
		t.Fatalf("second ToggleStock() error = %v", res.err)
	}
	if !res.v.InStock {
		t.Error("second toggle should put the Mustang in stock")
	}

	stock.mu.Lock()
	stored, ok := stock.stored["5"]
	stock.mu.Unlock()
	current, _ := inv.Current().Get("5")
	if !ok || stored != current.InStock {
		t.Errorf("stored inStock = %v (written %v), snapshot inStock = %v", stored, ok, current.InStock)
	}
}

func TestDashboard_Queues(t *testing.T) {
	d := NewDashboard(catalog.NewInventory(catalog.Default()), nil, nil, testutil.NullLogger())

	if n := len(d.Orders()); n != 4 {
		t.Errorf("len(Orders()) = %d, want 4", n)
	}
	if n := len(d.Services()); n != 4 {
		t.Errorf("len(Services()) = %d, want 4", n)
	}

	for _, r := range d.SellRequests() {
		want := r.Status != models.SellDeclined
		if r.CanMakeOffer != want {
			t.Errorf("%s CanMakeOffer = %v, want %v", r.ID, r.CanMakeOffer, want)
		}
	}

	orders := d.Orders()
	orders[0].Status = models.OrderPending
	if d.Orders()[0].Status != models.OrderCompleted {
		t.Error("Orders() returned shared state")
	}
}

func TestDashboard_Summary(t *testing.T) {
	d := NewDashboard(catalog.NewInventory(catalog.Default()), nil, nil, testutil.NullLogger())

	s := d.Summary()
	if s.InventoryTotal != 6 || s.InStock != 5 || s.OutOfStock != 1 {
		t.Errorf("inventory counts = %d/%d/%d, want 6/5/1", s.InventoryTotal, s.InStock, s.OutOfStock)
	}
	if s.OrderValue != 235700 {
		t.Errorf("OrderValue = %v, want 235700", s.OrderValue)
	}
	if s.Orders[models.OrderProcessing] != 2 || s.Orders[models.OrderPending] != 1 {
		t.Errorf("Orders = %v", s.Orders)
	}
	if s.Services[models.ServiceScheduled] != 2 || s.Services[models.ServiceInProgress] != 1 {
		t.Errorf("Services = %v", s.Services)
	}
	if s.SellRequests[models.SellPendingInspection] != 2 || s.SellRequests[models.SellDeclined] != 1 {
		t.Errorf("SellRequests = %v", s.SellRequests)
	}
}
