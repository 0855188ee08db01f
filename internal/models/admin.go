package models

// OrderStatus is the processing state of a customer order
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderCompleted  OrderStatus = "Completed"
)

// ServiceStatus is the workshop state of a booking
type ServiceStatus string

const (
	ServiceScheduled  ServiceStatus = "Scheduled"
	ServiceInProgress ServiceStatus = "In Progress"
	ServiceCompleted  ServiceStatus = "Completed"
)

// SellStatus is the state of a trade-in request
type SellStatus string

const (
	SellPendingInspection SellStatus = "Pending Inspection"
	SellOfferMade         SellStatus = "Offer Made"
	SellDeclined          SellStatus = "Declined"
)

// CanMakeOffer reports whether staff may still make an offer
func (s SellStatus) CanMakeOffer() bool {
	return s != SellDeclined
}

// AdminOrder is a row of the dashboard's orders tab
type AdminOrder struct {
	ID       string      `json:"id"`
	Customer string      `json:"customer"`
	Car      string      `json:"car"`
	Date     string      `json:"date"`
	Status   OrderStatus `json:"status"`
	Amount   float64     `json:"amount"`
}

// AdminServiceBooking is a row of the dashboard's services tab
type AdminServiceBooking struct {
	ID       string        `json:"id"`
	Customer string        `json:"customer"`
	Car      string        `json:"car"`
	Type     string        `json:"type"`
	Date     string        `json:"date"`
	Status   ServiceStatus `json:"status"`
}

// AdminSellRequest is a row of the dashboard's sell requests tab
type AdminSellRequest struct {
	ID           string     `json:"id"`
	Customer     string     `json:"customer"`
	Car          string     `json:"car"`
	Year         string     `json:"year"`
	Date         string     `json:"date"`
	Status       SellStatus `json:"status"`
	CanMakeOffer bool       `json:"canMakeOffer"`
}

// InventoryRow is a row of the dashboard's inventory tab
type InventoryRow struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Brand   string   `json:"brand"`
	Year    int      `json:"year"`
	Price   float64  `json:"price"`
	Fuel    FuelType `json:"fuelType"`
	InStock bool     `json:"inStock"`
}

// AdminSummary aggregates dashboard counts
type AdminSummary struct {
	InventoryTotal int                   `json:"inventoryTotal"`
	InStock        int                   `json:"inStock"`
	OutOfStock     int                   `json:"outOfStock"`
	OrderValue     float64               `json:"orderValue"`
	Orders         map[OrderStatus]int   `json:"orders"`
	Services       map[ServiceStatus]int `json:"services"`
	SellRequests   map[SellStatus]int    `json:"sellRequests"`
}
