package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/johnrirwin/autolot/internal/catalog"
	"github.com/johnrirwin/autolot/internal/leads"
	"github.com/johnrirwin/autolot/internal/logging"
	"github.com/johnrirwin/autolot/internal/models"
)

// Handler exposes the catalog and the pricing calculators as MCP tools
type Handler struct {
	inventory *catalog.Inventory
	leadSvc   *leads.Service
	logger    *logging.Logger
}

func NewHandler(inventory *catalog.Inventory, leadSvc *leads.Service, logger *logging.Logger) *Handler {
	return &Handler{
		inventory: inventory,
		leadSvc:   leadSvc,
		logger:    logger,
	}
}

type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// SearchVehiclesParams mirrors the Stock page filters
type SearchVehiclesParams struct {
	Brand       string   `json:"brand"`
	FuelType    string   `json:"fuelType"`
	MinPrice    *float64 `json:"minPrice"`
	MaxPrice    *float64 `json:"maxPrice"`
	Search      string   `json:"search"`
	InStockOnly bool     `json:"inStockOnly"`
}

func (h *Handler) GetTools() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "search_vehicles",
			Description: "Search the showroom catalog by brand, fuel type, price range and free text. Results keep catalog order.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"brand": {
						"type": "string",
						"description": "Exact brand, e.g. Audi"
					},
					"fuelType": {
						"type": "string",
						"enum": ["Electric", "Petrol", "Diesel", "Hybrid"],
						"description": "Exact fuel type"
					},
					"minPrice": {
						"type": "number",
						"description": "Inclusive lower price bound (default 0)"
					},
					"maxPrice": {
						"type": "number",
						"description": "Inclusive upper price bound (default 150000)"
					},
					"search": {
						"type": "string",
						"description": "Case-insensitive substring of name or brand"
					},
					"inStockOnly": {
						"type": "boolean",
						"description": "Only return vehicles that can be ordered"
					}
				}
			}`),
		},
		{
			Name:        "get_vehicle",
			Description: "Get the full record of one vehicle by ID.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"id": {
						"type": "string",
						"description": "Vehicle ID"
					}
				},
				"required": ["id"]
			}`),
		},
		{
			Name:        "get_catalog_facets",
			Description: "List the brands, fuel types and price bounds available for filtering.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
		{
			Name:        "quote_order",
			Description: "Price an order for an in-stock vehicle: base price plus paint surcharge, times quantity (1-5).",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"carId": {
						"type": "string",
						"description": "Vehicle ID"
					},
					"color": {
						"type": "string",
						"enum": ["white", "black", "silver", "red", "blue"],
						"description": "Paint option (default white)"
					},
					"quantity": {
						"type": "integer",
						"description": "Number of vehicles, 1 to 5"
					}
				},
				"required": ["carId"]
			}`),
		},
		{
			Name:        "estimate_trade_in",
			Description: "Estimate what the dealership would pay for a used vehicle.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"brand": {
						"type": "string",
						"description": "Vehicle brand"
					},
					"year": {
						"type": "integer",
						"description": "Model year"
					},
					"mileage": {
						"type": "number",
						"description": "Odometer reading in miles"
					},
					"condition": {
						"type": "string",
						"enum": ["excellent", "good", "fair", "poor"]
					}
				},
				"required": ["brand", "year", "mileage", "condition"]
			}`),
		},
	}
}

func (h *Handler) HandleToolCall(ctx context.Context, name string, arguments json.RawMessage) (interface{}, error) {
	switch name {
	case "search_vehicles":
		return h.handleSearchVehicles(arguments)
	case "get_vehicle":
		return h.handleGetVehicle(arguments)
	case "get_catalog_facets":
		return h.inventory.Current().Facets(), nil
	case "quote_order":
		return h.handleQuoteOrder(arguments)
	case "estimate_trade_in":
		return h.handleEstimate(arguments)
	default:
		return nil, &ToolError{Message: "Unknown tool: " + name}
	}
}

func (h *Handler) handleSearchVehicles(arguments json.RawMessage) (interface{}, error) {
	var params SearchVehiclesParams
	if err := unmarshalArgs(arguments, &params); err != nil {
		return nil, err
	}

	criteria := models.FilterCriteria{
		Brand:    strings.TrimSpace(params.Brand),
		FuelType: models.FuelType(strings.TrimSpace(params.FuelType)),
		Search:   strings.TrimSpace(params.Search),
	}
	if params.MinPrice != nil || params.MaxPrice != nil {
		r := models.PriceRange{Min: 0, Max: catalog.DefaultMaxPrice}
		if params.MinPrice != nil {
			r.Min = *params.MinPrice
		}
		if params.MaxPrice != nil {
			r.Max = *params.MaxPrice
		}
		criteria.PriceRange = &r
	}

	vehicles, err := catalog.Filter(h.inventory.Current(), criteria)
	if err != nil {
		return nil, &ToolError{Message: err.Error()}
	}
	if params.InStockOnly {
		inStock := vehicles[:0:0]
		for _, v := range vehicles {
			if v.InStock {
				inStock = append(inStock, v)
			}
		}
		vehicles = inStock
	}

	h.logger.Debug("MCP vehicle search", logging.WithField("count", len(vehicles)))
	return map[string]interface{}{
		"vehicles": vehicles,
		"count":    len(vehicles),
	}, nil
}

func (h *Handler) handleGetVehicle(arguments json.RawMessage) (interface{}, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := unmarshalArgs(arguments, &params); err != nil {
		return nil, err
	}
	if params.ID == "" {
		return nil, &ToolError{Message: "id is required"}
	}

	vehicle, err := h.inventory.Current().Get(params.ID)
	if err != nil {
		return nil, &ToolError{Message: err.Error()}
	}
	return vehicle, nil
}

func (h *Handler) handleQuoteOrder(arguments json.RawMessage) (interface{}, error) {
	var req models.OrderQuoteRequest
	if err := unmarshalArgs(arguments, &req); err != nil {
		return nil, err
	}

	quote, err := h.leadSvc.QuoteOrder(req)
	if err != nil {
		return nil, &ToolError{Message: err.Error()}
	}
	return quote, nil
}

func (h *Handler) handleEstimate(arguments json.RawMessage) (interface{}, error) {
	var in models.ConditionInput
	if err := unmarshalArgs(arguments, &in); err != nil {
		return nil, err
	}

	valuation, err := h.leadSvc.EstimateSale(in)
	if err != nil {
		return nil, &ToolError{Message: err.Error()}
	}
	return valuation, nil
}

func unmarshalArgs(arguments json.RawMessage, out interface{}) error {
	if len(arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(arguments, out); err != nil {
		return &ToolError{Message: "Invalid arguments: " + err.Error()}
	}
	return nil
}

type ToolError struct {
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}
