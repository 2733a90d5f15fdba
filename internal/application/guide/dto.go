package guide

import (
	"time"

	"github.com/courier/backend/internal/domain/guide"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GuideItemRequest represents an item supplied at guide creation or edit
type GuideItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateGuideRequest represents the data needed to create a guide
type CreateGuideRequest struct {
	ClientID     uuid.UUID          `json:"client_id"`
	ClientName   string             `json:"client_name"`
	City         string             `json:"city"`
	Items        []GuideItemRequest `json:"items"`
	ShippingCost *decimal.Decimal   `json:"shipping_cost,omitempty"`
	Observations string             `json:"observations,omitempty"`
	AmountUSD    *decimal.Decimal   `json:"amount_usd,omitempty"`
	PaymentBs    *decimal.Decimal   `json:"payment_bs,omitempty"`
	DeliveryTime string             `json:"delivery_time,omitempty"`
}

// UpdateGuideRequest carries editable guide header fields
type UpdateGuideRequest struct {
	Observations *string          `json:"observations,omitempty"`
	AmountUSD    *decimal.Decimal `json:"amount_usd,omitempty"`
	PaymentBs    *decimal.Decimal `json:"payment_bs,omitempty"`
	DeliveryTime *string          `json:"delivery_time,omitempty"`
}

// UpdateItemRequest changes a line item's quantity or unit price
type UpdateItemRequest struct {
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// ChangeStatusRequest represents a status transition request
type ChangeStatusRequest struct {
	NewStatus  string `json:"new_status"`
	RequestKey string `json:"request_key,omitempty"` // idempotency key for safe retries
}

// AdjustShippingRequest represents a shipping-cost adjustment
type AdjustShippingRequest struct {
	NewCost decimal.Decimal `json:"new_cost"`
	Note    string          `json:"note,omitempty"`
}

// AddIncidentRequest appends an entry to a guide's incident timeline
type AddIncidentRequest struct {
	ActionType  string `json:"action_type"`
	Description string `json:"description,omitempty"`
}

// ListFilter represents guide listing filters
type ListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   *guide.GuideStatus
	City     *string
	ClientID *uuid.UUID
}

// GuideItemResponse represents a line item in responses
type GuideItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// GuideResponse represents a full guide in responses
type GuideResponse struct {
	ID                     uuid.UUID           `json:"id"`
	GuideNumber            string              `json:"guide_number"`
	ClientID               uuid.UUID           `json:"client_id"`
	ClientName             string              `json:"client_name"`
	City                   string              `json:"city"`
	Items                  []GuideItemResponse `json:"items"`
	TotalAmount            decimal.Decimal     `json:"total_amount"`
	Status                 string              `json:"status"`
	ShippingCost           *decimal.Decimal    `json:"shipping_cost,omitempty"`
	ShippingCostOriginal   *decimal.Decimal    `json:"shipping_cost_original,omitempty"`
	ShippingAdjustedAt     *time.Time          `json:"shipping_adjusted_at,omitempty"`
	ShippingAdjustmentNote string              `json:"shipping_adjustment_note,omitempty"`
	AmountUSD              *decimal.Decimal    `json:"amount_usd,omitempty"`
	PaymentBs              *decimal.Decimal    `json:"payment_bs,omitempty"`
	DeliveryTime           string              `json:"delivery_time,omitempty"`
	Observations           string              `json:"observations,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

// GuideListItemResponse represents a guide row in list responses
type GuideListItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	GuideNumber string          `json:"guide_number"`
	ClientName  string          `json:"client_name"`
	City        string          `json:"city"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	ItemCount   int             `json:"item_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IncidentResponse represents an incident timeline entry
type IncidentResponse struct {
	ID           uuid.UUID `json:"id"`
	GuideID      uuid.UUID `json:"guide_id"`
	ActionNumber int       `json:"action_number"`
	ActionType   string    `json:"action_type"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IncidentSummaryResponse represents a row on the incidents board
type IncidentSummaryResponse struct {
	GuideID          uuid.UUID `json:"guide_id"`
	GuideNumber      string    `json:"guide_number"`
	ClientName       string    `json:"client_name"`
	City             string    `json:"city"`
	IncidentCount    int       `json:"incident_count"`
	LatestActionType string    `json:"latest_action_type"`
	LatestActionAt   time.Time `json:"latest_action_at"`
}

// StatusSummary represents guide counts per status for the dashboard
type StatusSummary struct {
	Pending   int64 `json:"pending"`
	InTransit int64 `json:"in_transit"`
	Delivered int64 `json:"delivered"`
	Paid      int64 `json:"paid"`
	Incident  int64 `json:"incident"`
	Cancelled int64 `json:"cancelled"`
	Returned  int64 `json:"returned"`
	Total     int64 `json:"total"`
}

// ToGuideResponse maps a guide aggregate to its response DTO
func ToGuideResponse(g *guide.Guide) GuideResponse {
	items := make([]GuideItemResponse, len(g.Items))
	for i, item := range g.Items {
		items[i] = GuideItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		}
	}

	return GuideResponse{
		ID:                     g.ID,
		GuideNumber:            g.GuideNumber,
		ClientID:               g.ClientID,
		ClientName:             g.ClientName,
		City:                   g.City.String(),
		Items:                  items,
		TotalAmount:            g.TotalAmount,
		Status:                 g.Status.String(),
		ShippingCost:           g.ShippingCost,
		ShippingCostOriginal:   g.ShippingCostOriginal,
		ShippingAdjustedAt:     g.ShippingAdjustedAt,
		ShippingAdjustmentNote: g.ShippingAdjustmentNote,
		AmountUSD:              g.AmountUSD,
		PaymentBs:              g.PaymentBs,
		DeliveryTime:           g.DeliveryTime,
		Observations:           g.Observations,
		CreatedAt:              g.CreatedAt,
		UpdatedAt:              g.UpdatedAt,
	}
}

// ToGuideListItemResponses maps guides to list rows
func ToGuideListItemResponses(guides []guide.Guide) []GuideListItemResponse {
	responses := make([]GuideListItemResponse, len(guides))
	for i := range guides {
		g := &guides[i]
		responses[i] = GuideListItemResponse{
			ID:          g.ID,
			GuideNumber: g.GuideNumber,
			ClientName:  g.ClientName,
			City:        g.City.String(),
			TotalAmount: g.TotalAmount,
			Status:      g.Status.String(),
			ItemCount:   g.ItemCount(),
			CreatedAt:   g.CreatedAt,
		}
	}
	return responses
}

// ToIncidentResponse maps an incident to its response DTO
func ToIncidentResponse(inc *guide.Incident) IncidentResponse {
	return IncidentResponse{
		ID:           inc.ID,
		GuideID:      inc.GuideID,
		ActionNumber: inc.ActionNumber,
		ActionType:   inc.ActionType,
		Description:  inc.Description,
		CreatedAt:    inc.CreatedAt,
	}
}

// ToIncidentResponses maps incidents to response DTOs
func ToIncidentResponses(incidents []guide.Incident) []IncidentResponse {
	responses := make([]IncidentResponse, len(incidents))
	for i := range incidents {
		responses[i] = ToIncidentResponse(&incidents[i])
	}
	return responses
}

// ToIncidentSummaryResponses maps summaries to response DTOs
func ToIncidentSummaryResponses(summaries []guide.IncidentSummary) []IncidentSummaryResponse {
	responses := make([]IncidentSummaryResponse, len(summaries))
	for i, s := range summaries {
		responses[i] = IncidentSummaryResponse{
			GuideID:          s.GuideID,
			GuideNumber:      s.GuideNumber,
			ClientName:       s.ClientName,
			City:             s.City,
			IncidentCount:    s.IncidentCount,
			LatestActionType: s.LatestActionType,
			LatestActionAt:   s.LatestActionAt,
		}
	}
	return responses
}
