package handler

import (
	"time"

	inventoryapp "github.com/courier/backend/internal/application/inventory"
	"github.com/courier/backend/internal/domain/inventory"
	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/courier/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryHandler handles stock API endpoints
type InventoryHandler struct {
	BaseHandler
	ledger *inventoryapp.StockLedger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(ledger *inventoryapp.StockLedger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// RegisterRoutes registers inventory routes on the given group
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inv := rg.Group("/inventory")
	{
		inv.GET("/cities/:city", h.ListByCity)
		inv.GET("/cities/:city/products/:productId", h.Availability)
		inv.GET("/cities/:city/products/:productId/movements", h.Movements)
		inv.POST("/adjustments", h.Adjust)
		inv.GET("/guides/:guideId/movements", h.GuideMovements)
	}
}

// StockRecordResponse represents a stock record in API responses
type StockRecordResponse struct {
	ProductID         uuid.UUID       `json:"product_id"`
	City              string          `json:"city"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Negative          bool            `json:"negative"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// MovementResponse represents a stock movement audit row
type MovementResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	City        string          `json:"city"`
	Direction   string          `json:"direction"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason"`
	ReferenceID *uuid.UUID      `json:"reference_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AdjustStockRequest represents a manual stock adjustment
type AdjustStockRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	City      string          `json:"city" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Direction string          `json:"direction" binding:"required,oneof=IN OUT"`
}

// parseCity extracts and validates the :city path parameter
func (h *InventoryHandler) parseCity(c *gin.Context) (valueobject.City, bool) {
	city, err := valueobject.ParseCity(c.Param("city"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return "", false
	}
	return city, true
}

// ListByCity returns the stock records of one city
func (h *InventoryHandler) ListByCity(c *gin.Context) {
	city, ok := h.parseCity(c)
	if !ok {
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := shared.DefaultFilter()
	filter.Page = listReq.Page
	filter.PageSize = listReq.PageSize

	items, err := h.ledger.ListByCity(c.Request.Context(), city, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toStockRecordResponses(items))
}

// Availability returns the available quantity for a product-city pair.
// A missing record reads as zero.
func (h *InventoryHandler) Availability(c *gin.Context) {
	city, ok := h.parseCity(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	qty, err := h.ledger.Availability(c.Request.Context(), productID, city)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, StockRecordResponse{
		ProductID:         productID,
		City:              city.String(),
		AvailableQuantity: qty,
		Negative:          qty.IsNegative(),
	})
}

// Movements returns the movement history of a product-city pair
func (h *InventoryHandler) Movements(c *gin.Context) {
	city, ok := h.parseCity(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	movements, err := h.ledger.MovementsForProduct(c.Request.Context(), productID, city, shared.DefaultFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMovementResponses(movements))
}

// GuideMovements returns the audit movements a guide drove
func (h *InventoryHandler) GuideMovements(c *gin.Context) {
	guideID, err := uuid.Parse(c.Param("guideId"))
	if err != nil {
		h.BadRequest(c, "Invalid guide ID")
		return
	}

	movements, err := h.ledger.MovementsForGuide(c.Request.Context(), guideID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMovementResponses(movements))
}

// Adjust applies a manual stock correction
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	city, err := valueobject.ParseCity(req.City)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if req.Direction == string(inventory.MovementIn) {
		err = h.ledger.IncreaseStock(ctx, req.ProductID, city, req.Quantity, inventory.ReasonManualAdjustment, nil)
	} else {
		err = h.ledger.DecreaseStock(ctx, req.ProductID, city, req.Quantity, true, inventory.ReasonManualAdjustment, nil)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	qty, err := h.ledger.Availability(ctx, req.ProductID, city)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, StockRecordResponse{
		ProductID:         req.ProductID,
		City:              city.String(),
		AvailableQuantity: qty,
		Negative:          qty.IsNegative(),
	})
}

func toStockRecordResponses(items []inventory.InventoryItem) []StockRecordResponse {
	responses := make([]StockRecordResponse, len(items))
	for i, item := range items {
		responses[i] = StockRecordResponse{
			ProductID:         item.ProductID,
			City:              item.City.String(),
			AvailableQuantity: item.AvailableQuantity,
			Negative:          item.IsNegative(),
			UpdatedAt:         item.UpdatedAt,
		}
	}
	return responses
}

func toMovementResponses(movements []inventory.StockMovement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i, m := range movements {
		responses[i] = MovementResponse{
			ID:          m.ID,
			ProductID:   m.ProductID,
			City:        m.City.String(),
			Direction:   string(m.Direction),
			Quantity:    m.Quantity,
			Reason:      string(m.Reason),
			ReferenceID: m.ReferenceID,
			CreatedAt:   m.CreatedAt,
		}
	}
	return responses
}
