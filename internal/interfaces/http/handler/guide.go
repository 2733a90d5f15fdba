package handler

import (
	guideapp "github.com/courier/backend/internal/application/guide"
	"github.com/courier/backend/internal/domain/guide"
	"github.com/courier/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestKeyHeader carries the idempotency key for status-change retries
const RequestKeyHeader = "X-Request-Key"

// GuideHandler handles delivery-guide API endpoints
type GuideHandler struct {
	BaseHandler
	service *guideapp.LifecycleService
}

// NewGuideHandler creates a new GuideHandler
func NewGuideHandler(service *guideapp.LifecycleService) *GuideHandler {
	return &GuideHandler{service: service}
}

// RegisterRoutes registers guide routes on the given group
func (h *GuideHandler) RegisterRoutes(rg *gin.RouterGroup) {
	guides := rg.Group("/guides")
	{
		guides.POST("", h.Create)
		guides.GET("", h.List)
		guides.GET("/summary", h.StatusSummary)
		guides.GET("/incidents", h.IncidentBoard)
		guides.GET("/number/:number", h.GetByNumber)
		guides.GET("/:id", h.GetByID)
		guides.PUT("/:id", h.Update)
		guides.DELETE("/:id", h.Delete)
		guides.POST("/:id/status", h.ChangeStatus)
		guides.POST("/:id/shipping", h.AdjustShipping)
		guides.POST("/:id/items", h.AddItem)
		guides.PUT("/:id/items/:itemId", h.UpdateItem)
		guides.DELETE("/:id/items/:itemId", h.RemoveItem)
		guides.GET("/:id/incidents", h.ListIncidents)
		guides.POST("/:id/incidents", h.AddIncident)
		guides.POST("/:id/incidents/resolve", h.ResolveIncident)
	}
}

// parseGuideID extracts and validates the :id path parameter
func (h *GuideHandler) parseGuideID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid guide ID")
		return uuid.Nil, false
	}
	return id, true
}

// confirmFromRequest builds the confirmation callback from the confirm
// query parameter. Absent or false means the operator declined.
func confirmFromRequest(c *gin.Context) guideapp.ConfirmFunc {
	if c.Query("confirm") != "true" {
		return nil
	}
	return func() bool { return true }
}

// Create creates a new guide
func (h *GuideHandler) Create(c *gin.Context) {
	var req guideapp.CreateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns guides matching the query filters
func (h *GuideHandler) List(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	if listReq.Page == 0 {
		listReq.Page = 1
	}
	if listReq.PageSize == 0 {
		listReq.PageSize = 20
	}

	filter := guideapp.ListFilter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
		Search:   listReq.Search,
	}

	if raw := c.Query("status"); raw != "" {
		status := guide.GuideStatus(raw)
		if !status.IsValid() {
			h.BadRequest(c, "Unknown guide status: "+raw)
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("city"); raw != "" {
		filter.City = &raw
	}
	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid client ID")
			return
		}
		filter.ClientID = &clientID
	}

	guides, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, guides, total, filter.Page, filter.PageSize)
}

// StatusSummary returns guide counts per status
func (h *GuideHandler) StatusSummary(c *gin.Context) {
	summary, err := h.service.StatusSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// GetByID returns a single guide
func (h *GuideHandler) GetByID(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByNumber returns a single guide by its human-readable number
func (h *GuideHandler) GetByNumber(c *gin.Context) {
	resp, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update edits a guide's header fields
func (h *GuideHandler) Update(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}

	var req guideapp.UpdateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a guide. Requires confirm=true; deleting a guide outside
// a stock-returning state credits its items back to inventory first.
func (h *GuideHandler) Delete(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, confirmFromRequest(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ChangeStatus transitions a guide to a new status. Transitions into
// CANCELLED or RETURNED require confirm=true; the X-Request-Key header
// makes retries idempotent.
func (h *GuideHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}

	var req guideapp.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.RequestKey == "" {
		req.RequestKey = c.GetHeader(RequestKeyHeader)
	}

	resp, err := h.service.ChangeStatus(c.Request.Context(), id, req, confirmFromRequest(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AdjustShipping records a shipping-cost adjustment
func (h *GuideHandler) AdjustShipping(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}

	var req guideapp.AdjustShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.AdjustShipping(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddItem adds a line item to a pending guide
func (h *GuideHandler) AddItem(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}

	var req guideapp.GuideItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.AddItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateItem changes a line item's quantity or price
func (h *GuideHandler) UpdateItem(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	var req guideapp.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.UpdateItem(c.Request.Context(), id, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem removes a line item from a pending guide
func (h *GuideHandler) RemoveItem(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	resp, err := h.service.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListIncidents returns a guide's incident timeline
func (h *GuideHandler) ListIncidents(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}

	incidents, err := h.service.ListIncidents(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, incidents)
}

// AddIncident appends an entry to a guide's incident timeline
func (h *GuideHandler) AddIncident(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}

	var req guideapp.AddIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.AddIncident(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ResolveIncident closes a guide's incident and returns it to transit
func (h *GuideHandler) ResolveIncident(c *gin.Context) {
	id, ok := h.parseGuideID(c)
	if !ok {
		return
	}

	resp, err := h.service.ResolveIncident(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// IncidentBoard returns every guide currently flagged with an incident
func (h *GuideHandler) IncidentBoard(c *gin.Context) {
	summaries, err := h.service.ListIncidentSummaries(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summaries)
}
