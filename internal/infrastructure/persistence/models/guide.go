package models

import (
	"time"

	"github.com/courier/backend/internal/domain/guide"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GuideModel is the GORM model for delivery guides
type GuideModel struct {
	AggregateModel
	GuideNumber string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	ClientID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientName  string          `gorm:"type:varchar(255);not null"`
	City        string          `gorm:"type:varchar(32);not null;index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status      string          `gorm:"type:varchar(32);not null;index"`

	ShippingCost           *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ShippingCostOriginal   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ShippingAdjustedAt     *time.Time
	ShippingAdjustmentNote string `gorm:"type:text"`

	AmountUSD    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PaymentBs    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	DeliveryTime string           `gorm:"type:varchar(64)"`

	Observations string `gorm:"type:text"`

	Items []GuideItemModel `gorm:"foreignKey:GuideID;references:ID"`
}

// TableName returns the table name for GORM
func (GuideModel) TableName() string {
	return "guides"
}

// ToDomain converts GuideModel to domain Guide
func (m *GuideModel) ToDomain() *guide.Guide {
	g := &guide.Guide{
		BaseAggregateRoot:      m.ToDomainAggregateRoot(),
		GuideNumber:            m.GuideNumber,
		ClientID:               m.ClientID,
		ClientName:             m.ClientName,
		City:                   valueobject.City(m.City),
		TotalAmount:            m.TotalAmount,
		Status:                 guide.GuideStatus(m.Status),
		ShippingCost:           m.ShippingCost,
		ShippingCostOriginal:   m.ShippingCostOriginal,
		ShippingAdjustedAt:     m.ShippingAdjustedAt,
		ShippingAdjustmentNote: m.ShippingAdjustmentNote,
		AmountUSD:              m.AmountUSD,
		PaymentBs:              m.PaymentBs,
		DeliveryTime:           m.DeliveryTime,
		Observations:           m.Observations,
		Items:                  make([]guide.GuideItem, len(m.Items)),
	}
	for i := range m.Items {
		g.Items[i] = *m.Items[i].ToDomain()
	}
	return g
}

// GuideModelFromDomain creates GuideModel from domain Guide
func GuideModelFromDomain(g *guide.Guide) *GuideModel {
	m := &GuideModel{
		GuideNumber:            g.GuideNumber,
		ClientID:               g.ClientID,
		ClientName:             g.ClientName,
		City:                   g.City.String(),
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
		Items:                  make([]GuideItemModel, len(g.Items)),
	}
	m.FromDomainAggregateRoot(g.BaseAggregateRoot)
	for i := range g.Items {
		m.Items[i] = *GuideItemModelFromDomain(&g.Items[i])
	}
	return m
}

// GuideItemModel is the GORM model for guide line items
type GuideItemModel struct {
	BaseModel
	GuideID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	ProductSKU  string          `gorm:"type:varchar(64)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (GuideItemModel) TableName() string {
	return "guide_items"
}

// ToDomain converts GuideItemModel to domain GuideItem
func (m *GuideItemModel) ToDomain() *guide.GuideItem {
	return &guide.GuideItem{
		ID:          m.ID,
		GuideID:     m.GuideID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		ProductSKU:  m.ProductSKU,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Subtotal:    m.Subtotal,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// GuideItemModelFromDomain creates GuideItemModel from domain GuideItem
func GuideItemModelFromDomain(item *guide.GuideItem) *GuideItemModel {
	return &GuideItemModel{
		BaseModel: BaseModel{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		},
		GuideID:     item.GuideID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		ProductSKU:  item.ProductSKU,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Subtotal:    item.Subtotal,
	}
}

// IncidentModel is the GORM model for the append-only incident timeline
type IncidentModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	GuideID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_incidents_guide_action,priority:1"`
	ActionNumber int       `gorm:"not null;uniqueIndex:idx_incidents_guide_action,priority:2"`
	ActionType   string    `gorm:"type:varchar(64);not null"`
	Description  string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IncidentModel) TableName() string {
	return "guide_incidents"
}

// ToDomain converts IncidentModel to domain Incident
func (m *IncidentModel) ToDomain() *guide.Incident {
	return &guide.Incident{
		ID:           m.ID,
		GuideID:      m.GuideID,
		ActionNumber: m.ActionNumber,
		ActionType:   m.ActionType,
		Description:  m.Description,
		CreatedAt:    m.CreatedAt,
	}
}

// IncidentModelFromDomain creates IncidentModel from domain Incident
func IncidentModelFromDomain(inc *guide.Incident) *IncidentModel {
	return &IncidentModel{
		ID:           inc.ID,
		GuideID:      inc.GuideID,
		ActionNumber: inc.ActionNumber,
		ActionType:   inc.ActionType,
		Description:  inc.Description,
		CreatedAt:    inc.CreatedAt,
	}
}
