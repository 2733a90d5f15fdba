package partner

import (
	"context"
	"time"

	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Client is a delivery recipient. Guides hold a reference to the client,
// not ownership: a client may be deleted while its guides remain.
type Client struct {
	shared.BaseAggregateRoot
	Name    string
	Phone   string
	City    valueobject.City
	Address string
}

// TableName returns the table name for GORM
func (Client) TableName() string {
	return "clients"
}

// NewClient creates a new client
func NewClient(name, phone string, city valueobject.City, address string) (*Client, error) {
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "Client name cannot be empty")
	}
	if !city.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "Unknown operating city")
	}

	return &Client{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Phone:             phone,
		City:              city,
		Address:           address,
	}, nil
}

// UpdateContact updates the client's phone and address
func (c *Client) UpdateContact(phone, address string) {
	c.Phone = phone
	c.Address = address
	c.UpdatedAt = time.Now()
}

// ClientRepository defines lookup operations for clients
type ClientRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)
	Search(ctx context.Context, query string, filter shared.Filter) ([]Client, error)
	Save(ctx context.Context, client *Client) error
	Delete(ctx context.Context, id uuid.UUID) error
}
