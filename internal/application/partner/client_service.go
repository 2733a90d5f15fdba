package partner

import (
	"context"
	"time"

	"github.com/courier/backend/internal/domain/partner"
	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CreateClientRequest represents the data needed to register a client
type CreateClientRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	City    string `json:"city"`
	Address string `json:"address"`
}

// UpdateClientRequest carries editable client contact fields
type UpdateClientRequest struct {
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// ClientResponse represents a client in responses
type ClientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	City      string    `json:"city"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientService provides the client directory used when creating guides.
// Guides snapshot the client name, so deleting a client never touches
// existing guides.
type ClientService struct {
	clientRepo partner.ClientRepository
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo partner.ClientRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo}
}

// Create registers a new client
func (s *ClientService) Create(ctx context.Context, req CreateClientRequest) (*ClientResponse, error) {
	city, err := valueobject.ParseCity(req.City)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION", err.Error())
	}

	client, err := partner.NewClient(req.Name, req.Phone, city, req.Address)
	if err != nil {
		return nil, err
	}

	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, shared.NewStorageError("client save", err)
	}

	response := toClientResponse(client)
	return &response, nil
}

// GetByID retrieves a client by ID
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := toClientResponse(client)
	return &response, nil
}

// Search retrieves clients matching a name or phone fragment
func (s *ClientService) Search(ctx context.Context, query string, filter shared.Filter) ([]ClientResponse, error) {
	clients, err := s.clientRepo.Search(ctx, query, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = toClientResponse(&clients[i])
	}
	return responses, nil
}

// Update changes a client's contact details
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	phone := client.Phone
	if req.Phone != nil {
		phone = *req.Phone
	}
	address := client.Address
	if req.Address != nil {
		address = *req.Address
	}
	client.UpdateContact(phone, address)

	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, shared.NewStorageError("client save", err)
	}

	response := toClientResponse(client)
	return &response, nil
}

// Delete removes a client from the directory
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.clientRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.clientRepo.Delete(ctx, id)
}

func toClientResponse(c *partner.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		City:      c.City.String(),
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}
