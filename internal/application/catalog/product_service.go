package catalog

import (
	"context"
	"time"

	"github.com/courier/backend/internal/domain/catalog"
	"github.com/courier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents the data needed to create a product
type CreateProductRequest struct {
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
}

// ProductResponse represents a product in responses
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ProductService provides catalog lookups for guide item entry
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// Create registers a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if existing, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A product with this SKU already exists")
	}

	product, err := catalog.NewProduct(req.Name, req.SKU, req.ReferencePrice)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, shared.NewStorageError("product save", err)
	}

	response := toProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := toProductResponse(product)
	return &response, nil
}

// Search retrieves products matching a name or SKU fragment
func (s *ProductService) Search(ctx context.Context, query string, filter shared.Filter) ([]ProductResponse, error) {
	products, err := s.productRepo.Search(ctx, query, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = toProductResponse(&products[i])
	}
	return responses, nil
}

// Deactivate marks a product as no longer sellable
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	product.Deactivate()
	if err := s.productRepo.Save(ctx, product); err != nil {
		return shared.NewStorageError("product save", err)
	}
	return nil
}

func toProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		SKU:            p.SKU,
		ReferencePrice: p.ReferencePrice,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
	}
}
