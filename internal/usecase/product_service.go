package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doclens/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProductService manages the product catalog
type ProductService struct {
	repo   domain.ProductRepository
	logger *logrus.Entry
}

// NewProductService creates a new product service
func NewProductService(repo domain.ProductRepository, logger *logrus.Entry) *ProductService {
	if logger == nil {
		logger = logrus.WithField("component", "product_service")
	}
	return &ProductService{repo: repo, logger: logger}
}

// List returns the catalog ordered by name
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

// Get returns one product
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new product, assigning its id
func (s *ProductService) Create(ctx context.Context, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	now := time.Now().UTC()
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"id": product.ID, "name": product.Name}).Info("product created")
	return nil
}

// Update replaces an existing product's fields
func (s *ProductService) Update(ctx context.Context, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	existing, err := s.repo.Get(ctx, product.ID)
	if err != nil {
		return err
	}

	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}

	s.logger.WithField("id", product.ID).Info("product updated")
	return nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("id", id).Info("product deleted")
	return nil
}

// Import creates every product in order; products that carry an id already
// present in the catalog are updated instead. Returns the number stored.
func (s *ProductService) Import(ctx context.Context, products []domain.Product) (int, error) {
	stored := 0
	for i := range products {
		p := products[i]
		if p.ID != "" {
			if _, err := s.repo.Get(ctx, p.ID); err == nil {
				if err := s.Update(ctx, &p); err != nil {
					return stored, fmt.Errorf("product %d (%s): %w", i, p.Name, err)
				}
				stored++
				continue
			}
		}
		if err := s.Create(ctx, &p); err != nil {
			return stored, fmt.Errorf("product %d (%s): %w", i, p.Name, err)
		}
		stored++
	}
	return stored, nil
}

// validateProduct trims the name and rejects blank ones
func validateProduct(product *domain.Product) error {
	if product == nil {
		return domain.ErrInvalidProduct
	}
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidProduct)
	}
	if Normalize(product.Name) == "" {
		return fmt.Errorf("%w: name %q has no letters or digits", domain.ErrInvalidProduct, product.Name)
	}
	return nil
}
