package service

import (
	"context"

	"github.com/Terml/ERP-system/internal/shared/cache"
	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
)

// ProductService reference data CRUD for products and materials.
type ProductService struct {
	repos   *repository.Repositories
	effects *SideEffects
}

func NewProductService(repos *repository.Repositories, effects *SideEffects) *ProductService {
	return &ProductService{repos: repos, effects: effects}
}

type ProductInput struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Unit        string  `json:"unit"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func (s *ProductService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Product, int64, error) {
	return s.repos.Product.FindAll(ctx, page, pageSize, filters)
}

func (s *ProductService) Get(ctx context.Context, id uint) (*entity.Product, error) {
	return s.repos.Product.FindByID(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, input ProductInput) (*entity.Product, error) {
	if input.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if input.Type == "" {
		input.Type = entity.ProductTypeProduct
	}
	if input.Type != entity.ProductTypeProduct && input.Type != entity.ProductTypeMaterial {
		return nil, &ValidationError{Field: "type", Reason: "must be product or material"}
	}
	if input.Price < 0 {
		return nil, &ValidationError{Field: "price", Reason: "cannot be negative"}
	}

	product := &entity.Product{
		Name:        input.Name,
		Type:        input.Type,
		Unit:        input.Unit,
		Description: input.Description,
		Price:       input.Price,
	}
	if product.Unit == "" {
		product.Unit = "pcs"
	}
	if err := s.repos.Product.Create(ctx, product); err != nil {
		return nil, err
	}
	s.effects.Flush(ctx, cache.TagProducts, cache.TagReference, cache.TagStatistics)
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id uint, input ProductInput) (*entity.Product, error) {
	product, err := s.repos.Product.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		product.Name = input.Name
	}
	if input.Type != "" {
		if input.Type != entity.ProductTypeProduct && input.Type != entity.ProductTypeMaterial {
			return nil, &ValidationError{Field: "type", Reason: "must be product or material"}
		}
		product.Type = input.Type
	}
	if input.Unit != "" {
		product.Unit = input.Unit
	}
	if input.Price < 0 {
		return nil, &ValidationError{Field: "price", Reason: "cannot be negative"}
	}
	product.Description = input.Description
	product.Price = input.Price
	if err := s.repos.Product.Update(ctx, product); err != nil {
		return nil, err
	}
	s.effects.Flush(ctx, cache.TagProducts, cache.TagReference, cache.TagStatistics)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repos.Product.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repos.Product.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.effects.Flush(ctx, cache.TagProducts, cache.TagReference, cache.TagStatistics)
	return nil
}
