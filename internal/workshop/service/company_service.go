package service

import (
	"context"

	"github.com/Terml/ERP-system/internal/shared/cache"
	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
)

// CompanyService reference data CRUD for customer companies.
type CompanyService struct {
	repos   *repository.Repositories
	effects *SideEffects
}

func NewCompanyService(repos *repository.Repositories, effects *SideEffects) *CompanyService {
	return &CompanyService{repos: repos, effects: effects}
}

type CompanyInput struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

func (s *CompanyService) List(ctx context.Context, page, pageSize int, search string) ([]entity.Company, int64, error) {
	return s.repos.Company.FindAll(ctx, page, pageSize, search)
}

func (s *CompanyService) Get(ctx context.Context, id uint) (*entity.Company, error) {
	return s.repos.Company.FindByID(ctx, id)
}

func (s *CompanyService) Create(ctx context.Context, input CompanyInput) (*entity.Company, error) {
	if input.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	company := &entity.Company{
		Name:          input.Name,
		ContactPerson: input.ContactPerson,
		Phone:         input.Phone,
		Email:         input.Email,
		Address:       input.Address,
	}
	if err := s.repos.Company.Create(ctx, company); err != nil {
		return nil, err
	}
	s.effects.Flush(ctx, cache.TagCompanies, cache.TagReference, cache.TagStatistics)
	return company, nil
}

func (s *CompanyService) Update(ctx context.Context, id uint, input CompanyInput) (*entity.Company, error) {
	company, err := s.repos.Company.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		company.Name = input.Name
	}
	company.ContactPerson = input.ContactPerson
	company.Phone = input.Phone
	company.Email = input.Email
	company.Address = input.Address
	if err := s.repos.Company.Update(ctx, company); err != nil {
		return nil, err
	}
	s.effects.Flush(ctx, cache.TagCompanies, cache.TagReference, cache.TagStatistics)
	return company, nil
}

func (s *CompanyService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repos.Company.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repos.Company.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.effects.Flush(ctx, cache.TagCompanies, cache.TagReference, cache.TagStatistics)
	return nil
}
