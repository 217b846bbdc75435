package milktypes

import (
	"context"
	"errors"
	"strings"

	"github.com/milkline/milkline/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]MilkType, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (MilkType, error) {
	if id <= 0 {
		return MilkType{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, mt MilkType) (MilkType, error) {
	if err := validate(mt); err != nil {
		return MilkType{}, err
	}
	return s.repo.Create(ctx, mt)
}

func (s *Service) Update(ctx context.Context, id int64, mt MilkType) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := validate(mt); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, mt)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func validate(mt MilkType) error {
	if strings.TrimSpace(mt.Code) == "" {
		return errors.New("milk type code is required")
	}
	if strings.TrimSpace(mt.Name) == "" {
		return errors.New("milk type name is required")
	}
	return nil
}
