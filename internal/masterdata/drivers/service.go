package drivers

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Driver, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Driver, error) {
	if id <= 0 {
		return Driver{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, d Driver) (Driver, error) {
	if err := validate(d); err != nil {
		return Driver{}, err
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) Update(ctx context.Context, id int64, d Driver) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := validate(d); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, d)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func validate(d Driver) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("driver name is required")
	}
	return nil
}
