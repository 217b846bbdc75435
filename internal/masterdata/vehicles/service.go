package vehicles

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Vehicle, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Vehicle, error) {
	if id <= 0 {
		return Vehicle{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, v Vehicle) (Vehicle, error) {
	if err := validate(v); err != nil {
		return Vehicle{}, err
	}
	return s.repo.Create(ctx, v)
}

func (s *Service) Update(ctx context.Context, id int64, v Vehicle) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := validate(v); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, v)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func validate(v Vehicle) error {
	if strings.TrimSpace(v.RegNo) == "" {
		return errors.New("vehicle registration number is required")
	}
	if v.Capacity < 0 {
		return errors.New("vehicle capacity cannot be negative")
	}
	if v.TransporterID != nil && *v.TransporterID <= 0 {
		return errors.New("transporter reference must be a positive ID")
	}
	return nil
}
