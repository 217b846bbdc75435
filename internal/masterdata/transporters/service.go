package transporters

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Transporter, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Transporter, error) {
	if id <= 0 {
		return Transporter{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, t Transporter) (Transporter, error) {
	if err := validate(t); err != nil {
		return Transporter{}, err
	}
	return s.repo.Create(ctx, t)
}

func (s *Service) Update(ctx context.Context, id int64, t Transporter) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := validate(t); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, t)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

func validate(t Transporter) error {
	if strings.TrimSpace(t.Code) == "" {
		return errors.New("transporter code is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("transporter name is required")
	}
	return nil
}
