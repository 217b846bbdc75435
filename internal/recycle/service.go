// Package recycle is the cross-module bin for soft-deleted milk
// transactions: listing, restore and retention-based purge.
package recycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/milkline/milkline/internal/dispatch"
	"github.com/milkline/milkline/internal/procurement"
)

// PurchaseBin is the slice of the purchase repository the bin needs.
type PurchaseBin interface {
	List(ctx context.Context, q procurement.ListQuery) ([]procurement.Purchase, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SaleBin is the slice of the sale repository the bin needs.
type SaleBin interface {
	List(ctx context.Context, q dispatch.ListQuery) ([]dispatch.Sale, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Restorer clears the recycle flag through the owning module so its
// audit trail stays in one place.
type Restorer interface {
	Restore(ctx context.Context, id, actorID int64) error
}

type Service struct {
	logger    *slog.Logger
	retention time.Duration

	purchaseBin PurchaseBin
	saleBin     SaleBin
	purchases   Restorer
	sales       Restorer
}

func NewService(logger *slog.Logger, retention time.Duration, purchaseBin PurchaseBin, saleBin SaleBin, purchases, sales Restorer) *Service {
	return &Service{
		logger:      logger,
		retention:   retention,
		purchaseBin: purchaseBin,
		saleBin:     saleBin,
		purchases:   purchases,
		sales:       sales,
	}
}

func (s *Service) ListPurchases(ctx context.Context, page, limit int) ([]procurement.Purchase, int, error) {
	return s.purchaseBin.List(ctx, procurement.ListQuery{DeletedOnly: true, Page: page, Limit: limit})
}

func (s *Service) ListSales(ctx context.Context, page, limit int) ([]dispatch.Sale, int, error) {
	return s.saleBin.List(ctx, dispatch.ListQuery{DeletedOnly: true, Page: page, Limit: limit})
}

func (s *Service) RestorePurchase(ctx context.Context, id, actorID int64) error {
	return s.purchases.Restore(ctx, id, actorID)
}

func (s *Service) RestoreSale(ctx context.Context, id, actorID int64) error {
	return s.sales.Restore(ctx, id, actorID)
}

// Purge removes soft-deleted records that have sat in the bin past the
// retention window. Restored records are untouched because restoring
// clears the flag.
func (s *Service) Purge(ctx context.Context) (int64, int64, error) {
	cutoff := time.Now().Add(-s.retention)

	purchases, err := s.purchaseBin.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, 0, err
	}
	sales, err := s.saleBin.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return purchases, 0, err
	}
	if purchases > 0 || sales > 0 {
		s.logger.Info("recycle purge complete", "purchases", purchases, "sales", sales)
	}
	return purchases, sales, nil
}
