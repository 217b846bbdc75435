package recycle

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/milkline/milkline/internal/dispatch"
	"github.com/milkline/milkline/internal/procurement"
)

type fakePurchaseBin struct {
	deleted    []procurement.Purchase
	lastCutoff time.Time
	purged     int64
}

func (f *fakePurchaseBin) List(_ context.Context, q procurement.ListQuery) ([]procurement.Purchase, int, error) {
	if !q.DeletedOnly {
		return nil, 0, nil
	}
	return f.deleted, len(f.deleted), nil
}

func (f *fakePurchaseBin) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.lastCutoff = cutoff
	return f.purged, nil
}

type fakeSaleBin struct {
	deleted []dispatch.Sale
	purged  int64
}

func (f *fakeSaleBin) List(_ context.Context, q dispatch.ListQuery) ([]dispatch.Sale, int, error) {
	if !q.DeletedOnly {
		return nil, 0, nil
	}
	return f.deleted, len(f.deleted), nil
}

func (f *fakeSaleBin) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return f.purged, nil
}

type fakeRestorer struct {
	restored []int64
}

func (f *fakeRestorer) Restore(_ context.Context, id, _ int64) error {
	f.restored = append(f.restored, id)
	return nil
}

func TestListOnlyShowsDeleted(t *testing.T) {
	pb := &fakePurchaseBin{deleted: []procurement.Purchase{{ID: 3, IsDeleted: true}}}
	sb := &fakeSaleBin{deleted: []dispatch.Sale{{ID: 9, IsDeleted: true}}}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), 720*time.Hour, pb, sb, &fakeRestorer{}, &fakeRestorer{})

	purchases, total, err := svc.ListPurchases(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.EqualValues(t, 3, purchases[0].ID)

	sales, total, err := svc.ListSales(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.EqualValues(t, 9, sales[0].ID)
}

func TestRestoreDelegatesToOwningModule(t *testing.T) {
	pr := &fakeRestorer{}
	sr := &fakeRestorer{}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), 720*time.Hour, &fakePurchaseBin{}, &fakeSaleBin{}, pr, sr)

	require.NoError(t, svc.RestorePurchase(context.Background(), 3, 1))
	require.NoError(t, svc.RestoreSale(context.Background(), 9, 1))
	require.Equal(t, []int64{3}, pr.restored)
	require.Equal(t, []int64{9}, sr.restored)
}

func TestPurgeUsesRetentionCutoff(t *testing.T) {
	pb := &fakePurchaseBin{purged: 2}
	sb := &fakeSaleBin{purged: 1}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), 720*time.Hour, pb, sb, &fakeRestorer{}, &fakeRestorer{})

	before := time.Now().Add(-720 * time.Hour)
	purchases, sales, err := svc.Purge(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, purchases)
	require.EqualValues(t, 1, sales)
	require.WithinDuration(t, before, pb.lastCutoff, 5*time.Second)
}
