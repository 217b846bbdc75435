package appstate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/milkline/milkline/internal/masterdata/customers"
	"github.com/milkline/milkline/internal/masterdata/milktypes"
	"github.com/milkline/milkline/internal/masterdata/shared"
	"github.com/milkline/milkline/internal/masterdata/vendors"
	"github.com/milkline/milkline/internal/milk"
)

type stubVendors struct {
	items []vendors.Vendor
	calls int
}

func (s *stubVendors) List(context.Context, shared.ListFilters) ([]vendors.Vendor, int, error) {
	s.calls++
	return s.items, len(s.items), nil
}

type stubCustomers struct {
	items []customers.Customer
}

func (s *stubCustomers) List(context.Context, shared.ListFilters) ([]customers.Customer, int, error) {
	return s.items, len(s.items), nil
}

type stubMilkTypes struct {
	items []milktypes.MilkType
}

func (s *stubMilkTypes) List(context.Context, shared.ListFilters) ([]milktypes.MilkType, int, error) {
	return s.items, len(s.items), nil
}

func testStore(t *testing.T) (*Store, *stubVendors, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sv := &stubVendors{items: []vendors.Vendor{
		{ID: 1, Code: "V001", Name: "Ponnur Society", State: "Andhra Pradesh", IsActive: true},
		{ID: 2, Code: "V002", Name: "Closed Society", IsActive: false},
	}}
	sc := &stubCustomers{items: []customers.Customer{
		{ID: 7, Code: "C007", Name: "Metro Dairy", IsActive: true},
	}}
	smt := &stubMilkTypes{items: []milktypes.MilkType{
		{ID: 3, Code: "BUF", Name: "Buffalo", IsActive: true},
	}}

	store := NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)), rdb, sv, sc, smt, time.Minute)
	return store, sv, mr
}

func TestRefreshPopulatesLookupsAndMirror(t *testing.T) {
	store, _, mr := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Refresh(ctx))

	v, err := store.Vendor(1)
	require.NoError(t, err)
	require.Equal(t, "Ponnur Society", v.Name)

	c, err := store.Customer(7)
	require.NoError(t, err)
	require.Equal(t, "Metro Dairy", c.Name)

	mt, err := store.MilkType(3)
	require.NoError(t, err)
	require.Equal(t, "BUF", mt.Code)

	require.True(t, mr.Exists(snapshotKey))
	require.False(t, store.LoadedAt().IsZero())
}

func TestInactiveAndUnknownReferences(t *testing.T) {
	store, _, _ := testStore(t)
	require.NoError(t, store.Refresh(context.Background()))

	var missing *milk.MissingReferenceError

	_, err := store.Vendor(2)
	require.True(t, errors.As(err, &missing), "inactive vendor must not resolve")
	require.Equal(t, "vendor", missing.Kind)

	_, err = store.Customer(99)
	require.True(t, errors.As(err, &missing))
	require.EqualValues(t, 99, missing.ID)

	_, err = store.MilkType(42)
	require.True(t, errors.As(err, &missing))
}

func TestLoadPrefersCachedSnapshot(t *testing.T) {
	store, sv, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Refresh(ctx))
	require.Equal(t, 1, sv.calls)

	// A second store sharing the redis must not hit the sources.
	other, otherVendors, _ := testStore(t)
	other.rdb = store.rdb
	require.NoError(t, other.Load(ctx))
	require.Equal(t, 0, otherVendors.calls)

	v, err := other.Vendor(1)
	require.NoError(t, err)
	require.Equal(t, "V001", v.Code)
}

func TestTeardownDropsMirror(t *testing.T) {
	store, _, mr := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Refresh(ctx))
	require.True(t, mr.Exists(snapshotKey))

	require.NoError(t, store.Teardown(ctx))
	require.False(t, mr.Exists(snapshotKey))
}
