// Package appstate keeps an in-memory snapshot of the master data the
// procurement and dispatch flows reference on every request. The snapshot
// is mirrored into redis so worker processes see the same view.
package appstate

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/milkline/milkline/internal/masterdata/customers"
	"github.com/milkline/milkline/internal/masterdata/milktypes"
	"github.com/milkline/milkline/internal/masterdata/shared"
	"github.com/milkline/milkline/internal/masterdata/vendors"
	"github.com/milkline/milkline/internal/milk"
)

const snapshotKey = "appstate:snapshot"

type VendorSource interface {
	List(ctx context.Context, filters shared.ListFilters) ([]vendors.Vendor, int, error)
}

type CustomerSource interface {
	List(ctx context.Context, filters shared.ListFilters) ([]customers.Customer, int, error)
}

type MilkTypeSource interface {
	List(ctx context.Context, filters shared.ListFilters) ([]milktypes.MilkType, int, error)
}

// Snapshot is the cached view of the reference entities.
type Snapshot struct {
	Vendors   map[int64]vendors.Vendor     `json:"vendors"`
	Customers map[int64]customers.Customer `json:"customers"`
	MilkTypes map[int64]milktypes.MilkType `json:"milk_types"`
	LoadedAt  time.Time                    `json:"loaded_at"`
}

type Store struct {
	logger    *slog.Logger
	rdb       *redis.Client
	vendors   VendorSource
	customers CustomerSource
	milkTypes MilkTypeSource
	ttl       time.Duration

	mu       sync.RWMutex
	snapshot Snapshot
}

func NewStore(logger *slog.Logger, rdb *redis.Client, v VendorSource, c CustomerSource, mt MilkTypeSource, ttl time.Duration) *Store {
	return &Store{
		logger:    logger,
		rdb:       rdb,
		vendors:   v,
		customers: c,
		milkTypes: mt,
		ttl:       ttl,
	}
}

// Load populates the snapshot, preferring a fresh redis copy and falling
// back to the database sources.
func (s *Store) Load(ctx context.Context) error {
	if snap, ok := s.fromCache(ctx); ok {
		s.mu.Lock()
		s.snapshot = snap
		s.mu.Unlock()
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh reloads all entities from the database sources and rewrites the
// redis mirror. Entity fetches run concurrently.
func (s *Store) Refresh(ctx context.Context) error {
	snap := Snapshot{
		Vendors:   map[int64]vendors.Vendor{},
		Customers: map[int64]customers.Customer{},
		MilkTypes: map[int64]milktypes.MilkType{},
	}

	g, gctx := errgroup.WithContext(ctx)
	var (
		vendorList   []vendors.Vendor
		customerList []customers.Customer
		milkTypeList []milktypes.MilkType
	)
	g.Go(func() error {
		var err error
		vendorList, _, err = s.vendors.List(gctx, shared.ListFilters{})
		return err
	})
	g.Go(func() error {
		var err error
		customerList, _, err = s.customers.List(gctx, shared.ListFilters{})
		return err
	})
	g.Go(func() error {
		var err error
		milkTypeList, _, err = s.milkTypes.List(gctx, shared.ListFilters{})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, v := range vendorList {
		snap.Vendors[v.ID] = v
	}
	for _, c := range customerList {
		snap.Customers[c.ID] = c
	}
	for _, mt := range milkTypeList {
		snap.MilkTypes[mt.ID] = mt
	}
	snap.LoadedAt = time.Now()

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	if s.rdb != nil {
		payload, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		if err := s.rdb.Set(ctx, snapshotKey, payload, s.ttl).Err(); err != nil {
			s.logger.Warn("appstate redis mirror failed", "error", err)
		}
	}
	return nil
}

// Teardown drops the redis mirror. Called on shutdown so the next boot
// cannot read a snapshot older than the retention window.
func (s *Store) Teardown(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, snapshotKey).Err()
}

func (s *Store) fromCache(ctx context.Context) (Snapshot, bool) {
	if s.rdb == nil {
		return Snapshot{}, false
	}
	payload, err := s.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		s.logger.Warn("appstate snapshot unmarshal failed", "error", err)
		return Snapshot{}, false
	}
	return snap, true
}

// Vendor resolves an active vendor reference.
func (s *Store) Vendor(id int64) (vendors.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.snapshot.Vendors[id]
	if !ok || !v.IsActive {
		return vendors.Vendor{}, &milk.MissingReferenceError{Kind: "vendor", ID: id}
	}
	return v, nil
}

// Customer resolves an active customer reference.
func (s *Store) Customer(id int64) (customers.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.snapshot.Customers[id]
	if !ok || !c.IsActive {
		return customers.Customer{}, &milk.MissingReferenceError{Kind: "customer", ID: id}
	}
	return c, nil
}

// MilkType resolves a milk type reference.
func (s *Store) MilkType(id int64) (milktypes.MilkType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mt, ok := s.snapshot.MilkTypes[id]
	if !ok {
		return milktypes.MilkType{}, &milk.MissingReferenceError{Kind: "milk type", ID: id}
	}
	return mt, nil
}

// LoadedAt reports when the current snapshot was taken.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.LoadedAt
}
