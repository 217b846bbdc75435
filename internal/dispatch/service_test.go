package dispatch

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/milkline/milkline/internal/billing"
	"github.com/milkline/milkline/internal/masterdata/customers"
	"github.com/milkline/milkline/internal/milk"
	"github.com/milkline/milkline/internal/platform/httpx"
	"github.com/milkline/milkline/internal/quality"
	"github.com/milkline/milkline/internal/shared"
)

type mockRepo struct {
	sales            map[int64]*Sale
	nextID           int64
	nextLineID       int64
	statusWrites     int
	commercialWrites int
}

func newMockRepo() *mockRepo {
	return &mockRepo{sales: map[int64]*Sale{}, nextID: 1, nextLineID: 100}
}

func (m *mockRepo) Create(_ context.Context, s Sale) (Sale, error) {
	s.ID = m.nextID
	m.nextID++
	for i := range s.Delivery {
		s.Delivery[i].ID = m.nextLineID
		m.nextLineID++
	}
	for i := range s.Received {
		s.Received[i].ID = m.nextLineID
		m.nextLineID++
	}
	cp := s
	m.sales[s.ID] = &cp
	return s, nil
}

func (m *mockRepo) Update(_ context.Context, s Sale) error {
	if _, ok := m.sales[s.ID]; !ok {
		return httpx.ErrNotFound
	}
	cp := s
	m.sales[s.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateReceived(_ context.Context, id int64, received []milk.ReceivedLine) error {
	s, ok := m.sales[id]
	if !ok {
		return httpx.ErrNotFound
	}
	s.Received = received
	return nil
}

func (m *mockRepo) UpdateCommercials(_ context.Context, s Sale) error {
	stored, ok := m.sales[s.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	stored.Commercials = s.Commercials
	m.commercialWrites++
	return nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (Sale, error) {
	s, ok := m.sales[id]
	if !ok {
		return Sale{}, httpx.ErrNotFound
	}
	return *s, nil
}

func (m *mockRepo) List(_ context.Context, q ListQuery) ([]Sale, int, error) {
	var out []Sale
	for _, s := range m.sales {
		if s.IsDeleted && !q.IncludeDeleted && !q.DeletedOnly {
			continue
		}
		if q.DeletedOnly && !s.IsDeleted {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockRepo) MaxSequenceForMonth(_ context.Context, yearMonth string) (int, error) {
	max := 0
	prefix := invoicePrefix + "-" + yearMonth + "-"
	for _, s := range m.sales {
		if !strings.HasPrefix(s.InvoiceNo, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(s.InvoiceNo, prefix))
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

func (m *mockRepo) SetStatus(_ context.Context, id int64, status milk.Status) error {
	s, ok := m.sales[id]
	if !ok {
		return httpx.ErrNotFound
	}
	s.Status = status
	m.statusWrites++
	return nil
}

func (m *mockRepo) SetDeleted(_ context.Context, id int64, deleted bool) error {
	s, ok := m.sales[id]
	if !ok {
		return httpx.ErrNotFound
	}
	s.IsDeleted = deleted
	return nil
}

func (m *mockRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	for id, s := range m.sales {
		if s.IsDeleted && s.UpdatedAt.Before(cutoff) {
			delete(m.sales, id)
			purged++
		}
	}
	return purged, nil
}

type fakeResolver struct {
	customers map[int64]customers.Customer
}

func (f *fakeResolver) Customer(id int64) (customers.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return customers.Customer{}, &milk.MissingReferenceError{Kind: "customer", ID: id}
	}
	return c, nil
}

type fakeGuard struct {
	keys map[string]bool
}

func (f *fakeGuard) CheckAndInsert(_ context.Context, key, _ string) error {
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeGuard) Delete(_ context.Context, key string) error {
	delete(f.keys, key)
	return nil
}

type fakeAudit struct {
	logs []shared.AuditLog
}

func (f *fakeAudit) Record(_ context.Context, log shared.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	refs := &fakeResolver{customers: map[int64]customers.Customer{
		7: {ID: 7, Code: "C007", Name: "Metro Dairy", State: "Tamil Nadu", IsActive: true},
	}}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, refs,
		&fakeGuard{keys: map[string]bool{}}, &fakeAudit{})
	return svc, repo
}

func testCreateInput() CreateInput {
	return CreateInput{
		Date:       time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		CustomerID: 7,
		VehicleNo:  "TN-09-7781",
		DriverName: "Selvam",
		Lines: []LineInput{
			{Line: milk.Line{Compartment: milk.CompartmentFront, MilkTypeID: 3, KgQty: 103, Fat: 4, CLR: 30}, Price: 30},
		},
		Commercials: billing.SaleCommercials{TaxPercent: 5},
	}
}

func TestCreateUsesSaleVolume(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sale, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	require.Equal(t, "MS-2608-001", sale.InvoiceNo)
	require.Equal(t, "Metro Dairy", sale.CustomerName)
	require.Equal(t, billing.FixedCostAuto, sale.Commercials.FixedCostMode)
	require.InDelta(t, 100.0, sale.Delivery[0].Ltr, 1e-9)
	require.InDelta(t, 3000.0, sale.Received[0].Amount, 1e-9)
}

func TestSequenceSurvivesBinPurge(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)
	require.Equal(t, "MS-2608-002", second.InvoiceNo)

	require.NoError(t, svc.SoftDelete(ctx, first.ID, 4))
	purged, err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)

	third, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)
	require.Equal(t, "MS-2608-003", third.InvoiceNo)
}

func TestCreateRejectsUnknownState(t *testing.T) {
	svc, _ := newTestService()
	in := testCreateInput()
	in.State = "Goa"

	_, err := svc.Create(context.Background(), in)
	var unknown *quality.UnknownStateError
	require.ErrorAs(t, err, &unknown)
}

func TestCreateZeroCLRCarriesZeroVolume(t *testing.T) {
	svc, _ := newTestService()
	in := testCreateInput()
	in.Lines[0].Line.CLR = 0

	sale, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Zero(t, sale.Delivery[0].Ltr)
	require.Zero(t, sale.Received[0].Amount)
}

func TestCLREditMovesVolumeAndAmount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sale, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	clr := 28.0
	updated, err := svc.UpdateReceivedLine(ctx, sale.ID, sale.Received[0].ID, milk.ReceivedChange{
		LineChange: milk.LineChange{CLR: &clr},
	})
	require.NoError(t, err)

	rl := updated.Received[0]
	require.InDelta(t, 100.19, rl.Ltr, 1e-9)
	require.InDelta(t, 30*100.19, rl.Amount, 1e-6)
	// Purchase-style volume would have stayed at 100.
	require.NotEqual(t, 100.0, rl.Ltr)
}

func TestFixedCostModeFlips(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	sale, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	// Operator pins the rate.
	pinned, err := svc.EditFixedCost(ctx, sale.ID, 3.5)
	require.NoError(t, err)
	require.Equal(t, billing.FixedCostManual, pinned.Commercials.FixedCostMode)
	require.InDelta(t, 3.5, pinned.Commercials.FixedCost, 1e-9)

	summary, err := svc.Settlement(ctx, sale.ID)
	require.NoError(t, err)
	require.InDelta(t, 3.5, summary.Sale.FixedCost, 1e-9)

	// Touching the percentage hands the rate back to auto derivation.
	auto, err := svc.EditTaxPercent(ctx, sale.ID, 5)
	require.NoError(t, err)
	require.Equal(t, billing.FixedCostAuto, auto.Commercials.FixedCostMode)

	summary, err = svc.Settlement(ctx, sale.ID)
	require.NoError(t, err)
	solid := summary.Received.Solid
	require.InDelta(t, solid*5/100, summary.Sale.FixedCost, 0.005)

	require.Equal(t, 2, repo.commercialWrites)
}

func TestRateEditLockedAfterAccept(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sale, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)
	require.NoError(t, svc.Accept(ctx, sale.ID, 4))

	_, err = svc.EditFixedCost(ctx, sale.ID, 2)
	require.ErrorIs(t, err, httpx.ErrLocked)
	_, err = svc.EditTaxPercent(ctx, sale.ID, 3)
	require.ErrorIs(t, err, httpx.ErrLocked)
}

func TestAcceptIsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	sale, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	require.NoError(t, svc.Accept(ctx, sale.ID, 4))
	require.NoError(t, svc.Accept(ctx, sale.ID, 4))
	require.Equal(t, 1, repo.statusWrites)
	require.Equal(t, milk.StatusAccepted, repo.sales[sale.ID].Status)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	sale, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, sale.ID, 4))
	require.True(t, repo.sales[sale.ID].IsDeleted)

	var transition *milk.TransitionError
	require.ErrorAs(t, svc.Reject(ctx, sale.ID, 4), &transition)

	require.NoError(t, svc.Restore(ctx, sale.ID, 4))
	require.NoError(t, svc.Reject(ctx, sale.ID, 4))
}
