package procurement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/milkline/milkline/internal/billing"
	"github.com/milkline/milkline/internal/masterdata/vendors"
	"github.com/milkline/milkline/internal/milk"
	"github.com/milkline/milkline/internal/platform/httpx"
	"github.com/milkline/milkline/internal/quality"
	"github.com/milkline/milkline/internal/shared"
)

type mockRepo struct {
	purchases     map[int64]*Purchase
	nextID        int64
	nextLineID    int64
	setStatusErr  error
	statusWrites  int
	receivedSaves int
}

func newMockRepo() *mockRepo {
	return &mockRepo{purchases: map[int64]*Purchase{}, nextID: 1, nextLineID: 100}
}

func (m *mockRepo) Create(_ context.Context, p Purchase) (Purchase, error) {
	p.ID = m.nextID
	m.nextID++
	for i := range p.Delivery {
		p.Delivery[i].ID = m.nextLineID
		m.nextLineID++
	}
	for i := range p.Received {
		p.Received[i].ID = m.nextLineID
		m.nextLineID++
	}
	cp := p
	m.purchases[p.ID] = &cp
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p Purchase) error {
	if _, ok := m.purchases[p.ID]; !ok {
		return httpx.ErrNotFound
	}
	cp := p
	m.purchases[p.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateReceived(_ context.Context, id int64, received []milk.ReceivedLine) error {
	p, ok := m.purchases[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.Received = received
	m.receivedSaves++
	return nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (Purchase, error) {
	p, ok := m.purchases[id]
	if !ok {
		return Purchase{}, httpx.ErrNotFound
	}
	return *p, nil
}

func (m *mockRepo) List(_ context.Context, q ListQuery) ([]Purchase, int, error) {
	var out []Purchase
	for _, p := range m.purchases {
		if p.IsDeleted && !q.IncludeDeleted && !q.DeletedOnly {
			continue
		}
		if q.DeletedOnly && !p.IsDeleted {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepo) MaxSequenceForMonth(_ context.Context, yearMonth string) (int, error) {
	max := 0
	prefix := invoicePrefix + "-" + yearMonth + "-"
	for _, p := range m.purchases {
		if !strings.HasPrefix(p.InvoiceNo, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(p.InvoiceNo, prefix))
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
	if m.setStatusErr != nil {
		return m.setStatusErr
	}
	p, ok := m.purchases[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.Status = status
	m.statusWrites++
	return nil
}

func (m *mockRepo) SetDeleted(_ context.Context, id int64, deleted bool) error {
	p, ok := m.purchases[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.IsDeleted = deleted
	return nil
}

func (m *mockRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	for id, p := range m.purchases {
		if p.IsDeleted && p.UpdatedAt.Before(cutoff) {
			delete(m.purchases, id)
			purged++
		}
	}
	return purged, nil
}

type fakeResolver struct {
	vendors map[int64]vendors.Vendor
}

func (f *fakeResolver) Vendor(id int64) (vendors.Vendor, error) {
	v, ok := f.vendors[id]
	if !ok {
		return vendors.Vendor{}, &milk.MissingReferenceError{Kind: "vendor", ID: id}
	}
	return v, nil
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

func newTestService() (*Service, *mockRepo, *fakeGuard, *fakeAudit) {
	repo := newMockRepo()
	guard := &fakeGuard{keys: map[string]bool{}}
	audit := &fakeAudit{}
	refs := &fakeResolver{vendors: map[int64]vendors.Vendor{
		1: {ID: 1, Code: "V001", Name: "Ponnur Society", State: "Tamil Nadu", IsActive: true},
	}}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, refs, guard, audit)
	return svc, repo, guard, audit
}

func testCreateInput() CreateInput {
	return CreateInput{
		Date:       time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		VendorID:   1,
		VehicleNo:  "TN-22-4410",
		DriverName: "Mani",
		Lines: []LineInput{
			{Line: milk.Line{Compartment: milk.CompartmentFront, MilkTypeID: 3, KgQty: 103, Fat: 4, CLR: 30}, Price: 42},
		},
		Commercials: billing.PurchaseCommercials{FixedCost: 50, TollCharge: 10, TaxPercent: 2, Discount: 5, DistanceCharge: 20},
	}
}

func TestCreateDerivesAndSeeds(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	require.Equal(t, "MP-2608-001", p.InvoiceNo)
	require.Equal(t, milk.StatusDelivered, p.Status)
	require.Equal(t, "Ponnur Society", p.VendorName)
	require.Equal(t, "Tamil Nadu", p.State)

	require.Len(t, p.Delivery, 1)
	require.InDelta(t, 100.0, p.Delivery[0].Ltr, 1e-9)
	require.InDelta(t, 8.66, p.Delivery[0].SNF, 1e-9)

	require.Len(t, p.Received, 1)
	require.Equal(t, p.Delivery[0].KgQty, p.Received[0].KgQty)
	require.InDelta(t, 42.0, p.Received[0].Price, 1e-9)
	require.InDelta(t, 4200.0, p.Received[0].Amount, 1e-9)
}

func TestCreateSequencesPerMonth(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)
	p2, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)
	require.Equal(t, "MP-2608-002", p2.InvoiceNo)

	in := testCreateInput()
	in.Date = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	p3, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "MP-2609-001", p3.InvoiceNo)
}

func TestSequenceSurvivesBinPurge(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)
	require.Equal(t, "MP-2608-002", second.InvoiceNo)

	// Hard-delete the first invoice through the bin. The live 002 must
	// not be reissued.
	require.NoError(t, svc.SoftDelete(ctx, first.ID, 9))
	purged, err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)

	third, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)
	require.Equal(t, "MP-2608-003", third.InvoiceNo)
}

func TestCreateNormalizesStateAndRejectsUnknown(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	in := testCreateInput()
	in.State = "tamil nadu"
	p, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "Tamil Nadu", p.State)

	in = testCreateInput()
	in.State = "Goa"
	_, err = svc.Create(ctx, in)
	var unknown *quality.UnknownStateError
	require.ErrorAs(t, err, &unknown)
}

func TestCreateUnknownVendor(t *testing.T) {
	svc, _, _, _ := newTestService()
	in := testCreateInput()
	in.VendorID = 77

	_, err := svc.Create(context.Background(), in)
	var missing *milk.MissingReferenceError
	require.ErrorAs(t, err, &missing)
	require.EqualValues(t, 77, missing.ID)
}

func TestUpdateLockedAfterAccept(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)
	require.NoError(t, svc.Accept(ctx, p.ID, 9))

	_, err = svc.Update(ctx, p.ID, UpdateInput(testCreateInput()))
	require.ErrorIs(t, err, httpx.ErrLocked)

	_, err = svc.UpdateReceivedLine(ctx, p.ID, p.Received[0].ID, milk.ReceivedChange{})
	require.ErrorIs(t, err, httpx.ErrLocked)
}

func TestReceivedLineEditRecomputesAmount(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	kg := 51.5
	updated, err := svc.UpdateReceivedLine(ctx, p.ID, p.Received[0].ID, milk.ReceivedChange{
		LineChange: milk.LineChange{KgQty: &kg},
	})
	require.NoError(t, err)

	rl := updated.Received[0]
	require.InDelta(t, 50.0, rl.Ltr, 1e-9)
	require.InDelta(t, 2100.0, rl.Amount, 1e-9)
	require.Equal(t, 1, repo.receivedSaves)

	// Delivery side is untouched by a received edit.
	require.InDelta(t, 103.0, updated.Delivery[0].KgQty, 1e-9)
}

func TestSettlementWorkedExample(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	repo.purchases[5] = &Purchase{
		ID:    5,
		State: "Tamil Nadu",
		Received: []milk.ReceivedLine{
			{Line: milk.Line{ID: 1, Ltr: 50}, Price: 20, Amount: 1000},
		},
		Commercials: billing.PurchaseCommercials{
			FixedCost:      50,
			TollCharge:     10,
			DistanceCharge: 20,
			TaxPercent:     2,
			Discount:       5,
		},
	}

	summary, err := svc.Settlement(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, summary.Purchase)
	require.InDelta(t, 1000.0, summary.Purchase.TotalAmount, 1e-9)
	require.InDelta(t, 60.0, summary.Purchase.TransportAmount, 1e-9)
	require.InDelta(t, 1060.0, summary.Purchase.GrossAmount, 1e-9)
	require.InDelta(t, 21.2, summary.Purchase.TaxDeduction, 1e-9)
	require.InDelta(t, 1033.8, summary.Purchase.NetAmount, 1e-9)
}

func TestAcceptIsIdempotent(t *testing.T) {
	svc, repo, guard, audit := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	require.NoError(t, svc.Accept(ctx, p.ID, 9))
	require.NoError(t, svc.Accept(ctx, p.ID, 9))

	require.Equal(t, 1, repo.statusWrites)
	require.Len(t, guard.keys, 1)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "accept", audit.logs[0].Action)
	require.EqualValues(t, 9, audit.logs[0].ActorID)
}

func TestAcceptRollsBackGuardOnStatusFailure(t *testing.T) {
	svc, repo, guard, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	repo.setStatusErr = errors.New("pool closed")
	require.Error(t, svc.Accept(ctx, p.ID, 9))
	require.Empty(t, guard.keys, "failed accept must release its key")

	repo.setStatusErr = nil
	require.NoError(t, svc.Accept(ctx, p.ID, 9))
	require.Equal(t, milk.StatusAccepted, repo.purchases[p.ID].Status)
}

func TestRejectAndRepeatReject(t *testing.T) {
	svc, repo, _, audit := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, p.ID, 9))
	require.Equal(t, milk.StatusRejected, repo.purchases[p.ID].Status)
	require.Equal(t, "reject", audit.logs[0].Action)

	var transition *milk.TransitionError
	require.ErrorAs(t, svc.Reject(ctx, p.ID, 9), &transition)

	require.ErrorAs(t, svc.Accept(ctx, p.ID, 9), &transition)
}

func TestSoftDeleteBlocksLifecycle(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, testCreateInput())
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, p.ID, 9))
	require.True(t, repo.purchases[p.ID].IsDeleted)
	require.Equal(t, milk.StatusDelivered, repo.purchases[p.ID].Status)

	var transition *milk.TransitionError
	require.ErrorAs(t, svc.Accept(ctx, p.ID, 9), &transition)

	require.NoError(t, svc.Restore(ctx, p.ID, 9))
	require.NoError(t, svc.Accept(ctx, p.ID, 9))
}
