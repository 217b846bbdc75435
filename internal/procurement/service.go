package procurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/milkline/milkline/internal/billing"
	"github.com/milkline/milkline/internal/masterdata/vendors"
	"github.com/milkline/milkline/internal/milk"
	"github.com/milkline/milkline/internal/platform/httpx"
	"github.com/milkline/milkline/internal/quality"
	"github.com/milkline/milkline/internal/shared"
)

// VendorResolver looks up the counterparty in the master-data snapshot.
type VendorResolver interface {
	Vendor(id int64) (vendors.Vendor, error)
}

type acceptGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

type auditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type Service struct {
	logger *slog.Logger
	repo   Repository
	refs   VendorResolver
	guard  acceptGuard
	audit  auditRecorder
}

func NewService(logger *slog.Logger, repo Repository, refs VendorResolver, guard acceptGuard, audit auditRecorder) *Service {
	return &Service{logger: logger, repo: repo, refs: refs, guard: guard, audit: audit}
}

// LineInput is one compartment reading plus its per-liter price. The
// price applies to the seeded received line, not the delivery line.
type LineInput struct {
	Line  milk.Line
	Price float64
}

type CreateInput struct {
	Date        time.Time
	VendorID    int64
	State       string
	VehicleNo   string
	DriverName  string
	Lines       []LineInput
	Commercials billing.PurchaseCommercials
}

type UpdateInput struct {
	Date        time.Time
	VendorID    int64
	State       string
	VehicleNo   string
	DriverName  string
	Lines       []LineInput
	Commercials billing.PurchaseCommercials
}

// Create registers a delivery. Derived fields are computed through the
// reducer and the received set is seeded as an independent copy.
func (s *Service) Create(ctx context.Context, in CreateInput) (Purchase, error) {
	vendor, err := s.refs.Vendor(in.VendorID)
	if err != nil {
		return Purchase{}, err
	}

	state := in.State
	if state == "" {
		state = vendor.State
	}
	state = quality.NormalizeState(state)
	if _, err := quality.StateCoefficients(state); err != nil {
		return Purchase{}, err
	}

	delivery, received, err := buildLines(milk.DirectionPurchase, state, in.Lines)
	if err != nil {
		return Purchase{}, err
	}

	invoiceNo, err := s.nextInvoiceNo(ctx, in.Date)
	if err != nil {
		return Purchase{}, err
	}

	p := Purchase{
		InvoiceNo:   invoiceNo,
		Date:        in.Date,
		VendorID:    vendor.ID,
		VendorName:  vendor.Name,
		State:       state,
		VehicleNo:   in.VehicleNo,
		DriverName:  in.DriverName,
		Status:      milk.StatusDelivered,
		Delivery:    delivery,
		Received:    received,
		Commercials: in.Commercials,
	}
	return s.repo.Create(ctx, p)
}

// Update replaces the header, commercials and delivery lines of a
// still-editable purchase. The received set keeps its lab edits.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Purchase, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Purchase{}, err
	}
	if !milk.CanEdit(p.Status, p.IsDeleted) {
		return Purchase{}, fmt.Errorf("%w: purchase %s", httpx.ErrLocked, p.InvoiceNo)
	}

	vendor, err := s.refs.Vendor(in.VendorID)
	if err != nil {
		return Purchase{}, err
	}
	state := in.State
	if state == "" {
		state = vendor.State
	}
	state = quality.NormalizeState(state)
	if _, err := quality.StateCoefficients(state); err != nil {
		return Purchase{}, err
	}

	delivery, _, err := buildLines(milk.DirectionPurchase, state, in.Lines)
	if err != nil {
		return Purchase{}, err
	}

	p.Date = in.Date
	p.VendorID = vendor.ID
	p.VendorName = vendor.Name
	p.State = state
	p.VehicleNo = in.VehicleNo
	p.DriverName = in.DriverName
	p.Delivery = delivery
	p.Commercials = in.Commercials

	if err := s.repo.Update(ctx, p); err != nil {
		return Purchase{}, err
	}
	return p, nil
}

// UpdateReceivedLine routes a lab edit through the reducer so volume
// and amount are recomputed in the same step.
func (s *Service) UpdateReceivedLine(ctx context.Context, id, lineID int64, ch milk.ReceivedChange) (Purchase, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Purchase{}, err
	}
	if !milk.CanEdit(p.Status, p.IsDeleted) {
		return Purchase{}, fmt.Errorf("%w: purchase %s", httpx.ErrLocked, p.InvoiceNo)
	}

	idx := -1
	for i, rl := range p.Received {
		if rl.ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Purchase{}, fmt.Errorf("%w: received line %d", httpx.ErrNotFound, lineID)
	}

	updated, err := milk.ApplyReceivedChange(milk.DirectionPurchase, p.State, p.Received[idx], ch)
	if err != nil {
		return Purchase{}, err
	}
	p.Received[idx] = updated

	if err := s.repo.UpdateReceived(ctx, id, p.Received); err != nil {
		return Purchase{}, err
	}
	return p, nil
}

// Settlement derives the billing view on demand.
func (s *Service) Settlement(ctx context.Context, id int64) (billing.Summary, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return billing.Summary{}, err
	}
	return billing.PurchaseSummary(p.Delivery, p.Received, p.Commercials), nil
}

// Accept finalizes a purchase. Repeats are no-ops so the settlement
// side effects never apply twice.
func (s *Service) Accept(ctx context.Context, id, actorID int64) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := milk.Transition(p.Status, milk.StatusAccepted, p.IsDeleted); err != nil {
		if errors.Is(err, milk.ErrAlreadyAccepted) {
			return nil
		}
		return err
	}

	key := shared.AcceptKey(invoicePrefix, id)
	if err := s.guard.CheckAndInsert(ctx, key, invoicePrefix); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil
		}
		return err
	}

	if err := s.repo.SetStatus(ctx, id, milk.StatusAccepted); err != nil {
		if delErr := s.guard.Delete(ctx, key); delErr != nil {
			s.logger.Error("accept key rollback failed", "error", delErr, "purchase_id", id)
		}
		return err
	}

	s.record(ctx, actorID, "accept", id, map[string]any{"invoice_no": p.InvoiceNo})
	return nil
}

// Reject finalizes a purchase as returned to the vendor.
func (s *Service) Reject(ctx context.Context, id, actorID int64) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := milk.Transition(p.Status, milk.StatusRejected, p.IsDeleted); err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, id, milk.StatusRejected); err != nil {
		return err
	}
	s.record(ctx, actorID, "reject", id, map[string]any{"invoice_no": p.InvoiceNo})
	return nil
}

// SoftDelete moves a purchase to the recycle bin. Status is untouched.
func (s *Service) SoftDelete(ctx context.Context, id, actorID int64) error {
	if err := s.repo.SetDeleted(ctx, id, true); err != nil {
		return err
	}
	s.record(ctx, actorID, "delete", id, nil)
	return nil
}

// Restore clears the recycle flag. The record resumes its prior status.
func (s *Service) Restore(ctx context.Context, id, actorID int64) error {
	if err := s.repo.SetDeleted(ctx, id, false); err != nil {
		return err
	}
	s.record(ctx, actorID, "restore", id, nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (Purchase, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]Purchase, int, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) nextInvoiceNo(ctx context.Context, date time.Time) (string, error) {
	yearMonth := date.Format("0601")
	seq, err := s.repo.MaxSequenceForMonth(ctx, yearMonth)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%03d", invoicePrefix, yearMonth, seq+1), nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "error", err, "action", action, "purchase_id", id)
	}
}

// buildLines runs every input through the reducer so the stored derived
// fields can never disagree with the measured ones, then seeds the
// received set and applies the line prices to it.
func buildLines(dir milk.Direction, state string, inputs []LineInput) ([]milk.Line, []milk.ReceivedLine, error) {
	lines := make([]milk.Line, len(inputs))
	for i, in := range inputs {
		line, err := milk.ApplyLineChange(dir, state, in.Line, milk.LineChange{})
		if err != nil {
			return nil, nil, err
		}
		lines[i] = line
	}
	if err := milk.ValidateLines(lines); err != nil {
		return nil, nil, err
	}
	received := milk.SeedReceived(lines)
	for i := range received {
		received[i].Price = inputs[i].Price
		received[i].Amount = received[i].Price * received[i].Ltr
	}
	return lines, received, nil
}
