package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/milkline/milkline/internal/billing"
	"github.com/milkline/milkline/internal/masterdata/customers"
	"github.com/milkline/milkline/internal/milk"
	"github.com/milkline/milkline/internal/platform/httpx"
	"github.com/milkline/milkline/internal/quality"
	"github.com/milkline/milkline/internal/shared"
)

// CustomerResolver looks up the counterparty in the master-data snapshot.
type CustomerResolver interface {
	Customer(id int64) (customers.Customer, error)
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
	refs   CustomerResolver
	guard  acceptGuard
	audit  auditRecorder
}

func NewService(logger *slog.Logger, repo Repository, refs CustomerResolver, guard acceptGuard, audit auditRecorder) *Service {
	return &Service{logger: logger, repo: repo, refs: refs, guard: guard, audit: audit}
}

// LineInput is one compartment reading plus the selling price applied
// to the seeded received line.
type LineInput struct {
	Line  milk.Line
	Price float64
}

type CreateInput struct {
	Date        time.Time
	CustomerID  int64
	State       string
	VehicleNo   string
	DriverName  string
	Lines       []LineInput
	Commercials billing.SaleCommercials
}

type UpdateInput struct {
	Date        time.Time
	CustomerID  int64
	State       string
	VehicleNo   string
	DriverName  string
	Lines       []LineInput
	Commercials billing.SaleCommercials
}

// Create registers a dispatch. Volume runs on the sale formula, so a
// line with no CLR reading carries zero liters until the lab fills it in.
func (s *Service) Create(ctx context.Context, in CreateInput) (Sale, error) {
	customer, err := s.refs.Customer(in.CustomerID)
	if err != nil {
		return Sale{}, err
	}

	state := in.State
	if state == "" {
		state = customer.State
	}
	state = quality.NormalizeState(state)
	if _, err := quality.StateCoefficients(state); err != nil {
		return Sale{}, err
	}

	delivery, received, err := buildLines(state, in.Lines)
	if err != nil {
		return Sale{}, err
	}

	invoiceNo, err := s.nextInvoiceNo(ctx, in.Date)
	if err != nil {
		return Sale{}, err
	}

	commercials := in.Commercials
	if commercials.FixedCostMode == "" {
		commercials.FixedCostMode = billing.FixedCostAuto
	}

	sale := Sale{
		InvoiceNo:    invoiceNo,
		Date:         in.Date,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		State:        state,
		VehicleNo:    in.VehicleNo,
		DriverName:   in.DriverName,
		Status:       milk.StatusDelivered,
		Delivery:     delivery,
		Received:     received,
		Commercials:  commercials,
	}
	return s.repo.Create(ctx, sale)
}

// Update replaces the header, commercials and delivery lines of a
// still-editable sale. The received set keeps its lab edits.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Sale, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if !milk.CanEdit(sale.Status, sale.IsDeleted) {
		return Sale{}, fmt.Errorf("%w: sale %s", httpx.ErrLocked, sale.InvoiceNo)
	}

	customer, err := s.refs.Customer(in.CustomerID)
	if err != nil {
		return Sale{}, err
	}
	state := in.State
	if state == "" {
		state = customer.State
	}
	state = quality.NormalizeState(state)
	if _, err := quality.StateCoefficients(state); err != nil {
		return Sale{}, err
	}

	delivery, _, err := buildLines(state, in.Lines)
	if err != nil {
		return Sale{}, err
	}

	sale.Date = in.Date
	sale.CustomerID = customer.ID
	sale.CustomerName = customer.Name
	sale.State = state
	sale.VehicleNo = in.VehicleNo
	sale.DriverName = in.DriverName
	sale.Delivery = delivery
	sale.Commercials = in.Commercials

	if err := s.repo.Update(ctx, sale); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// UpdateReceivedLine routes a lab edit through the reducer. On the sale
// side a CLR edit moves both the volume and the amount.
func (s *Service) UpdateReceivedLine(ctx context.Context, id, lineID int64, ch milk.ReceivedChange) (Sale, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if !milk.CanEdit(sale.Status, sale.IsDeleted) {
		return Sale{}, fmt.Errorf("%w: sale %s", httpx.ErrLocked, sale.InvoiceNo)
	}

	idx := -1
	for i, rl := range sale.Received {
		if rl.ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Sale{}, fmt.Errorf("%w: received line %d", httpx.ErrNotFound, lineID)
	}

	updated, err := milk.ApplyReceivedChange(milk.DirectionSale, sale.State, sale.Received[idx], ch)
	if err != nil {
		return Sale{}, err
	}
	sale.Received[idx] = updated

	if err := s.repo.UpdateReceived(ctx, id, sale.Received); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// EditFixedCost pins the per-liter TS rate to an operator value. The
// rate stays manual until the tax percentage is edited again.
func (s *Service) EditFixedCost(ctx context.Context, id int64, value float64) (Sale, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if !milk.CanEdit(sale.Status, sale.IsDeleted) {
		return Sale{}, fmt.Errorf("%w: sale %s", httpx.ErrLocked, sale.InvoiceNo)
	}
	sale.Commercials = sale.Commercials.EditFixedCost(value)
	if err := s.repo.UpdateCommercials(ctx, sale); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// EditTaxPercent changes the percentage and hands the rate back to auto
// derivation.
func (s *Service) EditTaxPercent(ctx context.Context, id int64, value float64) (Sale, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if !milk.CanEdit(sale.Status, sale.IsDeleted) {
		return Sale{}, fmt.Errorf("%w: sale %s", httpx.ErrLocked, sale.InvoiceNo)
	}
	sale.Commercials = sale.Commercials.EditTaxPercent(value)
	if err := s.repo.UpdateCommercials(ctx, sale); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// Settlement derives the billing view on demand.
func (s *Service) Settlement(ctx context.Context, id int64) (billing.Summary, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return billing.Summary{}, err
	}
	return billing.SaleSummary(sale.Delivery, sale.Received, sale.Commercials), nil
}

// Accept finalizes a sale. Repeats are no-ops.
func (s *Service) Accept(ctx context.Context, id, actorID int64) error {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := milk.Transition(sale.Status, milk.StatusAccepted, sale.IsDeleted); err != nil {
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
			s.logger.Error("accept key rollback failed", "error", delErr, "sale_id", id)
		}
		return err
	}

	s.record(ctx, actorID, "accept", id, map[string]any{"invoice_no": sale.InvoiceNo})
	return nil
}

// Reject finalizes a sale as returned by the customer.
func (s *Service) Reject(ctx context.Context, id, actorID int64) error {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := milk.Transition(sale.Status, milk.StatusRejected, sale.IsDeleted); err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, id, milk.StatusRejected); err != nil {
		return err
	}
	s.record(ctx, actorID, "reject", id, map[string]any{"invoice_no": sale.InvoiceNo})
	return nil
}

// SoftDelete moves a sale to the recycle bin. Status is untouched.
func (s *Service) SoftDelete(ctx context.Context, id, actorID int64) error {
	if err := s.repo.SetDeleted(ctx, id, true); err != nil {
		return err
	}
	s.record(ctx, actorID, "delete", id, nil)
	return nil
}

// Restore clears the recycle flag.
func (s *Service) Restore(ctx context.Context, id, actorID int64) error {
	if err := s.repo.SetDeleted(ctx, id, false); err != nil {
		return err
	}
	s.record(ctx, actorID, "restore", id, nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (Sale, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]Sale, int, error) {
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
		Entity:   "sale",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "error", err, "action", action, "sale_id", id)
	}
}

func buildLines(state string, inputs []LineInput) ([]milk.Line, []milk.ReceivedLine, error) {
	lines := make([]milk.Line, len(inputs))
	for i, in := range inputs {
		line, err := milk.ApplyLineChange(milk.DirectionSale, state, in.Line, milk.LineChange{})
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
