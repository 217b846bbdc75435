package dispatch

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/milkline/milkline/internal/milk"
	"github.com/milkline/milkline/internal/platform/db"
	"github.com/milkline/milkline/internal/platform/httpx"
)

// ListQuery filters the sale register.
type ListQuery struct {
	CustomerID     int64
	Status         milk.Status
	From, To       time.Time
	DeletedOnly    bool
	IncludeDeleted bool
	Page, Limit    int
}

type Repository interface {
	Create(ctx context.Context, s Sale) (Sale, error)
	Update(ctx context.Context, s Sale) error
	UpdateReceived(ctx context.Context, id int64, received []milk.ReceivedLine) error
	UpdateCommercials(ctx context.Context, s Sale) error
	Get(ctx context.Context, id int64) (Sale, error)
	List(ctx context.Context, q ListQuery) ([]Sale, int, error)
	MaxSequenceForMonth(ctx context.Context, yearMonth string) (int, error)
	SetStatus(ctx context.Context, id int64, status milk.Status) error
	SetDeleted(ctx context.Context, id int64, deleted bool) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const saleColumns = `id, invoice_no, date, customer_id, customer_name, state, vehicle_no, driver_name,
	status, is_deleted, fixed_cost, fixed_cost_mode, tax_percent, distance_qty, distance_unit_price,
	excluding_distance, toll_charge, discount, tax_deduction, created_at, updated_at`

const lineColumns = `compartment, milk_type_id, kg_qty, ltr, fat, clr, snf,
	temperature, mbrt, acidity, cob, alcohol, adulteration, seal_no, price, amount`

func (r *repository) Create(ctx context.Context, s Sale) (Sale, error) {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO sales (invoice_no, date, customer_id, customer_name, state, vehicle_no, driver_name,
				status, is_deleted, fixed_cost, fixed_cost_mode, tax_percent, distance_qty, distance_unit_price,
				excluding_distance, toll_charge, discount, tax_deduction, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			 RETURNING id`,
			s.InvoiceNo, s.Date, s.CustomerID, s.CustomerName, s.State, s.VehicleNo, s.DriverName,
			s.Status, s.IsDeleted, s.Commercials.FixedCost, s.Commercials.FixedCostMode,
			s.Commercials.TaxPercent, s.Commercials.DistanceQty, s.Commercials.DistanceUnitPrice,
			s.Commercials.ExcludingDistance, s.Commercials.TollCharge, s.Commercials.Discount,
			s.Commercials.TaxDeduction, s.CreatedAt, s.UpdatedAt).
			Scan(&s.ID)
		if err != nil {
			return err
		}
		return insertLines(ctx, tx, s.ID, s.Delivery, s.Received)
	})
	if err != nil {
		return Sale{}, err
	}
	return s, nil
}

func (r *repository) Update(ctx context.Context, s Sale) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE sales SET date = $1, customer_id = $2, customer_name = $3, state = $4, vehicle_no = $5,
				driver_name = $6, fixed_cost = $7, fixed_cost_mode = $8, tax_percent = $9, distance_qty = $10,
				distance_unit_price = $11, excluding_distance = $12, toll_charge = $13, discount = $14,
				tax_deduction = $15, updated_at = $16
			 WHERE id = $17`,
			s.Date, s.CustomerID, s.CustomerName, s.State, s.VehicleNo, s.DriverName,
			s.Commercials.FixedCost, s.Commercials.FixedCostMode, s.Commercials.TaxPercent,
			s.Commercials.DistanceQty, s.Commercials.DistanceUnitPrice, s.Commercials.ExcludingDistance,
			s.Commercials.TollCharge, s.Commercials.Discount, s.Commercials.TaxDeduction,
			time.Now(), s.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sale_lines WHERE sale_id = $1`, s.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, s.ID, s.Delivery, s.Received)
	})
}

// UpdateCommercials writes the charge parameters alone. Rate-mode flips
// go through here so a lab edit cannot race a header rewrite.
func (r *repository) UpdateCommercials(ctx context.Context, s Sale) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sales SET fixed_cost = $1, fixed_cost_mode = $2, tax_percent = $3, distance_qty = $4,
			distance_unit_price = $5, excluding_distance = $6, toll_charge = $7, discount = $8,
			tax_deduction = $9, updated_at = $10
		 WHERE id = $11`,
		s.Commercials.FixedCost, s.Commercials.FixedCostMode, s.Commercials.TaxPercent,
		s.Commercials.DistanceQty, s.Commercials.DistanceUnitPrice, s.Commercials.ExcludingDistance,
		s.Commercials.TollCharge, s.Commercials.Discount, s.Commercials.TaxDeduction,
		time.Now(), s.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateReceived(ctx context.Context, id int64, received []milk.ReceivedLine) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM sale_lines WHERE sale_id = $1 AND line_set = 'RECEIVED'`, id); err != nil {
			return err
		}
		for _, rl := range received {
			if err := insertLine(ctx, tx, id, "RECEIVED", rl); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `UPDATE sales SET updated_at = $1 WHERE id = $2`, time.Now(), id)
		return err
	})
}

func insertLines(ctx context.Context, tx pgx.Tx, id int64, delivery []milk.Line, received []milk.ReceivedLine) error {
	for _, l := range delivery {
		if err := insertLine(ctx, tx, id, "DELIVERY", milk.ReceivedLine{Line: l}); err != nil {
			return err
		}
	}
	for _, rl := range received {
		if err := insertLine(ctx, tx, id, "RECEIVED", rl); err != nil {
			return err
		}
	}
	return nil
}

func insertLine(ctx context.Context, tx pgx.Tx, id int64, set string, rl milk.ReceivedLine) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO sale_lines (sale_id, line_set, `+lineColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		id, set, rl.Compartment, rl.MilkTypeID, rl.KgQty, rl.Ltr, rl.Fat, rl.CLR, rl.SNF,
		rl.Temperature, rl.MBRT, rl.Acidity, rl.COB, rl.Alcohol, rl.Adulteration, rl.SealNo,
		rl.Price, rl.Amount)
	return err
}

func (r *repository) Get(ctx context.Context, id int64) (Sale, error) {
	var s Sale
	err := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id).
		Scan(&s.ID, &s.InvoiceNo, &s.Date, &s.CustomerID, &s.CustomerName, &s.State, &s.VehicleNo,
			&s.DriverName, &s.Status, &s.IsDeleted, &s.Commercials.FixedCost, &s.Commercials.FixedCostMode,
			&s.Commercials.TaxPercent, &s.Commercials.DistanceQty, &s.Commercials.DistanceUnitPrice,
			&s.Commercials.ExcludingDistance, &s.Commercials.TollCharge, &s.Commercials.Discount,
			&s.Commercials.TaxDeduction, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, httpx.ErrNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	if err := r.loadLines(ctx, &s); err != nil {
		return Sale{}, err
	}
	return s, nil
}

func (r *repository) loadLines(ctx context.Context, s *Sale) error {
	rows, err := r.pool.Query(ctx,
		`SELECT line_set, id, `+lineColumns+` FROM sale_lines WHERE sale_id = $1 ORDER BY id`, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var set string
		var rl milk.ReceivedLine
		if err := rows.Scan(&set, &rl.ID, &rl.Compartment, &rl.MilkTypeID, &rl.KgQty, &rl.Ltr,
			&rl.Fat, &rl.CLR, &rl.SNF, &rl.Temperature, &rl.MBRT, &rl.Acidity, &rl.COB,
			&rl.Alcohol, &rl.Adulteration, &rl.SealNo, &rl.Price, &rl.Amount); err != nil {
			return err
		}
		if set == "RECEIVED" {
			s.Received = append(s.Received, rl)
		} else {
			s.Delivery = append(s.Delivery, rl.Line)
		}
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context, q ListQuery) ([]Sale, int, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sales WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	add := func(clause string, value interface{}) {
		argCount++
		query += ` AND ` + clause + ` $` + strconv.Itoa(argCount)
		countQuery += ` AND ` + clause + ` $` + strconv.Itoa(argCount)
		args = append(args, value)
	}

	switch {
	case q.DeletedOnly:
		query += ` AND is_deleted`
		countQuery += ` AND is_deleted`
	case !q.IncludeDeleted:
		query += ` AND NOT is_deleted`
		countQuery += ` AND NOT is_deleted`
	}
	if q.CustomerID > 0 {
		add(`customer_id =`, q.CustomerID)
	}
	if q.Status != "" {
		add(`status =`, q.Status)
	}
	if !q.From.IsZero() {
		add(`date >=`, q.From)
	}
	if !q.To.IsZero() {
		add(`date <=`, q.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY date DESC, id DESC`
	if q.Limit > 0 {
		offset := (q.Page - 1) * q.Limit
		if offset < 0 {
			offset = 0
		}
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, q.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.InvoiceNo, &s.Date, &s.CustomerID, &s.CustomerName, &s.State,
			&s.VehicleNo, &s.DriverName, &s.Status, &s.IsDeleted, &s.Commercials.FixedCost,
			&s.Commercials.FixedCostMode, &s.Commercials.TaxPercent, &s.Commercials.DistanceQty,
			&s.Commercials.DistanceUnitPrice, &s.Commercials.ExcludingDistance, &s.Commercials.TollCharge,
			&s.Commercials.Discount, &s.Commercials.TaxDeduction, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		sales = append(sales, s)
	}
	return sales, total, rows.Err()
}

// Sequences come off the max suffix, not a row count. Purged bin rows
// would shrink a count and reissue a live invoice number.
func (r *repository) MaxSequenceForMonth(ctx context.Context, yearMonth string) (int, error) {
	var seq int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(SPLIT_PART(invoice_no, '-', 3)::int), 0)
		 FROM sales WHERE invoice_no LIKE $1`,
		invoicePrefix+"-"+yearMonth+"-%").Scan(&seq)
	return seq, err
}

func (r *repository) SetStatus(ctx context.Context, id int64, status milk.Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sales SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) SetDeleted(ctx context.Context, id int64, deleted bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sales SET is_deleted = $1, updated_at = $2 WHERE id = $3`, deleted, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeleteOlderThan purges soft-deleted sales past retention.
func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM sale_lines WHERE sale_id IN
				(SELECT id FROM sales WHERE is_deleted AND updated_at < $1)`, cutoff); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM sales WHERE is_deleted AND updated_at < $1`, cutoff)
		if err != nil {
			return err
		}
		purged = tag.RowsAffected()
		return nil
	})
	return purged, err
}
