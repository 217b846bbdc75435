package procurement

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

// ListQuery filters the purchase register.
type ListQuery struct {
	VendorID       int64
	Status         milk.Status
	From, To       time.Time
	DeletedOnly    bool
	IncludeDeleted bool
	Page, Limit    int
}

type Repository interface {
	Create(ctx context.Context, p Purchase) (Purchase, error)
	Update(ctx context.Context, p Purchase) error
	UpdateReceived(ctx context.Context, id int64, received []milk.ReceivedLine) error
	Get(ctx context.Context, id int64) (Purchase, error)
	List(ctx context.Context, q ListQuery) ([]Purchase, int, error)
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

const purchaseColumns = `id, invoice_no, date, vendor_id, vendor_name, state, vehicle_no, driver_name,
	status, is_deleted, fixed_cost, distance_charge, include_distance, toll_charge, discount, tax_percent,
	created_at, updated_at`

const lineColumns = `compartment, milk_type_id, kg_qty, ltr, fat, clr, snf,
	temperature, mbrt, acidity, cob, alcohol, adulteration, seal_no, price, amount`

func (r *repository) Create(ctx context.Context, p Purchase) (Purchase, error) {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO purchases (invoice_no, date, vendor_id, vendor_name, state, vehicle_no, driver_name,
				status, is_deleted, fixed_cost, distance_charge, include_distance, toll_charge, discount, tax_percent,
				created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			 RETURNING id`,
			p.InvoiceNo, p.Date, p.VendorID, p.VendorName, p.State, p.VehicleNo, p.DriverName,
			p.Status, p.IsDeleted, p.Commercials.FixedCost, p.Commercials.DistanceCharge,
			p.Commercials.IncludeDistance, p.Commercials.TollCharge, p.Commercials.Discount,
			p.Commercials.TaxPercent, p.CreatedAt, p.UpdatedAt).
			Scan(&p.ID)
		if err != nil {
			return err
		}
		return insertLines(ctx, tx, p.ID, p.Delivery, p.Received)
	})
	if err != nil {
		return Purchase{}, err
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, p Purchase) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE purchases SET date = $1, vendor_id = $2, vendor_name = $3, state = $4, vehicle_no = $5,
				driver_name = $6, fixed_cost = $7, distance_charge = $8, include_distance = $9,
				toll_charge = $10, discount = $11, tax_percent = $12, updated_at = $13
			 WHERE id = $14`,
			p.Date, p.VendorID, p.VendorName, p.State, p.VehicleNo, p.DriverName,
			p.Commercials.FixedCost, p.Commercials.DistanceCharge, p.Commercials.IncludeDistance,
			p.Commercials.TollCharge, p.Commercials.Discount, p.Commercials.TaxPercent,
			time.Now(), p.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM purchase_lines WHERE purchase_id = $1`, p.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, p.ID, p.Delivery, p.Received)
	})
}

func (r *repository) UpdateReceived(ctx context.Context, id int64, received []milk.ReceivedLine) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM purchase_lines WHERE purchase_id = $1 AND line_set = 'RECEIVED'`, id); err != nil {
			return err
		}
		for _, rl := range received {
			if err := insertLine(ctx, tx, id, "RECEIVED", rl); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `UPDATE purchases SET updated_at = $1 WHERE id = $2`, time.Now(), id)
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
		`INSERT INTO purchase_lines (purchase_id, line_set, `+lineColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		id, set, rl.Compartment, rl.MilkTypeID, rl.KgQty, rl.Ltr, rl.Fat, rl.CLR, rl.SNF,
		rl.Temperature, rl.MBRT, rl.Acidity, rl.COB, rl.Alcohol, rl.Adulteration, rl.SealNo,
		rl.Price, rl.Amount)
	return err
}

func (r *repository) Get(ctx context.Context, id int64) (Purchase, error) {
	var p Purchase
	err := r.pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id).
		Scan(&p.ID, &p.InvoiceNo, &p.Date, &p.VendorID, &p.VendorName, &p.State, &p.VehicleNo,
			&p.DriverName, &p.Status, &p.IsDeleted, &p.Commercials.FixedCost,
			&p.Commercials.DistanceCharge, &p.Commercials.IncludeDistance, &p.Commercials.TollCharge,
			&p.Commercials.Discount, &p.Commercials.TaxPercent, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Purchase{}, httpx.ErrNotFound
	}
	if err != nil {
		return Purchase{}, err
	}
	if err := r.loadLines(ctx, &p); err != nil {
		return Purchase{}, err
	}
	return p, nil
}

func (r *repository) loadLines(ctx context.Context, p *Purchase) error {
	rows, err := r.pool.Query(ctx,
		`SELECT line_set, id, `+lineColumns+` FROM purchase_lines WHERE purchase_id = $1 ORDER BY id`, p.ID)
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
			p.Received = append(p.Received, rl)
		} else {
			p.Delivery = append(p.Delivery, rl.Line)
		}
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context, q ListQuery) ([]Purchase, int, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM purchases WHERE 1=1`
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
	if q.VendorID > 0 {
		add(`vendor_id =`, q.VendorID)
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

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.InvoiceNo, &p.Date, &p.VendorID, &p.VendorName, &p.State,
			&p.VehicleNo, &p.DriverName, &p.Status, &p.IsDeleted, &p.Commercials.FixedCost,
			&p.Commercials.DistanceCharge, &p.Commercials.IncludeDistance, &p.Commercials.TollCharge,
			&p.Commercials.Discount, &p.Commercials.TaxPercent, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		purchases = append(purchases, p)
	}
	return purchases, total, rows.Err()
}

// MaxSequenceForMonth returns the highest invoice sequence issued in a
// YYMM bucket. The recycle purge hard-deletes rows, so a row count can
// shrink and hand out a number a live invoice already carries; the max
// suffix only ever moves forward.
func (r *repository) MaxSequenceForMonth(ctx context.Context, yearMonth string) (int, error) {
	var seq int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(SPLIT_PART(invoice_no, '-', 3)::int), 0)
		 FROM purchases WHERE invoice_no LIKE $1`,
		invoicePrefix+"-"+yearMonth+"-%").Scan(&seq)
	return seq, err
}

func (r *repository) SetStatus(ctx context.Context, id int64, status milk.Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE purchases SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
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
		`UPDATE purchases SET is_deleted = $1, updated_at = $2 WHERE id = $3`, deleted, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeleteOlderThan purges soft-deleted purchases past retention.
func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM purchase_lines WHERE purchase_id IN
				(SELECT id FROM purchases WHERE is_deleted AND updated_at < $1)`, cutoff); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM purchases WHERE is_deleted AND updated_at < $1`, cutoff)
		if err != nil {
			return err
		}
		purged = tag.RowsAffected()
		return nil
	})
	return purged, err
}
