package transporters

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/milkline/milkline/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Transporter, int, error)
	Get(ctx context.Context, id int64) (Transporter, error)
	Create(ctx context.Context, t Transporter) (Transporter, error)
	Update(ctx context.Context, id int64, t Transporter) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const transporterColumns = `id, code, name, phone, address, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Transporter, int, error) {
	query := `SELECT ` + transporterColumns + ` FROM transporters WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM transporters WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		countQuery += ` AND (name ILIKE $1 OR code ILIKE $1)`
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		query += ` AND is_active = $` + strconv.Itoa(argCount)
		countQuery += ` AND is_active = $` + strconv.Itoa(len(countArgs)+1)
		args = append(args, *filters.IsActive)
		countArgs = append(countArgs, *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + shared.SortOrder(filters.SortBy, filters.SortDir, "name", "code", "name")

	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transporters []Transporter
	for rows.Next() {
		var t Transporter
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Phone, &t.Address, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		transporters = append(transporters, t)
	}
	return transporters, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Transporter, error) {
	var t Transporter
	err := r.db.QueryRow(ctx, `SELECT `+transporterColumns+` FROM transporters WHERE id = $1`, id).
		Scan(&t.ID, &t.Code, &t.Name, &t.Phone, &t.Address, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transporter{}, shared.ErrNotFound
	}
	return t, err
}

func (r *repository) Create(ctx context.Context, t Transporter) (Transporter, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx,
		`INSERT INTO transporters (code, name, phone, address, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		t.Code, t.Name, t.Phone, t.Address, t.IsActive, now, now).
		Scan(&t.ID)
	if err != nil {
		return Transporter{}, err
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return t, nil
}

func (r *repository) Update(ctx context.Context, id int64, t Transporter) error {
	_, err := r.db.Exec(ctx,
		`UPDATE transporters SET code = $1, name = $2, phone = $3, address = $4, is_active = $5, updated_at = $6 WHERE id = $7`,
		t.Code, t.Name, t.Phone, t.Address, t.IsActive, time.Now(), id)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM transporters WHERE id = $1`, id)
	return err
}
