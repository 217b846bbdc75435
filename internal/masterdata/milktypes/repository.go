package milktypes

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
	List(ctx context.Context, filters shared.ListFilters) ([]MilkType, int, error)
	Get(ctx context.Context, id int64) (MilkType, error)
	Create(ctx context.Context, mt MilkType) (MilkType, error)
	Update(ctx context.Context, id int64, mt MilkType) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const milkTypeColumns = `id, code, name, description, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]MilkType, int, error) {
	query := `SELECT ` + milkTypeColumns + ` FROM milk_types WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM milk_types WHERE 1=1`
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

	query += " ORDER BY " + shared.SortOrder(filters.SortBy, filters.SortDir, "code", "code", "name")

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

	var types []MilkType
	for rows.Next() {
		var mt MilkType
		if err := rows.Scan(&mt.ID, &mt.Code, &mt.Name, &mt.Description, &mt.IsActive, &mt.CreatedAt, &mt.UpdatedAt); err != nil {
			return nil, 0, err
		}
		types = append(types, mt)
	}
	return types, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (MilkType, error) {
	var mt MilkType
	err := r.db.QueryRow(ctx, `SELECT `+milkTypeColumns+` FROM milk_types WHERE id = $1`, id).
		Scan(&mt.ID, &mt.Code, &mt.Name, &mt.Description, &mt.IsActive, &mt.CreatedAt, &mt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return MilkType{}, shared.ErrNotFound
	}
	return mt, err
}

func (r *repository) Create(ctx context.Context, mt MilkType) (MilkType, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx,
		`INSERT INTO milk_types (code, name, description, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		mt.Code, mt.Name, mt.Description, mt.IsActive, now, now).
		Scan(&mt.ID)
	if err != nil {
		return MilkType{}, err
	}
	mt.CreatedAt = now
	mt.UpdatedAt = now
	return mt, nil
}

func (r *repository) Update(ctx context.Context, id int64, mt MilkType) error {
	_, err := r.db.Exec(ctx,
		`UPDATE milk_types SET code = $1, name = $2, description = $3, is_active = $4, updated_at = $5 WHERE id = $6`,
		mt.Code, mt.Name, mt.Description, mt.IsActive, time.Now(), id)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM milk_types WHERE id = $1`, id)
	return err
}
