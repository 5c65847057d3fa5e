package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/optimaflow/internal/model"
)

const dealershipColumns = `id, name, address, city, country, phone, website, latitude, longitude,
	status, notes, osm_id, created_at, updated_at`

// PostgresDealershipRepo はPostgreSQLを使用した販売店リポジトリ。
type PostgresDealershipRepo struct {
	db *sql.DB
}

// NewPostgresDealershipRepo はPostgresDealershipRepoを生成する。dbはnilでもよい。
func NewPostgresDealershipRepo(db *sql.DB) *PostgresDealershipRepo {
	return &PostgresDealershipRepo{db: db}
}

// Available はDBハンドルが設定されているかを返す。
func (r *PostgresDealershipRepo) Available() bool {
	return r.db != nil
}

// List は販売店を名前順で返す。
func (r *PostgresDealershipRepo) List(ctx context.Context) ([]*model.Dealership, error) {
	if r.db == nil {
		return []*model.Dealership{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dealershipColumns+` FROM dealerships ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dealerships: %w", err)
	}
	defer rows.Close()

	dealerships := []*model.Dealership{}
	for rows.Next() {
		d, err := scanDealership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dealership: %w", err)
		}
		dealerships = append(dealerships, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dealerships: %w", err)
	}

	return dealerships, nil
}

// FindByID は指定IDの販売店を取得する。見つからない場合はnilを返す。
func (r *PostgresDealershipRepo) FindByID(ctx context.Context, id int64) (*model.Dealership, error) {
	return r.findOne(ctx, `SELECT `+dealershipColumns+` FROM dealerships WHERE id = $1`, id)
}

// FindByOSMID はosm_idで販売店を検索する。見つからない場合はnilを返す。
func (r *PostgresDealershipRepo) FindByOSMID(ctx context.Context, osmID int64) (*model.Dealership, error) {
	return r.findOne(ctx, `SELECT `+dealershipColumns+` FROM dealerships WHERE osm_id = $1`, osmID)
}

func (r *PostgresDealershipRepo) findOne(ctx context.Context, query string, arg int64) (*model.Dealership, error) {
	if r.db == nil {
		return nil, nil
	}

	d, err := scanDealership(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dealership: %w", err)
	}
	return d, nil
}

// Create は販売店を作成し、採番されたIDをd.IDに設定する。
func (r *PostgresDealershipRepo) Create(ctx context.Context, d *model.Dealership) error {
	if r.db == nil {
		return model.ErrStoreUnavailable
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO dealerships
		 (name, address, city, country, phone, website, latitude, longitude, status, notes, osm_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		dealershipInsertArgs(d)...,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to insert dealership: %w", err)
	}
	return nil
}

// CreateFromExternal はosm_idの一意制約を使って冪等に作成する。
// 競合した場合は挿入せず、既存行のIDを返す。
func (r *PostgresDealershipRepo) CreateFromExternal(ctx context.Context, d *model.Dealership) (int64, bool, error) {
	if r.db == nil {
		return 0, false, model.ErrStoreUnavailable
	}
	if d.OSMID == nil {
		return 0, false, fmt.Errorf("osm_id is required for external import")
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO dealerships
		 (name, address, city, country, phone, website, latitude, longitude, status, notes, osm_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (osm_id) DO NOTHING
		 RETURNING id`,
		dealershipInsertArgs(d)...,
	).Scan(&d.ID)
	if err == nil {
		return d.ID, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("failed to insert dealership from external: %w", err)
	}

	// 既に取り込み済み
	var existingID int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM dealerships WHERE osm_id = $1`,
		*d.OSMID,
	).Scan(&existingID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to find imported dealership: %w", err)
	}
	return existingID, false, nil
}

// Update はpatchで指定されたカラムのみを更新する。
func (r *PostgresDealershipRepo) Update(ctx context.Context, id int64, patch model.DealershipPatch, at time.Time) (bool, error) {
	if r.db == nil {
		return false, model.ErrStoreUnavailable
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Address != nil {
		set("address", nullString(*patch.Address))
	}
	if patch.City != nil {
		set("city", nullString(*patch.City))
	}
	if patch.Country != nil {
		set("country", nullString(*patch.Country))
	}
	if patch.Phone != nil {
		set("phone", nullString(*patch.Phone))
	}
	if patch.Website != nil {
		set("website", nullString(*patch.Website))
	}
	if patch.Latitude != nil {
		set("latitude", nullString(*patch.Latitude))
	}
	if patch.Longitude != nil {
		set("longitude", nullString(*patch.Longitude))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Notes != nil {
		set("notes", nullString(*patch.Notes))
	}
	set("updated_at", at)

	args = append(args, id)
	query := fmt.Sprintf("UPDATE dealerships SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update dealership: %w", err)
	}
	return affected(result)
}

// Delete は販売店を削除する。
func (r *PostgresDealershipRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if r.db == nil {
		return false, model.ErrStoreUnavailable
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM dealerships WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete dealership: %w", err)
	}
	return affected(result)
}

func dealershipInsertArgs(d *model.Dealership) []any {
	return []any{
		d.Name, nullString(d.Address), nullString(d.City), nullString(d.Country),
		nullString(d.Phone), nullString(d.Website), nullString(d.Latitude), nullString(d.Longitude),
		string(d.Status), nullString(d.Notes), nullInt64(d.OSMID), d.CreatedAt, d.UpdatedAt,
	}
}

func scanDealership(row rowScanner) (*model.Dealership, error) {
	d := &model.Dealership{}
	var address, city, country, phone, website, latitude, longitude, notes sql.NullString
	var status string
	var osmID sql.NullInt64

	err := row.Scan(
		&d.ID, &d.Name, &address, &city, &country, &phone, &website, &latitude, &longitude,
		&status, &notes, &osmID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Address = nullStringValue(address)
	d.City = nullStringValue(city)
	d.Country = nullStringValue(country)
	d.Phone = nullStringValue(phone)
	d.Website = nullStringValue(website)
	d.Latitude = nullStringValue(latitude)
	d.Longitude = nullStringValue(longitude)
	d.Status = model.DealershipStatus(status)
	d.Notes = nullStringValue(notes)
	d.OSMID = nullInt64Ptr(osmID)
	return d, nil
}

var _ DealershipRepository = (*PostgresDealershipRepo)(nil)
