package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/optimaflow/internal/model"
)

const externalDealershipColumns = `id, name, brand, country, city, address, postal_code, phone, website,
	latitude, longitude, osm_id, created_at`

// PostgresExternalDealershipRepo は外部カタログの読み取り専用リポジトリ。
// カタログへの書き込みはこのサービスの外（OSM取得ジョブ）で行われる。
type PostgresExternalDealershipRepo struct {
	db *sql.DB
}

// NewPostgresExternalDealershipRepo はPostgresExternalDealershipRepoを生成する。dbはnilでもよい。
func NewPostgresExternalDealershipRepo(db *sql.DB) *PostgresExternalDealershipRepo {
	return &PostgresExternalDealershipRepo{db: db}
}

// List は名前・都市・国への部分一致でカタログを検索する。
func (r *PostgresExternalDealershipRepo) List(ctx context.Context, limit, offset int, query string) ([]*model.ExternalDealership, error) {
	if r.db == nil {
		return []*model.ExternalDealership{}, nil
	}

	var rows *sql.Rows
	var err error
	if query == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+externalDealershipColumns+` FROM external_dealerships
			 ORDER BY name, id
			 LIMIT $1 OFFSET $2`,
			limit, offset,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+externalDealershipColumns+` FROM external_dealerships
			 WHERE name ILIKE $1 OR city ILIKE $1 OR country ILIKE $1
			 ORDER BY name, id
			 LIMIT $2 OFFSET $3`,
			likePattern(query), limit, offset,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list external dealerships: %w", err)
	}
	defer rows.Close()

	result := []*model.ExternalDealership{}
	for rows.Next() {
		d, err := scanExternalDealership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan external dealership: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate external dealerships: %w", err)
	}

	return result, nil
}

// FindByID は指定IDのレコードを取得する。見つからない場合はnilを返す。
func (r *PostgresExternalDealershipRepo) FindByID(ctx context.Context, id int64) (*model.ExternalDealership, error) {
	if r.db == nil {
		return nil, nil
	}

	d, err := scanExternalDealership(r.db.QueryRowContext(ctx,
		`SELECT `+externalDealershipColumns+` FROM external_dealerships WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find external dealership by ID: %w", err)
	}
	return d, nil
}

// Count はカタログの総件数を返す。
func (r *PostgresExternalDealershipRepo) Count(ctx context.Context) (int, error) {
	if r.db == nil {
		return 0, nil
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM external_dealerships`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count external dealerships: %w", err)
	}
	return count, nil
}

func scanExternalDealership(row rowScanner) (*model.ExternalDealership, error) {
	d := &model.ExternalDealership{}
	var brand, country, city, address, postalCode, phone, website sql.NullString
	var latitude, longitude sql.NullFloat64
	var osmID sql.NullInt64

	err := row.Scan(
		&d.ID, &d.Name, &brand, &country, &city, &address, &postalCode, &phone, &website,
		&latitude, &longitude, &osmID, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Brand = nullStringValue(brand)
	d.Country = nullStringValue(country)
	d.City = nullStringValue(city)
	d.Address = nullStringValue(address)
	d.PostalCode = nullStringValue(postalCode)
	d.Phone = nullStringValue(phone)
	d.Website = nullStringValue(website)
	d.Latitude = nullFloat64Ptr(latitude)
	d.Longitude = nullFloat64Ptr(longitude)
	d.OSMID = nullInt64Ptr(osmID)
	return d, nil
}

var _ ExternalDealershipRepository = (*PostgresExternalDealershipRepo)(nil)
