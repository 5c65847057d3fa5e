package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/optimaflow/internal/model"
)

const opportunityColumns = `id, user_id, company_name, country, company_type, status, opportunity_score,
	strategy_id, contact_date, last_activity_date, created_at, updated_at`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresOpportunityRepo はPostgreSQLを使用した商談リポジトリ。
type PostgresOpportunityRepo struct {
	db *sql.DB
}

// NewPostgresOpportunityRepo はPostgresOpportunityRepoを生成する。dbはnilでもよい。
func NewPostgresOpportunityRepo(db *sql.DB) *PostgresOpportunityRepo {
	return &PostgresOpportunityRepo{db: db}
}

// ListByUserID はユーザーの商談をcreated_at降順で返す。
func (r *PostgresOpportunityRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Opportunity, error) {
	if r.db == nil {
		return []*model.Opportunity{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	opps := []*model.Opportunity{}
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate opportunities: %w", err)
	}

	return opps, nil
}

// FindByID は指定IDの商談を取得する。見つからない場合はnilを返す。
func (r *PostgresOpportunityRepo) FindByID(ctx context.Context, id int64) (*model.Opportunity, error) {
	if r.db == nil {
		return nil, nil
	}

	opp, err := scanOpportunity(r.db.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find opportunity by ID: %w", err)
	}
	return opp, nil
}

// FindByCompanyName は会社名の完全一致で商談を1件検索する。見つからない場合はnilを返す。
func (r *PostgresOpportunityRepo) FindByCompanyName(ctx context.Context, companyName string) (*model.Opportunity, error) {
	if r.db == nil {
		return nil, nil
	}

	opp, err := scanOpportunity(r.db.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities
		 WHERE company_name = $1
		 ORDER BY id
		 LIMIT 1`,
		companyName,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find opportunity by company name: %w", err)
	}
	return opp, nil
}

// Create は商談を作成し、採番されたIDをopp.IDに設定する。
func (r *PostgresOpportunityRepo) Create(ctx context.Context, opp *model.Opportunity) error {
	return r.CreateWithActivity(ctx, opp, nil)
}

// CreateWithActivity は商談と初期活動履歴を同一トランザクションで作成する。
func (r *PostgresOpportunityRepo) CreateWithActivity(ctx context.Context, opp *model.Opportunity, activity *model.Activity) error {
	if r.db == nil {
		return model.ErrStoreUnavailable
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO opportunities
		 (user_id, company_name, country, company_type, status, opportunity_score,
		  strategy_id, contact_date, last_activity_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		opp.UserID, opp.CompanyName, opp.Country, opp.CompanyType, string(opp.Status), opp.OpportunityScore,
		nullString(opp.StrategyID), nullTime(opp.ContactDate), nullTime(opp.LastActivityDate),
		opp.CreatedAt, opp.UpdatedAt,
	).Scan(&opp.ID)
	if err != nil {
		return fmt.Errorf("failed to insert opportunity: %w", err)
	}

	if activity != nil {
		activity.OpportunityID = opp.ID
		if err := insertActivity(ctx, tx, activity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus は商談のステータスを更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresOpportunityRepo) UpdateStatus(ctx context.Context, id int64, status model.OpportunityStatus, at time.Time) (bool, error) {
	if r.db == nil {
		return false, model.ErrStoreUnavailable
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE opportunities SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), at, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update opportunity status: %w", err)
	}
	return affected(result)
}

// Delete は活動履歴を削除してから商談を削除する。
func (r *PostgresOpportunityRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if r.db == nil {
		return false, model.ErrStoreUnavailable
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE opportunity_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete activities: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete opportunity: %w", err)
	}
	found, err := affected(result)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return found, nil
}

// StatusAggregates はユーザーの商談をステータスごとに件数とスコア合計で集計する。
// 商談が存在しないステータスは結果に含まれない。
func (r *PostgresOpportunityRepo) StatusAggregates(ctx context.Context, userID int64) ([]model.StatusAggregate, error) {
	if r.db == nil {
		return []model.StatusAggregate{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, count(*), COALESCE(sum(opportunity_score), 0)
		 FROM opportunities
		 WHERE user_id = $1
		 GROUP BY status`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate opportunities: %w", err)
	}
	defer rows.Close()

	aggs := []model.StatusAggregate{}
	for rows.Next() {
		var agg model.StatusAggregate
		var status string
		if err := rows.Scan(&status, &agg.Count, &agg.ScoreSum); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		agg.Status = model.OpportunityStatus(status)
		aggs = append(aggs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aggregates: %w", err)
	}

	return aggs, nil
}

func scanOpportunity(row rowScanner) (*model.Opportunity, error) {
	opp := &model.Opportunity{}
	var status string
	var strategyID sql.NullString
	var contactDate, lastActivityDate sql.NullTime

	err := row.Scan(
		&opp.ID, &opp.UserID, &opp.CompanyName, &opp.Country, &opp.CompanyType, &status,
		&opp.OpportunityScore, &strategyID, &contactDate, &lastActivityDate,
		&opp.CreatedAt, &opp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	opp.Status = model.OpportunityStatus(status)
	opp.StrategyID = nullStringValue(strategyID)
	opp.ContactDate = nullTimePtr(contactDate)
	opp.LastActivityDate = nullTimePtr(lastActivityDate)
	return opp, nil
}

// affected はUPDATE/DELETEで1行以上が対象になったかを返す。
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

var _ OpportunityRepository = (*PostgresOpportunityRepo)(nil)
