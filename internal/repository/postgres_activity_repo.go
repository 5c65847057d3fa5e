package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/optimaflow/internal/model"
)

// PostgresActivityRepo はPostgreSQLを使用した活動履歴リポジトリ。
type PostgresActivityRepo struct {
	db *sql.DB
}

// NewPostgresActivityRepo はPostgresActivityRepoを生成する。dbはnilでもよい。
func NewPostgresActivityRepo(db *sql.DB) *PostgresActivityRepo {
	return &PostgresActivityRepo{db: db}
}

// ListByOpportunityID は商談の活動履歴をcreated_at降順で返す。
func (r *PostgresActivityRepo) ListByOpportunityID(ctx context.Context, opportunityID int64) ([]*model.Activity, error) {
	if r.db == nil {
		return []*model.Activity{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, opportunity_id, type, title, notes, result, created_at, updated_at
		 FROM activities
		 WHERE opportunity_id = $1
		 ORDER BY created_at DESC, id DESC`,
		opportunityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []*model.Activity{}
	for rows.Next() {
		a := &model.Activity{}
		var activityType string
		var notes, result sql.NullString
		if err := rows.Scan(&a.ID, &a.OpportunityID, &activityType, &a.Title, &notes, &result, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Type = model.ActivityType(activityType)
		a.Notes = nullStringValue(notes)
		a.Result = nullStringValue(result)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}

// Create は活動履歴を作成し、親商談のlast_activity_dateを同じ時刻に更新する。
func (r *PostgresActivityRepo) Create(ctx context.Context, activity *model.Activity) error {
	if r.db == nil {
		return model.ErrStoreUnavailable
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 親商談をロックし、同時に削除されないようにする
	var oppID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM opportunities WHERE id = $1 FOR UPDATE`,
		activity.OpportunityID,
	).Scan(&oppID)
	if err == sql.ErrNoRows {
		return model.NewOpportunityNotFoundError(activity.OpportunityID)
	}
	if err != nil {
		return fmt.Errorf("failed to lock opportunity: %w", err)
	}

	if err := insertActivity(ctx, tx, activity); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE opportunities SET last_activity_date = $1, updated_at = $1 WHERE id = $2`,
		activity.CreatedAt, activity.OpportunityID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch opportunity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete は活動履歴を削除する。親商談のlast_activity_dateは変更しない。
func (r *PostgresActivityRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if r.db == nil {
		return false, model.ErrStoreUnavailable
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete activity: %w", err)
	}
	return affected(result)
}

// insertActivity はトランザクション内で活動履歴を1件挿入し、IDを設定する。
func insertActivity(ctx context.Context, tx *sql.Tx, a *model.Activity) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO activities (opportunity_id, type, title, notes, result, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		a.OpportunityID, string(a.Type), a.Title, nullString(a.Notes), nullString(a.Result),
		a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

var _ ActivityRepository = (*PostgresActivityRepo)(nil)
