// Package repository はデータ永続化のインターフェースを定義する。
//
// すべてのPostgres実装は*sql.DBがnilでも生成できる。nilの場合（DATABASE_URL未設定）、
// 読み取り系メソッドは空の結果を返し、書き込み系メソッドはmodel.ErrStoreUnavailableを返す。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/optimaflow/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Upsert はopen_idをキーにユーザーを作成または更新し、更新後の値を返す。
	// 空文字のフィールドは既存値を維持する。last_signed_inは常に更新する。
	Upsert(ctx context.Context, signIn model.SignIn) (*model.User, error)

	// FindByOpenID はopen_idでユーザーを検索する。見つからない場合はnilを返す。
	FindByOpenID(ctx context.Context, openID string) (*model.User, error)
}

// OpportunityRepository は商談データの永続化インターフェース。
type OpportunityRepository interface {
	// ListByUserID はユーザーの商談をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Opportunity, error)

	// FindByID は指定IDの商談を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Opportunity, error)

	// FindByCompanyName は会社名の完全一致（大文字小文字を区別）で商談を1件検索する。
	// 見つからない場合はnilを返す。
	FindByCompanyName(ctx context.Context, companyName string) (*model.Opportunity, error)

	// Create は商談を作成し、採番されたIDをopp.IDに設定する。
	Create(ctx context.Context, opp *model.Opportunity) error

	// CreateWithActivity は商談と初期活動履歴を同一トランザクションで作成する。
	// activityがnilの場合は商談のみ作成する。
	CreateWithActivity(ctx context.Context, opp *model.Opportunity, activity *model.Activity) error

	// UpdateStatus は商談のステータスを更新する。対象が存在しない場合はfalseを返す。
	UpdateStatus(ctx context.Context, id int64, status model.OpportunityStatus, at time.Time) (bool, error)

	// Delete は商談と紐づく活動履歴を同一トランザクションで削除する。
	// 対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)

	// StatusAggregates はユーザーの商談をステータスごとに集計する。
	StatusAggregates(ctx context.Context, userID int64) ([]model.StatusAggregate, error)
}

// ActivityRepository は活動履歴の永続化インターフェース。
type ActivityRepository interface {
	// ListByOpportunityID は商談の活動履歴をcreated_at降順で返す。
	ListByOpportunityID(ctx context.Context, opportunityID int64) ([]*model.Activity, error)

	// Create は活動履歴を作成し、親商談のlast_activity_dateをactivity.CreatedAtに更新する。
	// 両方を同一トランザクションで実行する。親商談が存在しない場合はNotFoundエラーを返す。
	Create(ctx context.Context, activity *model.Activity) error

	// Delete は活動履歴を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}

// DealershipRepository は販売店データの永続化インターフェース。
type DealershipRepository interface {
	// Available は書き込み可能なストアが設定されているかを返す。
	Available() bool

	// List は販売店を名前順で返す。
	List(ctx context.Context) ([]*model.Dealership, error)

	// FindByID は指定IDの販売店を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Dealership, error)

	// FindByOSMID はosm_idで販売店を検索する。見つからない場合はnilを返す。
	FindByOSMID(ctx context.Context, osmID int64) (*model.Dealership, error)

	// Create は販売店を作成し、採番されたIDをd.IDに設定する。
	Create(ctx context.Context, d *model.Dealership) error

	// CreateFromExternal はosm_id付きの販売店を冪等に作成する。
	// 同じosm_idの行が既に存在する場合は既存行のIDとcreated=falseを返す。
	CreateFromExternal(ctx context.Context, d *model.Dealership) (id int64, created bool, err error)

	// Update は販売店を部分更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, id int64, patch model.DealershipPatch, at time.Time) (bool, error)

	// Delete は販売店を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}

// ExternalDealershipRepository は外部カタログ（OpenStreetMap由来）の読み取りインターフェース。
type ExternalDealershipRepository interface {
	// List は名前・都市・国への大文字小文字を区別しない部分一致で検索する。
	// queryが空の場合は全件を対象とする。名前順、offset/limitによるページネーション。
	List(ctx context.Context, limit, offset int, query string) ([]*model.ExternalDealership, error)

	// FindByID は指定IDのレコードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.ExternalDealership, error)

	// Count はカタログの総件数を返す。
	Count(ctx context.Context) (int, error)
}
