package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/optimaflow/internal/model"
)

const userColumns = `id, open_id, name, email, login_method, role, created_at, updated_at, last_signed_in`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。dbはnilでもよい。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Upsert はopen_idをキーにユーザーを作成または更新する。
// 空文字のフィールドは既存値を上書きしない。
func (r *PostgresUserRepo) Upsert(ctx context.Context, signIn model.SignIn) (*model.User, error) {
	if r.db == nil {
		return nil, model.ErrStoreUnavailable
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (open_id, name, email, login_method, role, created_at, updated_at, last_signed_in)
		 VALUES ($1, $2, $3, $4, COALESCE($5, 'user'), $6, $6, $6)
		 ON CONFLICT (open_id) DO UPDATE SET
		   name           = COALESCE(EXCLUDED.name, users.name),
		   email          = COALESCE(EXCLUDED.email, users.email),
		   login_method   = COALESCE(EXCLUDED.login_method, users.login_method),
		   role           = COALESCE($5, users.role),
		   updated_at     = EXCLUDED.updated_at,
		   last_signed_in = EXCLUDED.last_signed_in
		 RETURNING `+userColumns,
		signIn.OpenID, nullString(signIn.Name), nullString(signIn.Email), nullString(signIn.LoginMethod),
		nullString(string(signIn.Role)), signIn.At,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// FindByOpenID はopen_idでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByOpenID(ctx context.Context, openID string) (*model.User, error) {
	if r.db == nil {
		return nil, nil
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE open_id = $1`,
		openID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by open ID: %w", err)
	}
	return user, nil
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var name, email, loginMethod sql.NullString
	var role string

	err := row.Scan(&u.ID, &u.OpenID, &name, &email, &loginMethod, &role, &u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn)
	if err != nil {
		return nil, err
	}

	u.Name = nullStringValue(name)
	u.Email = nullStringValue(email)
	u.LoginMethod = nullStringValue(loginMethod)
	u.Role = model.Role(role)
	return u, nil
}

var _ UserRepository = (*PostgresUserRepo)(nil)
