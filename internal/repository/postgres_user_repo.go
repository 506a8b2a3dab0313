package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hitoshi/accountmart/internal/model"
)

const userColumns = `id, open_id, name, email, login_method, role, created_at, updated_at, last_signed_in`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db          *sqlx.DB
	ownerOpenID string
	now         func() time.Time
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
// ownerOpenIDに一致するユーザーはUPSERT時に常にadminとなる。
func NewPostgresUserRepo(db *sqlx.DB, ownerOpenID string) *PostgresUserRepo {
	return &PostgresUserRepo{db: db, ownerOpenID: ownerOpenID, now: time.Now}
}

// upsertArgs はUPSERTに渡すパラメータを組み立てる。
// オーナーのroleは指定値に関わらずadminに上書きし、last_signed_inは未指定なら現在時刻にする。
func (r *PostgresUserRepo) upsertArgs(in UpsertUserInput) (role *string, lastSignedIn time.Time) {
	if in.Role != nil {
		v := string(*in.Role)
		role = &v
	}
	if r.ownerOpenID != "" && in.OpenID == r.ownerOpenID {
		admin := string(model.RoleAdmin)
		role = &admin
	}
	lastSignedIn = r.now()
	if in.LastSignedIn != nil {
		lastSignedIn = *in.LastSignedIn
	}
	return role, lastSignedIn
}

// Upsert はopenIdをキーにユーザーを作成または部分更新する。
// 未指定（nil）のフィールドは既存の値を維持する。
func (r *PostgresUserRepo) Upsert(ctx context.Context, in UpsertUserInput) (*model.User, error) {
	if in.OpenID == "" {
		return nil, errors.New("user openId is required for upsert")
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, fmt.Errorf("invalid role: %q", *in.Role)
	}
	if r.db == nil {
		warnUnavailable(ctx, "users.upsert")
		return nil, nil
	}

	role, lastSignedIn := r.upsertArgs(in)

	user := &model.User{}
	err := r.db.GetContext(ctx, user,
		`INSERT INTO users (open_id, name, email, login_method, role, last_signed_in)
		 VALUES ($1, $2::text, $3::text, $4::text, COALESCE($5::text, 'user'), $6::timestamptz)
		 ON CONFLICT (open_id) DO UPDATE SET
		   name = COALESCE($2::text, users.name),
		   email = COALESCE($3::text, users.email),
		   login_method = COALESCE($4::text, users.login_method),
		   role = COALESCE($5::text, users.role),
		   last_signed_in = $6::timestamptz,
		   updated_at = now()
		 RETURNING `+userColumns,
		in.OpenID, in.Name, in.Email, in.LoginMethod, role, lastSignedIn,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// FindByOpenID はopenIdでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByOpenID(ctx context.Context, openID string) (*model.User, error) {
	if r.db == nil {
		warnUnavailable(ctx, "users.find_by_open_id")
		return nil, nil
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE open_id = $1`, openID)
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if r.db == nil {
		warnUnavailable(ctx, "users.find_by_id")
		return nil, nil
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.GetContext(ctx, user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
