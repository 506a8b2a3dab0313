package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/hitoshi/accountmart/internal/model"
)

const accountColumns = `id, type, name, username, followers, age_months, price, description,
	quality_score, engagement_rate, seller_id, status, created_at, updated_at`

// PostgresAccountRepo はPostgreSQLを使用した出品リポジトリ。
type PostgresAccountRepo struct {
	db *sqlx.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sqlx.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// buildActiveQuery はフィルタ条件からSELECT文と引数を組み立てる。
// 指定された条件のみをANDで連結する。0の境界値も有効な条件として扱う。
func buildActiveQuery(f AccountFilter) (string, []any) {
	conds := []string{`status = 'active'`}
	var args []any
	add := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if f.Type != nil {
		add("type = $%d", string(*f.Type))
	}
	if f.MinFollowers != nil {
		add("followers >= $%d", *f.MinFollowers)
	}
	if f.MaxFollowers != nil {
		add("followers <= $%d", *f.MaxFollowers)
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}
	if f.Query != nil {
		if q := strings.TrimSpace(*f.Query); q != "" {
			add("(name ILIKE $%d OR username ILIKE $%[1]d)", "%"+escapeLike(q)+"%")
		}
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` +
		strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ListActive は出品中の出品をフィルタ条件で絞り込んで返す。
func (r *PostgresAccountRepo) ListActive(ctx context.Context, f AccountFilter) ([]model.Account, error) {
	if r.db == nil {
		warnUnavailable(ctx, "accounts.list_active")
		return []model.Account{}, nil
	}

	query, args := buildActiveQuery(f)
	accounts := []model.Account{}
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list active accounts: %w", err)
	}
	return accounts, nil
}

// Available はデータベースが設定されているかを返す。
func (r *PostgresAccountRepo) Available() bool {
	return r.db != nil
}

// FindByID は状態に関わらず指定IDの出品を返す。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	if r.db == nil {
		warnUnavailable(ctx, "accounts.find_by_id")
		return nil, nil
	}

	a := &model.Account{}
	err := r.db.GetContext(ctx, a, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return a, nil
}

// ListBySeller は出品者の全出品を状態に関わらず返す。
func (r *PostgresAccountRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Account, error) {
	if r.db == nil {
		warnUnavailable(ctx, "accounts.list_by_seller")
		return []model.Account{}, nil
	}

	accounts := []model.Account{}
	err := r.db.SelectContext(ctx, &accounts,
		`SELECT `+accountColumns+` FROM accounts WHERE seller_id = $1 ORDER BY created_at DESC, id DESC`,
		sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts by seller: %w", err)
	}
	return accounts, nil
}

// Create は出品を作成する。statusが空の場合はactiveとして登録する。
func (r *PostgresAccountRepo) Create(ctx context.Context, a *model.Account) error {
	if r.db == nil {
		return ErrStoreUnavailable
	}
	if a.Status == "" {
		a.Status = model.AccountStatusActive
	}

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO accounts (type, name, username, followers, age_months, price, description,
		                       quality_score, engagement_rate, seller_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8::integer, 0), $9, $10, $11)
		 RETURNING `+accountColumns,
		string(a.Type), a.Name, a.Username, a.Followers, a.AgeMonths, a.Price, a.Description,
		a.QualityScore, a.EngagementRate, a.SellerID, string(a.Status),
	).StructScan(a)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// UpdateOwned は出品者本人の出品に限り部分更新する。
// 所有者の確認と更新は単一のUPDATE文で行う。
func (r *PostgresAccountRepo) UpdateOwned(ctx context.Context, id, sellerID int64, p AccountPatch) (*model.Account, error) {
	if r.db == nil {
		return nil, ErrStoreUnavailable
	}

	if p.Empty() {
		a := &model.Account{}
		err := r.db.GetContext(ctx, a,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND seller_id = $2`,
			id, sellerID,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotOwned
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find owned account: %w", err)
		}
		return a, nil
	}

	sets := []string{"updated_at = now()"}
	args := []any{id, sellerID}
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Price != nil {
		set("price", *p.Price)
	}
	if p.EngagementRate != nil {
		set("engagement_rate", *p.EngagementRate)
	}

	return r.updateOwned(ctx, strings.Join(sets, ", "), args)
}

// UpdateStatusOwned は出品者本人の出品に限り状態を変更する。
func (r *PostgresAccountRepo) UpdateStatusOwned(ctx context.Context, id, sellerID int64, status model.AccountStatus) (*model.Account, error) {
	if r.db == nil {
		return nil, ErrStoreUnavailable
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid account status: %q", status)
	}
	return r.updateOwned(ctx, "status = $3, updated_at = now()", []any{id, sellerID, string(status)})
}

func (r *PostgresAccountRepo) updateOwned(ctx context.Context, sets string, args []any) (*model.Account, error) {
	a := &model.Account{}
	err := r.db.GetContext(ctx, a,
		`UPDATE accounts SET `+sets+` WHERE id = $1 AND seller_id = $2 RETURNING `+accountColumns,
		args...,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotOwned
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return a, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
