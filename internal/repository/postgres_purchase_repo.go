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

const purchaseColumns = `id, account_id, buyer_id, seller_id, price, status, purchased_at, completed_at`

// PostgresPurchaseRepo はPostgreSQLを使用した購入取引リポジトリ。
type PostgresPurchaseRepo struct {
	db *sqlx.DB
}

// NewPostgresPurchaseRepo はPostgresPurchaseRepoを生成する。
func NewPostgresPurchaseRepo(db *sqlx.DB) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{db: db}
}

// ListByBuyer は購入者としての取引一覧を新しい順に返す。
func (r *PostgresPurchaseRepo) ListByBuyer(ctx context.Context, buyerID int64) ([]model.Purchase, error) {
	return r.list(ctx, "purchases.list_by_buyer", "buyer_id", buyerID)
}

// ListBySeller は出品者としての取引一覧を新しい順に返す。
func (r *PostgresPurchaseRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Purchase, error) {
	return r.list(ctx, "purchases.list_by_seller", "seller_id", sellerID)
}

func (r *PostgresPurchaseRepo) list(ctx context.Context, op, column string, userID int64) ([]model.Purchase, error) {
	if r.db == nil {
		warnUnavailable(ctx, op)
		return []model.Purchase{}, nil
	}

	purchases := []model.Purchase{}
	err := r.db.SelectContext(ctx, &purchases,
		`SELECT `+purchaseColumns+` FROM purchases WHERE `+column+` = $1 ORDER BY purchased_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases by %s: %w", column, err)
	}
	return purchases, nil
}

// FindByID は指定IDの取引を返す。見つからない場合はnilを返す。
func (r *PostgresPurchaseRepo) FindByID(ctx context.Context, id int64) (*model.Purchase, error) {
	if r.db == nil {
		warnUnavailable(ctx, "purchases.find_by_id")
		return nil, nil
	}

	p := &model.Purchase{}
	err := r.db.GetContext(ctx, p, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find purchase: %w", err)
	}
	return p, nil
}

// Create は取引を作成する。statusは常にpendingで登録する。
func (r *PostgresPurchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	if r.db == nil {
		return ErrStoreUnavailable
	}

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO purchases (account_id, buyer_id, seller_id, price, status)
		 VALUES ($1, $2, $3, $4, 'pending')
		 RETURNING `+purchaseColumns,
		p.AccountID, p.BuyerID, p.SellerID, p.Price,
	).StructScan(p)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

// Complete は出品者が保留中の取引を完了する。
// 同一トランザクションで出品を売約済みにし、同じ出品への他の保留中取引を取り消す。
func (r *PostgresPurchaseRepo) Complete(ctx context.Context, id, sellerID int64) (*model.Purchase, error) {
	if r.db == nil {
		return nil, ErrStoreUnavailable
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 同一出品への完了処理を直列化するため、取引より先に出品行をロックする
	var accountID int64
	err = tx.GetContext(ctx, &accountID, `SELECT account_id FROM purchases WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find purchase: %w", err)
	}

	var accountStatus model.AccountStatus
	if err := tx.GetContext(ctx, &accountStatus,
		`SELECT status FROM accounts WHERE id = $1 FOR UPDATE`,
		accountID,
	); err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	p, err := lockPending(ctx, tx, id, func(p *model.Purchase) bool { return p.SellerID == sellerID })
	if err != nil {
		return nil, err
	}
	if accountStatus != model.AccountStatusActive {
		return nil, ErrAccountUnavailable
	}

	if err := tx.GetContext(ctx, p,
		`UPDATE purchases SET status = 'completed', completed_at = now()
		 WHERE id = $1 RETURNING `+purchaseColumns,
		id,
	); err != nil {
		return nil, fmt.Errorf("failed to complete purchase: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET status = 'sold', updated_at = now() WHERE id = $1`,
		p.AccountID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark account sold: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE purchases SET status = 'cancelled'
		 WHERE account_id = $1 AND id <> $2 AND status = 'pending'`,
		p.AccountID, id,
	); err != nil {
		return nil, fmt.Errorf("failed to cancel competing purchases: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return p, nil
}

// Cancel は購入者または出品者が保留中の取引を取り消す。
func (r *PostgresPurchaseRepo) Cancel(ctx context.Context, id, userID int64) (*model.Purchase, error) {
	if r.db == nil {
		return nil, ErrStoreUnavailable
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := lockPending(ctx, tx, id, func(p *model.Purchase) bool {
		return p.BuyerID == userID || p.SellerID == userID
	})
	if err != nil {
		return nil, err
	}

	if err := tx.GetContext(ctx, p,
		`UPDATE purchases SET status = 'cancelled' WHERE id = $1 RETURNING `+purchaseColumns,
		id,
	); err != nil {
		return nil, fmt.Errorf("failed to cancel purchase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return p, nil
}

// lockPending は取引行をFOR UPDATEでロックし、当事者と状態を検証する。
func lockPending(ctx context.Context, tx *sqlx.Tx, id int64, allowed func(*model.Purchase) bool) (*model.Purchase, error) {
	p := &model.Purchase{}
	err := tx.GetContext(ctx, p,
		`SELECT `+purchaseColumns+` FROM purchases WHERE id = $1 FOR UPDATE`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock purchase: %w", err)
	}
	if !allowed(p) {
		return nil, ErrNotOwned
	}
	if p.Status != model.PurchaseStatusPending {
		return nil, ErrNotPending
	}
	return p, nil
}

// CancelStalePending は指定時刻より前に作成された保留中の取引を一括で取り消す。
func (r *PostgresPurchaseRepo) CancelStalePending(ctx context.Context, before time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrStoreUnavailable
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE purchases SET status = 'cancelled' WHERE status = 'pending' AND purchased_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel stale purchases: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ PurchaseRepository = (*PostgresPurchaseRepo)(nil)
