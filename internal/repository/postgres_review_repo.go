package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hitoshi/accountmart/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sqlx.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sqlx.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// ListByAccount は出品に対するレビュー一覧を返す。
func (r *PostgresReviewRepo) ListByAccount(ctx context.Context, accountID int64) ([]model.Review, error) {
	if r.db == nil {
		warnUnavailable(ctx, "reviews.list_by_account")
		return []model.Review{}, nil
	}

	reviews := []model.Review{}
	err := r.db.SelectContext(ctx, &reviews,
		`SELECT id, account_id, reviewer_id, rating, comment, created_at
		 FROM reviews WHERE account_id = $1 ORDER BY id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	if r.db == nil {
		return ErrStoreUnavailable
	}

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO reviews (account_id, reviewer_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		rv.AccountID, rv.ReviewerID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
