// Package repository はデータ永続化のインターフェースと実装を定義する。
// 各リポジトリは*sqlx.DBがnilでも生成でき、その場合は読み取りが空の結果を、
// 書き込みがErrStoreUnavailableを返す。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/accountmart/internal/model"
)

// UpsertUserInput はユーザーUPSERTの入力。nilのフィールドは「指定なし」を表す。
type UpsertUserInput struct {
	OpenID       string
	Name         *string
	Email        *string
	LoginMethod  *string
	Role         *model.Role
	LastSignedIn *time.Time
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Upsert はopenIdをキーにユーザーを作成または部分更新し、更新後のユーザーを返す。
	// ストア未設定時はnil, nilを返す。
	Upsert(ctx context.Context, in UpsertUserInput) (*model.User, error)
	// FindByOpenID はopenIdでユーザーを取得する。見つからない場合はnilを返す。
	FindByOpenID(ctx context.Context, openID string) (*model.User, error)
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// AccountFilter は出品一覧の絞り込み条件。nilの条件は適用しない。
// 下限・上限はいずれも境界値を含む。
type AccountFilter struct {
	Type         *model.AccountType
	MinFollowers *int64
	MaxFollowers *int64
	MinPrice     *int64
	MaxPrice     *int64
	Query        *string
}

// AccountPatch は出品の部分更新で変更可能なフィールド。
// status・seller_id・typeはこの経路では変更できない。
type AccountPatch struct {
	Name           *string
	Description    *string
	Price          *int64
	EngagementRate *string
}

// Empty は変更対象のフィールドが1つもないかを返す。
func (p AccountPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.EngagementRate == nil
}

// AccountRepository は出品データの永続化インターフェース。
type AccountRepository interface {
	// Available はストアが設定されているかを返す。
	Available() bool
	// ListActive は出品中の出品をフィルタ条件で絞り込んで返す。
	ListActive(ctx context.Context, f AccountFilter) ([]model.Account, error)
	// FindByID は状態に関わらず指定IDの出品を返す。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	// ListBySeller は出品者の全出品を返す。
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Account, error)
	// Create は出品を作成し、採番済みのID・タイムスタンプを反映する。
	Create(ctx context.Context, a *model.Account) error
	// UpdateOwned は出品者本人の出品に限り部分更新する。
	// 対象が存在しないか所有者でない場合はErrNotOwnedを返す。
	UpdateOwned(ctx context.Context, id, sellerID int64, p AccountPatch) (*model.Account, error)
	// UpdateStatusOwned は出品者本人の出品に限り状態を変更する。
	UpdateStatusOwned(ctx context.Context, id, sellerID int64, status model.AccountStatus) (*model.Account, error)
}

// PurchaseRepository は購入取引の永続化インターフェース。
type PurchaseRepository interface {
	// ListByBuyer は購入者としての取引一覧を返す。
	ListByBuyer(ctx context.Context, buyerID int64) ([]model.Purchase, error)
	// ListBySeller は出品者としての取引一覧を返す。
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Purchase, error)
	// FindByID は指定IDの取引を返す。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Purchase, error)
	// Create は保留中の取引を作成する。
	Create(ctx context.Context, p *model.Purchase) error
	// Complete は出品者が保留中の取引を完了し、出品を売約済みにする。
	Complete(ctx context.Context, id, sellerID int64) (*model.Purchase, error)
	// Cancel は購入者または出品者が保留中の取引を取り消す。
	Cancel(ctx context.Context, id, userID int64) (*model.Purchase, error)
	// CancelStalePending は指定時刻より前に作成された保留中の取引を取り消し、件数を返す。
	CancelStalePending(ctx context.Context, before time.Time) (int64, error)
}

// ReviewRepository はレビューの永続化インターフェース。
type ReviewRepository interface {
	// ListByAccount は出品に対するレビュー一覧を返す。順序は保証しない。
	ListByAccount(ctx context.Context, accountID int64) ([]model.Review, error)
	// Create はレビューを作成する。
	Create(ctx context.Context, r *model.Review) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
