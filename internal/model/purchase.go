package model

import "time"

// PurchaseStatus は購入取引の状態を表す。
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// Valid は定義済みの取引状態かどうかを返す。
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchaseStatusPending, PurchaseStatusCompleted, PurchaseStatusCancelled:
		return true
	default:
		return false
	}
}

// Purchase は購入取引を表す。
// Priceは購入時点の価格のスナップショットであり、出品価格の後日変更の影響を受けない。
type Purchase struct {
	ID          int64          `db:"id" json:"id"`
	AccountID   int64          `db:"account_id" json:"accountId"`
	BuyerID     int64          `db:"buyer_id" json:"buyerId"`
	SellerID    int64          `db:"seller_id" json:"sellerId"`
	Price       int64          `db:"price" json:"price"`
	Status      PurchaseStatus `db:"status" json:"status"`
	PurchasedAt time.Time      `db:"purchased_at" json:"purchasedAt"`
	CompletedAt *time.Time     `db:"completed_at" json:"completedAt"`
}
