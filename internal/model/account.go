package model

import "time"

// AccountType は出品対象のSNS種別。
type AccountType string

const (
	AccountTypeTikTok    AccountType = "tiktok"
	AccountTypeYouTube   AccountType = "youtube"
	AccountTypeInstagram AccountType = "instagram"
)

// Valid は定義済みのSNS種別かどうかを返す。
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeTikTok, AccountTypeYouTube, AccountTypeInstagram:
		return true
	default:
		return false
	}
}

// AccountStatus は出品の状態を表す。
type AccountStatus string

const (
	// AccountStatusActive は出品中。作成直後は常にこの状態。
	AccountStatusActive AccountStatus = "active"
	// AccountStatusSold は売約済み。
	AccountStatusSold AccountStatus = "sold"
	// AccountStatusRemoved は出品者による取り下げ。
	AccountStatusRemoved AccountStatus = "removed"
)

// Valid は定義済みの出品状態かどうかを返す。
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusSold, AccountStatusRemoved:
		return true
	default:
		return false
	}
}

// Account はSNSアカウントの出品を表す。
// Priceは最小通貨単位の整数で保持する。
type Account struct {
	ID             int64         `db:"id" json:"id"`
	Type           AccountType   `db:"type" json:"type"`
	Name           string        `db:"name" json:"name"`
	Username       string        `db:"username" json:"username"`
	Followers      int64         `db:"followers" json:"followers"`
	AgeMonths      int           `db:"age_months" json:"ageMonths"`
	Price          int64         `db:"price" json:"price"`
	Description    *string       `db:"description" json:"description"`
	QualityScore   *int          `db:"quality_score" json:"qualityScore"`
	EngagementRate *string       `db:"engagement_rate" json:"engagementRate"`
	SellerID       int64         `db:"seller_id" json:"sellerId"`
	Status         AccountStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}
