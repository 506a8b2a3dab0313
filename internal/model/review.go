package model

import "time"

const (
	// MinRating は評価の下限。
	MinRating = 1
	// MaxRating は評価の上限。
	MaxRating = 5
)

// Review は出品に対するレビューを表す。
type Review struct {
	ID         int64     `db:"id" json:"id"`
	AccountID  int64     `db:"account_id" json:"accountId"`
	ReviewerID int64     `db:"reviewer_id" json:"reviewerId"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
