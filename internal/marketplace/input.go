package marketplace

// ListAccountsInput は出品一覧の絞り込み条件。すべて任意。
type ListAccountsInput struct {
	Type         *string `json:"type" validate:"omitempty,oneof=tiktok youtube instagram"`
	MinFollowers *int64  `json:"minFollowers"`
	MaxFollowers *int64  `json:"maxFollowers"`
	MinPrice     *int64  `json:"minPrice"`
	MaxPrice     *int64  `json:"maxPrice"`
	Query        *string `json:"q" validate:"omitempty,max=100"`
}

// CreateAccountInput は出品作成の入力。出品者と状態は呼び出し元から決まる。
type CreateAccountInput struct {
	Type           string  `json:"type" validate:"required,oneof=tiktok youtube instagram"`
	Name           string  `json:"name" validate:"required,max=255"`
	Username       string  `json:"username" validate:"required,max=255"`
	Followers      *int64  `json:"followers" validate:"required,gte=0"`
	AgeMonths      *int    `json:"ageMonths" validate:"required,gte=0,max=2147483647"` // age_months は INTEGER 列
	Price          *int64  `json:"price" validate:"required,gte=0"`
	Description    *string `json:"description" validate:"omitempty,max=5000"`
	EngagementRate *string `json:"engagementRate" validate:"omitempty,max=10"`
}

// UpdateAccountInput は出品の部分更新の入力。
// 変更できるのは名前・説明・価格・エンゲージメント率のみ。
type UpdateAccountInput struct {
	ID             int64   `json:"id" validate:"gt=0"`
	Name           *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description    *string `json:"description" validate:"omitempty,max=5000"`
	Price          *int64  `json:"price" validate:"omitempty,gte=0"`
	EngagementRate *string `json:"engagementRate" validate:"omitempty,max=10"`
}

// CreatePurchaseInput は購入申込の入力。
type CreatePurchaseInput struct {
	AccountID int64  `json:"accountId" validate:"gt=0"`
	SellerID  int64  `json:"sellerId" validate:"gt=0"`
	Price     *int64 `json:"price" validate:"required,gte=0"`
}

// CreateReviewInput はレビュー投稿の入力。
type CreateReviewInput struct {
	AccountID int64   `json:"accountId" validate:"gt=0"`
	Rating    *int    `json:"rating" validate:"required,gte=1,max=5"`
	Comment   *string `json:"comment" validate:"omitempty,max=2000"`
}
