// Package model はドメインモデルを定義する。
package model

import "fmt"

// FieldError はフィールド単位の入力エラーを表す。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: auth, validation, marketplace, system
	Action   string       // ユーザー向け対処方法
	Fields   []FieldError // バリデーションエラーの詳細
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	ErrCodeAccountNotAvailable = "ACCOUNT_NOT_AVAILABLE"
	ErrCodeSelfPurchase        = "SELF_PURCHASE"
	ErrCodePurchaseNotFound    = "PURCHASE_NOT_FOUND"
	ErrCodePurchaseNotPending  = "PURCHASE_NOT_PENDING"
	ErrCodeStoreUnavailable    = "STORE_UNAVAILABLE"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewForbiddenError は所有者以外による操作のエラーを生成する。
// 利用者には未認証と同じメッセージを返すが、コードで区別できる。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "この操作は出品者本人のみ実行できます。",
	}
}

// NewInvalidRequestError はリクエストボディやパラメータの解析失敗エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストの形式が不正です: %s", reason),
		Category: "validation",
		Action:   "正しい型の値を持つJSONを送信してください。",
	}
}

// NewValidationError はフィールド単位の詳細を持つバリデーションエラーを生成する。
func NewValidationError(fields []FieldError) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "fieldsに示された項目を修正して再度お試しください。",
		Fields:   fields,
	}
}

// NewAccountNotFoundError は出品未検出エラーを生成する。
func NewAccountNotFoundError(accountID int64) *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  fmt.Sprintf("指定された出品が見つかりません: %d", accountID),
		Category: "marketplace",
		Action:   "出品IDを確認してください。",
	}
}

// NewAccountNotAvailableError は出品中でない出品への購入エラーを生成する。
func NewAccountNotAvailableError(status AccountStatus) *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotAvailable,
		Message:  fmt.Sprintf("この出品は購入できない状態です（状態: %s）。", status),
		Category: "marketplace",
		Action:   "他の出品を選択してください。",
	}
}

// NewSelfPurchaseError は自分の出品を購入しようとした場合のエラーを生成する。
func NewSelfPurchaseError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfPurchase,
		Message:  "自分の出品は購入できません。",
		Category: "marketplace",
		Action:   "他の出品者の出品を選択してください。",
	}
}

// NewPurchaseNotFoundError は購入取引未検出エラーを生成する。
func NewPurchaseNotFoundError(purchaseID int64) *APIError {
	return &APIError{
		Code:     ErrCodePurchaseNotFound,
		Message:  fmt.Sprintf("指定された取引が見つかりません: %d", purchaseID),
		Category: "marketplace",
		Action:   "取引IDを確認してください。",
	}
}

// NewPurchaseNotPendingError は保留中でない取引の状態変更エラーを生成する。
func NewPurchaseNotPendingError() *APIError {
	return &APIError{
		Code:     ErrCodePurchaseNotPending,
		Message:  "この取引はすでに保留中ではありません。",
		Category: "marketplace",
		Action:   "取引を再読み込みして現在の状態を確認してください。",
	}
}

// NewStoreUnavailableError は永続化ストア未設定時の書き込みエラーを生成する。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データベースを利用できません。",
		Category: "system",
		Action:   "しばらく時間をおいて再度お試しください。",
	}
}
