package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/accountmart/internal/marketplace"
	"github.com/hitoshi/accountmart/internal/model"
)

// AccountServiceInterface は出品ハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	ListAccounts(ctx context.Context, in marketplace.ListAccountsInput) ([]model.Account, error)
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
	MySales(ctx context.Context, sellerID int64) ([]model.Account, error)
	CreateAccount(ctx context.Context, sellerID int64, in marketplace.CreateAccountInput) (*model.Account, error)
	UpdateAccount(ctx context.Context, callerID int64, in marketplace.UpdateAccountInput) (*model.Account, error)
	RemoveAccount(ctx context.Context, sellerID, accountID int64) (*model.Account, error)
}

// AccountHandler は出品管理のHTTPハンドラー。
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// List は出品中の出品を絞り込んで返す。
// GET /api/accounts?type=&minFollowers=&maxFollowers=&minPrice=&maxPrice=&q=
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	in, apiErr := parseListQuery(r)
	if apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// parseListQuery はクエリ文字列を一覧の絞り込み条件に変換する。
// 空のパラメータは指定なしとして扱う。
func parseListQuery(r *http.Request) (marketplace.ListAccountsInput, *model.APIError) {
	q := r.URL.Query()
	var in marketplace.ListAccountsInput
	var fields []model.FieldError

	if v := q.Get("type"); v != "" {
		in.Type = &v
	}
	if v := q.Get("q"); v != "" {
		in.Query = &v
	}

	bounds := []struct {
		name string
		dst  **int64
	}{
		{"minFollowers", &in.MinFollowers},
		{"maxFollowers", &in.MaxFollowers},
		{"minPrice", &in.MinPrice},
		{"maxPrice", &in.MaxPrice},
	}
	for _, b := range bounds {
		raw := q.Get(b.name)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fields = append(fields, model.FieldError{Field: b.name, Message: "must be an integer"})
			continue
		}
		*b.dst = &n
	}

	if len(fields) > 0 {
		return in, model.NewValidationError(fields)
	}
	return in, nil
}

// Get は出品を返す。見つからない場合はnullを返す。
// GET /api/accounts/{id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := pathID(r, "id")
	if apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Mine はログインユーザーの全出品を返す。
// GET /api/accounts/mine
func (h *AccountHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	accounts, err := h.service.MySales(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Create は出品を作成する。
// POST /api/accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var in marketplace.CreateAccountInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// Update は出品を部分更新する。出品者本人のみ可能。
// PATCH /api/accounts/{id}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, apiErr := pathID(r, "id")
	if apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	var in marketplace.UpdateAccountInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}
	in.ID = id

	account, err := h.service.UpdateAccount(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Remove は出品を取り下げる。出品者本人のみ可能。
// DELETE /api/accounts/{id}
func (h *AccountHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, apiErr := pathID(r, "id")
	if apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	account, err := h.service.RemoveAccount(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}
