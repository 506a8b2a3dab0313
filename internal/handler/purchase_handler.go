package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/accountmart/internal/marketplace"
	"github.com/hitoshi/accountmart/internal/model"
)

// PurchaseServiceInterface は取引ハンドラーが必要とするサービスインターフェース。
type PurchaseServiceInterface interface {
	MyPurchases(ctx context.Context, buyerID int64) ([]model.Purchase, error)
	MySalesPurchases(ctx context.Context, sellerID int64) ([]model.Purchase, error)
	CreatePurchase(ctx context.Context, buyerID int64, in marketplace.CreatePurchaseInput) (*model.Purchase, error)
	CompletePurchase(ctx context.Context, sellerID, purchaseID int64) (*model.Purchase, error)
	CancelPurchase(ctx context.Context, userID, purchaseID int64) (*model.Purchase, error)
}

// PurchaseHandler は取引のHTTPハンドラー。
type PurchaseHandler struct {
	service PurchaseServiceInterface
}

// NewPurchaseHandler はPurchaseHandlerを生成する。
func NewPurchaseHandler(service PurchaseServiceInterface) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// Mine は購入者としての取引一覧を返す。
// GET /api/purchases/mine
func (h *PurchaseHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	list, err := h.service.MyPurchases(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Sales は出品者としての取引一覧を返す。
// GET /api/purchases/sales
func (h *PurchaseHandler) Sales(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	list, err := h.service.MySalesPurchases(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create は購入を申し込む。
// POST /api/purchases
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var in marketplace.CreatePurchaseInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	p, err := h.service.CreatePurchase(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Complete は出品者が取引を完了する。
// POST /api/purchases/{id}/complete
func (h *PurchaseHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CompletePurchase)
}

// Cancel は購入者または出品者が取引を取り消す。
// POST /api/purchases/{id}/cancel
func (h *PurchaseHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelPurchase)
}

func (h *PurchaseHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, userID, purchaseID int64) (*model.Purchase, error),
) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, apiErr := pathID(r, "id")
	if apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	p, err := fn(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
