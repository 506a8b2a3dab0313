package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/accountmart/internal/marketplace"
	"github.com/hitoshi/accountmart/internal/model"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	ListReviews(ctx context.Context, accountID int64) ([]model.Review, error)
	CreateReview(ctx context.Context, reviewerID int64, in marketplace.CreateReviewInput) (*model.Review, error)
}

// ReviewHandler はレビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// List は出品に対するレビュー一覧を返す。
// GET /api/accounts/{id}/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	id, apiErr := pathID(r, "id")
	if apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	list, err := h.service.ListReviews(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create は出品にレビューを投稿する。
// POST /api/accounts/{id}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, apiErr := pathID(r, "id")
	if apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	var in marketplace.CreateReviewInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}
	in.AccountID = id

	review, err := h.service.CreateReview(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}
