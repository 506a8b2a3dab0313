// Package marketplace は出品・取引・レビューのドメインロジックを提供する。
// 入力検証と所有者チェックを行い、リポジトリへ委譲する。
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/accountmart/internal/metrics"
	"github.com/hitoshi/accountmart/internal/model"
	"github.com/hitoshi/accountmart/internal/repository"
	"github.com/hitoshi/accountmart/internal/security"
	"github.com/hitoshi/accountmart/internal/validation"
)

// Service はマーケットプレイスのサービス層。
type Service struct {
	accounts  repository.AccountRepository
	purchases repository.PurchaseRepository
	reviews   repository.ReviewRepository
	sanitizer security.TextSanitizer
	recorder  metrics.MarketplaceRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderがnilの場合はメトリクスを記録しない。
func NewService(
	accounts repository.AccountRepository,
	purchases repository.PurchaseRepository,
	reviews repository.ReviewRepository,
	sanitizer security.TextSanitizer,
	recorder metrics.MarketplaceRecorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		accounts:  accounts,
		purchases: purchases,
		reviews:   reviews,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// --- 出品 ---

// ListAccounts は出品中の出品を絞り込んで返す。
func (s *Service) ListAccounts(ctx context.Context, in ListAccountsInput) ([]model.Account, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	f := repository.AccountFilter{
		MinFollowers: in.MinFollowers,
		MaxFollowers: in.MaxFollowers,
		MinPrice:     in.MinPrice,
		MaxPrice:     in.MaxPrice,
	}
	if in.Type != nil {
		t := model.AccountType(*in.Type)
		f.Type = &t
	}
	if in.Query != nil {
		if q := strings.TrimSpace(*in.Query); q != "" {
			f.Query = &q
		}
	}

	accounts, err := s.accounts.ListActive(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("出品一覧の取得に失敗しました: %w", err)
	}
	return nonNil(accounts), nil
}

// GetAccount は状態に関わらず出品を返す。見つからない場合はnilを返す。
func (s *Service) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("出品の取得に失敗しました: %w", err)
	}
	return a, nil
}

// MySales は出品者自身の全出品を返す。
func (s *Service) MySales(ctx context.Context, sellerID int64) ([]model.Account, error) {
	accounts, err := s.accounts.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("出品者の出品一覧の取得に失敗しました: %w", err)
	}
	return nonNil(accounts), nil
}

// CreateAccount は呼び出し元を出品者として出品を作成する。状態は常にactiveで始まる。
func (s *Service) CreateAccount(ctx context.Context, sellerID int64, in CreateAccountInput) (*model.Account, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	username := strings.TrimSpace(in.Username)
	var fields validation.Errors
	if name == "" {
		fields = append(fields, validation.Field("name", "is required")...)
	}
	if username == "" {
		fields = append(fields, validation.Field("username", "is required")...)
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	a := &model.Account{
		Type:           model.AccountType(in.Type),
		Name:           name,
		Username:       username,
		Followers:      *in.Followers,
		AgeMonths:      *in.AgeMonths,
		Price:          *in.Price,
		Description:    security.SanitizeOptional(s.sanitizer, in.Description),
		EngagementRate: trimOptional(in.EngagementRate),
		SellerID:       sellerID,
		Status:         model.AccountStatusActive,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, storeError(err, "出品の作成に失敗しました")
	}

	s.recorder.RecordAccountCreated(string(a.Type))
	slog.InfoContext(ctx, "account created",
		slog.Int64("account_id", a.ID),
		slog.Int64("seller_id", sellerID),
		slog.String("type", string(a.Type)),
	)
	return a, nil
}

// UpdateAccount は出品者本人に限り出品を部分更新する。
// 出品が存在しないか所有者でない場合はFORBIDDENを返し、何も変更しない。
func (s *Service) UpdateAccount(ctx context.Context, callerID int64, in UpdateAccountInput) (*model.Account, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	patch := repository.AccountPatch{
		Name:           trimOptional(in.Name),
		Description:    security.SanitizeOptional(s.sanitizer, in.Description),
		Price:          in.Price,
		EngagementRate: trimOptional(in.EngagementRate),
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, model.NewValidationError(validation.Field("name", "is required"))
	}

	a, err := s.accounts.UpdateOwned(ctx, in.ID, callerID, patch)
	if errors.Is(err, repository.ErrNotOwned) {
		slog.WarnContext(ctx, "account update rejected",
			slog.Int64("account_id", in.ID),
			slog.Int64("caller_id", callerID),
		)
		return nil, model.NewForbiddenError()
	}
	if err != nil {
		return nil, storeError(err, "出品の更新に失敗しました")
	}
	return a, nil
}

// RemoveAccount は出品者本人に限り出品を取り下げる。売約済みの出品は取り下げられない。
func (s *Service) RemoveAccount(ctx context.Context, sellerID, accountID int64) (*model.Account, error) {
	current, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("出品の取得に失敗しました: %w", err)
	}
	if current != nil && current.SellerID == sellerID && current.Status == model.AccountStatusSold {
		return nil, model.NewAccountNotAvailableError(current.Status)
	}

	a, err := s.accounts.UpdateStatusOwned(ctx, accountID, sellerID, model.AccountStatusRemoved)
	if errors.Is(err, repository.ErrNotOwned) {
		return nil, model.NewForbiddenError()
	}
	if err != nil {
		return nil, storeError(err, "出品の取り下げに失敗しました")
	}
	return a, nil
}

// --- 取引 ---

// MyPurchases は購入者としての取引一覧を返す。
func (s *Service) MyPurchases(ctx context.Context, buyerID int64) ([]model.Purchase, error) {
	list, err := s.purchases.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("購入履歴の取得に失敗しました: %w", err)
	}
	return nonNil(list), nil
}

// MySalesPurchases は出品者としての取引一覧を返す。
func (s *Service) MySalesPurchases(ctx context.Context, sellerID int64) ([]model.Purchase, error) {
	list, err := s.purchases.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("販売履歴の取得に失敗しました: %w", err)
	}
	return nonNil(list), nil
}

// CreatePurchase は呼び出し元を購入者として保留中の取引を作成する。
// 価格は申込時点の値をそのまま記録する。
func (s *Service) CreatePurchase(ctx context.Context, buyerID int64, in CreatePurchaseInput) (*model.Purchase, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	a, err := s.findForWrite(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	if a.SellerID == buyerID {
		return nil, model.NewSelfPurchaseError()
	}
	if a.Status != model.AccountStatusActive {
		return nil, model.NewAccountNotAvailableError(a.Status)
	}
	if in.SellerID != a.SellerID {
		return nil, model.NewValidationError(validation.Field("sellerId", "does not match the listing's seller"))
	}

	p := &model.Purchase{
		AccountID: a.ID,
		BuyerID:   buyerID,
		SellerID:  a.SellerID,
		Price:     *in.Price,
		Status:    model.PurchaseStatusPending,
	}
	if err := s.purchases.Create(ctx, p); err != nil {
		return nil, storeError(err, "購入申込の作成に失敗しました")
	}

	s.recorder.RecordPurchaseCreated()
	slog.InfoContext(ctx, "purchase created",
		slog.Int64("purchase_id", p.ID),
		slog.Int64("account_id", p.AccountID),
		slog.Int64("buyer_id", buyerID),
	)
	return p, nil
}

// CompletePurchase は出品者が保留中の取引を完了し、出品を売約済みにする。
func (s *Service) CompletePurchase(ctx context.Context, sellerID, purchaseID int64) (*model.Purchase, error) {
	p, err := s.purchases.Complete(ctx, purchaseID, sellerID)
	if err != nil {
		return nil, s.purchaseTransitionError(ctx, err, purchaseID, "取引の完了に失敗しました")
	}

	s.recorder.RecordPurchaseCompleted(p.Price)
	slog.InfoContext(ctx, "purchase completed",
		slog.Int64("purchase_id", p.ID),
		slog.Int64("account_id", p.AccountID),
		slog.Int64("seller_id", sellerID),
	)
	return p, nil
}

// CancelPurchase は購入者または出品者が保留中の取引を取り消す。
func (s *Service) CancelPurchase(ctx context.Context, userID, purchaseID int64) (*model.Purchase, error) {
	p, err := s.purchases.Cancel(ctx, purchaseID, userID)
	if err != nil {
		return nil, s.purchaseTransitionError(ctx, err, purchaseID, "取引の取消に失敗しました")
	}

	reason := "buyer"
	if p.SellerID == userID {
		reason = "seller"
	}
	s.recorder.RecordPurchaseCancelled(reason)
	return p, nil
}

// purchaseTransitionError は取引の状態遷移で返されたリポジトリエラーをAPIエラーに変換する。
func (s *Service) purchaseTransitionError(ctx context.Context, err error, purchaseID int64, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.NewPurchaseNotFoundError(purchaseID)
	case errors.Is(err, repository.ErrNotOwned):
		return model.NewForbiddenError()
	case errors.Is(err, repository.ErrNotPending):
		return model.NewPurchaseNotPendingError()
	case errors.Is(err, repository.ErrAccountUnavailable):
		status := model.AccountStatus("unknown")
		if p, ferr := s.purchases.FindByID(ctx, purchaseID); ferr == nil && p != nil {
			if a, aerr := s.accounts.FindByID(ctx, p.AccountID); aerr == nil && a != nil {
				status = a.Status
			}
		}
		return model.NewAccountNotAvailableError(status)
	default:
		return storeError(err, msg)
	}
}

// --- レビュー ---

// ListReviews は出品に対するレビュー一覧を返す。
func (s *Service) ListReviews(ctx context.Context, accountID int64) ([]model.Review, error) {
	list, err := s.reviews.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return nonNil(list), nil
}

// CreateReview は出品に対するレビューを投稿する。
func (s *Service) CreateReview(ctx context.Context, reviewerID int64, in CreateReviewInput) (*model.Review, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	a, err := s.findForWrite(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	comment := security.SanitizeOptional(s.sanitizer, in.Comment)
	if comment != nil && *comment == "" {
		comment = nil
	}

	r := &model.Review{
		AccountID:  a.ID,
		ReviewerID: reviewerID,
		Rating:     *in.Rating,
		Comment:    comment,
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, storeError(err, "レビューの投稿に失敗しました")
	}

	s.recorder.RecordReviewCreated(r.Rating)
	return r, nil
}

// --- 共通 ---

// findForWrite は書き込みの前提となる出品を取得する。
// ストア未設定時は読み取りのように空扱いにせず、STORE_UNAVAILABLEで失敗させる。
func (s *Service) findForWrite(ctx context.Context, accountID int64) (*model.Account, error) {
	if !s.accounts.Available() {
		return nil, model.NewStoreUnavailableError()
	}
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("出品の取得に失敗しました: %w", err)
	}
	if a == nil {
		return nil, model.NewAccountNotFoundError(accountID)
	}
	return a, nil
}

// validate は入力を検証し、失敗時はフィールド詳細付きのAPIエラーを返す。
func validate(in any) error {
	err := validation.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return model.NewValidationError(verrs)
	}
	return fmt.Errorf("入力の検証に失敗しました: %w", err)
}

// storeError はストア未設定を専用のAPIエラーに変換し、それ以外は文脈付きでラップする。
func storeError(err error, msg string) error {
	if errors.Is(err, repository.ErrStoreUnavailable) {
		return model.NewStoreUnavailableError()
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// nonNil はJSONで[]を返すためにnilスライスを空スライスにする。
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
