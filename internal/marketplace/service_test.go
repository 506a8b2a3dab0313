package marketplace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/accountmart/internal/model"
	"github.com/hitoshi/accountmart/internal/repository"
	"github.com/hitoshi/accountmart/internal/security"
)

// --- モック ---

type mockAccountRepo struct {
	unavailable         bool
	listActiveFn        func(ctx context.Context, f repository.AccountFilter) ([]model.Account, error)
	findByIDFn          func(ctx context.Context, id int64) (*model.Account, error)
	listBySellerFn      func(ctx context.Context, sellerID int64) ([]model.Account, error)
	createFn            func(ctx context.Context, a *model.Account) error
	updateOwnedFn       func(ctx context.Context, id, sellerID int64, p repository.AccountPatch) (*model.Account, error)
	updateStatusOwnedFn func(ctx context.Context, id, sellerID int64, status model.AccountStatus) (*model.Account, error)
}

func (m *mockAccountRepo) ListActive(ctx context.Context, f repository.AccountFilter) ([]model.Account, error) {
	return m.listActiveFn(ctx, f)
}
func (m *mockAccountRepo) Available() bool {
	return !m.unavailable
}
func (m *mockAccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockAccountRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Account, error) {
	return m.listBySellerFn(ctx, sellerID)
}
func (m *mockAccountRepo) Create(ctx context.Context, a *model.Account) error {
	return m.createFn(ctx, a)
}
func (m *mockAccountRepo) UpdateOwned(ctx context.Context, id, sellerID int64, p repository.AccountPatch) (*model.Account, error) {
	return m.updateOwnedFn(ctx, id, sellerID, p)
}
func (m *mockAccountRepo) UpdateStatusOwned(ctx context.Context, id, sellerID int64, status model.AccountStatus) (*model.Account, error) {
	return m.updateStatusOwnedFn(ctx, id, sellerID, status)
}

type mockPurchaseRepo struct {
	listByBuyerFn  func(ctx context.Context, buyerID int64) ([]model.Purchase, error)
	listBySellerFn func(ctx context.Context, sellerID int64) ([]model.Purchase, error)
	findByIDFn     func(ctx context.Context, id int64) (*model.Purchase, error)
	createFn       func(ctx context.Context, p *model.Purchase) error
	completeFn     func(ctx context.Context, id, sellerID int64) (*model.Purchase, error)
	cancelFn       func(ctx context.Context, id, userID int64) (*model.Purchase, error)
}

func (m *mockPurchaseRepo) ListByBuyer(ctx context.Context, buyerID int64) ([]model.Purchase, error) {
	return m.listByBuyerFn(ctx, buyerID)
}
func (m *mockPurchaseRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Purchase, error) {
	return m.listBySellerFn(ctx, sellerID)
}
func (m *mockPurchaseRepo) FindByID(ctx context.Context, id int64) (*model.Purchase, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockPurchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	return m.createFn(ctx, p)
}
func (m *mockPurchaseRepo) Complete(ctx context.Context, id, sellerID int64) (*model.Purchase, error) {
	return m.completeFn(ctx, id, sellerID)
}
func (m *mockPurchaseRepo) Cancel(ctx context.Context, id, userID int64) (*model.Purchase, error) {
	return m.cancelFn(ctx, id, userID)
}
func (m *mockPurchaseRepo) CancelStalePending(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type mockReviewRepo struct {
	listByAccountFn func(ctx context.Context, accountID int64) ([]model.Review, error)
	createFn        func(ctx context.Context, r *model.Review) error
}

func (m *mockReviewRepo) ListByAccount(ctx context.Context, accountID int64) ([]model.Review, error) {
	return m.listByAccountFn(ctx, accountID)
}
func (m *mockReviewRepo) Create(ctx context.Context, r *model.Review) error {
	return m.createFn(ctx, r)
}

type spyRecorder struct {
	accountsCreated []string
	purchases       int
	completed       []int64
	cancelled       []string
	ratings         []int
}

func (r *spyRecorder) RecordAccountCreated(t string)         { r.accountsCreated = append(r.accountsCreated, t) }
func (r *spyRecorder) RecordPurchaseCreated()                { r.purchases++ }
func (r *spyRecorder) RecordPurchaseCompleted(price int64)   { r.completed = append(r.completed, price) }
func (r *spyRecorder) RecordPurchaseCancelled(reason string) { r.cancelled = append(r.cancelled, reason) }
func (r *spyRecorder) RecordReviewCreated(rating int)        { r.ratings = append(r.ratings, rating) }

type fixture struct {
	accounts  *mockAccountRepo
	purchases *mockPurchaseRepo
	reviews   *mockReviewRepo
	recorder  *spyRecorder
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		accounts:  &mockAccountRepo{},
		purchases: &mockPurchaseRepo{},
		reviews:   &mockReviewRepo{},
		recorder:  &spyRecorder{},
	}
	f.svc = NewService(f.accounts, f.purchases, f.reviews, security.NewTextSanitizer(), f.recorder)
	return f
}

func ptr[T any](v T) *T { return &v }

func activeAccount(id, sellerID int64) *model.Account {
	return &model.Account{ID: id, SellerID: sellerID, Type: model.AccountTypeTikTok, Price: 50, Status: model.AccountStatusActive}
}

// requireAPIError はエラーが指定コードのAPIエラーであることを検証する。
func requireAPIError(t *testing.T, err error, code string) *model.APIError {
	t.Helper()
	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func validCreateInput() CreateAccountInput {
	return CreateAccountInput{
		Type:      "tiktok",
		Name:      "X",
		Username:  "@x",
		Followers: ptr(int64(1000)),
		AgeMonths: ptr(6),
		Price:     ptr(int64(50)),
	}
}

// --- ListAccounts ---

func TestListAccounts_PassesFiltersThrough(t *testing.T) {
	f := newFixture()
	var got repository.AccountFilter
	f.accounts.listActiveFn = func(ctx context.Context, filter repository.AccountFilter) ([]model.Account, error) {
		got = filter
		return nil, nil
	}

	list, err := f.svc.ListAccounts(context.Background(), ListAccountsInput{
		Type:     ptr("youtube"),
		MinPrice: ptr(int64(0)),
		Query:    ptr("  cats "),
	})

	require.NoError(t, err)
	assert.NotNil(t, list, "nil result should become an empty slice")
	assert.Empty(t, list)
	require.NotNil(t, got.Type)
	assert.Equal(t, model.AccountTypeYouTube, *got.Type)
	require.NotNil(t, got.MinPrice)
	assert.Equal(t, int64(0), *got.MinPrice)
	assert.Nil(t, got.MaxPrice)
	require.NotNil(t, got.Query)
	assert.Equal(t, "cats", *got.Query)
}

func TestListAccounts_InvalidType(t *testing.T) {
	f := newFixture()
	f.accounts.listActiveFn = func(ctx context.Context, filter repository.AccountFilter) ([]model.Account, error) {
		t.Fatal("store should not be queried on invalid input")
		return nil, nil
	}

	_, err := f.svc.ListAccounts(context.Background(), ListAccountsInput{Type: ptr("myspace")})

	apiErr := requireAPIError(t, err, model.ErrCodeValidationFailed)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "type", apiErr.Fields[0].Field)
}

// --- CreateAccount ---

func TestCreateAccount_SetsSellerAndActiveStatus(t *testing.T) {
	f := newFixture()
	var stored *model.Account
	f.accounts.createFn = func(ctx context.Context, a *model.Account) error {
		a.ID = 10
		stored = a
		return nil
	}

	in := validCreateInput()
	in.Description = ptr("<script>alert(1)</script>great <b>account</b>")
	a, err := f.svc.CreateAccount(context.Background(), 1, in)

	require.NoError(t, err)
	assert.Equal(t, int64(10), a.ID)
	assert.Equal(t, int64(1), stored.SellerID)
	assert.Equal(t, model.AccountStatusActive, stored.Status)
	assert.Equal(t, int64(1000), stored.Followers)
	assert.Equal(t, 6, stored.AgeMonths)
	require.NotNil(t, stored.Description)
	assert.Equal(t, "great account", *stored.Description)
	assert.Equal(t, []string{"tiktok"}, f.recorder.accountsCreated)
}

func TestCreateAccount_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CreateAccountInput)
		field  string
	}{
		{"unknown type", func(in *CreateAccountInput) { in.Type = "myspace" }, "type"},
		{"empty name", func(in *CreateAccountInput) { in.Name = "" }, "name"},
		{"blank username", func(in *CreateAccountInput) { in.Username = "   " }, "username"},
		{"negative followers", func(in *CreateAccountInput) { in.Followers = ptr(int64(-1)) }, "followers"},
		{"missing ageMonths", func(in *CreateAccountInput) { in.AgeMonths = nil }, "ageMonths"},
		{"ageMonths beyond int32", func(in *CreateAccountInput) { in.AgeMonths = ptr(3000000000) }, "ageMonths"},
		{"negative price", func(in *CreateAccountInput) { in.Price = ptr(int64(-5)) }, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.accounts.createFn = func(ctx context.Context, a *model.Account) error {
				t.Fatal("store should not be written on invalid input")
				return nil
			}

			in := validCreateInput()
			tt.mutate(&in)
			_, err := f.svc.CreateAccount(context.Background(), 1, in)

			apiErr := requireAPIError(t, err, model.ErrCodeValidationFailed)
			require.NotEmpty(t, apiErr.Fields)
			assert.Equal(t, tt.field, apiErr.Fields[0].Field)
		})
	}
}

func TestCreateAccount_ZeroValuesAccepted(t *testing.T) {
	f := newFixture()
	f.accounts.createFn = func(ctx context.Context, a *model.Account) error { return nil }

	in := validCreateInput()
	in.Followers = ptr(int64(0))
	in.AgeMonths = ptr(0)
	in.Price = ptr(int64(0))
	_, err := f.svc.CreateAccount(context.Background(), 1, in)

	require.NoError(t, err)
}

func TestCreateAccount_AgeMonthsUpperBound(t *testing.T) {
	f := newFixture()
	var stored *model.Account
	f.accounts.createFn = func(ctx context.Context, a *model.Account) error {
		stored = a
		return nil
	}

	in := validCreateInput()
	in.AgeMonths = ptr(2147483647)
	_, err := f.svc.CreateAccount(context.Background(), 1, in)

	require.NoError(t, err)
	assert.Equal(t, 2147483647, stored.AgeMonths)

	in.AgeMonths = ptr(2147483648)
	_, err = f.svc.CreateAccount(context.Background(), 1, in)

	apiErr := requireAPIError(t, err, model.ErrCodeValidationFailed)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "ageMonths", apiErr.Fields[0].Field)
	assert.Equal(t, "must be less than or equal to 2147483647", apiErr.Fields[0].Message)
}

func TestCreateAccount_StoreUnavailable(t *testing.T) {
	f := newFixture()
	f.accounts.createFn = func(ctx context.Context, a *model.Account) error {
		return repository.ErrStoreUnavailable
	}

	_, err := f.svc.CreateAccount(context.Background(), 1, validCreateInput())

	requireAPIError(t, err, model.ErrCodeStoreUnavailable)
	assert.Empty(t, f.recorder.accountsCreated)
}

// --- UpdateAccount ---

func TestUpdateAccount_OwnerSucceeds(t *testing.T) {
	f := newFixture()
	var gotPatch repository.AccountPatch
	f.accounts.updateOwnedFn = func(ctx context.Context, id, sellerID int64, p repository.AccountPatch) (*model.Account, error) {
		assert.Equal(t, int64(10), id)
		assert.Equal(t, int64(1), sellerID)
		gotPatch = p
		a := activeAccount(10, 1)
		a.Price = *p.Price
		return a, nil
	}

	a, err := f.svc.UpdateAccount(context.Background(), 1, UpdateAccountInput{ID: 10, Price: ptr(int64(10))})

	require.NoError(t, err)
	assert.Equal(t, int64(10), a.Price)
	assert.Nil(t, gotPatch.Name)
	assert.Nil(t, gotPatch.Description)
}

func TestUpdateAccount_NonOwnerForbidden(t *testing.T) {
	f := newFixture()
	f.accounts.updateOwnedFn = func(ctx context.Context, id, sellerID int64, p repository.AccountPatch) (*model.Account, error) {
		return nil, repository.ErrNotOwned
	}

	_, err := f.svc.UpdateAccount(context.Background(), 2, UpdateAccountInput{ID: 10, Price: ptr(int64(10))})

	apiErr := requireAPIError(t, err, model.ErrCodeForbidden)
	assert.Equal(t, model.NewUnauthorizedError().Message, apiErr.Message)
}

func TestUpdateAccount_InvalidFieldsRejectedBeforeStore(t *testing.T) {
	f := newFixture()
	f.accounts.updateOwnedFn = func(ctx context.Context, id, sellerID int64, p repository.AccountPatch) (*model.Account, error) {
		t.Fatal("store should not be written on invalid input")
		return nil, nil
	}

	_, err := f.svc.UpdateAccount(context.Background(), 1, UpdateAccountInput{ID: 10, Price: ptr(int64(-1))})
	requireAPIError(t, err, model.ErrCodeValidationFailed)

	_, err = f.svc.UpdateAccount(context.Background(), 1, UpdateAccountInput{ID: 10, Name: ptr("  ")})
	requireAPIError(t, err, model.ErrCodeValidationFailed)

	_, err = f.svc.UpdateAccount(context.Background(), 1, UpdateAccountInput{ID: 0})
	requireAPIError(t, err, model.ErrCodeValidationFailed)
}

// --- RemoveAccount ---

func TestRemoveAccount(t *testing.T) {
	t.Run("owner removes active listing", func(t *testing.T) {
		f := newFixture()
		f.accounts.findByIDFn = func(ctx context.Context, id int64) (*model.Account, error) { return activeAccount(id, 1), nil }
		f.accounts.updateStatusOwnedFn = func(ctx context.Context, id, sellerID int64, status model.AccountStatus) (*model.Account, error) {
			assert.Equal(t, model.AccountStatusRemoved, status)
			a := activeAccount(id, sellerID)
			a.Status = status
			return a, nil
		}

		a, err := f.svc.RemoveAccount(context.Background(), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, model.AccountStatusRemoved, a.Status)
	})

	t.Run("sold listing cannot be removed", func(t *testing.T) {
		f := newFixture()
		f.accounts.findByIDFn = func(ctx context.Context, id int64) (*model.Account, error) {
			a := activeAccount(id, 1)
			a.Status = model.AccountStatusSold
			return a, nil
		}

		_, err := f.svc.RemoveAccount(context.Background(), 1, 10)
		requireAPIError(t, err, model.ErrCodeAccountNotAvailable)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		f := newFixture()
		f.accounts.findByIDFn = func(ctx context.Context, id int64) (*model.Account, error) { return activeAccount(id, 1), nil }
		f.accounts.updateStatusOwnedFn = func(ctx context.Context, id, sellerID int64, status model.AccountStatus) (*model.Account, error) {
			return nil, repository.ErrNotOwned
		}

		_, err := f.svc.RemoveAccount(context.Background(), 2, 10)
		requireAPIError(t, err, model.ErrCodeForbidden)
	})
}

// --- CreatePurchase ---

func TestCreatePurchase_BuyerIsCallerAndPriceSnapshot(t *testing.T) {
	f := newFixture()
	f.accounts.findByIDFn = func(ctx context.Context, id int64) (*model.Account, error) { return activeAccount(id, 1), nil }
	var stored *model.Purchase
	f.purchases.createFn = func(ctx context.Context, p *model.Purchase) error {
		p.ID = 5
		stored = p
		return nil
	}

	p, err := f.svc.CreatePurchase(context.Background(), 2, CreatePurchaseInput{AccountID: 10, SellerID: 1, Price: ptr(int64(45))})

	require.NoError(t, err)
	assert.Equal(t, int64(5), p.ID)
	assert.Equal(t, int64(2), stored.BuyerID)
	assert.Equal(t, int64(1), stored.SellerID)
	assert.Equal(t, int64(45), stored.Price)
	assert.Equal(t, model.PurchaseStatusPending, stored.Status)
	assert.Equal(t, 1, f.recorder.purchases)
}

func TestCreatePurchase_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		buyerID int64
		account *model.Account
		input   CreatePurchaseInput
		code    string
	}{
		{
			name:    "missing account",
			buyerID: 2,
			input:   CreatePurchaseInput{AccountID: 10, SellerID: 1, Price: ptr(int64(50))},
			code:    model.ErrCodeAccountNotFound,
		},
		{
			name:    "own listing",
			buyerID: 1,
			account: activeAccount(10, 1),
			input:   CreatePurchaseInput{AccountID: 10, SellerID: 1, Price: ptr(int64(50))},
			code:    model.ErrCodeSelfPurchase,
		},
		{
			name:    "sold listing",
			buyerID: 2,
			account: &model.Account{ID: 10, SellerID: 1, Status: model.AccountStatusSold},
			input:   CreatePurchaseInput{AccountID: 10, SellerID: 1, Price: ptr(int64(50))},
			code:    model.ErrCodeAccountNotAvailable,
		},
		{
			name:    "seller mismatch",
			buyerID: 2,
			account: activeAccount(10, 1),
			input:   CreatePurchaseInput{AccountID: 10, SellerID: 3, Price: ptr(int64(50))},
			code:    model.ErrCodeValidationFailed,
		},
		{
			name:    "negative price",
			buyerID: 2,
			account: activeAccount(10, 1),
			input:   CreatePurchaseInput{AccountID: 10, SellerID: 1, Price: ptr(int64(-1))},
			code:    model.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.accounts.findByIDFn = func(ctx context.Context, id int64) (*model.Account, error) { return tt.account, nil }
			f.purchases.createFn = func(ctx context.Context, p *model.Purchase) error {
				t.Fatal("purchase should not be created")
				return nil
			}

			_, err := f.svc.CreatePurchase(context.Background(), tt.buyerID, tt.input)

			requireAPIError(t, err, tt.code)
			assert.Zero(t, f.recorder.purchases)
		})
	}
}

// --- CompletePurchase / CancelPurchase ---

func TestCompletePurchase_MapsRepositoryErrors(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{repository.ErrNotFound, model.ErrCodePurchaseNotFound},
		{repository.ErrNotOwned, model.ErrCodeForbidden},
		{repository.ErrNotPending, model.ErrCodePurchaseNotPending},
		{repository.ErrAccountUnavailable, model.ErrCodeAccountNotAvailable},
		{repository.ErrStoreUnavailable, model.ErrCodeStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			f := newFixture()
			f.purchases.completeFn = func(ctx context.Context, id, sellerID int64) (*model.Purchase, error) {
				return nil, tt.err
			}
			f.purchases.findByIDFn = func(ctx context.Context, id int64) (*model.Purchase, error) {
				return &model.Purchase{ID: id, AccountID: 10}, nil
			}
			f.accounts.findByIDFn = func(ctx context.Context, id int64) (*model.Account, error) {
				return &model.Account{ID: id, Status: model.AccountStatusRemoved}, nil
			}

			_, err := f.svc.CompletePurchase(context.Background(), 1, 5)

			requireAPIError(t, err, tt.code)
			assert.Empty(t, f.recorder.completed)
		})
	}
}

func TestCompletePurchase_RecordsSale(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.purchases.completeFn = func(ctx context.Context, id, sellerID int64) (*model.Purchase, error) {
		return &model.Purchase{ID: id, SellerID: sellerID, Price: 80, Status: model.PurchaseStatusCompleted, CompletedAt: &now}, nil
	}

	p, err := f.svc.CompletePurchase(context.Background(), 1, 5)

	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusCompleted, p.Status)
	assert.Equal(t, []int64{80}, f.recorder.completed)
}

func TestCompletePurchase_UnexpectedErrorWrapped(t *testing.T) {
	f := newFixture()
	boom := errors.New("connection reset")
	f.purchases.completeFn = func(ctx context.Context, id, sellerID int64) (*model.Purchase, error) {
		return nil, boom
	}

	_, err := f.svc.CompletePurchase(context.Background(), 1, 5)

	require.ErrorIs(t, err, boom)
	var apiErr *model.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestCancelPurchase_RecordsWhoCancelled(t *testing.T) {
	f := newFixture()
	f.purchases.cancelFn = func(ctx context.Context, id, userID int64) (*model.Purchase, error) {
		return &model.Purchase{ID: id, BuyerID: 2, SellerID: 1, Status: model.PurchaseStatusCancelled}, nil
	}

	_, err := f.svc.CancelPurchase(context.Background(), 2, 5)
	require.NoError(t, err)
	_, err = f.svc.CancelPurchase(context.Background(), 1, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"buyer", "seller"}, f.recorder.cancelled)
}

// --- Reviews ---

// ストア未設定時の書き込みは出品が見つからない扱いにせず、STORE_UNAVAILABLEで失敗する
func TestWritesWithoutStore_FailWithStoreUnavailable(t *testing.T) {
	f := newFixture()
	f.accounts.unavailable = true
	f.accounts.findByIDFn = func(ctx context.Context, id int64) (*model.Account, error) {
		t.Fatal("account lookup should be skipped without a store")
		return nil, nil
	}
	f.purchases.createFn = func(ctx context.Context, p *model.Purchase) error {
		t.Fatal("purchase should not be created")
		return nil
	}
	f.reviews.createFn = func(ctx context.Context, r *model.Review) error {
		t.Fatal("review should not be created")
		return nil
	}
	ctx := context.Background()

	_, err := f.svc.CreatePurchase(ctx, 2, CreatePurchaseInput{AccountID: 10, SellerID: 1, Price: ptr(int64(50))})
	requireAPIError(t, err, model.ErrCodeStoreUnavailable)

	_, err = f.svc.CreateReview(ctx, 2, CreateReviewInput{AccountID: 10, Rating: ptr(4)})
	requireAPIError(t, err, model.ErrCodeStoreUnavailable)

	assert.Zero(t, f.recorder.purchases)
	assert.Empty(t, f.recorder.ratings)
}

func TestCreateReview(t *testing.T) {
	t.Run("stores sanitized comment", func(t *testing.T) {
		f := newFixture()
		f.accounts.findByIDFn = func(ctx context.Context, id int64) (*model.Account, error) { return activeAccount(id, 1), nil }
		var stored *model.Review
		f.reviews.createFn = func(ctx context.Context, r *model.Review) error {
			stored = r
			return nil
		}

		_, err := f.svc.CreateReview(context.Background(), 2, CreateReviewInput{AccountID: 10, Rating: ptr(5), Comment: ptr("<i>smooth</i> deal")})

		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.ReviewerID)
		require.NotNil(t, stored.Comment)
		assert.Equal(t, "smooth deal", *stored.Comment)
		assert.Equal(t, []int{5}, f.recorder.ratings)
	})

	t.Run("rating out of range", func(t *testing.T) {
		for _, rating := range []int{0, 6} {
			f := newFixture()
			_, err := f.svc.CreateReview(context.Background(), 2, CreateReviewInput{AccountID: 10, Rating: ptr(rating)})
			requireAPIError(t, err, model.ErrCodeValidationFailed)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		f := newFixture()
		f.accounts.findByIDFn = func(ctx context.Context, id int64) (*model.Account, error) { return nil, nil }

		_, err := f.svc.CreateReview(context.Background(), 2, CreateReviewInput{AccountID: 10, Rating: ptr(3)})
		requireAPIError(t, err, model.ErrCodeAccountNotFound)
	})
}

func TestReadPaths_ReturnEmptySlices(t *testing.T) {
	f := newFixture()
	f.accounts.listBySellerFn = func(ctx context.Context, sellerID int64) ([]model.Account, error) { return nil, nil }
	f.purchases.listByBuyerFn = func(ctx context.Context, buyerID int64) ([]model.Purchase, error) { return nil, nil }
	f.purchases.listBySellerFn = func(ctx context.Context, sellerID int64) ([]model.Purchase, error) { return nil, nil }
	f.reviews.listByAccountFn = func(ctx context.Context, accountID int64) ([]model.Review, error) { return nil, nil }
	f.accounts.findByIDFn = func(ctx context.Context, id int64) (*model.Account, error) { return nil, nil }

	ctx := context.Background()
	sales, err := f.svc.MySales(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, sales)

	bought, err := f.svc.MyPurchases(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, bought)

	sold, err := f.svc.MySalesPurchases(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, sold)

	reviews, err := f.svc.ListReviews(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, reviews)

	a, err := f.svc.GetAccount(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, a)
}
