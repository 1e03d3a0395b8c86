package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/itqan-platform/itqan-backend/internal/ledger"
	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/pagination"
)

func TestWalletSpendDebitsCallerAccount(t *testing.T) {
	userID := uuid.New()
	accountID := uuid.New()
	var applied ledger.ApplyDeltaInput
	svc := &testLedgerService{
		openFn: func(ctx context.Context, uid uuid.UUID) (*models.Account, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return &models.Account{ID: accountID, UserID: uid, Balance: 100}, nil
		},
		applyFn: func(ctx context.Context, input ledger.ApplyDeltaInput) (*models.LedgerEntry, error) {
			applied = input
			return &models.LedgerEntry{ID: uuid.New(), AccountID: input.AccountID, Seq: 2, Delta: input.Delta, Kind: input.Kind, BalanceAfter: 70}, nil
		},
	}

	body := `{"amount":30,"kind":"MISSION_POST","description":"post mission"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/wallet/spend", strings.NewReader(body)), userID, enums.UserRoleMember)
	resp := httptest.NewRecorder()
	WalletSpend(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if applied.AccountID != accountID || applied.Delta != -30 || applied.Kind != enums.LedgerEntryKindMissionPost {
		t.Fatalf("unexpected delta input %+v", applied)
	}

	var envelope struct {
		Data walletEntryResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Balance != 70 || envelope.Data.Entry.Seq != 2 {
		t.Fatalf("unexpected response %+v", envelope.Data)
	}
}

func TestWalletSpendMapsInsufficientBalance(t *testing.T) {
	svc := &testLedgerService{
		applyFn: func(ctx context.Context, input ledger.ApplyDeltaInput) (*models.LedgerEntry, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance")
		},
	}

	body := `{"amount":80,"kind":"FEATURED"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/wallet/spend", strings.NewReader(body)), uuid.New(), enums.UserRoleMember)
	resp := httptest.NewRecorder()
	WalletSpend(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestWalletSpendRejectsInvalidPayload(t *testing.T) {
	called := false
	svc := &testLedgerService{
		applyFn: func(ctx context.Context, input ledger.ApplyDeltaInput) (*models.LedgerEntry, error) {
			called = true
			return nil, nil
		},
	}

	for _, body := range []string{
		`{"amount":0,"kind":"FEATURED"}`,
		`{"amount":10,"kind":"PURCHASE"}`,
		`{"amount":10,"kind":"FEATURED","reference_id":"nope"}`,
	} {
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/wallet/spend", strings.NewReader(body)), uuid.New(), enums.UserRoleMember)
		resp := httptest.NewRecorder()
		WalletSpend(svc, testLogger())(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s got %d", body, resp.Code)
		}
	}
	if called {
		t.Fatal("service should not be called for invalid payloads")
	}
}

func TestBillingPurchaseCreditsPathUser(t *testing.T) {
	userID := uuid.New()
	refID := uuid.New()
	var applied ledger.ApplyDeltaInput
	svc := &testLedgerService{
		openFn: func(ctx context.Context, uid uuid.UUID) (*models.Account, error) {
			if uid != userID {
				t.Fatalf("expected account of path user %s got %s", userID, uid)
			}
			return &models.Account{ID: uuid.New(), UserID: uid}, nil
		},
		applyFn: func(ctx context.Context, input ledger.ApplyDeltaInput) (*models.LedgerEntry, error) {
			applied = input
			return &models.LedgerEntry{ID: uuid.New(), Seq: 1, Delta: input.Delta, Kind: input.Kind, BalanceAfter: input.Delta}, nil
		},
	}

	body := `{"amount":100,"reference_id":"` + refID.String() + `"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/billing/accounts/"+userID.String()+"/purchases", strings.NewReader(body)), uuid.New(), enums.UserRoleBilling)
	req = withURLParams(req, map[string]string{"userId": userID.String()})
	resp := httptest.NewRecorder()
	BillingPurchase(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if applied.Delta != 100 || applied.Kind != enums.LedgerEntryKindPurchase {
		t.Fatalf("unexpected delta input %+v", applied)
	}
	if applied.ReferenceID == nil || *applied.ReferenceID != refID {
		t.Fatalf("reference id not forwarded")
	}
}

func TestBillingPurchaseReplayReturnsOK(t *testing.T) {
	svc := &testLedgerService{
		applyFn: func(ctx context.Context, input ledger.ApplyDeltaInput) (*models.LedgerEntry, error) {
			return &models.LedgerEntry{ID: uuid.New(), Seq: 1, Delta: input.Delta, Kind: input.Kind, BalanceAfter: input.Delta, Replayed: true}, nil
		},
	}

	userID := uuid.NewString()
	body := `{"amount":100,"reference_id":"` + uuid.NewString() + `"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), uuid.New(), enums.UserRoleBilling)
	req = withURLParams(req, map[string]string{"userId": userID})
	resp := httptest.NewRecorder()
	BillingPurchase(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay got %d", resp.Code)
	}
	var envelope struct {
		Data walletEntryResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Data.Replayed {
		t.Fatalf("expected replayed flag in %+v", envelope.Data)
	}
}

func TestBillingPurchaseRequiresReference(t *testing.T) {
	called := false
	svc := &testLedgerService{
		applyFn: func(ctx context.Context, input ledger.ApplyDeltaInput) (*models.LedgerEntry, error) {
			called = true
			return nil, nil
		},
	}

	for _, body := range []string{
		`{"amount":100}`,
		`{"amount":100,"reference_id":""}`,
		`{"amount":100,"reference_id":"nope"}`,
		`{"amount":0,"reference_id":"` + uuid.NewString() + `"}`,
	} {
		req := asUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), uuid.New(), enums.UserRoleBilling)
		req = withURLParams(req, map[string]string{"userId": uuid.NewString()})
		resp := httptest.NewRecorder()
		BillingPurchase(svc, testLogger())(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s got %d", body, resp.Code)
		}
	}
	if called {
		t.Fatal("service should not be called without a valid reference")
	}
}

func TestWalletRequiresUserContext(t *testing.T) {
	resp := httptest.NewRecorder()
	WalletGet(&testLedgerService{}, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestWalletEntriesForwardsPagination(t *testing.T) {
	accountID := uuid.New()
	cursor := pagination.EncodeSeqCursor(5)
	svc := &testLedgerService{
		openFn: func(ctx context.Context, uid uuid.UUID) (*models.Account, error) {
			return &models.Account{ID: accountID, UserID: uid}, nil
		},
		listFn: func(ctx context.Context, id uuid.UUID, params pagination.Params) (ledger.EntriesPage, error) {
			if id != accountID {
				t.Fatalf("unexpected account %s", id)
			}
			if params.Limit != 2 || params.Cursor != cursor {
				t.Fatalf("unexpected params %+v", params)
			}
			return ledger.EntriesPage{Entries: []ledger.EntryDTO{{Seq: 4}, {Seq: 3}}}, nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/entries?limit=2&cursor="+cursor, nil), uuid.New(), enums.UserRoleMember)
	resp := httptest.NewRecorder()
	WalletEntries(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}

	req = asUser(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/entries?limit=abc", nil), uuid.New(), enums.UserRoleMember)
	resp = httptest.NewRecorder()
	WalletEntries(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminWalletReconcile(t *testing.T) {
	accountID := uuid.New()
	svc := &testLedgerService{
		reconcileFn: func(ctx context.Context, id uuid.UUID) (ledger.ReconcileReport, error) {
			return ledger.ReconcileReport{AccountID: id, StoredBalance: 70, ComputedBalance: 70, EntryCount: 2, Consistent: true}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/wallet/"+accountID.String()+"/reconcile", nil)
	req = withURLParams(req, map[string]string{"accountId": accountID.String()})
	resp := httptest.NewRecorder()
	AdminWalletReconcile(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data ledger.ReconcileReport `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Data.Consistent || envelope.Data.AccountID != accountID {
		t.Fatalf("unexpected report %+v", envelope.Data)
	}
}
