package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/itqan-platform/itqan-backend/internal/invoices"
	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
)

func TestInvoiceIssue(t *testing.T) {
	accountID := uuid.New()
	accounts := &testLedgerService{
		openFn: func(ctx context.Context, uid uuid.UUID) (*models.Account, error) {
			return &models.Account{ID: accountID, UserID: uid}, nil
		},
	}
	svc := &testInvoiceService{
		issueFn: func(ctx context.Context, input invoices.IssueInput) (*models.Invoice, error) {
			if input.AccountID != accountID {
				t.Fatalf("unexpected account %s", input.AccountID)
			}
			if !input.TaxRate.Equal(decimal.RequireFromString("0.15")) {
				t.Fatalf("unexpected tax rate %s", input.TaxRate)
			}
			return &models.Invoice{
				ID:            uuid.New(),
				Number:        "ITQ-2025-0001",
				AccountID:     input.AccountID,
				SubtotalCents: input.SubtotalCents,
				TaxRate:       input.TaxRate,
				TaxCents:      150,
				TotalCents:    1150,
				Status:        enums.InvoiceStatusIssued,
			}, nil
		},
	}

	body := `{"description":"credits","subtotal_cents":1000,"tax_rate":"0.15"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(body)), uuid.New(), enums.UserRoleMember)
	resp := httptest.NewRecorder()
	InvoiceIssue(svc, accounts, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data invoices.InvoiceDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Number != "ITQ-2025-0001" || envelope.Data.TotalCents != 1150 {
		t.Fatalf("unexpected invoice %+v", envelope.Data)
	}
}

func TestInvoiceGetHidesOtherAccounts(t *testing.T) {
	invoiceID := uuid.New()
	owner := uuid.New()
	svc := &testInvoiceService{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
			return &models.Invoice{ID: id, AccountID: owner, Number: "ITQ-2025-0007", Status: enums.InvoiceStatusIssued}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+invoiceID.String(), nil)
	req = withURLParams(asUser(req, uuid.New(), enums.UserRoleMember), map[string]string{"invoiceId": invoiceID.String()})
	resp := httptest.NewRecorder()
	InvoiceGet(svc, &testLedgerService{}, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+invoiceID.String(), nil)
	req = withURLParams(asUser(req, uuid.New(), enums.UserRoleAdmin), map[string]string{"invoiceId": invoiceID.String()})
	resp = httptest.NewRecorder()
	InvoiceGet(svc, &testLedgerService{}, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected admin read to succeed, got %d", resp.Code)
	}
}

func TestInvoiceVoidOwned(t *testing.T) {
	invoiceID := uuid.New()
	accountID := uuid.New()
	accounts := &testLedgerService{
		openFn: func(ctx context.Context, uid uuid.UUID) (*models.Account, error) {
			return &models.Account{ID: accountID, UserID: uid}, nil
		},
	}
	voided := false
	svc := &testInvoiceService{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
			return &models.Invoice{ID: id, AccountID: accountID, Status: enums.InvoiceStatusIssued}, nil
		},
		voidFn: func(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
			voided = true
			return &models.Invoice{ID: id, AccountID: accountID, Status: enums.InvoiceStatusVoided}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+invoiceID.String()+"/void", nil)
	req = withURLParams(asUser(req, uuid.New(), enums.UserRoleMember), map[string]string{"invoiceId": invoiceID.String()})
	resp := httptest.NewRecorder()
	InvoiceVoid(svc, accounts, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !voided {
		t.Fatal("expected void to be called")
	}
}

func TestInvoiceGetRejectsBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/nope", nil)
	req = withURLParams(asUser(req, uuid.New(), enums.UserRoleMember), map[string]string{"invoiceId": "nope"})
	resp := httptest.NewRecorder()
	InvoiceGet(&testInvoiceService{}, &testLedgerService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
