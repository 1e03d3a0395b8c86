package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/itqan-platform/itqan-backend/api/responses"
	"github.com/itqan-platform/itqan-backend/api/validators"
	"github.com/itqan-platform/itqan-backend/internal/invoices"
	"github.com/itqan-platform/itqan-backend/internal/ledger"
	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
)

type issueInvoicePayload struct {
	Description   string          `json:"description" validate:"required,max=255"`
	SubtotalCents int64           `json:"subtotal_cents" validate:"gt=0"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
}

// InvoiceIssue issues a numbered invoice against the caller's account.
func InvoiceIssue(svc invoices.Service, accounts ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload issueInvoicePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		account, err := accounts.OpenAccount(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		invoice, err := svc.Issue(ctx, invoices.IssueInput{
			AccountID:     account.ID,
			Description:   validators.SanitizeString(payload.Description, 255),
			SubtotalCents: payload.SubtotalCents,
			TaxRate:       payload.TaxRate,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoices.NewInvoiceDTO(invoice))
	}
}

// InvoiceGet returns an invoice owned by the caller. Admins may read any invoice.
func InvoiceGet(svc invoices.Service, accounts ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		invoice, err := loadOwnedInvoice(r, svc, accounts)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoices.NewInvoiceDTO(invoice))
	}
}

// InvoiceVoid voids an invoice; its number is never reissued.
func InvoiceVoid(svc invoices.Service, accounts ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		invoice, err := loadOwnedInvoice(r, svc, accounts)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		voided, err := svc.Void(ctx, invoice.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoices.NewInvoiceDTO(voided))
	}
}

func loadOwnedInvoice(r *http.Request, svc invoices.Service, accounts ledger.Service) (*models.Invoice, error) {
	ctx := r.Context()
	invoiceID, err := validators.ParseUUIDParam(r, "invoiceId")
	if err != nil {
		return nil, err
	}
	invoice, err := svc.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if callerIsAdmin(r) {
		return invoice, nil
	}
	userID, err := callerID(r)
	if err != nil {
		return nil, err
	}
	account, err := accounts.OpenAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if invoice.AccountID != account.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return invoice, nil
}
