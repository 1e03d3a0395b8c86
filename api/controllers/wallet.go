package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/itqan-platform/itqan-backend/api/responses"
	"github.com/itqan-platform/itqan-backend/api/validators"
	"github.com/itqan-platform/itqan-backend/internal/ledger"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
	"github.com/itqan-platform/itqan-backend/pkg/pagination"
)

type walletPurchasePayload struct {
	Amount      int64  `json:"amount" validate:"gt=0"`
	Description string `json:"description" validate:"max=255"`
	ReferenceID string `json:"reference_id" validate:"required,uuid"`
}

type walletSpendPayload struct {
	Amount      int64  `json:"amount" validate:"gt=0"`
	Kind        string `json:"kind" validate:"required,oneof=MISSION_POST FEATURED"`
	Description string `json:"description" validate:"max=255"`
	ReferenceID string `json:"reference_id" validate:"omitempty,uuid"`
}

type walletEntryResponse struct {
	Entry    ledger.EntryDTO `json:"entry"`
	Balance  int64           `json:"balance"`
	Replayed bool            `json:"replayed,omitempty"`
}

// WalletGet returns the caller's account, opening it on first access.
func WalletGet(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		account, err := svc.OpenAccount(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.NewAccountDTO(account))
	}
}

// WalletEntries lists the caller's ledger entries, newest first.
func WalletEntries(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		cursor, err := validators.ParseCursorQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		account, err := svc.OpenAccount(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		page, err := svc.ListEntries(ctx, account.ID, pagination.Params{
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// BillingPurchase credits purchased units to the account of the user in the
// path. Only the payment service and admins reach it; reference_id names the
// settled payment, so a retried call returns the original entry with 200.
func BillingPurchase(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload walletPurchasePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ref, err := validators.ParseUUID(payload.ReferenceID, "reference_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		applyWalletDelta(w, r, svc, logg, userID, payload.Amount, enums.LedgerEntryKindPurchase, payload.Description, &ref)
	}
}

// WalletSpend debits the caller's account for a paid action.
func WalletSpend(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload walletSpendPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		kind, err := enums.ParseLedgerEntryKind(payload.Kind)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
			return
		}
		var ref *uuid.UUID
		if payload.ReferenceID != "" {
			parsed, err := validators.ParseUUID(payload.ReferenceID, "reference_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			ref = &parsed
		}
		applyWalletDelta(w, r, svc, logg, userID, -payload.Amount, kind, payload.Description, ref)
	}
}

func applyWalletDelta(w http.ResponseWriter, r *http.Request, svc ledger.Service, logg *logger.Logger, userID uuid.UUID, delta int64, kind enums.LedgerEntryKind, description string, ref *uuid.UUID) {
	ctx := r.Context()
	account, err := svc.OpenAccount(ctx, userID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	entry, err := svc.ApplyDelta(ctx, ledger.ApplyDeltaInput{
		AccountID:   account.ID,
		Delta:       delta,
		Kind:        kind,
		Description: validators.SanitizeString(description, 255),
		ReferenceID: ref,
	})
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	status := http.StatusCreated
	if entry.Replayed {
		status = http.StatusOK
	}
	responses.WriteSuccessStatus(w, status, walletEntryResponse{
		Entry:    ledger.NewEntryDTO(*entry),
		Balance:  entry.BalanceAfter,
		Replayed: entry.Replayed,
	})
}

// AdminWalletReconcile replays an account's history against its stored balance.
func AdminWalletReconcile(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID, err := validators.ParseUUIDParam(r, "accountId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		report, err := svc.Reconcile(ctx, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
