package controllers

import (
	"net/http"
	"strings"

	"github.com/itqan-platform/itqan-backend/api/responses"
	"github.com/itqan-platform/itqan-backend/api/validators"
	"github.com/itqan-platform/itqan-backend/internal/favorites"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
	"github.com/itqan-platform/itqan-backend/pkg/pagination"
)

type toggleFavoritePayload struct {
	TargetID   string `json:"target_id" validate:"required,uuid"`
	TargetKind string `json:"target_kind" validate:"required,oneof=FREELANCER MISSION"`
}

// FavoriteToggle flips the caller's favorite on a target.
func FavoriteToggle(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload toggleFavoritePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		targetID, err := validators.ParseUUID(payload.TargetID, "target_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		kind, err := parseTargetKind(payload.TargetKind)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Toggle(ctx, userID, targetID, kind)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// FavoriteStatus reports whether the caller has favorited a target.
func FavoriteStatus(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		targetID, err := validators.ParseUUIDQuery(r, "target_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		kind, err := parseTargetKind(r.URL.Query().Get("target_kind"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		active, err := svc.IsActive(ctx, userID, targetID, kind)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, favorites.ToggleResult{Active: active})
	}
}

// FavoritesList returns the caller's favorites of one kind.
func FavoritesList(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		kind, err := parseTargetKind(r.URL.Query().Get("target_kind"))
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
		page, err := svc.List(ctx, userID, kind, cursor, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseTargetKind(raw string) (enums.FavoriteTargetKind, error) {
	kind, err := enums.ParseFavoriteTargetKind(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target_kind").
			WithDetails(map[string]any{"field": "target_kind"})
	}
	return kind, nil
}
