package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/itqan-platform/itqan-backend/api/responses"
	"github.com/itqan-platform/itqan-backend/api/validators"
	"github.com/itqan-platform/itqan-backend/internal/badges"
	"github.com/itqan-platform/itqan-backend/internal/profiles"
	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
)

type grantBadgePayload struct {
	SubjectID   string `json:"subject_id" validate:"required,uuid"`
	Type        string `json:"type" validate:"required"`
	Name        string `json:"name" validate:"max=64"`
	Description string `json:"description" validate:"max=255"`
	Icon        string `json:"icon" validate:"max=255"`
}

// BadgesList returns every badge a subject holds.
func BadgesList(svc badges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subjectID, err := validators.ParseUUIDParam(r, "subjectId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		list, err := svc.List(ctx, subjectID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, badges.NewBadgeDTOs(list))
	}
}

// AdminBadgeGrant grants any badge type, bypassing rules.
func AdminBadgeGrant(svc badges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload grantBadgePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		subjectID, err := validators.ParseUUID(payload.SubjectID, "subject_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		badgeType, err := parseBadgeType(payload.Type)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		badge, err := svc.Grant(ctx, badges.GrantInput{
			SubjectID:   subjectID,
			Type:        badgeType,
			Name:        validators.SanitizeString(payload.Name, 64),
			Description: validators.SanitizeString(payload.Description, 255),
			Icon:        validators.SanitizeString(payload.Icon, 255),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dtos := badges.NewBadgeDTOs([]models.Badge{*badge})
		responses.WriteSuccessStatus(w, http.StatusCreated, dtos[0])
	}
}

// AdminBadgeRevoke removes a badge; revoking an absent badge succeeds.
func AdminBadgeRevoke(svc badges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subjectID, err := validators.ParseUUIDParam(r, "subjectId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		badgeType, err := parseBadgeType(chi.URLParam(r, "type"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Revoke(ctx, subjectID, badgeType); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"revoked": true})
	}
}

// AdminBadgeRecompute re-evaluates the automatic rules for one subject.
func AdminBadgeRecompute(svc badges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subjectID, err := validators.ParseUUIDParam(r, "subjectId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.RecomputeBadges(ctx, subjectID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminProfileMetrics records new rating and mission figures for a subject.
// Badge recompute runs through the profile change hook.
func AdminProfileMetrics(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		subjectID, err := validators.ParseUUIDParam(r, "subjectId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload profiles.MetricsInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		profile, err := svc.RecordMetrics(ctx, subjectID, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profiles.NewProfileDTO(profile))
	}
}

func parseBadgeType(raw string) (enums.BadgeType, error) {
	badgeType, err := enums.ParseBadgeType(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid badge type").
			WithDetails(map[string]any{"field": "type"})
	}
	return badgeType, nil
}
