package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/itqan-platform/itqan-backend/api/middleware"
	pkgerrors "github.com/itqan-platform/itqan-backend/pkg/errors"
)

func callerID(r *http.Request) (uuid.UUID, error) {
	caller, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return caller.UserID, nil
}

func callerIsAdmin(r *http.Request) bool {
	caller, ok := middleware.PrincipalFromContext(r.Context())
	return ok && caller.IsAdmin()
}
