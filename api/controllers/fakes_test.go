package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itqan-platform/itqan-backend/api/middleware"
	"github.com/itqan-platform/itqan-backend/internal/badges"
	"github.com/itqan-platform/itqan-backend/internal/favorites"
	"github.com/itqan-platform/itqan-backend/internal/invoices"
	"github.com/itqan-platform/itqan-backend/internal/ledger"
	"github.com/itqan-platform/itqan-backend/internal/profiles"
	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
	"github.com/itqan-platform/itqan-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func asUser(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{UserID: userID, Role: role}))
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type testLedgerService struct {
	openFn      func(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	applyFn     func(ctx context.Context, input ledger.ApplyDeltaInput) (*models.LedgerEntry, error)
	listFn      func(ctx context.Context, accountID uuid.UUID, params pagination.Params) (ledger.EntriesPage, error)
	reconcileFn func(ctx context.Context, accountID uuid.UUID) (ledger.ReconcileReport, error)
}

func (s *testLedgerService) OpenAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	if s.openFn != nil {
		return s.openFn(ctx, userID)
	}
	return &models.Account{ID: uuid.New(), UserID: userID}, nil
}

func (s *testLedgerService) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *testLedgerService) ApplyDelta(ctx context.Context, input ledger.ApplyDeltaInput) (*models.LedgerEntry, error) {
	if s.applyFn != nil {
		return s.applyFn(ctx, input)
	}
	return &models.LedgerEntry{ID: uuid.New(), AccountID: input.AccountID, Delta: input.Delta, Kind: input.Kind}, nil
}

func (s *testLedgerService) ListEntries(ctx context.Context, accountID uuid.UUID, params pagination.Params) (ledger.EntriesPage, error) {
	if s.listFn != nil {
		return s.listFn(ctx, accountID, params)
	}
	return ledger.EntriesPage{}, nil
}

func (s *testLedgerService) Reconcile(ctx context.Context, accountID uuid.UUID) (ledger.ReconcileReport, error) {
	if s.reconcileFn != nil {
		return s.reconcileFn(ctx, accountID)
	}
	return ledger.ReconcileReport{AccountID: accountID, Consistent: true}, nil
}

type testInvoiceService struct {
	issueFn func(ctx context.Context, input invoices.IssueInput) (*models.Invoice, error)
	voidFn  func(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
	getFn   func(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
}

func (s *testInvoiceService) Issue(ctx context.Context, input invoices.IssueInput) (*models.Invoice, error) {
	return s.issueFn(ctx, input)
}

func (s *testInvoiceService) Void(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	return s.voidFn(ctx, invoiceID)
}

func (s *testInvoiceService) Get(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	return s.getFn(ctx, invoiceID)
}

type testFavoritesService struct {
	toggleFn func(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) (favorites.ToggleResult, error)
	activeFn func(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) (bool, error)
	listFn   func(ctx context.Context, userID uuid.UUID, kind enums.FavoriteTargetKind, cursor string, limit int) (favorites.FavoritesPageDTO, error)
}

func (s *testFavoritesService) Toggle(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) (favorites.ToggleResult, error) {
	return s.toggleFn(ctx, userID, targetID, kind)
}

func (s *testFavoritesService) IsActive(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) (bool, error) {
	return s.activeFn(ctx, userID, targetID, kind)
}

func (s *testFavoritesService) List(ctx context.Context, userID uuid.UUID, kind enums.FavoriteTargetKind, cursor string, limit int) (favorites.FavoritesPageDTO, error) {
	return s.listFn(ctx, userID, kind, cursor, limit)
}

type testBadgeService struct {
	recomputeFn func(ctx context.Context, subjectID uuid.UUID) (badges.RecomputeResult, error)
	grantFn     func(ctx context.Context, input badges.GrantInput) (*models.Badge, error)
	revokeFn    func(ctx context.Context, subjectID uuid.UUID, badgeType enums.BadgeType) error
	listFn      func(ctx context.Context, subjectID uuid.UUID) ([]models.Badge, error)
}

func (s *testBadgeService) RecomputeBadges(ctx context.Context, subjectID uuid.UUID) (badges.RecomputeResult, error) {
	return s.recomputeFn(ctx, subjectID)
}

func (s *testBadgeService) OnProfileChanged(ctx context.Context, subjectID uuid.UUID) error {
	return nil
}

func (s *testBadgeService) Grant(ctx context.Context, input badges.GrantInput) (*models.Badge, error) {
	return s.grantFn(ctx, input)
}

func (s *testBadgeService) Revoke(ctx context.Context, subjectID uuid.UUID, badgeType enums.BadgeType) error {
	return s.revokeFn(ctx, subjectID, badgeType)
}

func (s *testBadgeService) List(ctx context.Context, subjectID uuid.UUID) ([]models.Badge, error) {
	return s.listFn(ctx, subjectID)
}

type testProfileService struct {
	recordFn func(ctx context.Context, subjectID uuid.UUID, input profiles.MetricsInput) (*models.FreelancerProfile, error)
}

func (s *testProfileService) RecordMetrics(ctx context.Context, subjectID uuid.UUID, input profiles.MetricsInput) (*models.FreelancerProfile, error) {
	return s.recordFn(ctx, subjectID, input)
}

func (s *testProfileService) Get(ctx context.Context, subjectID uuid.UUID) (*models.FreelancerProfile, error) {
	return nil, nil
}
