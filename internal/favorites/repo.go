package favorites

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	"github.com/itqan-platform/itqan-backend/pkg/pagination"
)

// Repository encapsulates favorites persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Insert adds the favorite and ignores duplicates.
func (r *Repository) Insert(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) error {
	if userID == uuid.Nil || targetID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_id"}, {Name: "target_kind"}},
			DoNothing: true,
		}).
		Create(&models.Favorite{UserID: userID, TargetID: targetID, TargetKind: kind}).
		Error
}

// Delete removes the favorite and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND target_id = ? AND target_kind = ?", userID, targetID, kind).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) Exists(ctx context.Context, userID, targetID uuid.UUID, kind enums.FavoriteTargetKind) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND target_id = ? AND target_kind = ?", userID, targetID, kind).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns a page of the user's favorites of one kind, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, kind enums.FavoriteTargetKind, cursor string, limit int) (FavoritesPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	cursorValue := strings.TrimSpace(cursor)
	decodedCursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return FavoritesPageDTO{}, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND target_kind = ?", userID, kind)
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []models.Favorite
	if err := query.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&records).Error; err != nil {
		return FavoritesPageDTO{}, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > normalizedLimit {
		resultRows = records[:normalizedLimit]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	items := make([]FavoriteDTO, 0, len(resultRows))
	for _, record := range resultRows {
		items = append(items, FavoriteDTO{
			TargetID:   record.TargetID,
			TargetKind: record.TargetKind,
			CreatedAt:  record.CreatedAt,
		})
	}

	return FavoritesPageDTO{
		Items: items,
		Pagination: pagination.Meta{
			Current: cursorValue,
			Next:    nextCursor,
			Limit:   normalizedLimit,
		},
	}, nil
}
