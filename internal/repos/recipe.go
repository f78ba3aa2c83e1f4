package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/types"
)

type RecipeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, recipe *types.Recipe) (*types.Recipe, error)
	GetByID(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID) (*types.Recipe, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Recipe, error)
	GetByUserAndSourceURL(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sourceURL string) (*types.Recipe, error)
	// DeleteByID reports how many rows were removed so callers can
	// distinguish a delete of an absent id.
	DeleteByID(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID) (int64, error)
}

type recipeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRepo {
	return &recipeRepo{db: db, log: baseLog.With("repo", "RecipeRepo")}
}

func (rr *recipeRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return rr.db
}

func (rr *recipeRepo) Create(ctx context.Context, tx *gorm.DB, recipe *types.Recipe) (*types.Recipe, error) {
	if err := rr.conn(tx).WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

func (rr *recipeRepo) GetByID(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID) (*types.Recipe, error) {
	var recipe types.Recipe
	err := rr.conn(tx).WithContext(ctx).Where("id = ?", recipeID).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (rr *recipeRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Recipe, error) {
	var results []*types.Recipe
	if err := rr.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *recipeRepo) GetByUserAndSourceURL(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sourceURL string) (*types.Recipe, error) {
	var recipe types.Recipe
	err := rr.conn(tx).WithContext(ctx).
		Where("user_id = ? AND source_url = ?", userID, sourceURL).
		First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (rr *recipeRepo) DeleteByID(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID) (int64, error) {
	res := rr.conn(tx).WithContext(ctx).Where("id = ?", recipeID).Delete(&types.Recipe{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
