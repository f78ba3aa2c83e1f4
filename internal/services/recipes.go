package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/repos"
	"github.com/cookclip/cookclip-backend/internal/types"
)

type RecipeService interface {
	// Save persists an extraction result for its owner. A recipe only
	// becomes durable here; extraction alone never writes.
	Save(ctx context.Context, userID uuid.UUID, sourceURL, sourcePlatform string, data *types.RecipeLLMOutput, transcript string) (*types.Recipe, error)
	List(ctx context.Context, userID uuid.UUID) ([]types.RecipeSummary, error)
	// Get returns NotFound for both absent ids and ids owned by someone
	// else, so existence never leaks across owners.
	Get(ctx context.Context, userID, recipeID uuid.UUID) (*types.Recipe, error)
	GetBySourceURL(ctx context.Context, userID uuid.UUID, sourceURL string) (*types.Recipe, error)
	// Delete is deliberately not idempotent: deleting a gone id is an
	// error, matching Get's ownership semantics.
	Delete(ctx context.Context, userID, recipeID uuid.UUID) error
	// Output converts a stored recipe back into the extraction shape used
	// as question context.
	Output(recipe *types.Recipe) (*types.RecipeLLMOutput, error)
}

type recipeService struct {
	db         *gorm.DB
	log        *logger.Logger
	recipeRepo repos.RecipeRepo
}

func NewRecipeService(db *gorm.DB, log *logger.Logger, recipeRepo repos.RecipeRepo) RecipeService {
	return &recipeService{
		db:         db,
		log:        log.With("service", "RecipeService"),
		recipeRepo: recipeRepo,
	}
}

func (rs *recipeService) Save(ctx context.Context, userID uuid.UUID, sourceURL, sourcePlatform string, data *types.RecipeLLMOutput, transcript string) (*types.Recipe, error) {
	ctx = defaultCtx(ctx)
	if strings.TrimSpace(sourceURL) == "" {
		return nil, apierr.Validation("source_url is required")
	}
	if data == nil {
		return nil, apierr.Validation("recipe data is required")
	}
	if err := ValidateRecipeOutput(data); err != nil {
		return nil, apierr.Validation("invalid recipe data: %v", err)
	}
	if sourcePlatform == "" {
		sourcePlatform = "youtube"
	}

	ingredients, err := json.Marshal(data.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ingredients: %w", err)
	}
	steps, err := json.Marshal(data.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode steps: %w", err)
	}
	missingInfo, err := json.Marshal(orEmpty(data.MissingInfo))
	if err != nil {
		return nil, fmt.Errorf("failed to encode missing_info: %w", err)
	}
	notes, err := json.Marshal(orEmpty(data.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to encode notes: %w", err)
	}

	recipe := &types.Recipe{
		ID:             uuid.New(),
		UserID:         userID,
		SourceURL:      sourceURL,
		SourcePlatform: sourcePlatform,
		Title:          data.Title,
		Servings:       data.Servings,
		Ingredients:    ingredients,
		Steps:          steps,
		MissingInfo:    missingInfo,
		Notes:          notes,
		Transcript:     transcript,
	}
	if _, err := rs.recipeRepo.Create(ctx, nil, recipe); err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}
	rs.log.Info("Recipe saved", "user_id", userID.String(), "recipe_id", recipe.ID.String())
	return recipe, nil
}

func (rs *recipeService) List(ctx context.Context, userID uuid.UUID) ([]types.RecipeSummary, error) {
	recipes, err := rs.recipeRepo.ListByUserID(defaultCtx(ctx), nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	summaries := make([]types.RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		summaries = append(summaries, types.RecipeSummary{
			ID:             r.ID,
			SourceURL:      r.SourceURL,
			SourcePlatform: r.SourcePlatform,
			Title:          r.Title,
			Servings:       r.Servings,
			CreatedAt:      r.CreatedAt,
		})
	}
	return summaries, nil
}

func (rs *recipeService) Get(ctx context.Context, userID, recipeID uuid.UUID) (*types.Recipe, error) {
	recipe, err := rs.recipeRepo.GetByID(defaultCtx(ctx), nil, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recipe: %w", err)
	}
	if recipe == nil || recipe.UserID != userID {
		return nil, apierr.NotFound("recipe not found")
	}
	return recipe, nil
}

func (rs *recipeService) GetBySourceURL(ctx context.Context, userID uuid.UUID, sourceURL string) (*types.Recipe, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return nil, apierr.Validation("source_url is required")
	}
	recipe, err := rs.recipeRepo.GetByUserAndSourceURL(defaultCtx(ctx), nil, userID, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recipe by url: %w", err)
	}
	return recipe, nil
}

func (rs *recipeService) Delete(ctx context.Context, userID, recipeID uuid.UUID) error {
	ctx = defaultCtx(ctx)
	// Ownership check first so a foreign id 404s identically to a missing
	// one.
	if _, err := rs.Get(ctx, userID, recipeID); err != nil {
		return err
	}
	affected, err := rs.recipeRepo.DeleteByID(ctx, nil, recipeID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if affected == 0 {
		return apierr.NotFound("recipe not found")
	}
	rs.log.Info("Recipe deleted", "user_id", userID.String(), "recipe_id", recipeID.String())
	return nil
}

func (rs *recipeService) Output(recipe *types.Recipe) (*types.RecipeLLMOutput, error) {
	if recipe == nil {
		return nil, fmt.Errorf("recipe is nil")
	}
	out := &types.RecipeLLMOutput{
		Title:    recipe.Title,
		Servings: recipe.Servings,
	}
	if err := json.Unmarshal(recipe.Ingredients, &out.Ingredients); err != nil {
		return nil, fmt.Errorf("stored ingredients unreadable: %w", err)
	}
	if err := json.Unmarshal(recipe.Steps, &out.Steps); err != nil {
		return nil, fmt.Errorf("stored steps unreadable: %w", err)
	}
	if len(recipe.MissingInfo) > 0 {
		if err := json.Unmarshal(recipe.MissingInfo, &out.MissingInfo); err != nil {
			return nil, fmt.Errorf("stored missing_info unreadable: %w", err)
		}
	}
	if len(recipe.Notes) > 0 {
		if err := json.Unmarshal(recipe.Notes, &out.Notes); err != nil {
			return nil, fmt.Errorf("stored notes unreadable: %w", err)
		}
	}
	if out.MissingInfo == nil {
		out.MissingInfo = []string{}
	}
	if out.Notes == nil {
		out.Notes = []string{}
	}
	return out, nil
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
