package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/pkg/pointers"
	"github.com/cookclip/cookclip-backend/internal/repos"
	"github.com/cookclip/cookclip-backend/internal/types"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&types.User{}, &types.Recipe{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		gdb.Exec("DELETE FROM recipe")
		gdb.Exec("DELETE FROM user")
	})
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, email string) *types.User {
	t.Helper()
	user := &types.User{
		ID:           uuid.New(),
		Email:        email,
		AuthProvider: AuthProviderEmail,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func sampleOutput() *types.RecipeLLMOutput {
	return &types.RecipeLLMOutput{
		Title:    "Shakshuka",
		Servings: pointers.Ptr(4),
		Ingredients: []types.Ingredient{
			{
				Name:     "eggs",
				Amount:   pointers.Ptr(6.0),
				Unit:     pointers.Ptr("whole"),
				Source:   types.IngredientSourceExplicit,
				Evidence: types.Evidence{StartSec: 12, EndSec: 15, Quote: "six eggs"},
			},
			{
				Name:            "paprika",
				Source:          types.IngredientSourceInferred,
				Evidence:        types.Evidence{StartSec: 30, EndSec: 33, Quote: "some paprika"},
				SuggestedAmount: pointers.Ptr(1.0),
				SuggestedUnit:   pointers.Ptr("tsp"),
			},
		},
		Steps: []types.Step{
			{StepNumber: 1, Text: "Soften the onions.", StartSec: 10, EndSec: 90, EvidenceQuote: "soften them"},
			{StepNumber: 2, Text: "Crack in the eggs.", StartSec: 91, EndSec: 180, EvidenceQuote: "crack them in"},
		},
		MissingInfo: []string{"simmer time not stated"},
		Notes:       []string{},
	}
}

func newRecipeServiceForTest(t *testing.T) (RecipeService, *gorm.DB) {
	t.Helper()
	gdb := testDB(t)
	log := testLogger(t)
	return NewRecipeService(gdb, log, repos.NewRecipeRepo(gdb, log)), gdb
}

func TestRecipeService_SaveAndGetRoundTrip(t *testing.T) {
	svc, gdb := newRecipeServiceForTest(t)
	user := seedUser(t, gdb, "cook@example.com")

	saved, err := svc.Save(context.Background(), user.ID, "https://youtu.be/abc123xyz00", "", sampleOutput(), "full transcript text")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.SourcePlatform != "youtube" {
		t.Fatalf("platform default not applied: %q", saved.SourcePlatform)
	}

	got, err := svc.Get(context.Background(), user.ID, saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "Shakshuka" || got.Transcript != "full transcript text" {
		t.Fatalf("round trip mismatch: title=%q transcript=%q", got.Title, got.Transcript)
	}

	out, err := svc.Output(got)
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if len(out.Ingredients) != 2 || len(out.Steps) != 2 {
		t.Fatalf("decoded counts wrong: %d ingredients, %d steps", len(out.Ingredients), len(out.Steps))
	}
	if out.Ingredients[1].SuggestedAmount == nil || *out.Ingredients[1].SuggestedAmount != 1.0 {
		t.Fatal("suggested amount lost in round trip")
	}
	if out.Servings == nil || *out.Servings != 4 {
		t.Fatalf("servings lost in round trip: %v", out.Servings)
	}
	if len(out.MissingInfo) != 1 {
		t.Fatalf("missing_info lost: %v", out.MissingInfo)
	}
}

func TestRecipeService_SaveRejectsInvalidData(t *testing.T) {
	svc, gdb := newRecipeServiceForTest(t)
	user := seedUser(t, gdb, "cook@example.com")

	bad := sampleOutput()
	bad.Steps[1].StepNumber = 5
	_, err := svc.Save(context.Background(), user.ID, "https://youtu.be/abc123xyz00", "", bad, "")
	if !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}

func TestRecipeService_OwnershipHidesForeignRecipes(t *testing.T) {
	svc, gdb := newRecipeServiceForTest(t)
	owner := seedUser(t, gdb, "owner@example.com")
	other := seedUser(t, gdb, "other@example.com")

	saved, err := svc.Save(context.Background(), owner.ID, "https://youtu.be/abc123xyz00", "", sampleOutput(), "")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := svc.Get(context.Background(), other.ID, saved.ID); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("foreign Get should be NOT_FOUND, got %v", err)
	}
	if err := svc.Delete(context.Background(), other.ID, saved.ID); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("foreign Delete should be NOT_FOUND, got %v", err)
	}
	// Still present for the owner.
	if _, err := svc.Get(context.Background(), owner.ID, saved.ID); err != nil {
		t.Fatalf("owner Get failed after foreign delete attempt: %v", err)
	}
}

func TestRecipeService_DeleteNotIdempotent(t *testing.T) {
	svc, gdb := newRecipeServiceForTest(t)
	user := seedUser(t, gdb, "cook@example.com")

	saved, err := svc.Save(context.Background(), user.ID, "https://youtu.be/abc123xyz00", "", sampleOutput(), "")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := svc.Delete(context.Background(), user.ID, saved.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(context.Background(), user.ID, saved.ID); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("second Delete should be NOT_FOUND, got %v", err)
	}
}

func TestRecipeService_ListAndGetBySourceURL(t *testing.T) {
	svc, gdb := newRecipeServiceForTest(t)
	user := seedUser(t, gdb, "cook@example.com")

	first, err := svc.Save(context.Background(), user.ID, "https://youtu.be/first000000", "", sampleOutput(), "")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second := sampleOutput()
	second.Title = "Carbonara"
	if _, err := svc.Save(context.Background(), user.ID, "https://youtu.be/second00000", "", second, ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	summaries, err := svc.List(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	found, err := svc.GetBySourceURL(context.Background(), user.ID, "https://youtu.be/first000000")
	if err != nil {
		t.Fatalf("GetBySourceURL failed: %v", err)
	}
	if found == nil || found.ID != first.ID {
		t.Fatalf("wrong recipe resolved by url: %v", found)
	}

	missing, err := svc.GetBySourceURL(context.Background(), user.ID, "https://youtu.be/nosuchvideo")
	if err != nil {
		t.Fatalf("GetBySourceURL failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown url, got %v", missing)
	}
}
