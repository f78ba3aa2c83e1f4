package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/requestdata"
	"github.com/cookclip/cookclip-backend/internal/services"
	"github.com/cookclip/cookclip-backend/internal/types"
)

type RecipeHandler struct {
	recipeService services.RecipeService
	askAIService  services.AskAIService
}

func NewRecipeHandler(recipeService services.RecipeService, askAIService services.AskAIService) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		askAIService:  askAIService,
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		return uuid.Nil, apierr.Unauthorized("not authenticated")
	}
	return rd.UserID, nil
}

func recipeIDParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierr.Validation("invalid recipe id")
	}
	return id, nil
}

func (rh *RecipeHandler) Save(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	var req struct {
		SourceURL      string                 `json:"source_url"`
		SourcePlatform string                 `json:"source_platform"`
		Data           *types.RecipeLLMOutput `json:"data"`
		Transcript     string                 `json:"transcript"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body"))
		return
	}
	recipe, err := rh.recipeService.Save(c.Request.Context(), userID, req.SourceURL, req.SourcePlatform, req.Data, req.Transcript)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, recipe)
}

func (rh *RecipeHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	summaries, err := rh.recipeService.List(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, summaries)
}

func (rh *RecipeHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	recipeID, err := recipeIDParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	recipe, err := rh.recipeService.Get(c.Request.Context(), userID, recipeID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, recipe)
}

// GetByURL lets the frontend check whether a video was already saved. An
// absent match is not an error; it answers {"id": null}.
func (rh *RecipeHandler) GetByURL(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	recipe, err := rh.recipeService.GetBySourceURL(c.Request.Context(), userID, c.Query("source_url"))
	if err != nil {
		RespondError(c, err)
		return
	}
	if recipe == nil {
		RespondOK(c, gin.H{"id": nil})
		return
	}
	RespondOK(c, gin.H{"id": recipe.ID})
}

func (rh *RecipeHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	recipeID, err := recipeIDParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := rh.recipeService.Delete(c.Request.Context(), userID, recipeID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "recipe deleted"})
}

// Ask answers a question about a saved recipe, re-sending the stored recipe
// and transcript as context.
func (rh *RecipeHandler) Ask(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	recipeID, err := recipeIDParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body"))
		return
	}

	recipe, err := rh.recipeService.Get(c.Request.Context(), userID, recipeID)
	if err != nil {
		RespondError(c, err)
		return
	}
	output, err := rh.recipeService.Output(recipe)
	if err != nil {
		RespondError(c, err)
		return
	}
	answer, err := rh.askAIService.Ask(c.Request.Context(), output, recipe.Transcript, req.Question)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"answer": answer})
}
