package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/services"
	"github.com/cookclip/cookclip-backend/internal/types"
)

type AuthHandler struct {
	authService   services.AuthService
	googleService services.GoogleAuthService
	userService   services.UserService
}

func NewAuthHandler(authService services.AuthService, googleService services.GoogleAuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		googleService: googleService,
		userService:   userService,
	}
}

func tokenResponse(token string, user *types.User) gin.H {
	return gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	}
}

func (ah *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body"))
		return
	}
	user, token, err := ah.authService.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, tokenResponse(token, user))
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body"))
		return
	}
	user, token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, tokenResponse(token, user))
}

// GoogleURL hands the frontend the consent URL; state is echoed back by
// Google and verified client-side.
func (ah *AuthHandler) GoogleURL(c *gin.Context) {
	state := c.Query("state")
	url, err := ah.googleService.AuthURL(state)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

func (ah *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body"))
		return
	}
	user, err := ah.googleService.ExchangeCode(c.Request.Context(), req.Code)
	if err != nil {
		RespondError(c, err)
		return
	}
	token, err := ah.authService.IssueToken(user)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, tokenResponse(token, user))
}

func (ah *AuthHandler) Me(c *gin.Context) {
	user, err := ah.userService.GetMe(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, user)
}
