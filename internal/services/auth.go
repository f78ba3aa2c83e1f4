package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/repos"
	"github.com/cookclip/cookclip-backend/internal/requestdata"
	"github.com/cookclip/cookclip-backend/internal/types"
	"github.com/cookclip/cookclip-backend/internal/utils"
)

const (
	AuthProviderEmail  = "email"
	AuthProviderGoogle = "google"
)

type AuthService interface {
	Signup(ctx context.Context, email, password string) (*types.User, string, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	// IssueToken mints the bearer token any login path (password or OAuth)
	// hands back.
	IssueToken(user *types.User) (string, error)
	// SetContextFromToken verifies the token statelessly (signature and
	// expiry only; there is no server-side session) and attaches the
	// identity to the context.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) Signup(ctx context.Context, email, password string) (*types.User, string, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	if err := utils.ValidatePasswordStrength(password); err != nil {
		return nil, "", apierr.Validation("%s", err.Error())
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check user email: %w", err)
	}
	if exists {
		return nil, "", apierr.Validation("email is already registered")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &types.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashed,
		AuthProvider:   AuthProviderEmail,
	}
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, cErr := as.userRepo.Create(ctx, tx, user)
		return cErr
	}); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := as.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	as.log.Info("User signed up", "user_id", user.ID.String())
	return user, token, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", apierr.Validation("email and password are required")
	}

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, "", fmt.Errorf("error retrieving user by email: %w", err)
	}
	// Same message for unknown email and wrong password.
	if user == nil || user.HashedPassword == "" || !utils.CheckPassword(user.HashedPassword, password) {
		return nil, "", apierr.Unauthorized("invalid email or password")
	}

	token, err := as.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	as.log.Info("User logged in", "user_id", user.ID.String())
	return user, token, nil
}

func (as *authService) IssueToken(user *types.User) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing token")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, apierr.Unauthorized("invalid or expired token")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthorized("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid user id in token")
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apierr.Validation("an email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apierr.Validation("invalid email address")
	}
	return nil
}
