package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"

	"github.com/cookclip/cookclip-backend/internal/apierr"
	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/repos"
	"github.com/cookclip/cookclip-backend/internal/types"
)

type GoogleAuthService interface {
	// AuthURL builds the consent URL the frontend redirects to.
	AuthURL(state string) (string, error)
	// ExchangeCode swaps an authorization code for a verified identity and
	// returns the matching (created or linked) user.
	ExchangeCode(ctx context.Context, code string) (*types.User, error)
}

// idTokenValidator is swapped out in tests; production uses Google's
// certificate-backed validation.
type idTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type googleAuthService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	oauth    *oauth2.Config
	validate idTokenValidator
}

func NewGoogleAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, clientID, clientSecret, redirectURI string) GoogleAuthService {
	var cfg *oauth2.Config
	if clientID != "" && clientSecret != "" {
		cfg = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return &googleAuthService{
		db:       db,
		log:      log.With("service", "GoogleAuthService"),
		userRepo: userRepo,
		oauth:    cfg,
		validate: idtoken.Validate,
	}
}

func (gs *googleAuthService) AuthURL(state string) (string, error) {
	if gs.oauth == nil {
		return "", apierr.Validation("google oauth is not configured")
	}
	return gs.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

func (gs *googleAuthService) ExchangeCode(ctx context.Context, code string) (*types.User, error) {
	ctx = defaultCtx(ctx)
	if gs.oauth == nil {
		return nil, apierr.Validation("google oauth is not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apierr.Validation("authorization code is required")
	}
	// Frontends sometimes pass the code url-encoded.
	if decoded, err := url.QueryUnescape(code); err == nil {
		code = decoded
	}

	token, err := gs.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, apierr.UpstreamUnavailable(fmt.Errorf("google code exchange failed: %w", err))
	}
	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, apierr.UpstreamUnavailable(fmt.Errorf("no id_token in google response"))
	}

	payload, err := gs.validate(ctx, rawIDToken, gs.oauth.ClientID)
	if err != nil {
		return nil, apierr.Unauthorized("invalid google id token")
	}

	identity, err := identityFromPayload(payload)
	if err != nil {
		return nil, err
	}

	user, err := gs.getOrCreateUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	gs.log.Info("Google login", "user_id", user.ID.String())
	return user, nil
}

type googleIdentity struct {
	Sub   string
	Email string
}

func identityFromPayload(payload *idtoken.Payload) (*googleIdentity, error) {
	iss := payload.Issuer
	if iss != "accounts.google.com" && iss != "https://accounts.google.com" {
		return nil, apierr.Unauthorized("wrong token issuer")
	}
	email, _ := payload.Claims["email"].(string)
	verified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || !verified {
		return nil, apierr.Unauthorized("google account email is missing or unverified")
	}
	if payload.Subject == "" {
		return nil, apierr.Unauthorized("google token missing subject")
	}
	return &googleIdentity{Sub: payload.Subject, Email: normalizeEmail(email)}, nil
}

// getOrCreateUser resolves the identity to a user record: by google id
// first, then by verified email (linking the google id onto an existing
// password account), creating a fresh record last.
func (gs *googleAuthService) getOrCreateUser(ctx context.Context, identity *googleIdentity) (*types.User, error) {
	var out *types.User
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := gs.userRepo.GetByGoogleID(ctx, tx, identity.Sub)
		if err != nil {
			return fmt.Errorf("failed to look up google id: %w", err)
		}
		if user != nil {
			out = user
			return nil
		}

		user, err = gs.userRepo.GetByEmail(ctx, tx, identity.Email)
		if err != nil {
			return fmt.Errorf("failed to look up email: %w", err)
		}
		if user != nil {
			sub := identity.Sub
			user.GoogleID = &sub
			if user.AuthProvider == AuthProviderEmail {
				user.AuthProvider = AuthProviderEmail + "," + AuthProviderGoogle
			}
			if err := gs.userRepo.Update(ctx, tx, user); err != nil {
				return fmt.Errorf("failed to link google account: %w", err)
			}
			out = user
			return nil
		}

		sub := identity.Sub
		created := &types.User{
			ID:           uuid.New(),
			Email:        identity.Email,
			GoogleID:     &sub,
			AuthProvider: AuthProviderGoogle,
		}
		if _, err := gs.userRepo.Create(ctx, tx, created); err != nil {
			return fmt.Errorf("failed to create google user: %w", err)
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
