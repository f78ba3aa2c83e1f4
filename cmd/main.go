package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/cookclip/cookclip-backend/internal/db"
	"github.com/cookclip/cookclip-backend/internal/handlers"
	"github.com/cookclip/cookclip-backend/internal/logger"
	"github.com/cookclip/cookclip-backend/internal/middleware"
	"github.com/cookclip/cookclip-backend/internal/observability"
	"github.com/cookclip/cookclip-backend/internal/repos"
	"github.com/cookclip/cookclip-backend/internal/server"
	"github.com/cookclip/cookclip-backend/internal/services"
	"github.com/cookclip/cookclip-backend/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "cookclip-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 604800, log)
	audioEnabled := utils.GetEnvAsBool("ENABLE_AUDIO_TRANSCRIPTION", false, log)
	maxAudioSeconds := utils.GetEnvAsInt("STT_MAX_AUDIO_SECONDS", 900, log)
	googleClientID := utils.GetEnv("GOOGLE_CLIENT_ID", "", log)
	googleClientSecret := utils.GetEnv("GOOGLE_CLIENT_SECRET", "", log)
	googleRedirectURI := utils.GetEnv("GOOGLE_REDIRECT_URI", "", log)
	port := utils.GetEnv("PORT", "8080", log)

	// Database
	dbService, err := db.New(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Error("Database auto migration failed", "error", err)
		os.Exit(1)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(gdb, log)
	recipeRepo := repos.NewRecipeRepo(gdb, log)

	// Services
	log.Info("Setting up Services from main...")
	geminiClient, err := services.NewGeminiClient(log)
	if err != nil {
		log.Error("Could not init GeminiClient", "error", err)
		os.Exit(1)
	}
	mediaTools := services.NewMediaToolsService(log)
	timedText := services.NewTimedTextClient(log)
	metadataService := services.NewVideoMetadataService(log, mediaTools)
	speechService, err := services.NewSpeechService(log, mediaTools)
	if err != nil {
		// Audio transcription is the last-ditch strategy; run without it.
		log.Warn("Speech service unavailable, audio transcription disabled", "error", err)
		speechService = nil
	}
	transcriptService := services.NewTranscriptService(log, mediaTools, timedText, metadataService, speechService, audioEnabled, maxAudioSeconds)
	extractionService := services.NewExtractionService(log, geminiClient)
	askAIService := services.NewAskAIService(log, geminiClient)
	authService := services.NewAuthService(gdb, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	googleAuthService := services.NewGoogleAuthService(gdb, log, userRepo, googleClientID, googleClientSecret, googleRedirectURI)
	recipeService := services.NewRecipeService(gdb, log, recipeRepo)
	userService := services.NewUserService(log, userRepo)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService, googleAuthService, userService)
	extractHandler := handlers.NewExtractHandler(transcriptService, metadataService, extractionService, askAIService)
	recipeHandler := handlers.NewRecipeHandler(recipeService, askAIService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		ExtractHandler: extractHandler,
		RecipeHandler:  recipeHandler,
		AuthMiddleware: authMiddleware,
	})
	log.Info("Starting server...", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
