package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"collabx/api"
	"collabx/auth"
	"collabx/gateway"
	"collabx/moderation"
	"collabx/observability"
	"collabx/repositories"
	"collabx/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle, so
// every defer executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Moderation (optional)
	moderator, err := loadModerator(config)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	// 4. Repositories & Services
	threadRepository := repositories.NewThreadRepository(db, log)
	accountRepository := repositories.NewAccountRepository(db)
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	chatService := services.NewChatService(threadRepository, moderator, log)
	authService := services.NewAuthService(accountRepository, tokens)

	// 5. Gateway & Router
	stats := observability.NewStats()
	registry := gateway.NewRegistry()
	gw := gateway.NewGateway(registry, chatService, tokens, stats, log,
		config.ConnectionBufferSize, config.DeliveryTimeout)
	router := api.NewRouter(authService, chatService, accountRepository,
		tokens, gw, stats, splitOrigins(config.AllowedOrigins), log)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. HTTP Server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// loadModerator builds the content moderator from the configured word
// list file, one word per line. No file configured means no moderation.
func loadModerator(config Config) (*moderation.Moderator, error) {
	if config.CensoredWordsFile == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(config.CensoredWordsFile)
	if err != nil {
		return nil, err
	}

	var words []string
	for _, line := range strings.Split(string(raw), "\n") {
		if word := strings.TrimSpace(line); word != "" {
			words = append(words, word)
		}
	}

	mask := []rune(config.ModerationMask)
	if len(mask) != 1 {
		return nil, fmt.Errorf("MODERATION_MASK must be a single character, got %q", config.ModerationMask)
	}
	return moderation.NewModerator(words, mask[0])
}
