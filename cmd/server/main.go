package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chat-relay/ai"
	"chat-relay/auth"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// Thin wrapper: run() owns the lifecycle so every defer executes
	// before the process exits.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, ok := internal.CharacterRune(config.CharReplacement)
	if !ok {
		return exitConfig, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", config.CharReplacement)
	}

	logger := internal.LoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLogger(nil))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("closing BadgerDB")
		_ = db.Close()
	}()

	store := repositories.NewStore(db)
	users := repositories.NewUserRepository(store)
	conversations := repositories.NewConversationRepository(store)
	messages := repositories.NewMessageRepository(store)
	calls := repositories.NewCallRepository(store)

	// 3. Core components
	registry := runtime.NewRegistry()
	presence := runtime.NewPresence(logger, registry)

	moderator, err := moderation.NewModerator(charReplacement)
	if err != nil {
		return exitRuntime, fmt.Errorf("moderation init failed: %w", err)
	}

	generator := ai.NewGenerator(func(o *ai.Options) {
		o.APIKey = config.AnthropicAPIKey
	})
	scheduler := services.NewAutoReplyScheduler(logger, generator, messages, users, config.AutoReplyDelay)

	messageService := services.NewMessageService(logger, registry, conversations, messages, users, moderator, scheduler)
	scheduler.Bind(messageService)
	callService := services.NewCallService(logger, registry, conversations, calls)

	verifier := auth.NewVerifier([]byte(config.JWTSecret), config.JWTIssuer)
	gate := auth.NewGate(verifier, users)

	server := ws.NewServer(logger, ws.Config{
		ConnectionBufferSize: config.ConnectionBufferSize,
		WriteTimeout:         config.WriteTimeout,
		PingInterval:         config.PingInterval,
		PongTimeout:          config.PongTimeout,
		ReadLimit:            config.ReadLimit,
	}, gate, registry, presence, messageService, callService)

	// 4. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: server.Router()}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("relay listening", "address", address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 5. Wait for shutdown or failure
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("shutdown error: %w", err)
	}

	// Let auto-replies already past generation fire before the store
	// closes.
	scheduler.Wait()
	return exitOK, nil
}
