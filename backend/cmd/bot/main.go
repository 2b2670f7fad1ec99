package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"linkrelay/backend/internal/bot"
	"linkrelay/backend/internal/deep"
	"linkrelay/backend/internal/thread"
	"linkrelay/backend/pkg/config"
	"linkrelay/backend/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(config.EnvDevelopment); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting relay bot...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.DiscordBotToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN is required")
	}
	if cfg.UserLinkID == 0 {
		log.Fatal("USER_LINK_ID is required")
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Initialize dependencies
	store := deep.NewStore(driver)

	types, err := deep.ResolveTypes(ctx, store)
	if err != nil {
		log.Fatal("Failed to resolve link types", zap.Error(err))
	}

	engine := thread.NewEngine(store, types)
	manager := bot.NewManager(bot.DiscordDialer(engine, bot.DefaultFatalPolicy))

	session, err := manager.Start(ctx, bot.Credentials{
		BotToken:   cfg.DiscordBotToken,
		UserLinkID: cfg.UserLinkID,
	})
	if err != nil {
		log.Fatal("Failed to start session", zap.Error(err))
	}

	log.Info("Relay bot is running. Press CTRL-C to exit.",
		zap.String("session_id", session.ID),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	select {
	case <-quit:
		log.Info("Shutting down relay bot...")
		manager.Shutdown()
	case <-session.Done():
		log.Info("Session terminated", zap.String("state", session.State().String()))
	}
}
