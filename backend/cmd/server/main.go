package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

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
	log.Info("Starting relay server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
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

	// Resolve the type table once, up front. The engine never looks types
	// up mid-handler.
	types, err := deep.ResolveTypes(ctx, store)
	if err != nil {
		log.Fatal("Failed to resolve link types", zap.Error(err))
	}

	engine := thread.NewEngine(store, types)
	manager := bot.NewManager(bot.DiscordDialer(engine, bot.DefaultFatalPolicy))

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(log, store, types, manager)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		log.Info("Server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		manager.Shutdown()

		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// initRequest carries the credentials of one initialization request.
type initRequest struct {
	DeepToken string `json:"deepToken" binding:"required"`
	BotToken  string `json:"botToken"`
}

// setupRouter builds the control surface: a health probe and the session
// initialization endpoint.
func setupRouter(log *zap.Logger, store deep.Client, types *deep.TypeTable, manager *bot.Manager) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	router.POST("/init", func(c *gin.Context) {
		var req initRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userLinkID, err := deep.ParseUserLink(req.DeepToken)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		botToken := req.BotToken
		if botToken == "" {
			botToken, err = deep.LoadBotToken(c.Request.Context(), store, types, userLinkID)
			if err != nil {
				log.Error("Failed to load stored bot token", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bot token"})
				return
			}
			if botToken == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "no bot token provided or stored"})
				return
			}
		}

		// Fire and forget: the response precedes the session's outcome.
		// Start failures land in the logs only.
		go func() {
			if _, err := manager.Start(context.Background(), bot.Credentials{
				BotToken:   botToken,
				UserLinkID: userLinkID,
			}); err != nil {
				log.Error("Failed to start session", zap.Error(err))
			}
		}()

		c.JSON(http.StatusOK, req)
	})

	return router
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
