package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/banglalekha/go-services/handlers"
	"github.com/banglalekha/go-services/internal/chat"
	"github.com/banglalekha/go-services/internal/config"
	"github.com/banglalekha/go-services/internal/contributions"
	"github.com/banglalekha/go-services/internal/cookies"
	"github.com/banglalekha/go-services/internal/database"
	"github.com/banglalekha/go-services/internal/sessions"
	"github.com/banglalekha/go-services/internal/storage"
	"github.com/banglalekha/go-services/internal/tokens"
	"github.com/banglalekha/go-services/internal/translate"
	"github.com/banglalekha/go-services/internal/users"
	"github.com/banglalekha/go-services/pkg/logger"
	"github.com/banglalekha/go-services/pkg/metrics"
	"github.com/banglalekha/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v translator=%v storage=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Translator.URL != "", cfg.Storage.Endpoint != "")

	// Token key material. Ephemeral keys keep dev setups working, but every
	// restart invalidates outstanding sessions, hence the loud warning.
	keys, err := tokens.LoadKeyPairFromFiles(cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath, cfg.Auth.KeyPassphrase)
	if err != nil {
		if cfg.Server.Environment == "production" {
			logger.Fatalf("failed to load token keys: %v", err)
		}
		logger.Warnf("failed to load token keys (%v); generating an ephemeral pair", err)
		keys, err = tokens.GenerateKeyPair(2048)
		if err != nil {
			logger.Fatalf("failed to generate token keys: %v", err)
		}
	}

	engine := tokens.NewEngine(keys, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	cookieMgr := cookies.NewManager(cfg.Cookies.Secret, cfg.Cookies.Secure, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	ctx := context.Background()

	// Redis is optional: without it logout revocation and the Redis rate
	// limiter are disabled, everything else keeps working.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	blacklist := sessions.NewBlacklist(redisClient)
	gate := middleware.NewGate(engine, cookieMgr, blacklist)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// CORS with credentials: the SPA sends session cookies cross-origin, so
	// the wildcard origin is not an option here.
	allowedOrigin := os.Getenv("CORS_ALLOWED_ORIGIN")
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, Authentication")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Repositories: MongoDB when configured, in-memory otherwise so local
	// development needs no infrastructure.
	var (
		usersRepo   users.Repository         = users.NewMemoryRepository()
		transRepo   translate.Repository     = translate.NewMemoryRepository()
		contribRepo contributions.Repository = contributions.NewMemoryRepository()
		chatRepo    chat.Repository          = chat.NewMemoryRepository()
	)
	if cfg.MongoDB.URI != "" {
		client, db, err := database.Connect(ctx, &cfg.MongoDB)
		if err != nil {
			logger.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() { _ = client.Disconnect(ctx) }()
		usersRepo = users.NewMongoRepository(db.Collection("users"))
		transRepo = translate.NewMongoRepository(db.Collection("translations"))
		contribRepo = contributions.NewMongoRepository(db.Collection("contributions"))
		chatRepo = chat.NewMongoRepository(db.Collection("chats"))
		logger.Infof("using MongoDB database %q", cfg.MongoDB.Database)
	} else {
		logger.Warnf("MONGODB_URI not set; using in-memory repositories (data is lost on restart)")
	}

	// Object storage for exported PDFs.
	var store translate.ObjectStore
	if cfg.Storage.Endpoint != "" {
		s, err := storage.NewMinIOStorage(&cfg.Storage)
		if err != nil {
			logger.Warnf("failed to initialize object storage: %v (pdf export disabled)", err)
		} else {
			store = s
		}
	}

	var translator translate.Translator
	if cfg.Translator.URL != "" {
		translator = translate.NewHTTPTranslator(cfg.Translator.URL, cfg.Translator.Timeout)
	} else {
		logger.Warnf("TRANSLATOR_URL not set; translation requests will fail")
	}
	var renderer translate.PDFRenderer
	if cfg.PDFRenderer.URL != "" {
		renderer = translate.NewHTTPPDFRenderer(cfg.PDFRenderer.URL, cfg.PDFRenderer.Timeout)
	}

	usersSvc := users.NewService(usersRepo)
	transSvc := translate.NewService(transRepo, translator, renderer, store)
	contribSvc := contributions.NewService(contribRepo)
	chatSvc := chat.NewService(chatRepo, chat.NewHTTPCompleter(cfg.Chatbot.URL, cfg.Chatbot.APIKey, cfg.Chatbot.Timeout)).
		WithPDFSource(transSvc)

	api := r.Group("/api/v1")
	handlers.NewAuthHandler(usersSvc, engine, cookieMgr, blacklist).
		WithStats(transRepo, contribRepo, chatRepo).
		Register(api, gate)
	handlers.NewTranslationHandler(transSvc).Register(api, gate)
	handlers.NewContributionHandler(contribSvc).Register(api, gate)
	handlers.NewChatHandler(chatSvc).Register(api, gate)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := gin.H{
			"redis":      redisClient != nil || cfg.Redis.Host == "",
			"storage":    store != nil || cfg.Storage.Endpoint == "",
			"translator": translator != nil,
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Infof("starting banglalekha service on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
