package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"coup/auth"
	"coup/crypto"
	"coup/game"
	"coup/migrations"
	"coup/shared/configs"
	"coup/shared/logger"
	"coup/storage"
)

func main() {
	cfg, err := configs.Load()
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	pgRepo, err := storage.NewPostgresRepo(context.Background(), cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pgRepo.Close()

	passwordHasher := crypto.NewArgon2idHasher(3, 64*1024, 32, 16, 1)
	tokenManager := crypto.NewJWTManager(cfg.JWTKey, cfg.TokenMaxAge)

	authService := auth.NewService(pgRepo, passwordHasher, tokenManager)
	authHandler := auth.NewAuthHandler(authService, cfg.TokenMaxAge, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Origin",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	authHandler.RegisterRoutes(r.Group("/auth"))

	idGen := game.NewIdGen()
	tickerGen := game.NewTickerGen()
	lobby := game.NewLobby(idGen, tickerGen)

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	gameService := game.NewService(lobby, pgRepo, pgRepo, log)
	gameHandler := game.NewHandler(gameService, pgRepo, log, cfg.FrontendOrigin)

	gameGroup := r.Group("/game")
	gameGroup.Use(authHandler.RequireAuthMiddleware(2 * time.Second))
	gameHandler.RegisterRoutes(gameGroup)

	log.Info().Str("addr", cfg.ListenAddr).Msg("api listening")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
