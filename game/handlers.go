package game

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Handler struct {
	gameService *service
	history     HistoryGetter
	logger      zerolog.Logger
	upgrader    websocket.Upgrader
}

func NewHandler(gameService *service, history HistoryGetter, logger zerolog.Logger, allowedOrigin string) *Handler {
	return &Handler{
		gameService: gameService,
		history:     history,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rooms", h.ListRoomsHandler)
	rg.GET("/rooms/create", h.CreateRoomHandler)
	rg.GET("/rooms/:id/join", h.JoinRoomHandler)
	rg.GET("/me/history", h.HistoryHandler)
}

func (h *Handler) HistoryHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	entries, err := h.history.GetHistory(ctx.Request.Context(), id, 50)
	if err != nil {
		h.logger.Error().Str("user", id).Err(err).Msg("failed to load game history")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	history := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		history = append(history, gin.H{
			"room_id":     e.RoomId,
			"won":         e.Won,
			"finished_at": e.FinishedAt,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *Handler) ListRoomsHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"rooms": h.gameService.ListRooms(ctx.Request.Context())})
}

// CreateRoomHandler upgrades the connection and opens a new table. The
// auth middleware has already placed the user id in the gin context.
func (h *Handler) CreateRoomHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		h.logger.Error().
			Str("ip", ctx.ClientIP()).
			Str("user_agent", ctx.Request.UserAgent()).
			Msg("user id missing after auth middleware")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	private := ctx.Query("private") == "true"
	maxPlayers, err := strconv.Atoi(ctx.DefaultQuery("max_players", "6"))
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-configs"})
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn)
	if err := h.gameService.CreateRoom(ctx.Request.Context(), id, socket, private, maxPlayers); err != nil {
		h.logger.Error().Str("user", id).Err(err).Msg("failed to create room")
	}
}

func (h *Handler) JoinRoomHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}
	roomId := ctx.Param("id")

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn)
	if err := h.gameService.JoinRoom(ctx.Request.Context(), id, roomId, socket); err != nil {
		h.logger.Error().Str("user", id).Str("room", roomId).Err(err).Msg("failed to join room")
	}
}
