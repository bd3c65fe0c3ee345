package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/parkspot/internal/repository"
	"github.com/langchou/parkspot/internal/service"
	"github.com/langchou/parkspot/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger         *zap.Logger
	parkingService *service.ParkingService
	searchRepo     *repository.SearchRepository // 未配置数据库时为 nil
	placeRepo      *repository.PlaceRepository  // 未配置数据库时为 nil
	wsHub          *ws.Hub
	upgrader       websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	parkingService *service.ParkingService,
	searchRepo *repository.SearchRepository,
	placeRepo *repository.PlaceRepository,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:         logger,
		parkingService: parkingService,
		searchRepo:     searchRepo,
		placeRepo:      placeRepo,
		wsHub:          wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// 会话
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.CloseSession)
		api.POST("/sessions/:id/viewport", h.UpdateViewport)
		api.POST("/sessions/:id/gestures", h.HandleGesture)
		api.GET("/sessions/:id/parkings/:pid", h.GetParking)

		// 搜索
		api.POST("/sessions/:id/search", h.Search)
		api.POST("/sessions/:id/nearby", h.SearchNearby)
		api.GET("/autocomplete", h.Autocomplete)
		api.GET("/photos/*name", h.GetPhoto)

		// 历史
		api.GET("/searches/recent", h.ListRecentSearches)
		api.GET("/places/:id", h.GetPlace)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket WebSocket 处理，?session= 指定订阅的会话
func (h *Handler) HandleWebSocket(c *gin.Context) {
	sessionID := c.Query("session")
	if _, err := h.parkingService.GetSession(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn, sessionID)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	resp := gin.H{
		"status":   "ok",
		"sessions": h.parkingService.SessionCount(),
		"database": h.searchRepo != nil,
	}
	if h.wsHub != nil {
		resp["ws_clients"] = h.wsHub.ClientCount()
	}
	c.JSON(http.StatusOK, resp)
}

// respondError 把服务层错误映射为 HTTP 状态码
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, service.ErrParkingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Parking not found"})
	case errors.Is(err, service.ErrPhotoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
	case errors.Is(err, service.ErrUnknownGesture),
		errors.Is(err, service.ErrInvalidTab),
		errors.Is(err, service.ErrEmptyParkingID),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidPhoto):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
