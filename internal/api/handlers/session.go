package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/langchou/parkspot/internal/models"
	"github.com/langchou/parkspot/internal/service"
)

// CreateSession 创建会话
// ?lat=&lng=&name= 为初始位置，只有 lat/lng 都是有效数值时才生效；?width= 为视口宽度
func (h *Handler) CreateSession(c *gin.Context) {
	opts := service.CreateSessionOptions{}
	if seed, ok := models.ParseGeoSeed(c.Query("lat"), c.Query("lng"), c.Query("name")); ok {
		opts.Seed = &seed
	}
	if width, err := strconv.Atoi(c.Query("width")); err == nil {
		opts.ViewportWidth = width
	}

	view, err := h.parkingService.CreateSession(c.Request.Context(), opts)
	if err != nil {
		h.respondError(c, err, "Failed to create session")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": view})
}

// GetSession 获取会话视图，sort 只影响返回顺序
func (h *Handler) GetSession(c *gin.Context) {
	view, err := h.parkingService.View(c.Param("id"), models.ParseSortKey(c.Query("sort")))
	if err != nil {
		h.respondError(c, err, "Failed to get session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

// CloseSession 关闭会话
func (h *Handler) CloseSession(c *gin.Context) {
	if err := h.parkingService.CloseSession(c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to close session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session closed"})
}

type viewportRequest struct {
	Width int `json:"width" binding:"required,min=1"`
}

// UpdateViewport 视口宽度变化
func (h *Handler) UpdateViewport(c *gin.Context) {
	var req viewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid viewport width"})
		return
	}

	view, err := h.parkingService.Viewport(c.Request.Context(), c.Param("id"), req.Width)
	if err != nil {
		h.respondError(c, err, "Failed to update viewport")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

// HandleGesture 视图交互
func (h *Handler) HandleGesture(c *gin.Context) {
	var req service.GestureInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gesture"})
		return
	}

	view, err := h.parkingService.HandleGesture(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to handle gesture")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

// GetParking 获取会话结果集中的停车场详情
func (h *Handler) GetParking(c *gin.Context) {
	parking, err := h.parkingService.Parking(c.Param("id"), c.Param("pid"))
	if err != nil {
		h.respondError(c, err, "Failed to get parking")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": parking})
}
