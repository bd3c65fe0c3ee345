package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/langchou/parkspot/internal/models"
)

type searchRequest struct {
	Query string `json:"query" binding:"required"`
}

type nearbyRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// Search 主动搜索，替换结果集
// 被更新的搜索取代时 stale=true，data.view 为当前视图
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}

	out, err := h.parkingService.ExplicitSearch(c.Request.Context(), c.Param("id"), req.Query)
	if err != nil {
		h.respondError(c, err, "Failed to search")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}

// SearchNearby 地图平移后的周边搜索，结果合并
func (h *Handler) SearchNearby(c *gin.Context) {
	var req nearbyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}

	center := models.LatLng{Lat: *req.Lat, Lng: *req.Lng}
	out, err := h.parkingService.AmbientSearch(c.Request.Context(), c.Param("id"), center)
	if err != nil {
		h.respondError(c, err, "Failed to search nearby")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}

// Autocomplete 地点联想，?session= 可选，用于位置偏置
func (h *Handler) Autocomplete(c *gin.Context) {
	suggestions := h.parkingService.Autocomplete(c.Request.Context(), c.Query("session"), c.Query("input"))
	c.JSON(http.StatusOK, gin.H{"data": suggestions})
}

// GetPhoto 回退照片地址的转发，解析后重定向到照片直链
func (h *Handler) GetPhoto(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	width, _ := strconv.Atoi(c.Query("maxWidthPx"))
	height, _ := strconv.Atoi(c.Query("maxHeightPx"))

	u, err := h.parkingService.PhotoURL(c.Request.Context(), name, width, height)
	if err != nil {
		h.respondError(c, err, "Failed to resolve photo")
		return
	}

	c.Redirect(http.StatusFound, u)
}
