package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/parkspot/internal/repository"
)

// ListRecentSearches 最近的搜索记录
func (h *Handler) ListRecentSearches(c *gin.Context) {
	if h.searchRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search history is disabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	searches, err := h.searchRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list searches", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list searches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": searches})
}

// GetPlace 停车场目录条目
func (h *Handler) GetPlace(c *gin.Context) {
	if h.placeRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Place catalog is disabled"})
		return
	}

	place, err := h.placeRepo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrPlaceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Place not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get place", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get place"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": place})
}
