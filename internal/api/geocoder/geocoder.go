package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/parkspot/internal/models"
)

const (
	DefaultHost = "https://nominatim.openstreetmap.org"
	userAgent   = "Parkspot/1.0 (parking finder)"
	maxCache    = 10000
)

// Client 逆地理编码客户端（Nominatim / OpenStreetMap）
// 用于补全上游没有 formattedAddress 的停车场地址
type Client struct {
	host       string
	language   string
	httpClient *http.Client
	logger     *zap.Logger

	// 缓存：避免重复请求相同坐标
	cache   map[string]string
	cacheMu sync.RWMutex

	// Nominatim 请求限流（每秒最多 1 次）
	minInterval time.Duration
	lastRequest time.Time
	rateMu      sync.Mutex
}

// NewClient 创建逆地理编码客户端，host 为空时使用公共 Nominatim
func NewClient(host, language string, logger *zap.Logger) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		host:     strings.TrimRight(host, "/"),
		language: language,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:      logger,
		cache:       make(map[string]string),
		minInterval: time.Second,
	}
}

// nominatimResponse Nominatim 逆地理编码响应
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode 根据坐标获取完整地址
func (c *Client) ReverseGeocode(ctx context.Context, loc models.LatLng) (string, error) {
	// 精确到小数点后4位，约11米
	cacheKey := fmt.Sprintf("%.4f,%.4f", loc.Lat, loc.Lng)

	c.cacheMu.RLock()
	if addr, ok := c.cache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		return addr, nil
	}
	c.cacheMu.RUnlock()

	if err := c.wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%.6f", loc.Lng))
	q.Set("format", "json")
	if c.language != "" {
		q.Set("accept-language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	// Nominatim 要求设置 User-Agent
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim api returned status %d", resp.StatusCode)
	}

	var result nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("nominatim api error: %s", result.Error)
	}
	if result.DisplayName == "" {
		return "", fmt.Errorf("no address for %s", cacheKey)
	}

	c.cacheMu.Lock()
	if len(c.cache) >= maxCache {
		c.cache = make(map[string]string)
	}
	c.cache[cacheKey] = result.DisplayName
	c.cacheMu.Unlock()

	c.logger.Debug("Geocoded via Nominatim",
		zap.Float64("lat", loc.Lat),
		zap.Float64("lng", loc.Lng),
		zap.String("address", result.DisplayName))

	return result.DisplayName, nil
}

// wait 限流，等待期间 ctx 取消则放弃
func (c *Client) wait(ctx context.Context) error {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()

	if elapsed := time.Since(c.lastRequest); elapsed < c.minInterval {
		timer := time.NewTimer(c.minInterval - elapsed)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}

// ClearCache 清空缓存
func (c *Client) ClearCache() {
	c.cacheMu.Lock()
	c.cache = make(map[string]string)
	c.cacheMu.Unlock()
}

// CacheSize 获取缓存大小
func (c *Client) CacheSize() int {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	return len(c.cache)
}
