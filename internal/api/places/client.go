package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/parkspot/internal/models"
)

// Gateway 外部地点搜索能力
// 搜索失败一律降级为空结果，调用方不需要区分空结果和错误
type Gateway interface {
	SearchByText(ctx context.Context, query string, bias models.LatLng) []models.PlaceRecord
	SearchNearby(ctx context.Context, center models.LatLng, radiusMeters float64, typeFilter string) []models.PlaceRecord
	ResolvePhoto(ctx context.Context, photoName string, maxWidth, maxHeight int) (string, bool)
	FallbackPhotoURL(photoName string, maxWidth, maxHeight int) (string, bool)
	Autocomplete(ctx context.Context, input string, bias models.LatLng) []models.Suggestion
}

// 搜索请求需要的字段
const searchFieldMask = "places.id,places.displayName,places.location,places.formattedAddress," +
	"places.rating,places.userRatingCount,places.priceLevel,places.photos"

// 自动补全至少需要的输入长度
const MinAutocompleteInput = 3

// Options Places 客户端配置
type Options struct {
	APIKey       string
	Host         string
	RegionCode   string
	LanguageCode string
	MaxResults   int
	BiasRadius   float64 // 文本搜索与自动补全的偏好半径（米）
	Timeout      time.Duration
	CacheTTL     time.Duration
	// 回退照片地址的前缀，指向本服务的照片转发路由，API Key 不出现在返回给客户端的地址中
	PhotoProxyBase string
}

// DefaultPhotoProxyBase 照片转发路由的默认前缀
const DefaultPhotoProxyBase = "/api/photos"

// Client Google Places API (New) 客户端
type Client struct {
	opts       Options
	httpClient *http.Client
	logger     *zap.Logger
	cache      *responseCache
}

var _ Gateway = (*Client)(nil)

// NewClient 创建 Places 客户端
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.Host == "" {
		opts.Host = "https://places.googleapis.com"
	}
	opts.Host = strings.TrimRight(opts.Host, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 20
	}
	if opts.BiasRadius <= 0 {
		opts.BiasRadius = 1000
	}
	if opts.PhotoProxyBase == "" {
		opts.PhotoProxyBase = DefaultPhotoProxyBase
	}
	opts.PhotoProxyBase = strings.TrimRight(opts.PhotoProxyBase, "/")

	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger,
		cache:  newResponseCache(opts.CacheTTL),
	}
}

// IsConfigured 检查是否已配置 API Key
func (c *Client) IsConfigured() bool {
	return c.opts.APIKey != ""
}

// SearchByText 按文本搜索地点，结果带位置偏好
func (c *Client) SearchByText(ctx context.Context, query string, bias models.LatLng) []models.PlaceRecord {
	query = strings.TrimSpace(query)
	if query == "" || !c.IsConfigured() {
		return nil
	}

	key := textCacheKey(query, bias)
	if records, ok := c.cache.get(key); ok {
		return records
	}

	req := searchTextRequest{
		TextQuery:    query,
		LocationBias: newArea(bias, c.opts.BiasRadius),
		LanguageCode: c.opts.LanguageCode,
		RegionCode:   c.opts.RegionCode,
	}

	var resp searchResponse
	if err := c.postJSON(ctx, "/v1/places:searchText", searchFieldMask, req, &resp); err != nil {
		c.logger.Warn("Text search failed", zap.String("query", query), zap.Error(err))
		return nil
	}

	records := toRecords(resp.Places)
	c.cache.put(key, records)

	c.logger.Debug("Text search completed",
		zap.String("query", query),
		zap.Int("results", len(records)))
	return records
}

// SearchNearby 在圆形区域内按类型搜索
func (c *Client) SearchNearby(ctx context.Context, center models.LatLng, radiusMeters float64, typeFilter string) []models.PlaceRecord {
	if !c.IsConfigured() || !center.Valid() {
		return nil
	}

	key := nearbyCacheKey(center, radiusMeters, typeFilter)
	if records, ok := c.cache.get(key); ok {
		return records
	}

	req := searchNearbyRequest{
		MaxResultCount:      c.opts.MaxResults,
		LocationRestriction: newArea(center, radiusMeters),
		LanguageCode:        c.opts.LanguageCode,
		RegionCode:          c.opts.RegionCode,
	}
	if typeFilter != "" {
		req.IncludedTypes = []string{typeFilter}
	}

	var resp searchResponse
	if err := c.postJSON(ctx, "/v1/places:searchNearby", searchFieldMask, req, &resp); err != nil {
		c.logger.Warn("Nearby search failed",
			zap.Float64("lat", center.Lat),
			zap.Float64("lng", center.Lng),
			zap.Error(err))
		return nil
	}

	records := toRecords(resp.Places)
	c.cache.put(key, records)

	c.logger.Debug("Nearby search completed",
		zap.Float64("lat", center.Lat),
		zap.Float64("lng", center.Lng),
		zap.Int("results", len(records)))
	return records
}

// ResolvePhoto 获取照片的直链，失败时返回 false
func (c *Client) ResolvePhoto(ctx context.Context, photoName string, maxWidth, maxHeight int) (string, bool) {
	if !ValidPhotoName(photoName) || !c.IsConfigured() {
		return "", false
	}

	q := url.Values{}
	q.Set("maxWidthPx", strconv.Itoa(maxWidth))
	q.Set("maxHeightPx", strconv.Itoa(maxHeight))
	q.Set("skipHttpRedirect", "true")
	apiURL := fmt.Sprintf("%s/v1/%s/media?%s", c.opts.Host, photoName, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		c.logger.Debug("Photo resolution failed", zap.String("photo", photoName), zap.Error(err))
		return "", false
	}
	req.Header.Set("X-Goog-Api-Key", c.opts.APIKey)

	var resp photoMediaResponse
	if err := c.do(req, &resp); err != nil {
		c.logger.Debug("Photo resolution failed", zap.String("photo", photoName), zap.Error(err))
		return "", false
	}
	if resp.PhotoURI == "" {
		return "", false
	}
	return resp.PhotoURI, true
}

// FallbackPhotoURL 拼接指向照片转发路由的地址，由服务端带 Key 解析
func (c *Client) FallbackPhotoURL(photoName string, maxWidth, maxHeight int) (string, bool) {
	if !ValidPhotoName(photoName) || !c.IsConfigured() {
		return "", false
	}
	q := url.Values{}
	q.Set("maxWidthPx", strconv.Itoa(maxWidth))
	q.Set("maxHeightPx", strconv.Itoa(maxHeight))
	return fmt.Sprintf("%s/%s?%s", c.opts.PhotoProxyBase, photoName, q.Encode()), true
}

// ValidPhotoName 照片资源名形如 places/{placeId}/photos/{photoId}
func ValidPhotoName(name string) bool {
	parts := strings.Split(name, "/")
	if len(parts) != 4 || parts[0] != "places" || parts[2] != "photos" {
		return false
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return false
		}
	}
	return true
}

// Autocomplete 输入联想，输入少于 3 个字符时不请求
func (c *Client) Autocomplete(ctx context.Context, input string, bias models.LatLng) []models.Suggestion {
	input = strings.TrimSpace(input)
	if len([]rune(input)) < MinAutocompleteInput || !c.IsConfigured() {
		return nil
	}

	req := autocompleteRequest{
		Input:                input,
		LocationBias:         newArea(bias, c.opts.BiasRadius),
		IncludedPrimaryTypes: []string{"establishment", "geocode"},
		LanguageCode:         c.opts.LanguageCode,
	}
	if c.opts.RegionCode != "" {
		req.IncludedRegionCodes = []string{strings.ToLower(c.opts.RegionCode)}
	}

	var resp autocompleteResponse
	if err := c.postJSON(ctx, "/v1/places:autocomplete", "", req, &resp); err != nil {
		c.logger.Warn("Autocomplete failed", zap.String("input", input), zap.Error(err))
		return nil
	}

	var suggestions []models.Suggestion
	for _, s := range resp.Suggestions {
		if s.PlacePrediction == nil {
			continue
		}
		sug := models.Suggestion{
			PlaceID: s.PlacePrediction.PlaceID,
			Text:    s.PlacePrediction.Text.Text,
		}
		if s.PlacePrediction.StructuredFormat != nil {
			sug.SecondaryText = s.PlacePrediction.StructuredFormat.SecondaryText.Text
		}
		suggestions = append(suggestions, sug)
	}
	return suggestions
}

// ClearCache 清空缓存
func (c *Client) ClearCache() {
	c.cache.clear()
}

// CacheSize 获取缓存大小
func (c *Client) CacheSize() int {
	return c.cache.size()
}

func (c *Client) postJSON(ctx context.Context, path, fieldMask string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Host+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.opts.APIKey)
	if fieldMask != "" {
		req.Header.Set("X-Goog-FieldMask", fieldMask)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("places api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func toRecords(places []place) []models.PlaceRecord {
	records := make([]models.PlaceRecord, 0, len(places))
	for _, p := range places {
		records = append(records, p.toRecord())
	}
	return records
}
