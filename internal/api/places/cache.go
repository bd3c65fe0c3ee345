package places

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/langchou/parkspot/internal/models"
)

// 缓存条目上限，超过后整体清空
const maxCacheEntries = 10000

type cacheEntry struct {
	records   []models.PlaceRecord
	expiresAt time.Time
}

// responseCache 只缓存成功且非空的搜索结果
type responseCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *responseCache) get(key string) ([]models.PlaceRecord, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return append([]models.PlaceRecord(nil), entry.records...), true
}

func (c *responseCache) put(key string, records []models.PlaceRecord) {
	if c.ttl <= 0 || len(records) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= maxCacheEntries {
		c.entries = make(map[string]cacheEntry)
	}
	c.entries[key] = cacheEntry{
		records:   append([]models.PlaceRecord(nil), records...),
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *responseCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *responseCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// normalizeQuery 统一 Unicode 形式与大小写，并折叠空白
func normalizeQuery(q string) string {
	folded := cases.Fold().String(norm.NFKC.String(q))
	return strings.Join(strings.Fields(folded), " ")
}

// coordKey 精确到小数点后4位（约11米）
func coordKey(ll models.LatLng) string {
	return fmt.Sprintf("%.4f,%.4f", ll.Lat, ll.Lng)
}

func textCacheKey(query string, bias models.LatLng) string {
	return "text|" + normalizeQuery(query) + "|" + coordKey(bias)
}

func nearbyCacheKey(center models.LatLng, radius float64, typeFilter string) string {
	return fmt.Sprintf("nearby|%s|%.0f|%s", coordKey(center), radius, typeFilter)
}
