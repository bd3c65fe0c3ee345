package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort string
	Debug      bool

	// Database（为空时不启用持久化）
	DatabaseURL string

	// Google Places API
	GoogleMapsAPIKey string
	PlacesAPIHost    string
	PlacesTimeout    time.Duration
	PlacesCacheTTL   time.Duration
	RegionCode       string
	LanguageCode     string

	// 搜索
	DefaultLat         float64
	DefaultLng         float64
	SearchRadiusMeters float64
	SearchType         string
	MaxResults         int
	SearchTimeout      time.Duration

	// 数据增强
	PhotoMaxPx        int
	PhotoGallerySize  int
	EnrichConcurrency int
	PhotoProxyBase    string // 回退照片地址前缀，前后端不同域时配置为完整地址

	// 逆地理编码补全缺失地址（Nominatim）
	ReverseGeocode bool
	NominatimHost  string
	MaxGeocodes    int // 每次搜索最多请求的地址数

	// 会话
	MobileBreakpointPx int
	SessionIdleTTL     time.Duration
}

func Load() (*Config, error) {
	// 尝试加载 .env 文件（可选）
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("PORT", "4000"),
		Debug:              getEnvBool("DEBUG", false),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		GoogleMapsAPIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
		PlacesAPIHost:      getEnv("PLACES_API_HOST", "https://places.googleapis.com"),
		PlacesTimeout:      getEnvDuration("PLACES_TIMEOUT", 10*time.Second),
		PlacesCacheTTL:     getEnvDuration("PLACES_CACHE_TTL", 5*time.Minute),
		RegionCode:         getEnv("REGION_CODE", "IN"),
		LanguageCode:       getEnv("LANGUAGE_CODE", "en"),
		DefaultLat:         getEnvFloat("DEFAULT_LAT", 28.7041),
		DefaultLng:         getEnvFloat("DEFAULT_LNG", 77.1025),
		SearchRadiusMeters: getEnvFloat("SEARCH_RADIUS_METERS", 1000),
		SearchType:         getEnv("SEARCH_TYPE", "parking"),
		MaxResults:         getEnvInt("MAX_RESULTS", 20),
		SearchTimeout:      getEnvDuration("SEARCH_TIMEOUT", 20*time.Second),
		PhotoMaxPx:         getEnvInt("PHOTO_MAX_PX", 400),
		PhotoGallerySize:   getEnvInt("PHOTO_GALLERY_SIZE", 3),
		EnrichConcurrency:  getEnvInt("ENRICH_CONCURRENCY", 8),
		PhotoProxyBase:     getEnv("PHOTO_PROXY_BASE", "/api/photos"),
		ReverseGeocode:     getEnvBool("REVERSE_GEOCODE", false),
		NominatimHost:      getEnv("NOMINATIM_HOST", "https://nominatim.openstreetmap.org"),
		MaxGeocodes:        getEnvInt("GEOCODE_MAX_PER_SEARCH", 5),
		MobileBreakpointPx: getEnvInt("MOBILE_BREAKPOINT_PX", 640),
		SessionIdleTTL:     getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
