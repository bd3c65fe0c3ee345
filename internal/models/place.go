package models

// 上游价格等级（Places API New 的枚举值）
const (
	PriceLevelFree          = "PRICE_LEVEL_FREE"
	PriceLevelInexpensive   = "PRICE_LEVEL_INEXPENSIVE"
	PriceLevelModerate      = "PRICE_LEVEL_MODERATE"
	PriceLevelExpensive     = "PRICE_LEVEL_EXPENSIVE"
	PriceLevelVeryExpensive = "PRICE_LEVEL_VERY_EXPENSIVE"
)

// PlaceRecord 网关返回的原始地点记录，坐标已在网关边界归一化
type PlaceRecord struct {
	ID               string       `json:"id"`
	DisplayName      string       `json:"display_name"`
	Location         *LatLng      `json:"location,omitempty"` // nil 表示上游没有可用坐标
	FormattedAddress string       `json:"formatted_address"`
	Rating           *float64     `json:"rating,omitempty"`
	UserRatingCount  *int         `json:"user_rating_count,omitempty"`
	PriceLevel       string       `json:"price_level,omitempty"`
	Photos           []PlacePhoto `json:"photos,omitempty"`
}

// PlacePhoto 上游照片引用；Name 可用于拼接回退 URL
type PlacePhoto struct {
	Name     string `json:"name"`
	WidthPx  int    `json:"width_px,omitempty"`
	HeightPx int    `json:"height_px,omitempty"`
}

// Suggestion 自动补全建议
type Suggestion struct {
	PlaceID       string `json:"place_id"`
	Text          string `json:"text"`
	SecondaryText string `json:"secondary_text,omitempty"`
}
