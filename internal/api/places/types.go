package places

import (
	"encoding/json"

	"github.com/langchou/parkspot/internal/models"
)

// 请求中使用的圆形区域
type circle struct {
	Center latLngLiteral `json:"center"`
	Radius float64       `json:"radius"`
}

type latLngLiteral struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type area struct {
	Circle circle `json:"circle"`
}

func newArea(center models.LatLng, radius float64) *area {
	return &area{Circle: circle{
		Center: latLngLiteral{Latitude: center.Lat, Longitude: center.Lng},
		Radius: radius,
	}}
}

// searchTextRequest places:searchText 请求体
type searchTextRequest struct {
	TextQuery    string `json:"textQuery"`
	LocationBias *area  `json:"locationBias,omitempty"`
	LanguageCode string `json:"languageCode,omitempty"`
	RegionCode   string `json:"regionCode,omitempty"`
}

// searchNearbyRequest places:searchNearby 请求体
type searchNearbyRequest struct {
	IncludedTypes       []string `json:"includedTypes,omitempty"`
	MaxResultCount      int      `json:"maxResultCount,omitempty"`
	LocationRestriction *area    `json:"locationRestriction"`
	LanguageCode        string   `json:"languageCode,omitempty"`
	RegionCode          string   `json:"regionCode,omitempty"`
}

// autocompleteRequest places:autocomplete 请求体
type autocompleteRequest struct {
	Input                string   `json:"input"`
	LocationBias         *area    `json:"locationBias,omitempty"`
	IncludedPrimaryTypes []string `json:"includedPrimaryTypes,omitempty"`
	IncludedRegionCodes  []string `json:"includedRegionCodes,omitempty"`
	LanguageCode         string   `json:"languageCode,omitempty"`
}

// searchResponse 文本搜索与附近搜索共用的响应
type searchResponse struct {
	Places []place `json:"places"`
}

type place struct {
	ID               string        `json:"id"`
	DisplayName      localizedText `json:"displayName"`
	Location         location      `json:"location"`
	Geometry         *geometry     `json:"geometry,omitempty"` // 旧版接口的坐标位置
	FormattedAddress string        `json:"formattedAddress"`
	Rating           *float64      `json:"rating,omitempty"`
	UserRatingCount  *int          `json:"userRatingCount,omitempty"`
	PriceLevel       string        `json:"priceLevel,omitempty"`
	Photos           []photo       `json:"photos,omitempty"`
}

type geometry struct {
	Location location `json:"location"`
}

type photo struct {
	Name     string `json:"name"`
	WidthPx  int    `json:"widthPx"`
	HeightPx int    `json:"heightPx"`
}

// photoMediaResponse skipHttpRedirect=true 时的照片响应
type photoMediaResponse struct {
	Name     string `json:"name"`
	PhotoURI string `json:"photoUri"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction *struct {
			PlaceID          string        `json:"placeId"`
			Text             localizedText `json:"text"`
			StructuredFormat *struct {
				SecondaryText localizedText `json:"secondaryText"`
			} `json:"structuredFormat,omitempty"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

// localizedText 可能是 {"text": "..."} 也可能直接是字符串
type localizedText struct {
	Text string
}

func (t *localizedText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Text = s
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	t.Text = obj.Text
	return nil
}

// location 坐标可能是 latitude/longitude 也可能是 lat/lng
// 无法解析时保持为空，由增强管道排除该记录
type location struct {
	resolved *models.LatLng
}

func (l *location) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if ll, ok := models.ResolveLatLng(raw); ok {
		l.resolved = &ll
	}
	return nil
}

// toRecord 转换为领域层的原始记录
func (p place) toRecord() models.PlaceRecord {
	loc := p.Location.resolved
	if loc == nil && p.Geometry != nil {
		loc = p.Geometry.Location.resolved
	}

	rec := models.PlaceRecord{
		ID:               p.ID,
		DisplayName:      p.DisplayName.Text,
		Location:         loc,
		FormattedAddress: p.FormattedAddress,
		Rating:           p.Rating,
		UserRatingCount:  p.UserRatingCount,
		PriceLevel:       p.PriceLevel,
	}
	for _, ph := range p.Photos {
		rec.Photos = append(rec.Photos, models.PlacePhoto{
			Name:     ph.Name,
			WidthPx:  ph.WidthPx,
			HeightPx: ph.HeightPx,
		})
	}
	return rec
}
