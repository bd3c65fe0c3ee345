package models

import "fmt"

// 停车场分类标签
type Category string

const (
	CategoryNone         Category = ""
	CategoryBestValue    Category = "best-value"
	CategoryShortestWalk Category = "shortest-walk"
	CategoryHighestRated Category = "highest-rated"
)

// 上游缺失时的占位文本
const (
	PlaceholderName    = "Parking Lot"
	PlaceholderAddress = "Address not available"
	PlaceholderPhoto   = "/car_parking.svg"
)

// 步行每分钟对应的英里数
const MilesPerWalkingMinute = 0.05

// ParkingLocation 增强后的停车场实体
type ParkingLocation struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	Location        LatLng   `json:"location"`
	Price           int      `json:"price"` // 每小时价格
	Rating          float64  `json:"rating"`
	ReviewCount     int      `json:"review_count"`
	WalkingTime     int      `json:"walking_time"` // 分钟
	WalkingDistance string   `json:"walking_distance"`
	AvailableSpots  int      `json:"available_spots"`
	TotalSpots      int      `json:"total_spots"`
	PhotoURL        string   `json:"photo_url,omitempty"`
	PhotoURLs       []string `json:"photo_urls,omitempty"`
	Category        Category `json:"category,omitempty"`
	Features        []string `json:"features,omitempty"`
}

// Clone 深拷贝，快照之间不共享切片
func (p ParkingLocation) Clone() ParkingLocation {
	if p.PhotoURLs != nil {
		p.PhotoURLs = append([]string(nil), p.PhotoURLs...)
	}
	if p.Features != nil {
		p.Features = append([]string(nil), p.Features...)
	}
	return p
}

// WalkingDistanceLabel 由步行分钟数得到显示用距离，如 "0.4mi"
func WalkingDistanceLabel(walkingTime int) string {
	return fmt.Sprintf("%.1fmi", float64(walkingTime)*MilesPerWalkingMinute)
}

// AvailabilityLabel 车位紧张程度文案
func AvailabilityLabel(availableSpots int) string {
	switch {
	case availableSpots <= 3:
		return fmt.Sprintf("%d left", availableSpots)
	case availableSpots <= 8:
		return "Limited"
	default:
		return "Available"
	}
}

// BadgeLabel 分类徽章文案，无分类返回空串
func BadgeLabel(c Category) string {
	switch c {
	case CategoryBestValue:
		return "Best Value"
	case CategoryShortestWalk:
		return "Shortest Walk"
	case CategoryHighestRated:
		return "Highest Rated"
	default:
		return ""
	}
}
