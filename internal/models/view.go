package models

import (
	"sort"

	"github.com/paulmach/orb/geo"
)

// 列表排序方式，只影响视图，不改变 Store 顺序
type SortKey string

const (
	SortPopularity SortKey = "popularity" // 上游排名顺序
	SortPrice      SortKey = "price"
	SortDistance   SortKey = "distance"
	SortRating     SortKey = "rating"
)

// ParseSortKey 解析排序参数，未知值回退为 popularity
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortPrice, SortDistance, SortRating:
		return SortKey(s)
	default:
		return SortPopularity
	}
}

// ParkingView 带展示文案的停车场
type ParkingView struct {
	ParkingLocation
	AvailabilityLabel string  `json:"availability_label"`
	BadgeLabel        string  `json:"badge_label,omitempty"`
	DistanceMeters    float64 `json:"distance_meters"`
}

// SessionView 推送给地图/列表/轮播/详情的视图快照
type SessionView struct {
	SessionID string         `json:"session_id"`
	Version   uint64         `json:"version"`
	Center    LatLng         `json:"center"`
	PlaceName string         `json:"place_name,omitempty"`
	Sort      SortKey        `json:"sort"`
	Parkings  []ParkingView  `json:"parkings"`
	Selection SelectionState `json:"selection"`
	Selected  *ParkingView   `json:"selected,omitempty"`
}

// NewParkingView 计算展示文案与到中心点的距离
// 没有照片时使用占位图
func NewParkingView(p ParkingLocation, center LatLng) ParkingView {
	if p.PhotoURL == "" {
		p.PhotoURL = PlaceholderPhoto
	}
	return ParkingView{
		ParkingLocation:   p,
		AvailabilityLabel: AvailabilityLabel(p.AvailableSpots),
		BadgeLabel:        BadgeLabel(p.Category),
		DistanceMeters:    geo.Distance(center.Point(), p.Location.Point()),
	}
}

// SortParkings 返回按 key 排序后的新切片，原切片不变
// 排序稳定，相同值保持上游顺序
func SortParkings(parkings []ParkingView, key SortKey) []ParkingView {
	out := append([]ParkingView(nil), parkings...)

	var less func(i, j int) bool
	switch key {
	case SortPrice:
		less = func(i, j int) bool { return out[i].Price < out[j].Price }
	case SortDistance:
		less = func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters }
	case SortRating:
		less = func(i, j int) bool { return out[i].Rating > out[j].Rating }
	default:
		return out
	}

	sort.SliceStable(out, less)
	return out
}
