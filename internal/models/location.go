package models

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// LatLng 归一化后的经纬度，只包含普通数值
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coordinate 以方法形式暴露经纬度的上游坐标
type Coordinate interface {
	Lat() float64
	Lng() float64
}

// Valid 坐标是否可用：有限值且在经纬度范围内
func (l LatLng) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lng, 0) {
		return false
	}
	return orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}.Contains(l.Point())
}

// Point 转换为 orb.Point（经度在前）
func (l LatLng) Point() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// ResolveLatLng 将各种上游坐标形式归一化为 LatLng
// 支持 LatLng、*LatLng、orb.Point、Coordinate，以及 lat/lng 或 latitude/longitude
// 键的 map（值可以是数字或 func() float64）
func ResolveLatLng(v any) (LatLng, bool) {
	var out LatLng
	switch loc := v.(type) {
	case nil:
		return LatLng{}, false
	case LatLng:
		out = loc
	case *LatLng:
		if loc == nil {
			return LatLng{}, false
		}
		out = *loc
	case orb.Point:
		out = LatLng{Lat: loc.Lat(), Lng: loc.Lon()}
	case Coordinate:
		out = LatLng{Lat: loc.Lat(), Lng: loc.Lng()}
	case map[string]any:
		lat, okLat := resolveNumber(firstKey(loc, "lat", "latitude"))
		lng, okLng := resolveNumber(firstKey(loc, "lng", "longitude"))
		if !okLat || !okLng {
			return LatLng{}, false
		}
		out = LatLng{Lat: lat, Lng: lng}
	default:
		return LatLng{}, false
	}

	if !out.Valid() {
		return LatLng{}, false
	}
	return out, true
}

func firstKey(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func resolveNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case func() float64:
		if n == nil {
			return 0, false
		}
		return n(), true
	default:
		return 0, false
	}
}

// GeoSeed 来自查询参数 lat/lng/name 的初始地图中心
type GeoSeed struct {
	Center LatLng `json:"center"`
	Name   string `json:"name,omitempty"`
}

// ParseGeoSeed 解析查询参数；lat 与 lng 必须同时存在且为有限数值
func ParseGeoSeed(lat, lng, name string) (GeoSeed, bool) {
	lat = strings.TrimSpace(lat)
	lng = strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return GeoSeed{}, false
	}

	latVal, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return GeoSeed{}, false
	}
	lngVal, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return GeoSeed{}, false
	}

	center := LatLng{Lat: latVal, Lng: lngVal}
	if !center.Valid() {
		return GeoSeed{}, false
	}
	return GeoSeed{Center: center, Name: strings.TrimSpace(name)}, true
}
