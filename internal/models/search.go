package models

import "time"

// 搜索类型
type SearchKind string

const (
	SearchExplicit SearchKind = "explicit" // 用户主动搜索，替换结果集
	SearchAmbient  SearchKind = "ambient"  // 地图平移等后台搜索，合并结果
)

// SearchLog 一次完成且未过期的搜索记录
type SearchLog struct {
	ID          int64      `json:"id" db:"id"`
	SessionID   string     `json:"session_id" db:"session_id"`
	Kind        SearchKind `json:"kind" db:"kind"`
	Query       string     `json:"query,omitempty" db:"query"`
	Latitude    float64    `json:"latitude" db:"latitude"`
	Longitude   float64    `json:"longitude" db:"longitude"`
	ResultCount int        `json:"result_count" db:"result_count"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// CatalogPlace 持久化的停车场目录条目
type CatalogPlace struct {
	ParkingLocation
	FirstSeenAt time.Time `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at" db:"last_seen_at"`
}
