package store

import (
	"sync"

	"github.com/langchou/parkspot/internal/models"
)

// Store 会话内合并、去重后的停车场集合
// 主动搜索的结果在前，后台搜索追加的结果在后，id 唯一
type Store struct {
	mu       sync.RWMutex
	explicit []models.ParkingLocation
	ambient  []models.ParkingLocation
	index    map[string]struct{}
	version  uint64
}

// New 创建空 Store
func New() *Store {
	return &Store{index: make(map[string]struct{})}
}

// Replace 整体替换主动搜索结果集
// 与新结果 id 冲突的后台结果被移除，输入中的重复 id 只保留第一个
// 保留下来的后台结果清空分类标签，标签只属于新的主动搜索结果
// 返回写入的主动搜索结果数量
func (s *Store) Replace(locations []models.ParkingLocation) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[string]struct{}, len(locations)+len(s.ambient))
	explicit := make([]models.ParkingLocation, 0, len(locations))
	for _, loc := range locations {
		if _, dup := index[loc.ID]; dup {
			continue
		}
		index[loc.ID] = struct{}{}
		explicit = append(explicit, loc.Clone())
	}

	ambient := make([]models.ParkingLocation, 0, len(s.ambient))
	for _, loc := range s.ambient {
		if _, dup := index[loc.ID]; dup {
			continue
		}
		index[loc.ID] = struct{}{}
		loc.Category = models.CategoryNone
		ambient = append(ambient, loc)
	}

	s.explicit = explicit
	s.ambient = ambient
	s.index = index
	s.version++
	return len(explicit)
}

// MergeAmbient 追加后台搜索结果，已存在的 id 一律跳过（先到先得）
// 返回实际追加的数量
func (s *Store) MergeAmbient(locations []models.ParkingLocation) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, loc := range locations {
		if _, dup := s.index[loc.ID]; dup {
			continue
		}
		s.index[loc.ID] = struct{}{}
		s.ambient = append(s.ambient, loc.Clone())
		added++
	}
	s.version++
	return added
}

// Snapshot 当前合并视图的副本，两次修改之间顺序稳定
func (s *Store) Snapshot() []models.ParkingLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ParkingLocation, 0, len(s.explicit)+len(s.ambient))
	for _, loc := range s.explicit {
		out = append(out, loc.Clone())
	}
	for _, loc := range s.ambient {
		out = append(out, loc.Clone())
	}
	return out
}

// Get 按 id 查找
func (s *Store) Get(id string) (models.ParkingLocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.index[id]; !ok {
		return models.ParkingLocation{}, false
	}
	for _, list := range [][]models.ParkingLocation{s.explicit, s.ambient} {
		for _, loc := range list {
			if loc.ID == id {
				return loc.Clone(), true
			}
		}
	}
	return models.ParkingLocation{}, false
}

// Len 条目数量
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.explicit) + len(s.ambient)
}

// Version 每次修改后递增
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
