package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/langchou/parkspot/internal/models"
	"github.com/langchou/parkspot/internal/state"
	"github.com/langchou/parkspot/internal/store"
)

// Session 一个浏览器标签页对应的会话
// mu 串行化会话内所有对 Store 和选中状态的修改
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	store      *store.Store
	controller *state.Controller
	center     models.LatLng
	placeName  string

	// 搜索序号：发起时递增，完成时不是最新序号的结果被丢弃
	explicitSeq atomic.Uint64
	ambientSeq  atomic.Uint64

	lastActive atomic.Int64 // unix nano
}

func newSession(id string, center models.LatLng, placeName string, controller *state.Controller, now time.Time) *Session {
	s := &Session{
		ID:         id,
		CreatedAt:  now,
		store:      store.New(),
		controller: controller,
		center:     center,
		placeName:  placeName,
	}
	s.touch(now)
	return s
}

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

// LastActive 最后活跃时间
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Center 当前地图中心
func (s *Session) Center() models.LatLng {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

// Store 会话的停车场集合
func (s *Session) Store() *store.Store {
	return s.store
}

// Selection 当前选中状态
func (s *Session) Selection() models.SelectionState {
	return s.controller.State()
}

// view 组装视图，调用方需持有 mu
func (s *Session) view(sortKey models.SortKey) *models.SessionView {
	snapshot := s.store.Snapshot()
	parkings := make([]models.ParkingView, 0, len(snapshot))
	for _, p := range snapshot {
		parkings = append(parkings, models.NewParkingView(p, s.center))
	}

	selection := s.controller.State()
	v := &models.SessionView{
		SessionID: s.ID,
		Version:   s.store.Version(),
		Center:    s.center,
		PlaceName: s.placeName,
		Sort:      sortKey,
		Parkings:  models.SortParkings(parkings, sortKey),
		Selection: selection,
	}

	if selection.HasSelection() {
		if p, ok := s.store.Get(selection.SelectedParkingID); ok {
			pv := models.NewParkingView(p, s.center)
			v.Selected = &pv
		}
	}
	return v
}
