package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/parkspot/internal/api/places"
	"github.com/langchou/parkspot/internal/config"
	"github.com/langchou/parkspot/internal/enrich"
	"github.com/langchou/parkspot/internal/models"
	"github.com/langchou/parkspot/internal/state"
	"github.com/langchou/parkspot/pkg/ws"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrParkingNotFound = errors.New("parking not found")
	ErrEmptyQuery      = errors.New("empty search query")
	ErrInvalidLocation = errors.New("invalid location")
	ErrInvalidPhoto    = errors.New("invalid photo name")
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrUnknownGesture  = state.ErrUnknownGesture
	ErrInvalidTab      = state.ErrInvalidTab
	ErrEmptyParkingID  = state.ErrEmptyParkingID
)

// SearchRecorder 记录完成的搜索
type SearchRecorder interface {
	Create(ctx context.Context, log *models.SearchLog) error
}

// PlaceCatalog 持久化增强后的停车场
type PlaceCatalog interface {
	UpsertBatch(ctx context.Context, parkings []models.ParkingLocation) error
}

// CreateSessionOptions 创建会话参数
type CreateSessionOptions struct {
	Seed          *models.GeoSeed // 查询串带入的初始位置，可为空
	ViewportWidth int             // 0 表示未知，按桌面处理
}

// ParkingService 停车场搜索与选中服务
type ParkingService struct {
	cfg      *config.Config
	logger   *zap.Logger
	gateway  places.Gateway
	pipeline *enrich.Pipeline
	wsHub    *ws.Hub // 可为空

	searches SearchRecorder
	catalog  PlaceCatalog

	mu          sync.RWMutex
	sessions    map[string]*Session
	subscribers []chan *models.SessionView
	stopCh      chan struct{}
	wg          sync.WaitGroup
	running     bool

	now func() time.Time
}

// NewParkingService 创建停车场服务
func NewParkingService(
	cfg *config.Config,
	logger *zap.Logger,
	gateway places.Gateway,
	pipeline *enrich.Pipeline,
	wsHub *ws.Hub,
) *ParkingService {
	return &ParkingService{
		cfg:      cfg,
		logger:   logger,
		gateway:  gateway,
		pipeline: pipeline,
		wsHub:    wsHub,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// SetRecorders 配置数据库时注入搜索日志与目录
func (s *ParkingService) SetRecorders(searches SearchRecorder, catalog PlaceCatalog) {
	s.searches = searches
	s.catalog = catalog
}

// Start 启动空闲会话清理
func (s *ParkingService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("Parking service already running, skipping start")
		return nil
	}
	s.stopCh = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.evictLoop(ctx)

	s.logger.Info("Parking service started", zap.Duration("session_idle_ttl", s.cfg.SessionIdleTTL))
	return nil
}

// Stop 停止服务
func (s *ParkingService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping parking service")
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Parking service stopped")
}

func (s *ParkingService) evictLoop(ctx context.Context) {
	defer s.wg.Done()

	interval := s.cfg.SessionIdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictIdle()
		}
	}
}

// evictIdle 清理超过 SessionIdleTTL 未活动的会话，返回清理数量
func (s *ParkingService) evictIdle() int {
	if s.cfg.SessionIdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.SessionIdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("Evicted idle sessions", zap.Int("evicted", evicted), zap.Int("remaining", len(s.sessions)))
	}
	return evicted
}

// Subscribe 订阅视图更新
func (s *ParkingService) Subscribe() <-chan *models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *models.SessionView, 10)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// CreateSession 创建会话；带有效初始位置时以该位置为中心并触发一次后台搜索
func (s *ParkingService) CreateSession(ctx context.Context, opts CreateSessionOptions) (*models.SessionView, error) {
	center := models.LatLng{Lat: s.cfg.DefaultLat, Lng: s.cfg.DefaultLng}
	var placeName string
	if opts.Seed != nil {
		center = opts.Seed.Center
		placeName = opts.Seed.Name
	}

	device := models.DeviceClassForWidth(opts.ViewportWidth, s.cfg.MobileBreakpointPx)
	id := uuid.NewString()
	logger := s.logger.With(zap.String("session_id", id))
	controller := state.NewController(device, func(from, to models.PresentationMode) {
		logger.Debug("Presentation mode changed", zap.String("from", string(from)), zap.String("to", string(to)))
	})

	sess := newSession(id, center, placeName, controller, s.now())

	s.mu.Lock()
	s.sessions[id] = sess
	total := len(s.sessions)
	s.mu.Unlock()

	logger.Info("Session created",
		zap.String("device", string(device)),
		zap.Bool("seeded", opts.Seed != nil),
		zap.Int("total_sessions", total))

	if opts.Seed != nil {
		out, err := s.AmbientSearch(ctx, id, center)
		if err != nil {
			return nil, err
		}
		return out.View, nil
	}
	return s.View(id, models.SortPopularity)
}

// GetSession 获取会话
func (s *ParkingService) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.touch(s.now())
	return sess, nil
}

// CloseSession 关闭会话
func (s *ParkingService) CloseSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	s.logger.Info("Session closed", zap.String("session_id", id))
	return nil
}

// SessionCount 当前会话数
func (s *ParkingService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// View 按排序方式组装视图，排序不改变 Store
func (s *ParkingService) View(id string, sortKey models.SortKey) (*models.SessionView, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(sortKey), nil
}

// Parking 获取会话中的单个停车场
func (s *ParkingService) Parking(id, parkingID string) (*models.ParkingView, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	p, ok := sess.store.Get(parkingID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParkingNotFound, parkingID)
	}
	pv := models.NewParkingView(p, sess.center)
	return &pv, nil
}

// Autocomplete 以会话中心（或默认中心）为偏置的地点补全
func (s *ParkingService) Autocomplete(ctx context.Context, sessionID, input string) []models.Suggestion {
	bias := models.LatLng{Lat: s.cfg.DefaultLat, Lng: s.cfg.DefaultLng}
	if sessionID != "" {
		if sess, err := s.GetSession(sessionID); err == nil {
			bias = sess.Center()
		}
	}

	input = strings.TrimSpace(input)
	if len([]rune(input)) < places.MinAutocompleteInput {
		return []models.Suggestion{}
	}
	suggestions := s.gateway.Autocomplete(ctx, input, bias)
	if suggestions == nil {
		return []models.Suggestion{}
	}
	return suggestions
}

// PhotoURL 服务端带 Key 解析照片直链，供回退照片地址的转发路由使用
func (s *ParkingService) PhotoURL(ctx context.Context, photoName string, maxWidth, maxHeight int) (string, error) {
	if !places.ValidPhotoName(photoName) {
		return "", ErrInvalidPhoto
	}
	if maxWidth <= 0 || maxWidth > 4800 {
		maxWidth = s.cfg.PhotoMaxPx
	}
	if maxHeight <= 0 || maxHeight > 4800 {
		maxHeight = s.cfg.PhotoMaxPx
	}
	u, ok := s.gateway.ResolvePhoto(ctx, photoName, maxWidth, maxHeight)
	if !ok {
		return "", ErrPhotoNotFound
	}
	return u, nil
}

// InitView WebSocket 连接时的初始视图
func (s *ParkingService) InitView(sessionID string) interface{} {
	v, err := s.View(sessionID, models.SortPopularity)
	if err != nil {
		return nil
	}
	return v
}

// publish 通知订阅者并推送到 WebSocket
func (s *ParkingService) publish(v *models.SessionView) {
	s.mu.RLock()
	for _, ch := range s.subscribers {
		select {
		case ch <- v:
		default:
			// 跳过慢消费者
		}
	}
	s.mu.RUnlock()

	if s.wsHub != nil {
		s.wsHub.BroadcastToSession(v.SessionID, ws.MsgTypeViewUpdate, v)
	}
}
