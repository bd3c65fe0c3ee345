package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/langchou/parkspot/internal/models"
)

// SearchOutcome 一次搜索完成后的结果
// Stale 为 true 表示期间有更新的同类搜索发起，本次结果已丢弃，View 为当前视图
// ResultCount 为增强后的结果数，Added 为实际写入 Store 的数量（过期搜索为 0）
type SearchOutcome struct {
	View        *models.SessionView `json:"view"`
	Stale       bool                `json:"stale"`
	Token       uint64              `json:"token"`
	ResultCount int                 `json:"result_count"`
	Added       int                 `json:"added"`
}

// ExplicitSearch 用户主动搜索
// 文本搜索 -> 首个有坐标的结果作为新中心 -> 周边停车场搜索 -> 增强 -> 替换结果集
// 只有最后发起的主动搜索能写入 Store
func (s *ParkingService) ExplicitSearch(ctx context.Context, sessionID, query string) (*SearchOutcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	token := sess.explicitSeq.Add(1)
	bias := sess.Center()
	logger := s.logger.With(
		zap.String("session_id", sessionID),
		zap.Uint64("token", token),
		zap.String("query", query))

	ctx, cancel := s.searchContext(ctx)
	defer cancel()

	var (
		center    models.LatLng
		placeName string
		located   bool
		parkings  []models.ParkingLocation
	)
	for _, rec := range s.gateway.SearchByText(ctx, query, bias) {
		if rec.Location != nil && rec.Location.Valid() {
			center = *rec.Location
			placeName = rec.DisplayName
			located = true
			break
		}
	}
	if located {
		nearby := s.gateway.SearchNearby(ctx, center, s.cfg.SearchRadiusMeters, s.cfg.SearchType)
		parkings = s.pipeline.Enrich(ctx, nearby)
	} else {
		logger.Info("Text search returned no located place")
	}

	sess.mu.Lock()
	if latest := sess.explicitSeq.Load(); latest != token {
		view := sess.view(models.SortPopularity)
		sess.mu.Unlock()
		logger.Debug("Discarding stale explicit search", zap.Uint64("latest", latest))
		return &SearchOutcome{View: view, Stale: true, Token: token, ResultCount: len(parkings)}, nil
	}
	added := sess.store.Replace(parkings)
	sess.controller.OnNewExplicitSearch()
	if located {
		sess.center = center
		sess.placeName = placeName
	}
	view := sess.view(models.SortPopularity)
	sess.mu.Unlock()

	logger.Info("Explicit search applied",
		zap.Int("results", len(parkings)),
		zap.Uint64("version", view.Version))

	s.record(ctx, &models.SearchLog{
		SessionID:   sessionID,
		Kind:        models.SearchExplicit,
		Query:       query,
		Latitude:    view.Center.Lat,
		Longitude:   view.Center.Lng,
		ResultCount: len(parkings),
	}, parkings)
	s.publish(view)

	return &SearchOutcome{View: view, Token: token, ResultCount: len(parkings), Added: added}, nil
}

// AmbientSearch 地图平移等触发的后台周边搜索，结果合并进现有集合
// 与主动搜索的序号互相独立，只与其他后台搜索比较新旧
func (s *ParkingService) AmbientSearch(ctx context.Context, sessionID string, center models.LatLng) (*SearchOutcome, error) {
	if !center.Valid() {
		return nil, ErrInvalidLocation
	}
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	token := sess.ambientSeq.Add(1)
	logger := s.logger.With(
		zap.String("session_id", sessionID),
		zap.Uint64("token", token),
		zap.Float64("lat", center.Lat),
		zap.Float64("lng", center.Lng))

	ctx, cancel := s.searchContext(ctx)
	defer cancel()

	nearby := s.gateway.SearchNearby(ctx, center, s.cfg.SearchRadiusMeters, s.cfg.SearchType)
	parkings := s.pipeline.Enrich(ctx, nearby)

	sess.mu.Lock()
	if latest := sess.ambientSeq.Load(); latest != token {
		view := sess.view(models.SortPopularity)
		sess.mu.Unlock()
		logger.Debug("Discarding stale ambient search", zap.Uint64("latest", latest))
		return &SearchOutcome{View: view, Stale: true, Token: token, ResultCount: len(parkings)}, nil
	}
	parkings = releaseTakenCategories(sess.store.Snapshot(), parkings)
	added := sess.store.MergeAmbient(parkings)
	sess.center = center
	view := sess.view(models.SortPopularity)
	sess.mu.Unlock()

	logger.Info("Ambient search merged",
		zap.Int("results", len(parkings)),
		zap.Int("added", added),
		zap.Uint64("version", view.Version))

	s.record(ctx, &models.SearchLog{
		SessionID:   sessionID,
		Kind:        models.SearchAmbient,
		Latitude:    center.Lat,
		Longitude:   center.Lng,
		ResultCount: len(parkings),
	}, parkings)
	s.publish(view)

	return &SearchOutcome{View: view, Token: token, ResultCount: len(parkings), Added: added}, nil
}

// searchContext 搜索不随请求取消，只受 SearchTimeout 限制
func (s *ParkingService) searchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.cfg.SearchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.SearchTimeout)
}

// releaseTakenCategories 合并时已被现有结果占用的分类标签置空，保证每个标签在集合中最多一个
func releaseTakenCategories(existing, incoming []models.ParkingLocation) []models.ParkingLocation {
	taken := make(map[models.Category]bool, 3)
	for _, p := range existing {
		if p.Category != models.CategoryNone {
			taken[p.Category] = true
		}
	}
	if len(taken) == 0 {
		return incoming
	}

	out := make([]models.ParkingLocation, len(incoming))
	for i, p := range incoming {
		if taken[p.Category] {
			p.Category = models.CategoryNone
		}
		out[i] = p
	}
	return out
}

// record 持久化搜索日志与停车场目录，失败只记录日志
func (s *ParkingService) record(ctx context.Context, log *models.SearchLog, parkings []models.ParkingLocation) {
	if s.searches != nil {
		log.CreatedAt = s.now()
		if err := s.searches.Create(ctx, log); err != nil {
			s.logger.Warn("Failed to record search", zap.Error(err), zap.String("session_id", log.SessionID))
		}
	}
	if s.catalog != nil && len(parkings) > 0 {
		if err := s.catalog.UpsertBatch(ctx, parkings); err != nil {
			s.logger.Warn("Failed to upsert parking catalog", zap.Error(err), zap.Int("count", len(parkings)))
		}
	}
}
