package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/langchou/parkspot/internal/models"
	"github.com/langchou/parkspot/internal/state"
	"github.com/langchou/parkspot/pkg/ws"
)

// GestureInput 视图发出的一次交互
type GestureInput struct {
	Gesture   string `json:"gesture" binding:"required"`
	ParkingID string `json:"parking_id"`
	Tab       string `json:"tab"`
}

// HandleGesture 把视图交互分发给选中状态机，返回更新后的视图
// 选择类手势的 parking_id 必须存在于当前结果集
func (s *ParkingService) HandleGesture(ctx context.Context, sessionID string, in GestureInput) (*models.SessionView, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	before := sess.controller.State()

	switch g := state.Gesture(in.Gesture); g {
	case state.GestureCloseDetail:
		sess.controller.OnCloseDetail()
	case state.GestureCloseCarousel:
		sess.controller.OnCloseCarousel()
	case state.GestureSelectTab:
		tab, ok := models.ParseTab(in.Tab)
		if !ok {
			sess.mu.Unlock()
			return nil, fmt.Errorf("%w: %q", ErrInvalidTab, in.Tab)
		}
		if err := sess.controller.SelectTab(tab); err != nil {
			sess.mu.Unlock()
			return nil, err
		}
	default:
		if _, ok := state.ParseGesture(in.Gesture); !ok {
			sess.mu.Unlock()
			return nil, fmt.Errorf("%w: %q", ErrUnknownGesture, in.Gesture)
		}
		if in.ParkingID == "" {
			sess.mu.Unlock()
			return nil, ErrEmptyParkingID
		}
		if _, ok := sess.store.Get(in.ParkingID); !ok {
			sess.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrParkingNotFound, in.ParkingID)
		}
		if err := sess.controller.OnGesture(g, in.ParkingID); err != nil {
			sess.mu.Unlock()
			return nil, err
		}
	}

	after := sess.controller.State()
	view := sess.view(models.SortPopularity)
	sess.mu.Unlock()

	s.logger.Debug("Gesture handled",
		zap.String("session_id", sessionID),
		zap.String("gesture", in.Gesture),
		zap.String("parking_id", in.ParkingID),
		zap.String("mode_before", string(before.PresentationMode)),
		zap.String("mode_after", string(after.PresentationMode)))

	if before != after {
		s.publish(view)
	}
	return view, nil
}

// Viewport 视口宽度变化时重新判断设备类别，不影响选中
func (s *ParkingService) Viewport(ctx context.Context, sessionID string, widthPx int) (*models.SessionView, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	before := sess.controller.State().DeviceClass
	device := sess.controller.OnViewportWidth(widthPx, s.cfg.MobileBreakpointPx)
	view := sess.view(models.SortPopularity)
	sess.mu.Unlock()

	if before != device {
		s.logger.Info("Device class changed",
			zap.String("session_id", sessionID),
			zap.String("from", string(before)),
			zap.String("to", string(device)),
			zap.Int("width", widthPx))
		s.publish(view)
	}
	return view, nil
}

// HandleWSMessage 处理 WebSocket 客户端消息，目前只接受手势
// 视图变化通过 publish 推送，这里只返回错误
func (s *ParkingService) HandleWSMessage(sessionID, msgType string, data json.RawMessage) error {
	if msgType != ws.MsgTypeGesture {
		return fmt.Errorf("unsupported message type %q", msgType)
	}
	var in GestureInput
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode gesture: %w", err)
	}
	_, err := s.HandleGesture(context.Background(), sessionID, in)
	return err
}
