package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/looplab/fsm"

	"github.com/langchou/parkspot/internal/models"
)

// 事件常量
const (
	EventHighlight = "highlight"
	EventOpenModal = "open_modal"
	EventOpenPanel = "open_panel"
	EventClose     = "close"
)

var (
	ErrUnknownGesture = errors.New("unknown gesture")
	ErrEmptyParkingID = errors.New("empty parking id")
	ErrInvalidTab     = errors.New("invalid tab")
)

var (
	allModes = []string{
		string(models.PresentationNone),
		string(models.PresentationInlinePanel),
		string(models.PresentationFullModal),
		string(models.PresentationCarouselHighlight),
	}
	openModes = allModes[1:]
)

// Controller 选中状态机
// 状态机只管理展示方式，选中 id、设备类别、标签页由 Controller 维护
type Controller struct {
	mu       sync.RWMutex
	fsm      *fsm.FSM
	state    models.SelectionState
	tabSaved models.Tab // 进入选中前的标签页，空表示未知
	onChange func(from, to models.PresentationMode)
}

// NewController 创建状态机，onChange 在展示方式变化后调用（持锁中，不要回调 Controller）
func NewController(device models.DeviceClass, onChange func(from, to models.PresentationMode)) *Controller {
	if device == "" {
		device = models.DeviceDesktop
	}

	c := &Controller{
		onChange: onChange,
		state: models.SelectionState{
			DeviceClass:      device,
			ActiveTab:        models.TabList,
			PresentationMode: models.PresentationNone,
		},
	}

	c.fsm = fsm.NewFSM(
		string(models.PresentationNone),
		fsm.Events{
			{Name: EventHighlight, Src: allModes, Dst: string(models.PresentationCarouselHighlight)},
			{Name: EventOpenModal, Src: allModes, Dst: string(models.PresentationFullModal)},
			{Name: EventOpenPanel, Src: allModes, Dst: string(models.PresentationInlinePanel)},
			{Name: EventClose, Src: openModes, Dst: string(models.PresentationNone)},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if c.onChange != nil && e.Src != e.Dst {
					c.onChange(models.PresentationMode(e.Src), models.PresentationMode(e.Dst))
				}
			},
		},
	)

	return c
}

// State 获取当前状态副本
func (c *Controller) State() models.SelectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// CurrentMode 当前展示方式
func (c *Controller) CurrentMode() models.PresentationMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.PresentationMode(c.fsm.Current())
}

// OnGesture 处理选择类手势
func (c *Controller) OnGesture(gesture Gesture, parkingID string) error {
	if parkingID == "" {
		return ErrEmptyParkingID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := transitionTable[transitionKey{c.state.DeviceClass, gesture}]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGesture, gesture)
	}

	if !c.state.HasSelection() {
		c.tabSaved = c.state.ActiveTab
	}
	if err := c.trigger(modeEvents[t.mode]); err != nil {
		return err
	}

	c.state.SelectedParkingID = parkingID
	if t.switchToMap && c.state.DeviceClass == models.DeviceMobile {
		c.state.ActiveTab = models.TabMap
	}
	return nil
}

func (c *Controller) OnListRowTap(parkingID string) error {
	return c.OnGesture(GestureListRowTap, parkingID)
}

func (c *Controller) OnCarouselCardTap(parkingID string) error {
	return c.OnGesture(GestureCarouselCardTap, parkingID)
}

func (c *Controller) OnMapMarkerTap(parkingID string) error {
	return c.OnGesture(GestureMapMarkerTap, parkingID)
}

// OnCloseDetail 清除选中；移动端恢复选中前的标签页（未知时回到列表）
// 没有选中时什么都不做
func (c *Controller) OnCloseDetail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// OnCloseCarousel 关闭轮播，语义与关闭详情相同
func (c *Controller) OnCloseCarousel() {
	c.OnCloseDetail()
}

// OnNewExplicitSearch 新的主动搜索会让旧的选中失效
func (c *Controller) OnNewExplicitSearch() {
	c.OnCloseDetail()
}

// OnDeviceResize 更新设备类别，不影响选中
func (c *Controller) OnDeviceResize(device models.DeviceClass) {
	if device != models.DeviceMobile && device != models.DeviceDesktop {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.DeviceClass = device
}

// OnViewportWidth 按视口宽度重新判断设备类别
func (c *Controller) OnViewportWidth(widthPx, breakpointPx int) models.DeviceClass {
	device := models.DeviceClassForWidth(widthPx, breakpointPx)
	c.OnDeviceResize(device)
	return device
}

// SelectTab 移动端切换列表/地图，桌面端忽略
func (c *Controller) SelectTab(tab models.Tab) error {
	if _, ok := models.ParseTab(string(tab)); !ok {
		return fmt.Errorf("%w: %s", ErrInvalidTab, tab)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.DeviceClass != models.DeviceMobile {
		return nil
	}
	c.state.ActiveTab = tab
	return nil
}

func (c *Controller) closeLocked() {
	if !c.state.HasSelection() && c.fsm.Current() == string(models.PresentationNone) {
		return
	}

	if c.fsm.Can(EventClose) {
		_ = c.trigger(EventClose)
	}
	c.state.SelectedParkingID = ""
	c.state.PresentationMode = models.PresentationNone

	if c.state.DeviceClass == models.DeviceMobile {
		tab := c.tabSaved
		if tab == "" {
			tab = models.TabList
		}
		c.state.ActiveTab = tab
	}
	c.tabSaved = ""
}

// trigger 触发事件；重复进入同一展示方式不算错误
func (c *Controller) trigger(event string) error {
	err := c.fsm.Event(context.Background(), event)
	var noTransition fsm.NoTransitionError
	if err != nil && !(errors.As(err, &noTransition) && noTransition.Err == nil) {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}
	c.state.PresentationMode = models.PresentationMode(c.fsm.Current())
	return nil
}
