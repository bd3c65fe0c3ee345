package state

import "github.com/langchou/parkspot/internal/models"

// Gesture 视图发出的交互来源
type Gesture string

const (
	GestureListRowTap      Gesture = "list_row_tap"
	GestureCarouselCardTap Gesture = "carousel_card_tap"
	GestureMapMarkerTap    Gesture = "map_marker_tap"

	// 非选择类手势，不经过转换表
	GestureCloseDetail   Gesture = "close_detail"
	GestureCloseCarousel Gesture = "close_carousel"
	GestureSelectTab     Gesture = "select_tab"
)

// ParseGesture 解析选择类手势
func ParseGesture(s string) (Gesture, bool) {
	switch Gesture(s) {
	case GestureListRowTap, GestureCarouselCardTap, GestureMapMarkerTap:
		return Gesture(s), true
	default:
		return "", false
	}
}

type transitionKey struct {
	device  models.DeviceClass
	gesture Gesture
}

// transition 选中后的展示方式，以及移动端是否切到地图页
type transition struct {
	mode        models.PresentationMode
	switchToMap bool
}

// transitionTable 所有展示方式的决策都走这张表
// 同一手势在移动端和桌面端的结果不同：桌面端地图标记与列表行统一为侧栏详情
var transitionTable = map[transitionKey]transition{
	{models.DeviceMobile, GestureListRowTap}:       {mode: models.PresentationCarouselHighlight, switchToMap: true},
	{models.DeviceMobile, GestureCarouselCardTap}:  {mode: models.PresentationFullModal},
	{models.DeviceMobile, GestureMapMarkerTap}:     {mode: models.PresentationFullModal},
	{models.DeviceDesktop, GestureListRowTap}:      {mode: models.PresentationInlinePanel},
	{models.DeviceDesktop, GestureMapMarkerTap}:    {mode: models.PresentationInlinePanel},
	{models.DeviceDesktop, GestureCarouselCardTap}: {mode: models.PresentationInlinePanel},
}

// 展示方式对应的状态机事件
var modeEvents = map[models.PresentationMode]string{
	models.PresentationCarouselHighlight: EventHighlight,
	models.PresentationFullModal:         EventOpenModal,
	models.PresentationInlinePanel:       EventOpenPanel,
	models.PresentationNone:              EventClose,
}

// Resolve 查表得到 (设备类别, 手势) 的展示方式
func Resolve(device models.DeviceClass, gesture Gesture) (models.PresentationMode, bool) {
	t, ok := transitionTable[transitionKey{device, gesture}]
	return t.mode, ok
}
