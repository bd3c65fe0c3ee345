package models

// 设备类别
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceDesktop DeviceClass = "desktop"
)

// DeviceClassForWidth 按视口宽度判断设备类别，宽度小于断点视为移动端
func DeviceClassForWidth(widthPx, breakpointPx int) DeviceClass {
	if widthPx > 0 && widthPx < breakpointPx {
		return DeviceMobile
	}
	return DeviceDesktop
}

// 选中停车场的展示方式
type PresentationMode string

const (
	PresentationNone              PresentationMode = "none"
	PresentationInlinePanel       PresentationMode = "inline-panel"
	PresentationFullModal         PresentationMode = "full-modal"
	PresentationCarouselHighlight PresentationMode = "carousel-highlight"
)

// 移动端标签页
type Tab string

const (
	TabList Tab = "list"
	TabMap  Tab = "map"
)

// ParseTab 解析标签页名称
func ParseTab(s string) (Tab, bool) {
	switch Tab(s) {
	case TabList, TabMap:
		return Tab(s), true
	default:
		return "", false
	}
}

// SelectionState 会话内的选中状态
// SelectedParkingID 只是弱引用，需要到 Store 中查找
type SelectionState struct {
	DeviceClass       DeviceClass      `json:"device_class"`
	ActiveTab         Tab              `json:"active_tab"`
	SelectedParkingID string           `json:"selected_parking_id,omitempty"`
	PresentationMode  PresentationMode `json:"presentation_mode"`
}

// HasSelection 是否有选中的停车场
func (s SelectionState) HasSelection() bool {
	return s.SelectedParkingID != ""
}
