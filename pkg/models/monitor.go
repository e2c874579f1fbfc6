package models

// MonitorDescriptor is the shape PlatformPort.EnumerateDisplays returns for
// one physical display.
type MonitorDescriptor struct {
	ID           MonitorID `json:"id"`
	Name         string    `json:"name"`
	Frame        Rectangle `json:"frame"`
	VisibleFrame Rectangle `json:"visible_frame"`
	IsPrimary    bool      `json:"is_primary"`
}

// SavedGeometry is the per-window geometry snapshot a Workspace keeps so it
// can restore exact positions on reactivation.
type SavedGeometry struct {
	Frames        map[WindowHandle]Rectangle `json:"frames"`
	FocusedHandle *WindowHandle              `json:"focused_handle,omitempty"`
}

// NewSavedGeometry returns an empty, ready-to-use snapshot.
func NewSavedGeometry() *SavedGeometry {
	return &SavedGeometry{Frames: make(map[WindowHandle]Rectangle)}
}
