package wm

import (
	"strings"
	"sync"

	"github.com/frostplexx/yuki/pkg/models"
)

// bundleIDDenyList enumerates owning-application bundle identifiers that
// are always floated: preference panes, open/save panels, print center,
// color picker and similar system chrome.
var bundleIDDenyList = map[string]bool{
	"com.apple.systempreferences":  true,
	"com.apple.preference.general": true,
	"com.apple.print.PrintCenter":  true,
	"com.apple.ColorSyncUtility":   true,
	"com.apple.finder.OpenSavePanel": true,
}

// floatingSubroles enumerates window subroles that are always floated.
var floatingSubroles = map[string]bool{
	"dialog":        true,
	"sheet":         true,
	"system-dialog": true,
	"floating":      true,
}

// titleFloatKeywords enumerates title substrings that mark a window as a
// settings/utility surface. Matching is case-insensitive.
var titleFloatKeywords = []string{
	"Preferences", "Settings", "Inspector", "Find", "Properties", "Alert",
}

const (
	smallDialogMax    = 300 // width < 300 && height < 300: likely dialog
	notificationMaxH  = 150
	notificationMinW  = 300
)

// AppOverride forces tile-vs-float for windows of a specific application,
// e.g. an IDE's main editor windows identified by a file-extension
// substring in the title. Overrides are consulted only after every generic
// rule has failed to float the window, so they cannot make a window that a
// generic rule floats tile.
type AppOverride struct {
	BundleID       string
	TitleSubstring string // empty matches any title
	ForceTile      bool
}

// classifyInput is everything the classification chain needs to know about
// a window; WindowRegistry/Workspace own the authoritative Window value,
// this is just the read-only view the classifier consumes.
type classifyInput struct {
	UserOverrideFloat bool
	IsMinimized       bool
	BundleID          string
	Subrole           string
	IsModal           bool
	Width, Height     float64
	Title             string
}

// FloatClassifier decides whether a window must be excluded from tiling,
// via an ordered first-hit-wins chain. Results are memoized per handle in
// a lock-free concurrent map until invalidated.
type FloatClassifier struct {
	overrides []AppOverride
	cache     sync.Map // models.WindowHandle -> bool (true = float)
}

// NewFloatClassifier builds a classifier with the given application-specific
// overrides, evaluated in order, first match wins.
func NewFloatClassifier(overrides []AppOverride) *FloatClassifier {
	return &FloatClassifier{overrides: overrides}
}

// Classify returns true if handle's window must float. The result is
// memoized; call Invalidate or Flush when the window's state changes.
func (c *FloatClassifier) Classify(handle models.WindowHandle, in classifyInput) bool {
	if cached, ok := c.cache.Load(handle); ok {
		return cached.(bool)
	}
	result := classify(in, c.overrides)
	c.cache.Store(handle, result)
	return result
}

// Invalidate drops the memoized decision for handle. Called on
// minimize/deminimize, title change, and user-override toggle.
func (c *FloatClassifier) Invalidate(handle models.WindowHandle) {
	c.cache.Delete(handle)
}

// Flush clears every memoized decision. The EventRouter calls it on system
// sleep, since minimize/modal state may change while events are suspended.
func (c *FloatClassifier) Flush() {
	c.cache.Range(func(key, _ interface{}) bool {
		c.cache.Delete(key)
		return true
	})
}

// classify runs the ordered, first-hit-wins chain
func classify(in classifyInput, overrides []AppOverride) bool {
	if in.UserOverrideFloat {
		return true
	}
	if in.IsMinimized {
		return true
	}
	if bundleIDDenyList[in.BundleID] {
		return true
	}
	if floatingSubroles[in.Subrole] {
		return true
	}
	if in.IsModal {
		return true
	}
	// Width/Height of 0 means the window's geometry hasn't been observed
	// yet; treat that as unknown rather than matching the dialog shape.
	if in.Width > 0 && in.Height > 0 &&
		((in.Width < smallDialogMax && in.Height < smallDialogMax) ||
			(in.Height < notificationMaxH && in.Width > notificationMinW)) {
		return true
	}
	for _, kw := range titleFloatKeywords {
		if strings.Contains(strings.ToLower(in.Title), strings.ToLower(kw)) {
			return true
		}
	}
	for _, o := range overrides {
		if o.BundleID != in.BundleID {
			continue
		}
		if o.TitleSubstring == "" || strings.Contains(in.Title, o.TitleSubstring) {
			return !o.ForceTile
		}
	}
	return false // default: tile
}
