package wm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUserOverrideWins(t *testing.T) {
	in := classifyInput{UserOverrideFloat: true, Width: 2000, Height: 2000}
	assert.True(t, classify(in, nil))
}

func TestClassifyMinimizedFloats(t *testing.T) {
	in := classifyInput{IsMinimized: true, Width: 2000, Height: 2000}
	assert.True(t, classify(in, nil))
}

func TestClassifyBundleDenyList(t *testing.T) {
	in := classifyInput{BundleID: "com.apple.systempreferences", Width: 2000, Height: 2000}
	assert.True(t, classify(in, nil))
}

func TestClassifyFloatingSubrole(t *testing.T) {
	in := classifyInput{Subrole: "dialog", Width: 2000, Height: 2000}
	assert.True(t, classify(in, nil))
}

func TestClassifyModal(t *testing.T) {
	in := classifyInput{IsModal: true, Width: 2000, Height: 2000}
	assert.True(t, classify(in, nil))
}

func TestClassifySmallDialogSize(t *testing.T) {
	in := classifyInput{Width: 200, Height: 200}
	assert.True(t, classify(in, nil))
}

func TestClassifyNotificationShape(t *testing.T) {
	in := classifyInput{Width: 400, Height: 100}
	assert.True(t, classify(in, nil))
}

func TestClassifyTitleKeyword(t *testing.T) {
	in := classifyInput{Width: 2000, Height: 2000, Title: "App Preferences"}
	assert.True(t, classify(in, nil))
}

func TestClassifyDefaultTiles(t *testing.T) {
	in := classifyInput{Width: 2000, Height: 2000, Title: "Normal Window", BundleID: "com.example.app"}
	assert.False(t, classify(in, nil))
}

func TestClassifyAppOverrideForcesTile(t *testing.T) {
	overrides := []AppOverride{{BundleID: "com.example.ide", ForceTile: true}}
	in := classifyInput{BundleID: "com.example.ide", Title: "main.go — Find", Width: 2000, Height: 2000}
	// "Find" would normally float via the title keyword rule, but the
	// override's first-hit-wins precedence only applies to rules checked
	// ahead of it in the chain; title keywords run before overrides, so
	// this case still floats. Use a title without a keyword to see the
	// override take effect.
	assert.True(t, classify(in, overrides))

	in.Title = "main.go"
	assert.False(t, classify(in, overrides))
}

func TestClassifyAppOverrideTitleSubstringScoped(t *testing.T) {
	overrides := []AppOverride{{BundleID: "com.example.ide", TitleSubstring: "scratch", ForceTile: false}}
	in := classifyInput{BundleID: "com.example.ide", Title: "scratchpad", Width: 2000, Height: 2000}
	assert.True(t, classify(in, overrides))

	in.Title = "main.go"
	assert.False(t, classify(in, overrides))
}

func TestFloatClassifierMemoizesAndInvalidates(t *testing.T) {
	c := NewFloatClassifier(nil)
	in := classifyInput{IsMinimized: true, Width: 2000, Height: 2000}
	assert.True(t, c.Classify(h("a"), in))

	// Stale cached result survives even after the underlying state would
	// now classify differently, until Invalidate is called.
	in.IsMinimized = false
	assert.True(t, c.Classify(h("a"), in))

	c.Invalidate(h("a"))
	assert.False(t, c.Classify(h("a"), in))
}

func TestFloatClassifierFlushClearsEveryEntry(t *testing.T) {
	c := NewFloatClassifier(nil)
	c.Classify(h("a"), classifyInput{IsMinimized: true, Width: 2000, Height: 2000})
	c.Classify(h("b"), classifyInput{IsMinimized: true, Width: 2000, Height: 2000})
	c.Flush()

	in := classifyInput{Width: 2000, Height: 2000, Title: "Normal Window"}
	assert.False(t, c.Classify(h("a"), in))
	assert.False(t, c.Classify(h("b"), in))
}
