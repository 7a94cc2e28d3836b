// Package tray provides the system tray control surface: the style picker,
// guidance reset and the aligned indicator.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/framer/internal/guidance"
)

// Title shown next to the tray icon.
const (
	titleIdle    = "○ framer"
	titleAligned = "● framer"
)

// Tray represents the system tray application.
type Tray struct {
	mu       sync.RWMutex
	styles   []guidance.Style
	active   guidance.Style
	aligned  bool
	onStyle  func(guidance.Style)
	onReset  func()
	onViewer func()
	onQuit   func()

	menuStyles map[guidance.Style]*systray.MenuItem
	ready      bool
}

// New creates a Tray with active checked in the style menu.
func New(active guidance.Style) *Tray {
	return &Tray{
		styles: guidance.Styles(),
		active: active,
	}
}

// OnStyle sets the callback invoked when a style is picked.
func (t *Tray) OnStyle(fn func(guidance.Style)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStyle = fn
}

// OnReset sets the callback invoked by "Reset guidance".
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnViewer sets the callback invoked by "Open Viewer...".
func (t *Tray) OnViewer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onViewer = fn
}

// OnQuit sets the callback invoked by "Quit".
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// Watch updates the tray from guidance outputs until updates is closed.
func (t *Tray) Watch(updates <-chan guidance.Output) {
	for out := range updates {
		t.SetActiveStyle(out.Style)
		t.SetAligned(out.Aligned)
	}
}

func (t *Tray) onReady() {
	t.mu.Lock()
	systray.SetTitle(t.title())
	systray.SetTooltip("framer composition guidance")

	t.menuStyles = make(map[guidance.Style]*systray.MenuItem, len(t.styles))
	for _, s := range t.styles {
		item := systray.AddMenuItemCheckbox(styleLabel(s), "Guide with "+styleLabel(s), s == t.active)
		t.menuStyles[s] = item
		go t.watchStyle(s, item)
	}
	t.ready = true
	t.mu.Unlock()

	systray.AddSeparator()
	menuReset := systray.AddMenuItem("Reset guidance", "Look for a new subject")
	menuViewer := systray.AddMenuItem("Open Viewer...", "Open the viewer in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit framer")

	go func() {
		for {
			select {
			case <-menuReset.ClickedCh:
				t.handleReset()
			case <-menuViewer.ClickedCh:
				t.handleViewer()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) watchStyle(s guidance.Style, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.selectStyle(s)
	}
}

// selectStyle checks s and invokes the style callback.
func (t *Tray) selectStyle(s guidance.Style) {
	t.SetActiveStyle(s)

	t.mu.RLock()
	callback := t.onStyle
	t.mu.RUnlock()

	if callback != nil {
		callback(s)
	}
}

func (t *Tray) handleReset() {
	t.mu.RLock()
	callback := t.onReset
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleViewer() {
	t.mu.RLock()
	callback := t.onViewer
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit runs the quit callback and stops the tray.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetActiveStyle checks s in the style menu.
func (t *Tray) SetActiveStyle(s guidance.Style) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s == t.active {
		return
	}
	t.active = s
	if !t.ready {
		return
	}
	for style, item := range t.menuStyles {
		if style == s {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// SetAligned switches the title indicator.
func (t *Tray) SetAligned(aligned bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if aligned == t.aligned {
		return
	}
	t.aligned = aligned
	if t.ready {
		systray.SetTitle(t.title())
	}
}

// ActiveStyle returns the checked style.
func (t *Tray) ActiveStyle() guidance.Style {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// IsAligned reports whether the aligned indicator is lit.
func (t *Tray) IsAligned() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.aligned
}

func (t *Tray) title() string {
	if t.aligned {
		return titleAligned
	}
	return titleIdle
}

var styleLabels = map[guidance.Style]string{
	guidance.StyleCenter:       "Center",
	guidance.StyleRuleOfThirds: "Rule of Thirds",
	guidance.StyleGoldenRatio:  "Golden Ratio",
	guidance.StyleLeadingLine:  "Leading Lines",
	guidance.StyleSymmetric:    "Symmetric",
}

func styleLabel(s guidance.Style) string {
	if l, ok := styleLabels[s]; ok {
		return l
	}
	return s.String()
}
