package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/framer/internal/guidance"
)

func TestTray_SelectStyle(t *testing.T) {
	tr := New(guidance.StyleCenter)
	assert.Equal(t, guidance.StyleCenter, tr.ActiveStyle())

	var picked []guidance.Style
	tr.OnStyle(func(s guidance.Style) { picked = append(picked, s) })

	tr.selectStyle(guidance.StyleGoldenRatio)
	tr.selectStyle(guidance.StyleGoldenRatio)

	assert.Equal(t, guidance.StyleGoldenRatio, tr.ActiveStyle())
	assert.Equal(t, []guidance.Style{guidance.StyleGoldenRatio, guidance.StyleGoldenRatio}, picked)
}

func TestTray_Callbacks(t *testing.T) {
	tr := New(guidance.StyleCenter)

	resets, viewers := 0, 0
	tr.OnReset(func() { resets++ })
	tr.OnViewer(func() { viewers++ })

	tr.handleReset()
	tr.handleReset()
	tr.handleViewer()

	assert.Equal(t, 2, resets)
	assert.Equal(t, 1, viewers)

	// Unset callbacks are ignored.
	New(guidance.StyleCenter).handleReset()
}

func TestTray_Watch(t *testing.T) {
	tr := New(guidance.StyleCenter)
	assert.Equal(t, titleIdle, tr.title())

	updates := make(chan guidance.Output, 3)
	updates <- guidance.Output{Style: guidance.StyleRuleOfThirds}
	updates <- guidance.Output{Style: guidance.StyleRuleOfThirds, Aligned: true}
	close(updates)

	tr.Watch(updates)

	assert.Equal(t, guidance.StyleRuleOfThirds, tr.ActiveStyle())
	assert.True(t, tr.IsAligned())
	assert.Equal(t, titleAligned, tr.title())
}

func TestStyleLabel(t *testing.T) {
	for _, s := range guidance.Styles() {
		assert.NotEqual(t, s.String(), styleLabel(s), "every style has a menu label")
	}
	assert.Equal(t, "style(9)", styleLabel(guidance.Style(9)))
}
