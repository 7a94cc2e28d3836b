package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/capture"
	"github.com/ayusman/framer/internal/geometry"
	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/perception"
	"github.com/ayusman/framer/internal/store"
	"github.com/ayusman/framer/testdata"
)

func solidFrame(t *testing.T, v float64) *gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), testdata.Height, testdata.Width, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return &mat
}

// newTestApp returns an App over frames with a mock adapter that always
// finds a centered subject.
func newTestApp(t *testing.T, config Config, frames ...*gocv.Mat) (*App, *perception.MockAdapter) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping gocv test in short mode")
	}

	config.Camera = capture.NewMockCamera(frames, true)
	a, err := New(config)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	adapter := perception.NewMockAdapter()
	adapter.SetFocus(geometry.Pt(0.5, 0.5))
	adapter.SetBoxes([]geometry.Rect{{X: 0.3, Y: 0.3, Width: 0.4, Height: 0.4}}, nil)
	a.SetAdapter(adapter)

	return a, adapter
}

func TestClampFrameInterval(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, DefaultFrameInterval},
		{-time.Second, DefaultFrameInterval},
		{100 * time.Millisecond, MinFrameInterval},
		{300 * time.Millisecond, 300 * time.Millisecond},
		{time.Second, MaxFrameInterval},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampFrameInterval(tt.in), "ClampFrameInterval(%v)", tt.in)
	}
}

func TestApp_ProcessFrame(t *testing.T) {
	frame := solidFrame(t, 128)
	a, adapter := newTestApp(t, Config{Style: guidance.StyleCenter})

	out := a.ProcessFrame(frame)
	assert.Equal(t, guidance.Tracking, out.Phase)
	assert.Nil(t, out.ShotPoint)

	out = a.ProcessFrame(frame)
	require.NotNil(t, out.ShotPoint)
	assert.InDelta(t, 0.5, out.ShotPoint.X, 1e-9)
	assert.True(t, out.Aligned)
	assert.Equal(t, 1, adapter.HeatmapCalls)

	snap, snapOut, ok := a.Snapshot()
	require.True(t, ok)
	defer snap.Close()
	assert.Equal(t, testdata.Width, snap.Cols())
	assert.Equal(t, out.ShotPoint, snapOut.ShotPoint)
}

func TestApp_ProcessFrame_Empty(t *testing.T) {
	a, adapter := newTestApp(t, Config{})

	empty := gocv.NewMat()
	defer empty.Close()

	out := a.ProcessFrame(&empty)
	assert.Equal(t, guidance.Acquiring, out.Phase)
	assert.Zero(t, adapter.HeatmapCalls)

	_, _, ok := a.Snapshot()
	assert.False(t, ok)
}

func TestApp_ShakeResetsGuidance(t *testing.T) {
	light := solidFrame(t, 230)
	dark := solidFrame(t, 20)
	a, adapter := newTestApp(t, Config{Style: guidance.StyleCenter})

	a.ProcessFrame(light)
	out := a.ProcessFrame(light)
	require.Equal(t, guidance.Tracking, out.Phase)

	out = a.ProcessFrame(dark)
	assert.Equal(t, guidance.Acquiring, out.Phase)
	assert.ErrorIs(t, out.Err, guidance.ErrReset)
	assert.False(t, adapter.Tracker().Seeded())

	out = a.ProcessFrame(dark)
	assert.Equal(t, guidance.Tracking, out.Phase, "guidance reacquires after a shake")
}

func TestApp_SetStyle(t *testing.T) {
	a, _ := newTestApp(t, Config{Style: guidance.StyleCenter})

	params := guidance.Params{Aspect: guidance.Aspect9x16, Orientation: guidance.TopLeft}
	require.NoError(t, a.SetStyle(guidance.StyleGoldenRatio, params))

	style, got := a.Selector().ActiveStyle()
	assert.Equal(t, guidance.StyleGoldenRatio, style)
	assert.Equal(t, params, got)

	assert.Error(t, a.SetStyle(guidance.Style(42), params))
	style, _ = a.Selector().ActiveStyle()
	assert.Equal(t, guidance.StyleGoldenRatio, style)
}

func TestApp_RestoreStyle(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()
	require.NoError(t, settings.Set(store.SettingStyle, "golden-ratio"))
	require.NoError(t, settings.Set(store.SettingOrientation, "bottom-right"))
	require.NoError(t, settings.Set(store.SettingAspect, "0.5625"))

	a, _ := newTestApp(t, Config{Store: s, Style: guidance.StyleCenter, RestoreStyle: true})

	style, params := a.Selector().ActiveStyle()
	assert.Equal(t, guidance.StyleGoldenRatio, style)
	assert.Equal(t, guidance.BottomRight, params.Orientation)
	assert.InDelta(t, guidance.Aspect9x16, params.Aspect, 1e-9)
}

func TestRestoreStyle_KeepsDefaultsOnBadSettings(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Settings().Set(store.SettingStyle, "dutch-angle"))
	require.NoError(t, s.Settings().Set(store.SettingAspect, "-1"))

	style, params := restoreStyle(s.Settings(), guidance.StyleRuleOfThirds, guidance.DefaultParams())
	assert.Equal(t, guidance.StyleRuleOfThirds, style)
	assert.Equal(t, guidance.DefaultParams(), params)
}

func TestApp_JournalsSessions(t *testing.T) {
	s := newTestStore(t)
	a, _ := newTestApp(t, Config{Store: s, Style: guidance.StyleCenter})

	require.NotNil(t, a.Journal())
	first := a.Journal().Session()
	require.NotNil(t, first)
	assert.Equal(t, "center", first.Style)

	require.NoError(t, a.SetStyle(guidance.StyleRuleOfThirds, guidance.DefaultParams()))

	assert.Eventually(t, func() bool {
		sess := a.Journal().Session()
		return sess != nil && sess.Style == "rule-of-thirds"
	}, 2*time.Second, 10*time.Millisecond)

	sessions, err := s.Sessions().List(0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(sessions), 2)
}

func TestApp_StartStop(t *testing.T) {
	a, _ := newTestApp(t, Config{Style: guidance.StyleCenter}, solidFrame(t, 128))

	require.NoError(t, a.Start())
	require.NoError(t, a.Start(), "Start is idempotent")
	assert.True(t, a.Camera().IsOpen())

	assert.Eventually(t, func() bool {
		return a.Selector().Output().Phase == guidance.Tracking
	}, 3*time.Second, 20*time.Millisecond)

	a.Stop()
	assert.False(t, a.Camera().IsOpen())
	a.Stop()
}

func TestApp_Disabled(t *testing.T) {
	a, adapter := newTestApp(t, Config{}, solidFrame(t, 128))

	a.SetEnabled(false)
	assert.False(t, a.IsEnabled())

	require.NoError(t, a.Start())
	time.Sleep(3 * MinFrameInterval)
	a.Stop()

	assert.Zero(t, adapter.HeatmapCalls)
}
