package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/geometry"
	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/perception"
	"github.com/ayusman/framer/internal/store"
	"github.com/ayusman/framer/testdata"
)

func newTestSelector(t *testing.T) (*guidance.Selector, *perception.MockAdapter) {
	t.Helper()
	adapter := perception.NewMockAdapter()
	adapter.SetFocus(geometry.Pt(0.5, 0.5))
	adapter.SetBoxes([]geometry.Rect{{X: 0.3, Y: 0.3, Width: 0.4, Height: 0.4}}, nil)

	sel, err := guidance.NewSelector(adapter, guidance.StyleCenter, guidance.DefaultParams())
	require.NoError(t, err)
	t.Cleanup(func() { sel.Close() })
	return sel, adapter
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "ok", response["status"])
		assert.Contains(t, response, "uptime")
		assert.NotContains(t, response, "style")
	})

	t.Run("only allows GET method", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		}
	})

	t.Run("reports the active style", func(t *testing.T) {
		sel, _ := newTestSelector(t)
		rec := httptest.NewRecorder()
		New(Config{Guidance: sel}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		var response healthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "center", response.Style)
		assert.Equal(t, "acquiring", response.Phase)
	})
}

func TestServer_RoutesRequireDependencies(t *testing.T) {
	s := New(Config{})
	for _, path := range []string{"/api/style", "/api/reset", "/api/guidance", "/api/guidance/ws", "/api/sessions", "/api/stream"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestServer_StyleWorkflow(t *testing.T) {
	sel, _ := newTestSelector(t)
	dbStore, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer dbStore.Close()

	ts := httptest.NewServer(New(Config{Guidance: sel, Store: dbStore}))
	defer ts.Close()
	client := ts.Client()

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/style", strings.NewReader(`{"style":"golden-ratio","orientation":"top-left"}`))
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	style, params := sel.ActiveStyle()
	assert.Equal(t, guidance.StyleGoldenRatio, style)
	assert.Equal(t, guidance.TopLeft, params.Orientation)

	resp, err = client.Post(ts.URL+"/api/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/api/guidance")
	require.NoError(t, err)
	var out struct {
		Style string `json:"style"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.Equal(t, "golden-ratio", out.Style)

	resp, err = client.Get(ts.URL + "/api/sessions")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuidanceSocket(t *testing.T) {
	sel, _ := newTestSelector(t)
	ts := httptest.NewServer(New(Config{Guidance: sel}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/guidance/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first guidance.Output
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, guidance.StyleCenter, first.Style)
	assert.Equal(t, guidance.Acquiring, first.Phase)

	frame := perception.StaticFrame{Width: 640, Height: 480}
	sel.Process(frame)
	sel.Process(frame)

	var acquired, tracked guidance.Output
	require.NoError(t, conn.ReadJSON(&acquired))
	require.NoError(t, conn.ReadJSON(&tracked))
	assert.Equal(t, guidance.Tracking, acquired.Phase)
	require.NotNil(t, tracked.ShotPoint)
	assert.True(t, tracked.Aligned)
}

type staticFrames struct {
	mu    sync.Mutex
	frame *gocv.Mat
	out   guidance.Output
	calls int
}

func (f *staticFrames) Snapshot() (gocv.Mat, guidance.Output, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.frame == nil {
		return gocv.Mat{}, guidance.Output{}, false
	}
	return f.frame.Clone(), f.out, true
}

func TestStreamHandler(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gocv test in short mode")
	}

	frame := testdata.BlankFrame()
	defer frame.Close()
	source := &staticFrames{frame: frame, out: guidance.Output{Style: guidance.StyleRuleOfThirds}}

	ts := httptest.NewServer(New(Config{Frames: source, StreamInterval: 10 * time.Millisecond}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "--frame\r\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Content-Type: image/jpeg\r\n", line)
}

func TestDrawOverlay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gocv test in short mode")
	}

	countChanged := func(out guidance.Output) int {
		img := testdata.BlankFrame()
		defer img.Close()
		DrawOverlay(img, out)

		blank := testdata.BlankFrame()
		defer blank.Close()
		diff := gocv.NewMat()
		defer diff.Close()
		gocv.AbsDiff(*img, *blank, &diff)
		gray := gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray)
		return gocv.CountNonZero(gray)
	}

	assert.Zero(t, countChanged(guidance.Output{Style: guidance.StyleLeadingLine}))

	grid := countChanged(guidance.Output{Style: guidance.StyleRuleOfThirds})
	assert.Positive(t, grid)

	region := &geometry.Rect{X: 0.3, Y: 0.3, Width: 0.4, Height: 0.4}
	shot := &geometry.Point{X: 0.5, Y: 0.5}
	full := countChanged(guidance.Output{Style: guidance.StyleRuleOfThirds, TrackedRegion: region, ShotPoint: shot, Aligned: true})
	assert.Greater(t, full, grid)

	lines := countChanged(guidance.Output{
		Style:          guidance.StyleLeadingLine,
		Segments:       []geometry.Segment{{Start: geometry.Pt(0, 1), End: geometry.Pt(0.5, 0.5)}},
		VanishingPoint: &geometry.Point{X: 0.5, Y: 0.5},
	})
	assert.Positive(t, lines)

	DrawOverlay(nil, guidance.Output{})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>framer viewer</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cssContent := "body { color: red; }"
	if err := os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0644); err != nil {
		t.Fatalf("failed to create test CSS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != cssContent {
			t.Errorf("expected body %q, got %q", cssContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	t.Run("root path returns 404 when no static dir configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}

		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})
}
