package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/perception"
)

func newTestSelector(t *testing.T) *guidance.Selector {
	t.Helper()
	sel, err := guidance.NewSelector(perception.NewMockAdapter(), guidance.StyleCenter, guidance.DefaultParams())
	require.NoError(t, err)
	t.Cleanup(func() { sel.Close() })
	return sel
}

func TestGuidanceHandler_GetStyle(t *testing.T) {
	h := NewGuidanceHandler(newTestSelector(t))

	rec := httptest.NewRecorder()
	h.Style(rec, httptest.NewRequest(http.MethodGet, "/api/style", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Style  string   `json:"style"`
		Styles []string `json:"styles"`
		Params struct {
			Orientation string `json:"orientation"`
		} `json:"params"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "center", resp.Style)
	assert.Equal(t, "bottom-left", resp.Params.Orientation)
	assert.Equal(t, []string{"center", "rule-of-thirds", "golden-ratio", "leading-line", "symmetric"}, resp.Styles)
}

func TestGuidanceHandler_PutStyle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantStyle  guidance.Style
		wantParams guidance.Params
	}{
		{
			name:       "style only keeps params",
			body:       `{"style":"rule-of-thirds"}`,
			wantStatus: http.StatusOK,
			wantStyle:  guidance.StyleRuleOfThirds,
			wantParams: guidance.DefaultParams(),
		},
		{
			name:       "golden ratio with params",
			body:       `{"style":"golden-ratio","aspect":0.5625,"orientation":"top-right"}`,
			wantStatus: http.StatusOK,
			wantStyle:  guidance.StyleGoldenRatio,
			wantParams: guidance.Params{Aspect: 0.5625, Orientation: guidance.TopRight},
		},
		{
			name:       "unknown style",
			body:       `{"style":"dutch-angle"}`,
			wantStatus: http.StatusBadRequest,
			wantStyle:  guidance.StyleCenter,
			wantParams: guidance.DefaultParams(),
		},
		{
			name:       "unknown orientation",
			body:       `{"style":"golden-ratio","orientation":"middle"}`,
			wantStatus: http.StatusBadRequest,
			wantStyle:  guidance.StyleCenter,
			wantParams: guidance.DefaultParams(),
		},
		{
			name:       "negative aspect",
			body:       `{"style":"golden-ratio","aspect":-1}`,
			wantStatus: http.StatusBadRequest,
			wantStyle:  guidance.StyleCenter,
			wantParams: guidance.DefaultParams(),
		},
		{
			name:       "invalid json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantStyle:  guidance.StyleCenter,
			wantParams: guidance.DefaultParams(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := newTestSelector(t)
			h := NewGuidanceHandler(sel)

			rec := httptest.NewRecorder()
			h.Style(rec, httptest.NewRequest(http.MethodPut, "/api/style", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			style, params := sel.ActiveStyle()
			assert.Equal(t, tt.wantStyle, style)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestGuidanceHandler_MethodNotAllowed(t *testing.T) {
	h := NewGuidanceHandler(newTestSelector(t))

	tests := []struct {
		method  string
		handler http.HandlerFunc
	}{
		{http.MethodDelete, h.Style},
		{http.MethodGet, h.Reset},
		{http.MethodPost, h.Current},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		tt.handler(rec, httptest.NewRequest(tt.method, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tt.method)
	}
}

func TestGuidanceHandler_ResetAndCurrent(t *testing.T) {
	sel := newTestSelector(t)
	h := NewGuidanceHandler(sel)

	rec := httptest.NewRecorder()
	h.Reset(rec, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Style  string `json:"style"`
		Phase  string `json:"phase"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "center", out.Style)
	assert.Equal(t, "acquiring", out.Phase)
	assert.Equal(t, guidance.ErrReset.Error(), out.Reason)

	rec = httptest.NewRecorder()
	h.Current(rec, httptest.NewRequest(http.MethodGet, "/api/guidance", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phase":"acquiring"`)
}
