package handlers

import (
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseRequest(signals string) *http.Request {
	target := "/sse/dashboard"
	if signals != "" {
		target += "?datastar=" + url.QueryEscape(signals)
	}
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func TestSSEHandlers_HandleDashboard(t *testing.T) {
	h := NewSSEHandlers(loadedAnalytics(), discardLogger())

	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, sseRequest(`{"location":"Brasil","yearStart":2020,"yearEnd":2021}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: datastar-patch-signals")
	assert.Contains(t, body, `"display":"Brasil"`)
	assert.Contains(t, body, "event: datastar-patch-elements")
	assert.Contains(t, body, `<section id="headline">`)
	assert.Contains(t, body, `<section id="notices">`)
}

func TestSSEHandlers_HandleDashboardInvalidSelection(t *testing.T) {
	h := NewSSEHandlers(loadedAnalytics(), discardLogger())

	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, sseRequest(`{"location":"Atlantis","yearStart":2020,"yearEnd":2021}`))

	body := rec.Body.String()
	assert.Contains(t, body, `"_dashboard":null`)
	assert.Contains(t, body, "notice-VALIDATION_ERROR")
	assert.NotContains(t, body, `<section id="headline">`)
}

func TestSSEHandlers_HandleDashboardMalformedSignals(t *testing.T) {
	h := NewSSEHandlers(loadedAnalytics(), discardLogger())

	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, sseRequest(`{"location":`))

	body := rec.Body.String()
	assert.Contains(t, body, "Invalid filter signals")
	assert.NotContains(t, body, "datastar-patch-signals")
}

func TestSSEHandlers_HandleDashboardNotLoaded(t *testing.T) {
	h := NewSSEHandlers(newAnalytics(), discardLogger())

	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, sseRequest(`{}`))

	assert.Contains(t, rec.Body.String(), "notice-SERVICE_UNAVAILABLE")
}

func TestSSEHandlers_HandleComparison(t *testing.T) {
	h := NewSSEHandlers(loadedAnalytics(), discardLogger())

	rec := httptest.NewRecorder()
	h.HandleComparison(rec, httptest.NewRequest(http.MethodGet, "/sse/comparison", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "event: datastar-patch-signals")
	assert.Contains(t, body, `"_comparison":`)
	assert.Contains(t, body, `<section id="comparison-table">`)
	assert.Contains(t, body, "30 dias após Alemanha")
}

// patchedSignals merges every datastar-patch-signals payload in body into store.
func patchedSignals(t *testing.T, body string, store map[string]any) {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		payload, ok := strings.CutPrefix(line, "data: signals ")
		if !ok {
			continue
		}
		var patch map[string]any
		require.NoError(t, json.Unmarshal([]byte(payload), &patch))
		maps.Copy(store, patch)
	}
}

// outgoingSignals drops the local signals Datastar never sends to the server.
func outgoingSignals(store map[string]any) map[string]any {
	out := make(map[string]any, len(store))
	for k, v := range store {
		if !strings.HasPrefix(k, "_") {
			out[k] = v
		}
	}
	return out
}

func TestSSEHandlers_FollowUpRequestCarriesOnlySelection(t *testing.T) {
	h := NewSSEHandlers(loadedAnalytics(), discardLogger())
	store := map[string]any{"location": "Brasil", "yearStart": 2020, "yearEnd": 2021}

	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, sseRequest(`{"location":"Brasil","yearStart":2020,"yearEnd":2021}`))
	patchedSignals(t, rec.Body.String(), store)

	rec = httptest.NewRecorder()
	h.HandleComparison(rec, httptest.NewRequest(http.MethodGet, "/sse/comparison", nil))
	patchedSignals(t, rec.Body.String(), store)

	require.Contains(t, store, dashboardSignal)
	require.Contains(t, store, comparisonSignal)

	sent := outgoingSignals(store)
	assert.Equal(t, []string{"location", "yearEnd", "yearStart"}, slices.Sorted(maps.Keys(sent)))

	sent["location"] = "Mundo"
	query, err := json.Marshal(sent)
	require.NoError(t, err)
	assert.Less(t, len(query), 80)

	rec = httptest.NewRecorder()
	h.HandleDashboard(rec, sseRequest(string(query)))
	assert.Contains(t, rec.Body.String(), `"display":"Mundo"`)
}
