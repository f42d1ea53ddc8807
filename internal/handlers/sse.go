package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"covid-dashboard/internal/models"
	"covid-dashboard/internal/services"
	"covid-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// View signals are underscore-prefixed so Datastar keeps them client side and
// the follow-up @get requests carry only the selection.
const (
	dashboardSignal  = "_dashboard"
	comparisonSignal = "_comparison"
)

// HandleDashboard reads the {location, yearStart, yearEnd} signals, patches the
// computed view into the _dashboard signal and refreshes the headline and
// notices fragments.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var sel models.Selection
	readErr := datastar.ReadSignals(r, &sel)

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	if readErr != nil {
		h.logger.Warn("read signals", "error", readErr)
		h.patchNotices(ctx, sse, []models.Notice{{
			Section: "selection",
			Code:    "VALIDATION_ERROR",
			Message: "Invalid filter signals",
		}})
		return
	}

	view, err := h.analytics.View(ctx, sel)
	if err != nil {
		appErr := toAppError(err)
		h.patchSignals(sse, map[string]any{dashboardSignal: nil})
		h.patchNotices(ctx, sse, []models.Notice{{
			Section: "selection",
			Code:    string(appErr.Code),
			Message: appErr.Message,
		}})
		return
	}

	if !h.patchSignals(sse, map[string]any{dashboardSignal: view}) {
		return
	}
	h.patchElement(ctx, sse, templates.Headline(view))
	h.patchNotices(ctx, sse, view.Notices)
	flush(w)
}

// HandleComparison patches the cross-location table.
func (h *SSEHandlers) HandleComparison(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	view, err := h.analytics.Comparison()
	if err != nil {
		appErr := toAppError(err)
		h.patchNotices(ctx, sse, []models.Notice{{
			Section: "comparison",
			Code:    string(appErr.Code),
			Message: appErr.Message,
		}})
		return
	}

	if !h.patchSignals(sse, map[string]any{comparisonSignal: view}) {
		return
	}
	h.patchElement(ctx, sse, templates.ComparisonTable(view))
	flush(w)
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) bool {
	data, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return false
	}
	if err := sse.PatchSignals(data); err != nil {
		h.logger.Warn("patch signals", "error", err)
		return false
	}
	return true
}

func (h *SSEHandlers) patchNotices(ctx context.Context, sse *datastar.ServerSentEventGenerator, notices []models.Notice) {
	h.patchElement(ctx, sse, templates.Notices(notices))
}

func (h *SSEHandlers) patchElement(ctx context.Context, sse *datastar.ServerSentEventGenerator, c templ.Component) {
	html, err := templates.RenderString(ctx, c)
	if err != nil {
		h.logger.Error("render fragment", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch elements", "error", err)
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
