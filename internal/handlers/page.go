package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"covid-dashboard/internal/analysis"
	"covid-dashboard/internal/models"
	"covid-dashboard/internal/services"
	"covid-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

// Notice codes shown on the shell page when no selector can be built.
const (
	noticeLoading = "loading"
	noticeNoData  = "no_data"
)

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleDashboard renders the shell page. Data sections are filled in later
// over SSE, so only the selector options and default selection are needed.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	data := templates.PageData{}
	status := http.StatusOK
	selector, err := h.analytics.Selector()
	switch {
	case err == nil:
		data.Locations = selector.Locations
		data.Years = selector.Years
		data.Selection = selector.Default
	case stderrors.Is(err, services.ErrNotLoaded):
		status = http.StatusServiceUnavailable
		data.Notices = []models.Notice{{Section: "selection", Code: noticeLoading, Message: "Os dados ainda estão sendo carregados"}}
	case stderrors.Is(err, analysis.ErrNoDataForSelection):
		status = http.StatusNotFound
		data.Notices = []models.Notice{{Section: "selection", Code: noticeNoData, Message: "Nenhum dado disponível para os locais configurados"}}
	default:
		h.logger.Error("build selector", "error", err)
		appErr := toAppError(err)
		status = appErr.StatusCode
		data.Notices = []models.Notice{{Section: "selection", Code: string(appErr.Code), Message: "Erro ao preparar o painel"}}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := templates.Dashboard(data).Render(ctx, w); err != nil {
		h.logger.Error("render dashboard", "error", err)
	}
}
