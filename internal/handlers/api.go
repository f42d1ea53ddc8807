package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"covid-dashboard/internal/analysis"
	"covid-dashboard/internal/errors"
	"covid-dashboard/internal/models"
	"covid-dashboard/internal/observability"
	"covid-dashboard/internal/services"
)

const cacheControl = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// toAppError maps domain errors onto the HTTP error model.
func toAppError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, services.ErrNotLoaded):
		return errors.ServiceUnavailable("Dataset is not loaded yet")
	case stderrors.Is(err, services.ErrInvalidSelection):
		return errors.ValidationWrap(err, "Invalid selection")
	case stderrors.Is(err, analysis.ErrNoDataForSelection):
		return errors.NoData(err)
	default:
		return errors.AsAppError(err)
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, toAppError(err), observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleLocations(w http.ResponseWriter, r *http.Request) {
	names, err := h.analytics.Catalog()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	years, err := h.analytics.Years()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, map[string]any{
		"locations": names,
		"years":     years,
	}, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.analytics.View(r.Context(), sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, view, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleComparison(w http.ResponseWriter, r *http.Request) {
	view, err := h.analytics.Comparison()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, view, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.analytics.Ready() {
		status = "loading"
	}

	errors.WriteSuccess(w, map[string]any{
		"status":    status,
		"ready":     h.analytics.Ready(),
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

// selectionFromQuery reads ?location=&from=&to=. Missing values are left
// zero and defaulted by the analytics service.
func selectionFromQuery(r *http.Request) (models.Selection, error) {
	q := r.URL.Query()
	sel := models.Selection{Location: q.Get("location")}

	var err error
	if sel.YearStart, err = parseYear(q.Get("from")); err != nil {
		return sel, errors.ValidationWrap(err, "from must be a year")
	}
	if sel.YearEnd, err = parseYear(q.Get("to")); err != nil {
		return sel, errors.ValidationWrap(err, "to must be a year")
	}
	return sel, nil
}

func parseYear(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
