package handle

import (
	"context"
	"net/http"
	"time"
)

type lensView struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type lensesResponse struct {
	Lenses           []lensView `json:"lenses"`
	MaxInputLength   int        `json:"max_input_length"`
	UIMaxInputLength int        `json:"ui_max_input_length"`
	UIWarnLength     int        `json:"ui_warn_length"`
}

// Lenses serves GET /api/lenses for client enumeration and limits.
func (h *Handle) Lenses(w http.ResponseWriter, r *http.Request) {
	presets := h.pipe.Registry().List()
	out := lensesResponse{
		Lenses:           make([]lensView, 0, len(presets)),
		MaxInputLength:   h.pipe.MaxInputLength(),
		UIMaxInputLength: h.limits.UIMaxInputLength,
		UIWarnLength:     h.limits.UIWarnLength,
	}
	for _, p := range presets {
		out.Lenses = append(out.Lenses, lensView{ID: p.ID, Label: p.Label, Description: p.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for _, d := range h.deps {
		if err := d.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ok\n" + err.Error()))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
