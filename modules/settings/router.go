package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediqcloud/mediq/handler"
)

// Router mounts the settings endpoints. Branch routes resolve the facility
// from the bound tenant context, so there is no branch id in the path.
func Router(svc *Service, log *slog.Logger) chi.Router {
	h := &httpHandler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Get("/branch", h.getBranch)
	r.Patch("/branch", h.updateBranch)
	r.Get("/me", h.getPreferences)
	r.Patch("/me", h.updatePreferences)
	return r
}

type httpHandler struct {
	svc *Service
	log *slog.Logger
}

func (h *httpHandler) getBranch(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.GetBranch(r.Context())
	if err != nil {
		handler.Error(w, r, h.log, err)
		return
	}
	handler.JSON(w, http.StatusOK, s)
}

func (h *httpHandler) updateBranch(w http.ResponseWriter, r *http.Request) {
	var params UpdateBranchParams
	if err := handler.Decode(r, &params); err != nil {
		handler.Error(w, r, h.log, err)
		return
	}

	s, err := h.svc.UpdateBranch(r.Context(), params)
	if err != nil {
		handler.Error(w, r, h.log, err)
		return
	}
	handler.JSON(w, http.StatusOK, s)
}

func (h *httpHandler) getPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPreferences(r.Context())
	if err != nil {
		handler.Error(w, r, h.log, err)
		return
	}
	handler.JSON(w, http.StatusOK, p)
}

func (h *httpHandler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	var params UpdatePreferencesParams
	if err := handler.Decode(r, &params); err != nil {
		handler.Error(w, r, h.log, err)
		return
	}

	p, err := h.svc.UpdatePreferences(r.Context(), params)
	if err != nil {
		handler.Error(w, r, h.log, err)
		return
	}
	handler.JSON(w, http.StatusOK, p)
}
