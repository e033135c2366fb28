package patients

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mediqcloud/mediq/handler"
)

// Router mounts the patient endpoints.
func Router(svc *Service, log *slog.Logger) chi.Router {
	h := &httpHandler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Post("/", h.register)
	r.Get("/", h.list)
	r.Get("/{patientID}", h.get)
	r.Patch("/{patientID}", h.update)
	return r
}

type httpHandler struct {
	svc *Service
	log *slog.Logger
}

func (h *httpHandler) register(w http.ResponseWriter, r *http.Request) {
	var params RegisterParams
	if err := handler.Decode(r, &params); err != nil {
		handler.Error(w, r, h.log, err)
		return
	}

	p, err := h.svc.Register(r.Context(), params)
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	handler.JSON(w, http.StatusCreated, p)
}

func (h *httpHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		handler.Error(w, r, h.log, handler.ErrNotFound)
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	handler.JSON(w, http.StatusOK, p)
}

func (h *httpHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		handler.Error(w, r, h.log, handler.ErrNotFound)
		return
	}

	var params UpdateParams
	if err := handler.Decode(r, &params); err != nil {
		handler.Error(w, r, h.log, err)
		return
	}

	p, err := h.svc.Update(r.Context(), id, params)
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	handler.JSON(w, http.StatusOK, p)
}

func (h *httpHandler) list(w http.ResponseWriter, r *http.Request) {
	f := ListFilter{
		Search:  r.URL.Query().Get("q"),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}

	items, total, err := h.svc.List(r.Context(), f)
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	if items == nil {
		items = []Patient{}
	}

	f.Normalize()
	handler.JSONWithMeta(w, http.StatusOK, items, map[string]any{
		"total":    total,
		"page":     f.Page,
		"per_page": f.PerPage,
	})
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// mapError folds module sentinels into the shared handler taxonomy.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return handler.ErrNotFound
	case errors.Is(err, ErrDuplicatePhone), errors.Is(err, ErrMRNConflict):
		return handler.ErrConflict
	}
	return err
}
