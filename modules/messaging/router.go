package messaging

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mediqcloud/mediq/handler"
	"github.com/mediqcloud/mediq/pkg/validator"
)

// Router mounts the outbox endpoints.
func Router(svc *Service, log *slog.Logger) chi.Router {
	h := &httpHandler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Get("/templates", h.templates)
	r.Post("/", h.enqueue)
	r.Get("/patient/{patientID}", h.listByPatient)
	r.Post("/{messageID}/cancel", h.cancel)
	return r
}

type httpHandler struct {
	svc *Service
	log *slog.Logger
}

func (h *httpHandler) templates(w http.ResponseWriter, r *http.Request) {
	handler.JSON(w, http.StatusOK, h.svc.Templates())
}

func (h *httpHandler) enqueue(w http.ResponseWriter, r *http.Request) {
	var params EnqueueParams
	if err := handler.Decode(r, &params); err != nil {
		handler.Error(w, r, h.log, err)
		return
	}

	m, err := h.svc.Enqueue(r.Context(), params)
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	handler.JSON(w, http.StatusCreated, m)
}

func (h *httpHandler) listByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		handler.Error(w, r, h.log, handler.ErrNotFound)
		return
	}

	items, err := h.svc.ListByPatient(r.Context(), patientID)
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	if items == nil {
		items = []Message{}
	}
	handler.JSON(w, http.StatusOK, items)
}

func (h *httpHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		handler.Error(w, r, h.log, handler.ErrNotFound)
		return
	}

	m, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	handler.JSON(w, http.StatusOK, m)
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return handler.ErrNotFound
	case errors.Is(err, ErrNotCancellable):
		return handler.ErrConflict
	case errors.Is(err, ErrTemplateNotFound):
		return validator.ValidationErrors{{Field: "template", Message: "unknown template"}}
	case errors.Is(err, ErrMissingParam):
		return validator.ValidationErrors{{Field: "params", Message: err.Error()}}
	}
	return err
}
