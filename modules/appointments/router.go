package appointments

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mediqcloud/mediq/handler"
)

// Router mounts the appointment endpoints.
func Router(svc *Service, log *slog.Logger) chi.Router {
	h := &httpHandler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/queue", h.queue)
	r.Get("/{appointmentID}", h.get)
	r.Post("/{appointmentID}/status", h.transition)
	return r
}

type httpHandler struct {
	svc *Service
	log *slog.Logger
}

func (h *httpHandler) create(w http.ResponseWriter, r *http.Request) {
	var params CreateParams
	if err := handler.Decode(r, &params); err != nil {
		handler.Error(w, r, h.log, err)
		return
	}

	a, err := h.svc.Create(r.Context(), params)
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	handler.JSON(w, http.StatusCreated, a)
}

func (h *httpHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		handler.Error(w, r, h.log, handler.ErrNotFound)
		return
	}

	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	handler.JSON(w, http.StatusOK, a)
}

type transitionRequest struct {
	Status Status `json:"status"`
}

func (h *httpHandler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		handler.Error(w, r, h.log, handler.ErrNotFound)
		return
	}

	var req transitionRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.Error(w, r, h.log, err)
		return
	}

	a, err := h.svc.Transition(r.Context(), id, req.Status)
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	handler.JSON(w, http.StatusOK, a)
}

func (h *httpHandler) queue(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Queue(r.Context(), r.URL.Query().Get("day"))
	if err != nil {
		handler.Error(w, r, h.log, mapError(err))
		return
	}
	if items == nil {
		items = []Appointment{}
	}
	handler.JSON(w, http.StatusOK, items)
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPatientNotFound):
		return handler.ErrNotFound
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrTicketConflict):
		return handler.ErrConflict
	}
	return err
}
