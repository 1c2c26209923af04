// Package httpapi exposes task results over HTTP. It is a thin collaborator
// surface on top of the taskq registry: a result-lookup endpoint and an
// enqueue endpoint for registered tasks.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/taskq"
)

// ResultResponse is the wire form of a task result.
type ResultResponse struct {
	ResultID string `json:"result_id"`
	Result   any    `json:"result"`
	Status   string `json:"status"`
}

type enqueueRequest struct {
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// Handler serves the task HTTP surface for one backend alias.
type Handler struct {
	reg   *taskq.Registry
	alias string
}

// NewHandler creates a handler reading and enqueueing through the given
// backend alias.
func NewHandler(reg *taskq.Registry, alias string) (*Handler, error) {
	if reg == nil {
		return nil, taskq.ErrRegistryNil
	}
	if _, err := reg.Backend(alias); err != nil {
		return nil, err
	}
	return &Handler{reg: reg, alias: alias}, nil
}

// Router mounts the endpoints:
//
//	GET  /results/{id} — current state of a result
//	POST /tasks/*      — enqueue one invocation of the registered task whose
//	                     path is the remainder of the URL
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/results/{id}", h.getResult)
	// Task paths contain slashes, so a catch-all segment is required.
	r.Post("/tasks/*", h.enqueueTask)
	return r
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	backend, err := h.reg.Backend(h.alias)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	res, err := backend.GetResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, taskq.ErrResultDoesNotExist) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) enqueueTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.reg.Task(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var req enqueueRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	// Route through this handler's backend regardless of the task default.
	task, err = task.Using(taskq.WithBackendAlias(h.alias))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	res, err := task.Enqueue(r.Context(), req.Args, req.Kwargs)
	if err != nil {
		if errors.Is(err, taskq.ErrInvalidTask) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(res))
}

func toResponse(res *taskq.Result) ResultResponse {
	out := ResultResponse{
		ResultID: res.ID.String(),
		Status:   string(res.Status),
	}
	// The payload is only exposed for completed tasks; failures and pending
	// results report a null value.
	if res.Status == taskq.StatusComplete {
		if v, err := res.Value(); err == nil {
			out.Result = v
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
