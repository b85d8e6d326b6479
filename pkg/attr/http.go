package attr

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxValueBytes bounds a PUT body; a uint32 in decimal plus a newline fits
// comfortably.
const maxValueBytes = 64

// Handler serves the set over HTTP:
//
//	GET /         every attribute as a JSON object
//	GET /{name}   one attribute, "%d\n"
//	PUT /{name}   store the request body
//
// Mount it under a prefix with chi's Mount or http.StripPrefix.
func Handler(s *Set, log *slog.Logger) http.Handler {
	h := &handler{set: s, log: log}
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{name}", h.show)
	r.Put("/{name}", h.store)
	return r
}

type handler struct {
	set *Set
	log *slog.Logger
}

func (h *handler) list(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.set.Snapshot()); err != nil && h.log != nil {
		h.log.Warn("encode attributes", "err", err)
	}
}

func (h *handler) show(w http.ResponseWriter, r *http.Request) {
	v, err := h.set.Show(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, v)
}

func (h *handler) store(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxValueBytes+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(body) > maxValueBytes {
		http.Error(w, "value too long", http.StatusRequestEntityTooLarge)
		return
	}
	if err := h.set.Store(name, string(body)); err != nil {
		writeError(w, err)
		return
	}
	if h.log != nil {
		h.log.Info("attribute stored", "name", name, "remote", r.RemoteAddr)
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnknown):
		code = http.StatusNotFound
	case errors.Is(err, ErrInvalid):
		code = http.StatusBadRequest
	}
	http.Error(w, err.Error(), code)
}
