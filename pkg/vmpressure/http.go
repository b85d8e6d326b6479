package vmpressure

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Status is the JSON view of the current pressure.
type Status struct {
	Level    string `json:"level"`
	Pressure Level  `json:"pressure"`
	Score    uint32 `json:"score"`
}

// Handler serves the service over HTTP:
//
//	GET /                           current Status
//	GET /watch?threshold=medium     newline-delimited Status stream, one
//	                                line per wake, until the client leaves
func Handler(s *Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.status(s.Level()))
	})
	r.Get("/watch", s.serveWatch)
	return r
}

func (s *Service) status(lvl Level) Status {
	return Status{Level: lvl.String(), Pressure: lvl, Score: s.Score()}
}

func (s *Service) serveWatch(w http.ResponseWriter, r *http.Request) {
	threshold := Low
	if q := r.URL.Query().Get("threshold"); q != "" {
		lvl, err := ParseLevel(q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		threshold = lvl
	}
	watch, err := s.Subscribe(WatchConfig{Size: WatchConfigSize, Threshold: threshold})
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, ErrNoResources) {
			code = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), code)
		return
	}
	defer watch.Close()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	if flusher != nil {
		flusher.Flush()
	}

	enc := json.NewEncoder(w)
	for {
		ev, err := watch.Read(r.Context())
		if err != nil {
			return
		}
		if err := enc.Encode(s.status(ev.Pressure)); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
