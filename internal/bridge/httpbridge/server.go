// Package httpbridge exposes the simulated device over HTTP so a companion
// app or a script can watch the display and send ring gestures.
package httpbridge

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/tabprompt/internal/bridge"
	"github.com/verte-zerg/tabprompt/internal/model"
)

// DisplayResponse is the body of GET /display.
type DisplayResponse struct {
	Created  bool   `json:"created"`
	Content  string `json:"content"`
	Pushes   int    `json:"pushes"`
	Shutdown bool   `json:"shutdown"`
}

// GestureRequest is the body of POST /gestures.
type GestureRequest struct {
	Gesture string `json:"gesture"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter returns the HTTP routes for device.
func NewRouter(device *bridge.Loopback, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(recovery(logger))

	h := &handler{device: device}
	r.Get("/healthz", h.health)
	r.Get("/display", h.display)
	r.Post("/gestures", h.gesture)
	return r
}

type handler struct {
	device *bridge.Loopback
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) display(w http.ResponseWriter, _ *http.Request) {
	st := h.device.State()
	writeJSON(w, http.StatusOK, DisplayResponse{
		Created:  st.Created,
		Content:  st.Content,
		Pushes:   st.Pushes,
		Shutdown: st.Shutdown,
	})
}

func (h *handler) gesture(w http.ResponseWriter, r *http.Request) {
	var req GestureRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	g, err := model.ParseGesture(req.Gesture)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.device.Emit(g); err != nil {
		if errors.Is(err, bridge.ErrShutdown) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
