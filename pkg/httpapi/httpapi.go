// Copyright the ajax-relay-gateway authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpapi exposes the gateway's REST surface over a relay.Gateway:
// time, inputs, outputs, and their schedules, plus health and Prometheus
// metrics.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/araddon/dateparse"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "go.uber.org/zap"

	"github.com/skyggedans/ajax-relay-gateway/pkg/push"
	"github.com/skyggedans/ajax-relay-gateway/pkg/relay"
)

// Server wires the relay Gateway to an http.Handler.
type Server struct {
	gw        *relay.Gateway
	logger    *log.Logger
	staticDir string
	mux       *chi.Mux

	ws  http.HandlerFunc
	sse *push.SSEHub
}

// New builds the chi router. staticDir, when non-empty, is served at "/"
// for a bundled status page; an empty staticDir simply skips that route.
func New(gw *relay.Gateway, logger *log.Logger, staticDir string) *Server {
	s := &Server{
		gw:        gw,
		logger:    logger,
		staticDir: staticDir,
		ws:        push.WebSocketHandler(gw, logger),
		sse:       push.NewSSEHub(gw, logger),
	}
	s.mux = chi.NewRouter()
	s.mux.Use(middleware.Recoverer)
	s.mux.Use(middleware.RequestID)
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/time", s.getTime)
		r.Put("/time", s.setTime)
		r.Get("/inputs", s.getInputs)
		r.Get("/outputs/{n}", s.getOutput)
		r.Put("/outputs/{n}", s.setOutput)
		r.Get("/outputs/{n}/schedule/daily", s.getDaily)
		r.Post("/outputs/{n}/schedule/daily", s.setDaily)
		r.Delete("/outputs/{n}/schedule/daily", s.clearDaily)
		r.Get("/outputs/{n}/schedule/custom", s.getCustom)
		r.Post("/outputs/{n}/schedule/custom", s.setCustom)
		r.Delete("/outputs/{n}/schedule/custom", s.clearCustom)
		r.Get("/healthz", s.healthz)
	})
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.Get("/ws", s.ws)
	s.mux.Get("/sse", s.sse.ServeHTTP)
	if s.staticDir != "" {
		fs := http.FileServer(http.Dir(s.staticDir))
		s.mux.Handle("/*", fs)
	}
}

// envelope is the uniform JSON response shape: a single data field on
// success, a single error field on failure, never both.
type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: err.Error()})
}

// statusFor maps a core relay error to an HTTP status.
func statusFor(err error) int {
	switch {
	case relay.IsNotConnected(err):
		return http.StatusServiceUnavailable
	case relay.IsTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func outputIndex(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "n"))
}

func (s *Server) getTime(w http.ResponseWriter, r *http.Request) {
	t, err := s.gw.GetTime(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type setTimeRequest struct {
	Time string `json:"time"`
}

func (s *Server) setTime(w http.ResponseWriter, r *http.Request) {
	var req setTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// dateparse accepts the wide range of human/machine timestamp layouts
	// a caller might send, rather than forcing one fixed Go layout string.
	ts, err := dateparse.ParseAny(req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	dateTime := ts.Format("2006-01-02 15:04:05")
	dayOfWeek := strconv.Itoa(int(ts.Weekday()))
	if err := s.gw.SetTime(r.Context(), dateTime, dayOfWeek); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getInputs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gw.GetInputs())
}

func (s *Server) getOutput(w http.ResponseWriter, r *http.Request) {
	n, err := outputIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	state, err := s.gw.GetOutput(r.Context(), n)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"state": state})
}

type setOutputRequest struct {
	State int `json:"state"`
}

func (s *Server) setOutput(w http.ResponseWriter, r *http.Request) {
	n, err := outputIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req setOutputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.gw.SetOutput(r.Context(), n, req.State); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getDaily(w http.ResponseWriter, r *http.Request) {
	n, err := outputIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	events, err := s.gw.GetDaily(r.Context(), n)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) setDaily(w http.ResponseWriter, r *http.Request) {
	n, err := outputIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var events []relay.DailyEvent
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.gw.SetDaily(r.Context(), n, events); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearDaily(w http.ResponseWriter, r *http.Request) {
	n, err := outputIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.gw.ClearDaily(r.Context(), n); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getCustom(w http.ResponseWriter, r *http.Request) {
	n, err := outputIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	events, err := s.gw.GetCustom(r.Context(), n)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) setCustom(w http.ResponseWriter, r *http.Request) {
	n, err := outputIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var events []relay.CustomEvent
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.gw.SetCustom(r.Context(), n, events); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCustom(w http.ResponseWriter, r *http.Request) {
	n, err := outputIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.gw.ClearCustom(r.Context(), n); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	status := s.gw.Status()
	if !status.Connected {
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
