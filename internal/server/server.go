// Package server exposes the tracker over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skywatch-bcn/planeview/internal/tracker"
	"github.com/skywatch-bcn/planeview/pkg/core"
)

// PlaneSource answers the planes endpoint.
type PlaneSource interface {
	Planes(ctx context.Context) []tracker.Plane
	Aircraft(icao string) (core.Aircraft, bool)
}

type Server struct {
	source PlaneSource
}

// New constructs the HTTP router wired to the tracker.
func New(source PlaneSource) http.Handler {
	s := &Server{source: source}
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/api/planes", s.handlePlanes)
	r.Get("/api/aircraft/{icao}", s.handleAircraft)

	return r
}

func (s *Server) handlePlanes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Planes(r.Context()))
}

type aircraftResponse struct {
	ICAO          string          `json:"icao"`
	Callsign      string          `json:"callsign"`
	Position      core.Position3D `json:"position"`
	Departure     string          `json:"departure"`
	RouteFailures int             `json:"routeFailures"`
	LastSeen      string          `json:"lastSeen"`
}

func (s *Server) handleAircraft(w http.ResponseWriter, r *http.Request) {
	a, ok := s.source.Aircraft(chi.URLParam(r, "icao"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, aircraftResponse{
		ICAO:          a.ICAO,
		Callsign:      a.Callsign,
		Position:      a.Position,
		Departure:     a.Departure,
		RouteFailures: a.RouteFailures,
		LastSeen:      a.LastSeen.UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
