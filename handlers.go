package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/kwv/icedrift/drift"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(store *drift.ResultStore, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)
		status := struct {
			Status     string    `json:"status"`
			Timestamp  time.Time `json:"timestamp"`
			HasResults bool      `json:"hasResults"`
		}{
			Status:     "ok",
			Timestamp:  time.Now(),
			HasResults: store.HasResults(),
		}
		writeJSON(w, status)
	})

	mux.HandleFunc("GET /api/runs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, store.Summaries())
	})

	mux.HandleFunc("GET /api/runs/latest", func(w http.ResponseWriter, r *http.Request) {
		res, ok := store.Latest()
		if !ok {
			http.Error(w, "No results available", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, res.Summary)
	})

	mux.HandleFunc("GET /api/runs/{name}", func(w http.ResponseWriter, r *http.Request) {
		res, ok := store.Get(r.PathValue("name"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, res.Summary)
	})

	mux.HandleFunc("GET /api/runs/{name}/points.geojson", func(w http.ResponseWriter, r *http.Request) {
		res, ok := store.Get(r.PathValue("name"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeGeoJSON(w, res.Points)
	})

	mux.HandleFunc("GET /api/runs/{name}/lines.geojson", func(w http.ResponseWriter, r *http.Request) {
		res, ok := store.Get(r.PathValue("name"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeGeoJSON(w, res.Lines)
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeGeoJSON(w http.ResponseWriter, fc *geojson.FeatureCollection) {
	data, err := fc.MarshalJSON()
	if err != nil {
		http.Error(w, "Failed to encode GeoJSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(data); err != nil {
		log.Printf("Error writing GeoJSON response: %v", err)
	}
}
