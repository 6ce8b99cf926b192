package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/netcriptus/raiden-services/internal/app/store"
)

type seriesResponse struct {
	IntervalSeconds float64 `json:"interval_seconds"`
	store.Snapshot
}

type baseURLBody struct {
	BaseURL string `json:"base_url"`
}

// IndexShow serves the embedded dashboard page.
func IndexShow() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := assets.ReadFile("assets/index.html")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
}

// SeriesShow renders the current windows and text displays.
func SeriesShow(src SnapshotSource, interval time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, seriesResponse{
			IntervalSeconds: interval.Seconds(),
			Snapshot:        src.Snapshot(),
		})
	})
}

func BaseURLShow(t BaseURLTarget) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, baseURLBody{BaseURL: t.BaseURL()})
	})
}

// BaseURLUpdate replaces the poll target. The value is not validated here;
// a bad URL surfaces as a failed poll on the next tick.
func BaseURLUpdate(t BaseURLTarget) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body baseURLBody
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		t.SetBaseURL(strings.TrimSpace(body.BaseURL))
		writeJSON(w, http.StatusOK, baseURLBody{BaseURL: t.BaseURL()})
	})
}

func PollStatsShow(src StatsSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, src.Stats())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Encode will never fail with known data.
	_ = json.NewEncoder(w).Encode(v)
}
