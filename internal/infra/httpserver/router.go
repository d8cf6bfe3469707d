package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appscans "github.com/bryanwahyu/linkhealth/internal/application/scans"
	domai "github.com/bryanwahyu/linkhealth/internal/domain/ai"
	domain "github.com/bryanwahyu/linkhealth/internal/domain/scans"
	"github.com/bryanwahyu/linkhealth/internal/middleware"
)

type Router struct {
	scansSvc *appscans.Service
}

func NewRouter(scansSvc *appscans.Service, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{scansSvc: scansSvc}
	mux := chi.NewRouter()

	mux.Use(middleware.Logging)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	mux.Get("/health", middleware.HealthHandler(checkers))

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		// Tenant param is resolved by the time group middleware runs.
		rt.Use(middleware.RateLimit(5, 10))
		rt.Post("/scans", r.wrap(r.handleTriggerScan))
		rt.Get("/scans/latest", r.wrap(r.handleLatest))
		rt.Get("/scans/{id}", r.wrap(r.handleGet))
		rt.Get("/scans/{id}/links", r.wrap(r.handleLinks))
		rt.Get("/scans/{id}/report", r.wrap(r.handleReport))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/{tenant}/scans
// Kicks the scan off in the background and answers immediately; a scan can
// take minutes and must not die with the request context.
func (r *Router) handleTriggerScan(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	var body struct {
		WebsiteID      string `json:"website_id"`
		StartURL       string `json:"start_url"`
		Recurse        bool   `json:"recurse"`
		TimeoutSeconds int    `json:"timeout_seconds"`
		Trigger        string `json:"trigger"`
		TriggeredBy    string `json:"triggered_by"`
		ArchiveLookup  bool   `json:"archive_lookup"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if body.StartURL == "" {
		return fmt.Errorf("start_url is required")
	}
	trigger := domain.TriggerKind(body.Trigger)
	if trigger != domain.TriggerScheduled {
		trigger = domain.TriggerManual
	}

	cmd := appscans.TriggerScanCommand{
		TenantID:      tenant,
		WebsiteID:     body.WebsiteID,
		StartURL:      body.StartURL,
		Recurse:       body.Recurse,
		Timeout:       time.Duration(body.TimeoutSeconds) * time.Second,
		Trigger:       trigger,
		TriggeredBy:   body.TriggeredBy,
		ArchiveLookup: body.ArchiveLookup,
	}

	go func() {
		result, err := r.scansSvc.RunUntilDone(cmd)
		if err != nil {
			log.Printf("background scan error tenant=%s url=%s err=%v", tenant, body.StartURL, err)
			return
		}
		log.Printf("scan finished tenant=%s scan=%s health=%d broken=%d",
			tenant, result.ScanID, result.HealthScore, result.BrokenLinks)
	}()

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"status":   "queued",
		"tenant":   tenant,
		"url":      body.StartURL,
		"message":  "scan started in background",
		"queuedAt": time.Now(),
	})
}

// GET /v1/{tenant}/scans/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.scansSvc.Latest(req.Context(), tenant, limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/scans/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	scan, err := r.scansSvc.Get(req.Context(), tenant, domain.ScanID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(scan)
}

// GET /v1/{tenant}/scans/{id}/links
func (r *Router) handleLinks(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	findings, err := r.scansSvc.Findings(req.Context(), tenant, domain.ScanID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(findings)
}

// GET /v1/{tenant}/scans/{id}/report
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	text, err := r.scansSvc.Report(req.Context(), tenant, domain.ScanID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err = w.Write([]byte(text))
	return err
}
