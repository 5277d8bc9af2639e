// Package web serves the analysis results over HTTP: a JSON API for
// the presentation layer, an ICS feed, and a server-rendered report
// page used by the snapshot capture.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"roomcal/internal/analyze"
	"roomcal/internal/config"
	"roomcal/internal/ics"
	"roomcal/internal/ingest"
	appLog "roomcal/internal/log"
)

// analysisTTL bounds how stale a cached analysis served to API clients
// may be before a request triggers a re-run. The serve-mode cron loop
// refreshes independently of this.
const analysisTTL = 5 * time.Minute

//go:embed templates/report.html
var templatesFS embed.FS

var reportTpl = template.Must(template.ParseFS(templatesFS, "templates/report.html"))

// Server provides HTTP access to the booking analysis.
type Server struct {
	cfg    *config.Config
	source ingest.Source
	mux    *http.ServeMux

	// Cached pipeline output; ingestion and analysis are re-run on TTL
	// expiry, cron tick, or explicit refresh.
	mu         sync.RWMutex
	current    *analyze.Analysis
	ingestErrs []error
	updatedAt  time.Time
}

// NewServer constructs a Server for the given config.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg: cfg,
		source: ingest.Source{
			Path:     cfg.Source.Path,
			URL:      cfg.Source.URL,
			CacheDir: cfg.CacheDir,
		},
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler, wrapped with Basic Auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Refresh re-ingests the sheet and re-runs the pipeline, replacing the
// cached analysis. Per-record ingest errors are kept for the API but do
// not fail the refresh.
func (s *Server) Refresh(ctx context.Context) error {
	bookings, ingestErrs, err := s.source.Load(ctx)
	if err != nil {
		return err
	}

	a := analyze.Run(bookings, s.cfg.Year)

	s.mu.Lock()
	s.current = a
	s.ingestErrs = ingestErrs
	s.updatedAt = time.Now()
	s.mu.Unlock()

	appLog.Info("analysis refreshed",
		"year", a.Year,
		"bookings", a.Stats.TotalBookings,
		"occurrences", a.Stats.TotalOccurrences,
		"conflicts", a.Stats.TotalConflicts,
		"skipped_records", len(ingestErrs),
	)
	return nil
}

// analysis returns the cached analysis, refreshing it first when the
// cache is empty or older than analysisTTL.
func (s *Server) analysis(ctx context.Context) (*analyze.Analysis, error) {
	s.mu.RLock()
	current := s.current
	age := time.Since(s.updatedAt)
	s.mu.RUnlock()

	if current != nil && age < analysisTTL {
		return current, nil
	}
	if err := s.Refresh(ctx); err != nil {
		if current != nil {
			// Serve the stale copy rather than failing the request.
			appLog.Error("refresh failed, serving stale analysis", err)
			return current, nil
		}
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/analysis", s.handleAnalysis)
	s.mux.HandleFunc("/api/occurrences", s.handleOccurrences)
	s.mux.HandleFunc("/api/conflicts", s.handleConflicts)
	s.mux.HandleFunc("/api/recommendations", s.handleRecommendations)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/export.ics", s.handleExportICS)
	s.mux.HandleFunc("/report", s.handleReport)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="roomcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.analysis(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{
		Year:            a.Year,
		Occurrences:     occurrenceDTOs(a, "", ""),
		Conflicts:       conflictDTOs(a),
		Recommendations: recommendationDTOs(a),
		Stats:           statsDTO(a),
		SkippedRecords:  s.skippedRecords(),
	})
}

// handleOccurrences returns the expanded calendar, optionally filtered.
//
// GET /api/occurrences?room=Room+A&group=Choir
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	a, err := s.analysis(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	q := r.URL.Query()
	dtos := occurrenceDTOs(a, q.Get("room"), q.Get("group"))
	writeJSON(w, http.StatusOK, occurrencesResponse{
		Occurrences: dtos,
		Total:       len(dtos),
	})
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	a, err := s.analysis(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conflictDTOs(a))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	a, err := s.analysis(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recommendationDTOs(a))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	a, err := s.analysis(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statsDTO(a))
}

// handleRefresh forces a re-ingest and re-analysis.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if err := s.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	a, err := s.analysis(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="roomcal.ics"`)
	_, _ = w.Write([]byte(ics.BuildCalendar(a).Serialize()))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	a, err := s.analysis(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data := reportData{
		Year:            a.Year,
		Stats:           statsDTO(a),
		Conflicts:       conflictDTOs(a),
		Recommendations: recommendationDTOs(a),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := reportTpl.Execute(w, data); err != nil {
		appLog.Error("report render failed", err)
	}
}

func (s *Server) skippedRecords() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ingestErrs))
	for _, e := range s.ingestErrs {
		out = append(out, e.Error())
	}
	return out
}

// ListenAndServe runs the HTTP server on cfg.Listen until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// --- response shapes ---

const dateLayout = "2006-01-02"

type analysisResponse struct {
	Year            int                 `json:"year"`
	Occurrences     []occurrenceDTO     `json:"occurrences"`
	Conflicts       []conflictDTO       `json:"conflicts"`
	Recommendations []recommendationDTO `json:"recommendations"`
	Stats           statsResponse       `json:"stats"`
	SkippedRecords  []string            `json:"skipped_records,omitempty"`
}

type occurrencesResponse struct {
	Occurrences []occurrenceDTO `json:"occurrences"`
	Total       int             `json:"total"`
}

type occurrenceDTO struct {
	BookingID   int    `json:"booking_id"`
	Group       string `json:"group"`
	Activity    string `json:"activity"`
	Room        string `json:"room"`
	Status      string `json:"status,omitempty"`
	Responsible string `json:"responsible"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Conflict    bool   `json:"conflict"`
}

type conflictSideDTO struct {
	BookingID int    `json:"booking_id"`
	Group     string `json:"group"`
	Activity  string `json:"activity"`
	Interval  string `json:"interval"`
}

type conflictDTO struct {
	Room string          `json:"room"`
	Date string          `json:"date"`
	A    conflictSideDTO `json:"a"`
	B    conflictSideDTO `json:"b"`
}

type candidateDTO struct {
	Room   string `json:"room"`
	Status string `json:"status"`
}

type recommendationDTO struct {
	Group         string         `json:"group"`
	Activity      string         `json:"activity"`
	Date          string         `json:"date"`
	Responsible   string         `json:"responsible"`
	Candidates    []candidateDTO `json:"candidates"`
	Room          string         `json:"room"`
	Justification string         `json:"justification"`
	ConflictTotal int            `json:"conflict_total"`
}

type roomUsageDTO struct {
	Room        string `json:"room"`
	Occurrences int    `json:"occurrences"`
	Conflicts   int    `json:"conflicts"`
}

type statsResponse struct {
	TotalBookings        int            `json:"total_bookings"`
	TotalOccurrences     int            `json:"total_occurrences"`
	TotalConflicts       int            `json:"total_conflicts"`
	TotalRooms           int            `json:"total_rooms"`
	TotalGroups          int            `json:"total_groups"`
	TotalRecommendations int            `json:"total_recommendations"`
	TopConflictRoom      string         `json:"top_conflict_room"`
	TopConflictCount     int            `json:"top_conflict_count"`
	ConflictFreePercent  string         `json:"conflict_free_percent"`
	RoomUsage            []roomUsageDTO `json:"room_usage"`
}

type reportData struct {
	Year            int
	Stats           statsResponse
	Conflicts       []conflictDTO
	Recommendations []recommendationDTO
}

func occurrenceDTOs(a *analyze.Analysis, roomFilter, groupFilter string) []occurrenceDTO {
	dtos := make([]occurrenceDTO, 0, len(a.Occurrences))
	for _, occ := range a.Occurrences {
		b := occ.Booking
		if roomFilter != "" && b.Room != roomFilter {
			continue
		}
		if groupFilter != "" && b.Group != groupFilter {
			continue
		}
		start, end := b.Interval()
		dtos = append(dtos, occurrenceDTO{
			BookingID:   b.ID,
			Group:       b.Group,
			Activity:    b.Activity,
			Room:        b.Room,
			Status:      b.Status,
			Responsible: b.Responsible,
			Date:        occ.Date.Format(dateLayout),
			Start:       start.String(),
			End:         end.String(),
			Conflict:    a.HasConflict(occ),
		})
	}
	return dtos
}

func conflictDTOs(a *analyze.Analysis) []conflictDTO {
	dtos := make([]conflictDTO, 0, len(a.Conflicts))
	for _, c := range a.Conflicts {
		dtos = append(dtos, conflictDTO{
			Room: c.Room,
			Date: c.Date.Format(dateLayout),
			A: conflictSideDTO{
				BookingID: c.A.Booking.ID,
				Group:     c.A.Booking.Group,
				Activity:  c.A.Booking.Activity,
				Interval:  c.AStart.String() + "-" + c.AEnd.String(),
			},
			B: conflictSideDTO{
				BookingID: c.B.Booking.ID,
				Group:     c.B.Booking.Group,
				Activity:  c.B.Booking.Activity,
				Interval:  c.BStart.String() + "-" + c.BEnd.String(),
			},
		})
	}
	return dtos
}

func recommendationDTOs(a *analyze.Analysis) []recommendationDTO {
	dtos := make([]recommendationDTO, 0, len(a.Recommendations))
	for _, rec := range a.Recommendations {
		candidates := make([]candidateDTO, 0, len(rec.Candidates))
		for _, c := range rec.Candidates {
			candidates = append(candidates, candidateDTO{Room: c.Room, Status: c.Status})
		}
		dtos = append(dtos, recommendationDTO{
			Group:         rec.Key.Group,
			Activity:      rec.Key.Activity,
			Date:          rec.Key.StartDate.Format(dateLayout),
			Responsible:   rec.Responsible,
			Candidates:    candidates,
			Room:          rec.Room,
			Justification: rec.Justification,
			ConflictTotal: rec.ConflictTotal,
		})
	}
	return dtos
}

func statsDTO(a *analyze.Analysis) statsResponse {
	st := a.Stats
	usage := make([]roomUsageDTO, 0, len(st.RoomUsage))
	for _, u := range st.RoomUsage {
		usage = append(usage, roomUsageDTO{Room: u.Room, Occurrences: u.Occurrences, Conflicts: u.Conflicts})
	}
	return statsResponse{
		TotalBookings:        st.TotalBookings,
		TotalOccurrences:     st.TotalOccurrences,
		TotalConflicts:       st.TotalConflicts,
		TotalRooms:           st.TotalRooms,
		TotalGroups:          st.TotalGroups,
		TotalRecommendations: st.TotalRecommendations,
		TopConflictRoom:      st.TopConflictRoom.Room,
		TopConflictCount:     st.TopConflictRoom.Count,
		ConflictFreePercent:  st.ConflictFreePercent,
		RoomUsage:            usage,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
