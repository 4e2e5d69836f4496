package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/skyops/crewdeck/internal/chat"
	"github.com/skyops/crewdeck/internal/config"
	"github.com/skyops/crewdeck/internal/dashboard"
	"github.com/skyops/crewdeck/internal/filter"
	"github.com/skyops/crewdeck/internal/refresh"
	"github.com/skyops/crewdeck/internal/rosterd"
	"golang.org/x/time/rate"
)

type Server struct {
	cfg             *config.Config
	crew            *dashboard.CrewView
	flights         *dashboard.FlightView
	roster          *dashboard.RosterView
	detail          *dashboard.DetailLoader
	session         *chat.Session
	scheduler       *refresh.Scheduler
	client          *rosterd.Client
	chatRateLimiter *rate.Limiter
}

func NewServer(
	cfg *config.Config,
	crew *dashboard.CrewView,
	flights *dashboard.FlightView,
	roster *dashboard.RosterView,
	detail *dashboard.DetailLoader,
	session *chat.Session,
	scheduler *refresh.Scheduler,
	client *rosterd.Client,
) *Server {
	return &Server{
		cfg:             cfg,
		crew:            crew,
		flights:         flights,
		roster:          roster,
		detail:          detail,
		session:         session,
		scheduler:       scheduler,
		client:          client,
		chatRateLimiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.healthCheck)
		r.Get("/status", s.getStatus)

		r.Route("/crew", func(r chi.Router) {
			r.Get("/", s.listCrew)
			r.Get("/{id}", s.getCrewDetail)
		})

		r.Get("/flights", s.listFlights)

		r.Route("/roster", func(r chi.Router) {
			r.Get("/", s.getCurrentRoster)
			r.Post("/generate", s.generateRoster)
			r.Get("/history", s.getRosterHistory)
			r.Get("/{id}", s.getRosterDetail)
			r.Delete("/{id}", s.deleteRoster)
		})

		r.Get("/analytics/roster", s.getRosterAnalytics)

		r.Route("/chat", func(r chi.Router) {
			r.With(s.rateLimitChat).Post("/", s.postChat)
			r.Get("/history", s.getChatHistory)
			r.Post("/reset", s.resetChat)
			r.Get("/actions/{id}", s.getActionPrefill)
		})

		r.Post("/refresh", s.triggerRefresh)
	})

	// Serve frontend SPA
	s.serveFrontend(r)

	return r
}

// --- Middleware ---

func (s *Server) rateLimitChat(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.chatRateLimiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded - please wait before sending another message")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Health & Status ---

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	crewMembers, crewLoaded := s.crew.Members()
	_, flightTotal, flightsLoaded := s.flights.Flights()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"crew_loaded":    crewLoaded,
		"crew_count":     len(crewMembers),
		"flights_loaded": flightsLoaded,
		"flight_total":   flightTotal,
		"chat_pending":   s.session.Pending(),
		"config": map[string]interface{}{
			"refresh_schedule": s.cfg.RefreshSchedule,
			"chat_provider":    s.cfg.ChatProvider,
			"rosterd_base_url": s.cfg.RosterdBaseURL,
		},
	})
}

// --- Crew ---

// listCrew serves the crew snapshot filtered by query params. base,
// rank and qualification match exactly; q is a substring match on the
// name. A value of "all" (or absence) leaves a field unconstrained.
func (s *Server) listCrew(w http.ResponseWriter, r *http.Request) {
	criteria := filter.Criteria{}
	addExact(criteria, "Base", r.URL.Query().Get("base"))
	addExact(criteria, "Rank", r.URL.Query().Get("rank"))
	addExact(criteria, "Qualification", r.URL.Query().Get("qualification"))
	if q := r.URL.Query().Get("q"); q != "" {
		criteria["Name"] = filter.Rule{Kind: filter.Contains, Value: q}
	}
	s.crew.SetCriteria(criteria)

	members, ok := s.crew.Members()
	if !ok {
		// No snapshot yet: fetch inline rather than serving a blank view.
		if err := s.crew.Refresh(r.Context(), s.cfg.CrewPageSize, 0); err != nil {
			writeError(w, http.StatusBadGateway, "Failed to fetch crew: "+err.Error())
			return
		}
		members, _ = s.crew.Members()
	}
	if members == nil {
		members = []rosterd.CrewMember{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"crew_members": members})
}

func (s *Server) getCrewDetail(w http.ResponseWriter, r *http.Request) {
	crewID := chi.URLParam(r, "id")
	detail := s.detail.Select(r.Context(), crewID)

	switch detail.Status {
	case dashboard.DetailFailed:
		writeJSON(w, http.StatusBadGateway, detail)
	default:
		writeJSON(w, http.StatusOK, detail)
	}
}

// --- Flights ---

func (s *Server) listFlights(w http.ResponseWriter, r *http.Request) {
	q := rosterd.FlightQuery{
		Limit:        queryInt(r, "limit", s.cfg.FlightPageSize),
		Offset:       queryInt(r, "offset", 0),
		Origin:       sentinel(r.URL.Query().Get("origin")),
		Destination:  sentinel(r.URL.Query().Get("destination")),
		AircraftType: sentinel(r.URL.Query().Get("aircraft_type")),
		Date:         sentinel(r.URL.Query().Get("date")),
	}

	criteria := filter.Criteria{}
	if text := r.URL.Query().Get("q"); text != "" {
		criteria["Flight_Number"] = filter.Rule{Kind: filter.Contains, Value: text}
	}
	s.flights.SetCriteria(criteria)

	if err := s.flights.SetQuery(r.Context(), q); err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch flights: "+err.Error())
		return
	}

	flights, total, _ := s.flights.Flights()
	if flights == nil {
		flights = []rosterd.Flight{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flights": flights,
		"total":   total,
	})
}

// --- Roster ---

func (s *Server) getCurrentRoster(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.roster.Current()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"roster": nil})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// generateRoster triggers roster generation in the background and
// returns 202; the SPA polls GET /api/roster for the result. Generation
// is the backend's slow path and must not hold an interactive request.
func (s *Server) generateRoster(w http.ResponseWriter, r *http.Request) {
	var req rosterd.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, "start_date and end_date are required")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.roster.Generate(ctx, req); err != nil {
			log.Error().Err(err).Msg("roster generation failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Roster generation started",
	})
}

func (s *Server) getRosterHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	rosters, err := s.client.RosterHistory(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch roster history: "+err.Error())
		return
	}
	if rosters == nil {
		rosters = []rosterd.RosterHistoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rosters": rosters})
}

func (s *Server) getRosterDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid roster ID")
		return
	}

	detail, err := s.roster.Recall(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch roster: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) deleteRoster(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid roster ID")
		return
	}

	if err := s.client.DeleteRoster(r.Context(), id); err != nil {
		writeError(w, http.StatusBadGateway, "Failed to delete roster: "+err.Error())
		return
	}

	log.Info().Int("roster_id", id).Msg("roster deleted")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// --- Analytics ---

func (s *Server) getRosterAnalytics(w http.ResponseWriter, r *http.Request) {
	block, ok := s.roster.Analytics()
	if !ok {
		writeError(w, http.StatusNotFound, "No roster loaded")
		return
	}
	writeJSON(w, http.StatusOK, block)
}

// --- Chat ---

func (s *Server) postChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	accepted := s.session.Submit(r.Context(), req.Message)
	if !accepted {
		writeError(w, http.StatusConflict, "Message rejected: blank input or a reply is still pending")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": s.session.Messages(),
		"pending":  s.session.Pending(),
	})
}

func (s *Server) getChatHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": s.session.Messages(),
		"pending":  s.session.Pending(),
	})
}

func (s *Server) resetChat(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": s.session.Messages(),
	})
}

func (s *Server) getActionPrefill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	prefill, ok := chat.Prefill(id)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown action: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"action":  id,
		"prefill": prefill,
	})
}

// --- Refresh ---

func (s *Server) triggerRefresh(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.scheduler.RefreshAll(ctx)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Refresh started",
	})
}

// --- Frontend SPA ---

func (s *Server) serveFrontend(r chi.Router) {
	staticDir := s.cfg.StaticDir

	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		log.Warn().Str("dir", staticDir).Msg("frontend static directory not found")
		return
	}

	fs := http.FileServer(http.Dir(staticDir))

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(staticDir, r.URL.Path)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		fs.ServeHTTP(w, r)
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// addExact installs an exact-match rule unless the value is empty or
// the "all" sentinel.
func addExact(c filter.Criteria, field, value string) {
	if v := sentinel(value); v != "" {
		c[field] = filter.Rule{Kind: filter.Exact, Value: v}
	}
}

// sentinel normalises the UI's "all" marker to the empty string.
func sentinel(value string) string {
	if value == "all" {
		return ""
	}
	return value
}

func queryInt(r *http.Request, key string, fallback int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
