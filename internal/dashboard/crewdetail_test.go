package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skyops/crewdeck/internal/rosterd"
)

// fakeBackend is a controllable scheduling-service stand-in. Individual
// endpoints can be failed or held to exercise degradation and races.
type fakeBackend struct {
	mu              sync.Mutex
	failCrew        bool
	failSchedules   bool
	failPreferences bool
	failHistory     bool
	// holdSchedules, when non-nil, blocks schedule responses for the
	// named crew member until closed.
	holdSchedules   chan struct{}
	heldCrewID      string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/crew", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fail := f.failCrew
		f.mu.Unlock()
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"crew_members": []rosterd.CrewMember{
			{CrewID: "CRW001", Name: "Asha Verma", Base: "DEL", Rank: "Captain"},
			{CrewID: "CRW002", Name: "Rohan Mehta", Base: "BOM", Rank: "First Officer"},
		}})
	})

	mux.HandleFunc("/api/crew/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/crew/"), "/")
		crewID, section := parts[0], parts[len(parts)-1]

		switch section {
		case "schedule":
			f.mu.Lock()
			hold := f.holdSchedules
			heldID := f.heldCrewID
			fail := f.failSchedules
			f.mu.Unlock()
			if hold != nil && crewID == heldID {
				<-hold
			}
			if fail {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]any{"schedules": []rosterd.CrewSchedule{
				{RosterID: 7, StartDate: "2026-08-01", EndDate: "2026-08-07", ViolationCount: 1},
			}})
		case "preferences":
			f.mu.Lock()
			fail := f.failPreferences
			f.mu.Unlock()
			if fail {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]any{"preferences": []rosterd.CrewPreference{
				{Type: "Day Off", Detail: "Sundays", Priority: "High"},
			}})
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("/api/roster/history", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fail := f.failHistory
		f.mu.Unlock()
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"rosters": []rosterd.RosterHistoryItem{
			{ID: 7, StartDate: "2026-08-01", EndDate: "2026-08-07"},
		}})
	})

	mux.HandleFunc("/api/roster/7", func(w http.ResponseWriter, r *http.Request) {
		start := time.Date(2026, 8, 2, 6, 0, 0, 0, time.UTC)
		writeJSON(w, map[string]any{
			"roster_id": 7,
			"roster_data": []rosterd.FlightAssignment{
				{
					FlightNumber: "AI101",
					DutyStart:    start,
					DutyEnd:      start.Add(6 * time.Hour),
					Crew:         []rosterd.CrewRef{{CrewID: "CRW001", Rank: "Captain"}},
				},
				{
					FlightNumber: "AI202",
					DutyStart:    start,
					DutyEnd:      start.Add(4 * time.Hour),
					Crew:         []rosterd.CrewRef{{CrewID: "CRW002", Rank: "First Officer"}},
				},
			},
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func newTestLoader(t *testing.T, backend *fakeBackend) *DetailLoader {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	return NewDetailLoader(rosterd.NewClient(srv.URL, 1000, 1000))
}

func TestSelectLoadsAllSections(t *testing.T) {
	loader := newTestLoader(t, &fakeBackend{})

	detail := loader.Select(context.Background(), "CRW001")

	if detail.Status != DetailLoaded {
		t.Fatalf("status = %s, want %s (degraded: %v, err: %s)", detail.Status, DetailLoaded, detail.Degraded, detail.Error)
	}
	if detail.Profile == nil || detail.Profile.Name != "Asha Verma" {
		t.Errorf("profile not populated: %+v", detail.Profile)
	}
	if len(detail.Schedules) != 1 {
		t.Errorf("expected 1 schedule, got %d", len(detail.Schedules))
	}
	if len(detail.Preferences) != 1 {
		t.Errorf("expected 1 preference, got %d", len(detail.Preferences))
	}
	// Assignments derived from the latest roster by crew membership:
	// only AI101 lists CRW001.
	if len(detail.Assignments) != 1 || detail.Assignments[0].FlightNumber != "AI101" {
		t.Errorf("expected only AI101, got %+v", detail.Assignments)
	}
}

func TestSelectPartialFailureIsolation(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(*fakeBackend)
		section string
	}{
		{"schedules fail", func(b *fakeBackend) { b.failSchedules = true }, "schedules"},
		{"preferences fail", func(b *fakeBackend) { b.failPreferences = true }, "preferences"},
		{"assignments fail", func(b *fakeBackend) { b.failHistory = true }, "assignments"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{}
			tc.prepare(backend)
			loader := newTestLoader(t, backend)

			detail := loader.Select(context.Background(), "CRW001")

			if detail.Status != DetailPartial {
				t.Fatalf("status = %s, want %s", detail.Status, DetailPartial)
			}
			if len(detail.Degraded) != 1 || detail.Degraded[0] != tc.section {
				t.Errorf("degraded = %v, want [%s]", detail.Degraded, tc.section)
			}
			// The profile and the two healthy sections still populate.
			if detail.Profile == nil {
				t.Error("profile blanked by unrelated section failure")
			}
			healthy := 0
			if tc.section != "schedules" && len(detail.Schedules) == 1 {
				healthy++
			}
			if tc.section != "preferences" && len(detail.Preferences) == 1 {
				healthy++
			}
			if tc.section != "assignments" && len(detail.Assignments) == 1 {
				healthy++
			}
			if healthy != 2 {
				t.Errorf("expected 2 healthy sections, got %d", healthy)
			}
		})
	}
}

func TestSelectProfileFailureIsFatal(t *testing.T) {
	loader := newTestLoader(t, &fakeBackend{failCrew: true})

	detail := loader.Select(context.Background(), "CRW001")

	if detail.Status != DetailFailed {
		t.Fatalf("status = %s, want %s", detail.Status, DetailFailed)
	}
	if detail.Error == "" {
		t.Error("failed detail carries no error")
	}
}

func TestSelectUnknownCrewFails(t *testing.T) {
	loader := newTestLoader(t, &fakeBackend{})

	detail := loader.Select(context.Background(), "CRW999")
	if detail.Status != DetailFailed {
		t.Errorf("status = %s, want %s", detail.Status, DetailFailed)
	}
}

func TestSelectNewSelectionWinsRace(t *testing.T) {
	hold := make(chan struct{})
	backend := &fakeBackend{holdSchedules: hold, heldCrewID: "CRW001"}
	loader := newTestLoader(t, backend)

	// First selection stalls on its schedule fetch.
	first := make(chan CrewDetail)
	go func() { first <- loader.Select(context.Background(), "CRW001") }()

	// Give the first selection time to register its generation.
	deadline := time.Now().Add(2 * time.Second)
	for loader.Current().Status != DetailLoading {
		if time.Now().After(deadline) {
			t.Fatal("first selection never started loading")
		}
		time.Sleep(time.Millisecond)
	}

	// Second selection completes while the first is still in flight.
	second := loader.Select(context.Background(), "CRW002")
	if second.Status != DetailLoaded {
		t.Fatalf("second selection status = %s", second.Status)
	}

	close(hold)
	<-first

	current := loader.Current()
	if current.Profile == nil || current.Profile.CrewID != "CRW002" {
		t.Errorf("stale selection overwrote the current one: %+v", current.Profile)
	}
}
