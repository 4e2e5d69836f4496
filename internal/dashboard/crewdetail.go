package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/skyops/crewdeck/internal/rosterd"
)

// DetailStatus is the lifecycle of one crew drill-down.
type DetailStatus string

const (
	DetailIdle    DetailStatus = "idle"
	DetailLoading DetailStatus = "loading"
	// DetailLoaded means every section populated.
	DetailLoaded DetailStatus = "loaded"
	// DetailPartial means the profile loaded but at least one secondary
	// section failed and was degraded to empty.
	DetailPartial DetailStatus = "partial"
	// DetailFailed means the profile itself could not be loaded; the
	// profile is the one fatal section.
	DetailFailed DetailStatus = "failed"
)

// CrewDetail is the merged drill-down for one selected crew member.
type CrewDetail struct {
	Status      DetailStatus               `json:"status"`
	Profile     *rosterd.CrewMember        `json:"profile,omitempty"`
	Schedules   []rosterd.CrewSchedule     `json:"schedules"`
	Preferences []rosterd.CrewPreference   `json:"preferences"`
	Assignments []rosterd.FlightAssignment `json:"assignments"`
	// Degraded names the sections that failed and were emptied.
	Degraded []string `json:"degraded,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// profileListLimit bounds the crew listing scanned for the selected
// member; the backend has no single-member profile endpoint.
const profileListLimit = 1000

// DetailLoader orchestrates the per-crew drill-down: one fatal profile
// fetch plus three independent secondary loads, each of which degrades
// only its own section on failure. Selections are generation-tagged so
// a slow fetch for a previously selected member can never overwrite the
// current one.
type DetailLoader struct {
	client *rosterd.Client

	mu       sync.Mutex
	gen      uint64
	selected string
	current  CrewDetail
}

func NewDetailLoader(client *rosterd.Client) *DetailLoader {
	return &DetailLoader{
		client:  client,
		current: CrewDetail{Status: DetailIdle},
	}
}

// Current returns the detail for the most recent committed selection.
func (l *DetailLoader) Current() CrewDetail {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Select loads the drill-down for crewID and commits it unless a newer
// selection was made while this one was in flight. The returned detail
// is what this call computed, committed or not.
func (l *DetailLoader) Select(ctx context.Context, crewID string) CrewDetail {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.selected = crewID
	l.current = CrewDetail{Status: DetailLoading}
	l.mu.Unlock()

	detail := l.load(ctx, crewID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		log.Debug().Str("crew_id", crewID).Msg("crew detail superseded, dropping result")
		return detail
	}
	l.current = detail
	return detail
}

func (l *DetailLoader) load(ctx context.Context, crewID string) CrewDetail {
	detail := CrewDetail{
		Schedules:   []rosterd.CrewSchedule{},
		Preferences: []rosterd.CrewPreference{},
		Assignments: []rosterd.FlightAssignment{},
	}

	// The profile is fatal: without it there is nothing to hang the
	// secondary sections on.
	profile, err := l.fetchProfile(ctx, crewID)
	if err != nil {
		log.Error().Err(err).Str("crew_id", crewID).Msg("crew profile load failed")
		detail.Status = DetailFailed
		detail.Error = err.Error()
		return detail
	}
	detail.Profile = profile

	// The three secondary sections are independent; a failure empties
	// only its own section and never aborts the others.
	var wg sync.WaitGroup
	var mu sync.Mutex
	degrade := func(section string, err error) {
		log.Warn().Err(err).Str("crew_id", crewID).Str("section", section).Msg("crew detail section degraded")
		mu.Lock()
		detail.Degraded = append(detail.Degraded, section)
		mu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		schedules, err := l.client.CrewSchedules(ctx, crewID)
		if err != nil {
			degrade("schedules", err)
			return
		}
		mu.Lock()
		if schedules != nil {
			detail.Schedules = schedules
		}
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		prefs, err := l.client.CrewPreferences(ctx, crewID)
		if err != nil {
			degrade("preferences", err)
			return
		}
		mu.Lock()
		if prefs != nil {
			detail.Preferences = prefs
		}
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		assignments, err := l.fetchAssignments(ctx, crewID)
		if err != nil {
			degrade("assignments", err)
			return
		}
		mu.Lock()
		detail.Assignments = assignments
		mu.Unlock()
	}()
	wg.Wait()

	if len(detail.Degraded) > 0 {
		detail.Status = DetailPartial
	} else {
		detail.Status = DetailLoaded
	}
	return detail
}

// fetchProfile scans the crew listing for the selected member.
func (l *DetailLoader) fetchProfile(ctx context.Context, crewID string) (*rosterd.CrewMember, error) {
	members, err := l.client.ListCrew(ctx, profileListLimit, 0)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].CrewID == crewID {
			return &members[i], nil
		}
	}
	return nil, fmt.Errorf("crew member %s not found", crewID)
}

// fetchAssignments derives the member's flights from the latest stored
// roster. No roster history yet is an empty section, not a failure.
func (l *DetailLoader) fetchAssignments(ctx context.Context, crewID string) ([]rosterd.FlightAssignment, error) {
	history, err := l.client.RosterHistory(ctx, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return []rosterd.FlightAssignment{}, nil
	}
	detail, err := l.client.RosterDetail(ctx, history[0].ID)
	if err != nil {
		return nil, err
	}
	assignments := make([]rosterd.FlightAssignment, 0, 8)
	for _, a := range detail.RosterData {
		if a.AssignedTo(crewID) {
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}
