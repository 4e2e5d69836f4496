package dashboard

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/skyops/crewdeck/internal/analytics"
	"github.com/skyops/crewdeck/internal/filter"
	"github.com/skyops/crewdeck/internal/rosterd"
)

// CrewView owns the crew list snapshot and its transient filter state.
type CrewView struct {
	client *rosterd.Client
	store  Store[[]rosterd.CrewMember]

	mu       sync.Mutex
	criteria filter.Criteria
}

func NewCrewView(client *rosterd.Client) *CrewView {
	return &CrewView{client: client, criteria: filter.Criteria{}}
}

// Refresh replaces the crew snapshot with a fresh fetch. A refresh that
// loses the race to a newer one is discarded.
func (v *CrewView) Refresh(ctx context.Context, limit, offset int) error {
	gen := v.store.Begin()
	members, err := v.client.ListCrew(ctx, limit, offset)
	if err != nil {
		return err
	}
	if !v.store.Commit(gen, members) {
		log.Debug().Msg("crew refresh superseded, dropping result")
	}
	return nil
}

// SetCriteria replaces the view's filter criteria. Criteria are
// transient UI state; they never trigger a re-fetch of crew data.
func (v *CrewView) SetCriteria(c filter.Criteria) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c == nil {
		c = filter.Criteria{}
	}
	v.criteria = c
}

// ClearCriteria resets the view to the unconstrained criteria set.
func (v *CrewView) ClearCriteria() {
	v.SetCriteria(filter.Criteria{})
}

// Members returns the filtered snapshot in fetch order.
func (v *CrewView) Members() ([]rosterd.CrewMember, bool) {
	members, ok := v.store.Get()
	if !ok {
		return nil, false
	}
	v.mu.Lock()
	criteria := v.criteria
	v.mu.Unlock()
	return filter.Apply(members, criteria), true
}

// FlightView owns the flights page snapshot. Server-side query params
// (pagination, origin/destination/aircraft/date) trigger re-fetches;
// text criteria filter the held page locally.
type FlightView struct {
	client *rosterd.Client
	store  Store[rosterd.FlightPage]

	mu       sync.Mutex
	query    rosterd.FlightQuery
	criteria filter.Criteria
}

func NewFlightView(client *rosterd.Client) *FlightView {
	return &FlightView{
		client:   client,
		query:    rosterd.FlightQuery{Limit: 50},
		criteria: filter.Criteria{},
	}
}

// SetQuery stores new fetch parameters and refreshes. The generation is
// taken before the network call, so an older SetQuery resolving late
// cannot overwrite this one's page.
func (v *FlightView) SetQuery(ctx context.Context, q rosterd.FlightQuery) error {
	v.mu.Lock()
	v.query = q
	v.mu.Unlock()
	return v.Refresh(ctx)
}

// Refresh re-fetches the page for the current query parameters. The
// generation is allocated under the same lock that guards the query, so
// the tag always matches the parameter snapshot actually sent.
func (v *FlightView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	q := v.query
	gen := v.store.Begin()
	v.mu.Unlock()

	page, err := v.client.ListFlights(ctx, q)
	if err != nil {
		return err
	}
	if !v.store.Commit(gen, *page) {
		log.Debug().Msg("flight refresh superseded, dropping result")
	}
	return nil
}

func (v *FlightView) SetCriteria(c filter.Criteria) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c == nil {
		c = filter.Criteria{}
	}
	v.criteria = c
}

// Flights returns the locally filtered page and the server-side total.
func (v *FlightView) Flights() ([]rosterd.Flight, int, bool) {
	page, ok := v.store.Get()
	if !ok {
		return nil, 0, false
	}
	v.mu.Lock()
	criteria := v.criteria
	v.mu.Unlock()
	return filter.Apply(page.Flights, criteria), page.Total, true
}

// RosterAnalytics is the derived block served alongside a roster.
type RosterAnalytics struct {
	ViolationsByCategory map[string]int              `json:"violations_by_category"`
	DutyDurations        []analytics.DutyDuration    `json:"duty_durations"`
	DutyStats            analytics.DutyStats         `json:"duty_stats"`
	StatsVerified        bool                        `json:"stats_verified"`
	Integrity            *analytics.IntegrityWarning `json:"integrity_warning,omitempty"`
	Metrics              rosterd.OptimizationMetrics `json:"optimization_metrics"`
}

// RosterView owns the latest generated (or recalled) roster snapshot.
type RosterView struct {
	client   *rosterd.Client
	store    Store[rosterd.RosterResponse]
	chartCap int
}

// NewRosterView builds a roster view whose duty-duration chart is capped
// at chartCap entries (<= 0 disables the cap).
func NewRosterView(client *rosterd.Client, chartCap int) *RosterView {
	return &RosterView{client: client, chartCap: chartCap}
}

// Generate asks the backend for a new roster and installs it as the
// current snapshot unless a newer generation superseded this request.
func (v *RosterView) Generate(ctx context.Context, req rosterd.GenerateRequest) (*rosterd.RosterResponse, error) {
	gen := v.store.Begin()
	resp, err := v.client.GenerateRoster(ctx, req)
	if err != nil {
		return nil, err
	}
	if !v.store.Commit(gen, *resp) {
		log.Debug().Msg("roster generation superseded, dropping result")
	}
	return resp, nil
}

// Recall installs a historical roster's stored entries as the current
// snapshot. Stored rosters carry no violation list or metrics block.
func (v *RosterView) Recall(ctx context.Context, id int) (*rosterd.RosterDetail, error) {
	gen := v.store.Begin()
	detail, err := v.client.RosterDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	v.store.Commit(gen, rosterd.RosterResponse{Roster: detail.RosterData})
	return detail, nil
}

// Current returns the held roster snapshot.
func (v *RosterView) Current() (rosterd.RosterResponse, bool) {
	return v.store.Get()
}

// Analytics derives the chart block from the held snapshot.
func (v *RosterView) Analytics() (*RosterAnalytics, bool) {
	resp, ok := v.store.Get()
	if !ok {
		return nil, false
	}
	return DeriveAnalytics(&resp, v.chartCap), true
}

// DeriveAnalytics computes the full derived block for one roster payload.
func DeriveAnalytics(resp *rosterd.RosterResponse, chartCap int) *RosterAnalytics {
	stats := analytics.ComputeDutyStats(resp.Roster)
	return &RosterAnalytics{
		ViolationsByCategory: analytics.ViolationsByCategory(resp.Violations),
		DutyDurations:        analytics.DutyDurations(resp.Roster, chartCap),
		DutyStats:            stats,
		StatsVerified:        stats.Verified(resp.Metrics),
		Integrity:            analytics.VerifyViolationCount(resp),
		Metrics:              resp.Metrics,
	}
}
