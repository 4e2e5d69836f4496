package rosterd

import "time"

// --- Crew ---

// CrewMember is one crew record as served by the scheduling service.
// Field tags follow the backend's wire names verbatim.
type CrewMember struct {
	CrewID              string `json:"Crew_ID"`
	Name                string `json:"Name"`
	Base                string `json:"Base"`
	Rank                string `json:"Rank"`
	Qualification       string `json:"Qualification"`
	AircraftTypeLicense string `json:"Aircraft_Type_License"`
	LeaveStart          *Date  `json:"Leave_Start,omitempty"`
	LeaveEnd            *Date  `json:"Leave_End,omitempty"`
}

// OnLeave reports whether the member has any leave window recorded.
// The backend treats a half-open pair (only one bound set) as leave too,
// so this checks either field, not both.
func (m *CrewMember) OnLeave() bool {
	return m.LeaveStart != nil || m.LeaveEnd != nil
}

// Date is a calendar day serialized as "2006-01-02".
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	// Some payloads carry a full timestamp for leave bounds.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// --- Flights ---

// Flight is one schedulable flight from the flights listing.
type Flight struct {
	FlightNumber string    `json:"Flight_Number"`
	Date         string    `json:"Date"`
	Origin       string    `json:"Origin"`
	Destination  string    `json:"Destination"`
	AircraftType string    `json:"Aircraft_Type"`
	DutyStart    time.Time `json:"Duty_Start"`
	DutyEnd      time.Time `json:"Duty_End"`
	Duration     string    `json:"Duration"`
}

// FlightPage is one limit/offset page of the flights listing.
type FlightPage struct {
	Flights []Flight `json:"flights"`
	Total   int      `json:"total"`
}

// FlightQuery holds the optional server-side filters for ListFlights.
type FlightQuery struct {
	Limit        int
	Offset       int
	Origin       string
	Destination  string
	AircraftType string
	Date         string
}

// --- Roster ---

// CrewRef is the (id, rank) pair a roster entry uses to reference an
// assigned crew member. Order within an assignment is not meaningful.
type CrewRef struct {
	CrewID string `json:"Crew_ID"`
	Rank   string `json:"Crew_Rank"`
}

// FlightAssignment joins one flight to its assigned crew for one roster.
type FlightAssignment struct {
	FlightNumber string    `json:"Flight_Number"`
	Date         string    `json:"Date"`
	Origin       string    `json:"Origin"`
	Destination  string    `json:"Destination"`
	AircraftType string    `json:"Aircraft_Type"`
	DutyStart    time.Time `json:"Duty_Start"`
	DutyEnd      time.Time `json:"Duty_End"`
	Duration     string    `json:"Duration"`
	Crew         []CrewRef `json:"Crew"`
}

// Violation is one legality-rule breach reported for a roster. Violations
// have no stable id; they are positional within one roster response.
type Violation struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// OptimizationMetrics is the server-computed quality block, passed
// through to the dashboard unmodified.
type OptimizationMetrics struct {
	TotalAssignments int     `json:"total_assignments"`
	CrewUtilization  float64 `json:"crew_utilization"`
	ViolationCount   int     `json:"violation_count"`
	FitnessScore     float64 `json:"fitness_score"`
	FairnessScore    float64 `json:"fairness_score"`
	MaxDutyHours     float64 `json:"max_duty_hours"`
	MinDutyHours     float64 `json:"min_duty_hours"`
	AvgDutyHours     float64 `json:"avg_duty_hours"`
	StdDevDutyHours  float64 `json:"std_dev_duty_hours"`
}

// RosterResponse is a full generated roster.
type RosterResponse struct {
	Roster       []FlightAssignment  `json:"roster"`
	FitnessScore float64             `json:"fitness_score"`
	Violations   []Violation         `json:"violations"`
	Metrics      OptimizationMetrics `json:"optimization_metrics"`
}

// GenerateRequest are the parameters for roster generation.
type GenerateRequest struct {
	StartDate string              `json:"start_date"`
	EndDate   string              `json:"end_date"`
	Weights   OptimizationWeights `json:"optimization_weights"`
}

type OptimizationWeights struct {
	CrewUtilization  float64 `json:"crew_utilization"`
	ViolationPenalty float64 `json:"violation_penalty"`
	Fairness         float64 `json:"fairness"`
}

// RosterHistoryItem is the lightweight summary of one previously
// generated roster; the detail is fetched lazily by id.
type RosterHistoryItem struct {
	ID             int     `json:"id"`
	CreatedAt      string  `json:"created_at"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	FitnessScore   float64 `json:"fitness_score"`
	ViolationCount int     `json:"violation_count"`
}

// RosterDetail is the stored payload for one historical roster.
type RosterDetail struct {
	RosterID   int                `json:"roster_id"`
	RosterData []FlightAssignment `json:"roster_data"`
}

// --- Per-crew resources ---

// CrewSchedule summarises one roster a crew member participated in.
type CrewSchedule struct {
	RosterID       int    `json:"roster_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	ViolationCount int    `json:"violation_count"`
}

// CrewPreference is a (type, detail, priority) scheduling preference.
// Priority is categorical: High, Medium or Low.
type CrewPreference struct {
	Type     string `json:"type"`
	Detail   string `json:"detail"`
	Priority string `json:"priority"`
}

// --- Disruption chat ---

// ChatReply is the assistant side of one disruption-chat exchange.
type ChatReply struct {
	Response         string            `json:"response"`
	SuggestedActions []SuggestedAction `json:"suggested_actions"`
}

// SuggestedAction is a backend-proposed quick action the UI renders as
// a clickable prefill.
type SuggestedAction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// --- Filter accessors ---

// Field exposes CrewMember columns to the filter engine by name.
func (m CrewMember) Field(name string) (string, bool) {
	switch name {
	case "Crew_ID":
		return m.CrewID, true
	case "Name":
		return m.Name, true
	case "Base":
		return m.Base, true
	case "Rank":
		return m.Rank, true
	case "Qualification":
		return m.Qualification, true
	case "Aircraft_Type_License":
		return m.AircraftTypeLicense, true
	}
	return "", false
}

// Field exposes Flight columns to the filter engine by name.
func (f Flight) Field(name string) (string, bool) {
	switch name {
	case "Flight_Number":
		return f.FlightNumber, true
	case "Date":
		return f.Date, true
	case "Origin":
		return f.Origin, true
	case "Destination":
		return f.Destination, true
	case "Aircraft_Type":
		return f.AircraftType, true
	}
	return "", false
}

// Field exposes FlightAssignment columns to the filter engine by name.
func (a FlightAssignment) Field(name string) (string, bool) {
	switch name {
	case "Flight_Number":
		return a.FlightNumber, true
	case "Date":
		return a.Date, true
	case "Origin":
		return a.Origin, true
	case "Destination":
		return a.Destination, true
	case "Aircraft_Type":
		return a.AircraftType, true
	}
	return "", false
}

// AssignedTo reports whether the given crew member appears in this
// assignment's crew list.
func (a FlightAssignment) AssignedTo(crewID string) bool {
	for _, ref := range a.Crew {
		if ref.CrewID == crewID {
			return true
		}
	}
	return false
}
