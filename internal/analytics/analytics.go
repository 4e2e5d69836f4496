// Package analytics derives dashboard charts from raw roster payloads:
// violation histograms, per-flight duty durations, and a local recheck
// of the server's duty-hour statistics.
package analytics

import (
	"math"

	"github.com/rs/zerolog/log"
	"github.com/skyops/crewdeck/internal/rosterd"
)

// ViolationsByCategory counts violations per category. Every violation
// is counted exactly once, so the counts always sum to len(violations).
func ViolationsByCategory(violations []rosterd.Violation) map[string]int {
	hist := make(map[string]int, len(violations))
	for _, v := range violations {
		hist[v.Category]++
	}
	return hist
}

// DutyDuration is the duty-window length of one rostered flight.
type DutyDuration struct {
	FlightNumber string  `json:"flight_number"`
	Hours        float64 `json:"hours"`
	// Anomalous marks entries whose duty window ends before it starts.
	// The negative value is preserved so the operator sees the bad data.
	Anomalous bool `json:"anomalous,omitempty"`
}

// DutyDurations computes the duty-window hours for each assignment,
// rounded to two decimals. A limit > 0 caps the result to the first
// limit entries (display policy); limit <= 0 returns all of them.
func DutyDurations(roster []rosterd.FlightAssignment, limit int) []DutyDuration {
	out := make([]DutyDuration, 0, len(roster))
	for _, a := range roster {
		if limit > 0 && len(out) >= limit {
			break
		}
		hours := a.DutyEnd.Sub(a.DutyStart).Hours()
		hours = math.Round(hours*100) / 100
		d := DutyDuration{FlightNumber: a.FlightNumber, Hours: hours}
		if hours < 0 {
			d.Anomalous = true
			log.Warn().
				Str("flight", a.FlightNumber).
				Float64("hours", hours).
				Msg("duty window ends before it starts")
		}
		out = append(out, d)
	}
	return out
}

// DutyStats is a locally recomputed version of the server's duty-hour
// aggregate, used to cross-check the optimization_metrics block.
type DutyStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// ComputeDutyStats aggregates duty-window hours across the roster.
// Anomalous (negative) entries are included as-is; hiding them here
// would make the cross-check against the server lie.
func ComputeDutyStats(roster []rosterd.FlightAssignment) DutyStats {
	if len(roster) == 0 {
		return DutyStats{}
	}

	var sum float64
	min := math.Inf(1)
	max := math.Inf(-1)
	hours := make([]float64, 0, len(roster))
	for _, a := range roster {
		h := a.DutyEnd.Sub(a.DutyStart).Hours()
		hours = append(hours, h)
		sum += h
		if h < min {
			min = h
		}
		if h > max {
			max = h
		}
	}
	mean := sum / float64(len(hours))

	var variance float64
	for _, h := range hours {
		variance += (h - mean) * (h - mean)
	}
	variance /= float64(len(hours))

	return DutyStats{
		Min:    round2(min),
		Max:    round2(max),
		Mean:   round2(mean),
		StdDev: round2(math.Sqrt(variance)),
	}
}

// Verified reports whether the locally recomputed stats agree with the
// server's metrics block within tolerance. Drives the dashboard's
// "client-verified" badge.
func (s DutyStats) Verified(m rosterd.OptimizationMetrics) bool {
	const tol = 0.01
	return math.Abs(s.Min-m.MinDutyHours) <= tol &&
		math.Abs(s.Max-m.MaxDutyHours) <= tol &&
		math.Abs(s.Mean-m.AvgDutyHours) <= tol &&
		math.Abs(s.StdDev-m.StdDevDutyHours) <= tol
}

// IntegrityWarning describes a non-fatal disagreement inside one roster
// payload. Nil when the payload is internally consistent.
type IntegrityWarning struct {
	MetricCount    int `json:"metric_count"`
	ViolationCount int `json:"violation_count"`
}

// VerifyViolationCount cross-checks the summary violation_count against
// the violation list itself. A mismatch is reported, never fatal.
func VerifyViolationCount(resp *rosterd.RosterResponse) *IntegrityWarning {
	if resp.Metrics.ViolationCount == len(resp.Violations) {
		return nil
	}
	return &IntegrityWarning{
		MetricCount:    resp.Metrics.ViolationCount,
		ViolationCount: len(resp.Violations),
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
