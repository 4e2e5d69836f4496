package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/skyops/crewdeck/internal/rosterd"
)

func TestViolationsByCategory(t *testing.T) {
	t.Run("counts every violation exactly once", func(t *testing.T) {
		violations := []rosterd.Violation{
			{Category: "Rest"},
			{Category: "Rest"},
			{Category: "DutyTime"},
		}

		hist := ViolationsByCategory(violations)

		if hist["Rest"] != 2 || hist["DutyTime"] != 1 {
			t.Errorf("expected {Rest: 2, DutyTime: 1}, got %v", hist)
		}

		total := 0
		for _, n := range hist {
			total += n
		}
		if total != len(violations) {
			t.Errorf("counts sum to %d, want %d", total, len(violations))
		}
	})

	t.Run("empty list yields empty histogram", func(t *testing.T) {
		hist := ViolationsByCategory(nil)
		if len(hist) != 0 {
			t.Errorf("expected empty histogram, got %v", hist)
		}
	})
}

func assignment(flight string, start time.Time, d time.Duration) rosterd.FlightAssignment {
	return rosterd.FlightAssignment{
		FlightNumber: flight,
		DutyStart:    start,
		DutyEnd:      start.Add(d),
	}
}

func TestDutyDurations(t *testing.T) {
	base := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)

	t.Run("positive span in hours rounded to 2 decimals", func(t *testing.T) {
		roster := []rosterd.FlightAssignment{
			assignment("AI101", base, 5*time.Hour+20*time.Minute),
		}
		got := DutyDurations(roster, 0)
		if len(got) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(got))
		}
		if got[0].Hours != 5.33 {
			t.Errorf("expected 5.33 hours, got %v", got[0].Hours)
		}
		if got[0].Anomalous {
			t.Error("positive span flagged anomalous")
		}
	})

	t.Run("equal timestamps give zero", func(t *testing.T) {
		roster := []rosterd.FlightAssignment{assignment("AI102", base, 0)}
		got := DutyDurations(roster, 0)
		if got[0].Hours != 0 {
			t.Errorf("expected 0 hours, got %v", got[0].Hours)
		}
		if got[0].Anomalous {
			t.Error("zero span flagged anomalous")
		}
	})

	t.Run("inverted window keeps value and is flagged", func(t *testing.T) {
		roster := []rosterd.FlightAssignment{assignment("AI103", base, -2*time.Hour)}
		got := DutyDurations(roster, 0)
		if got[0].Hours != -2 {
			t.Errorf("expected -2 hours preserved, got %v", got[0].Hours)
		}
		if !got[0].Anomalous {
			t.Error("inverted window not flagged anomalous")
		}
	})

	t.Run("limit caps the result", func(t *testing.T) {
		var roster []rosterd.FlightAssignment
		for i := 0; i < 15; i++ {
			roster = append(roster, assignment("AI", base, time.Hour))
		}
		if got := DutyDurations(roster, 10); len(got) != 10 {
			t.Errorf("expected 10 entries, got %d", len(got))
		}
		if got := DutyDurations(roster, 0); len(got) != 15 {
			t.Errorf("limit 0 should return all entries, got %d", len(got))
		}
	})
}

func TestComputeDutyStats(t *testing.T) {
	base := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)
	roster := []rosterd.FlightAssignment{
		assignment("AI201", base, 4*time.Hour),
		assignment("AI202", base, 8*time.Hour),
	}

	stats := ComputeDutyStats(roster)

	if stats.Min != 4 || stats.Max != 8 {
		t.Errorf("expected min 4 max 8, got min %v max %v", stats.Min, stats.Max)
	}
	if stats.Mean != 6 {
		t.Errorf("expected mean 6, got %v", stats.Mean)
	}
	// Population std-dev of {4, 8} is 2.
	if math.Abs(stats.StdDev-2) > 0.001 {
		t.Errorf("expected std-dev 2, got %v", stats.StdDev)
	}

	t.Run("empty roster gives zero stats", func(t *testing.T) {
		if got := ComputeDutyStats(nil); got != (DutyStats{}) {
			t.Errorf("expected zero stats, got %+v", got)
		}
	})
}

func TestDutyStatsVerified(t *testing.T) {
	stats := DutyStats{Min: 4, Max: 8, Mean: 6, StdDev: 2}

	agree := rosterd.OptimizationMetrics{
		MinDutyHours: 4, MaxDutyHours: 8, AvgDutyHours: 6.005, StdDevDutyHours: 2,
	}
	if !stats.Verified(agree) {
		t.Error("stats within tolerance should verify")
	}

	disagree := rosterd.OptimizationMetrics{
		MinDutyHours: 4, MaxDutyHours: 8, AvgDutyHours: 6.5, StdDevDutyHours: 2,
	}
	if stats.Verified(disagree) {
		t.Error("stats outside tolerance should not verify")
	}
}

func TestVerifyViolationCount(t *testing.T) {
	resp := &rosterd.RosterResponse{
		Violations: []rosterd.Violation{{Category: "Rest"}},
		Metrics:    rosterd.OptimizationMetrics{ViolationCount: 1},
	}
	if w := VerifyViolationCount(resp); w != nil {
		t.Errorf("consistent payload should produce no warning, got %+v", w)
	}

	resp.Metrics.ViolationCount = 3
	w := VerifyViolationCount(resp)
	if w == nil {
		t.Fatal("mismatched payload should produce a warning")
	}
	if w.MetricCount != 3 || w.ViolationCount != 1 {
		t.Errorf("warning carries wrong counts: %+v", w)
	}
}
