// Package fixture holds the static dataset used when live data is disabled or unavailable.
// Every accessor returns a fresh copy so callers can never alter the shared set.
package fixture

import (
	"github.com/naka-gawa/copilot-velocity/internal/domain"
)

type devRow struct {
	name      string
	assigned  float64
	completed float64
	assist    bool
}

type sprintRow struct {
	name, start, end string
	total, completed float64
	devs             []devRow
}

// Five sprints spanning the assistant rollout: baseline, partial rollout, full rollout, steady state.
var sprintRows = []sprintRow{
	{"Sprint 23", "2024-01-01", "2024-01-14", 78, 62, []devRow{
		{"Sarah Chen", 15, 13, true},
		{"Marcus Johnson", 13, 11, true},
		{"Emily Rodriguez", 13, 10, false},
		{"David Kim", 13, 9, false},
		{"Aisha Patel", 12, 10, false},
		{"James Wilson", 12, 9, false},
	}},
	{"Sprint 24", "2024-01-15", "2024-01-31", 82, 71, []devRow{
		{"Sarah Chen", 16, 15, true},
		{"Marcus Johnson", 14, 13, true},
		{"Emily Rodriguez", 14, 13, true},
		{"David Kim", 13, 10, true},
		{"Aisha Patel", 13, 11, false},
		{"James Wilson", 12, 9, false},
	}},
	{"Sprint 25", "2024-02-01", "2024-02-14", 89, 82, []devRow{
		{"Sarah Chen", 17, 16, true},
		{"Marcus Johnson", 15, 14, true},
		{"Emily Rodriguez", 15, 14, true},
		{"David Kim", 14, 12, true},
		{"Aisha Patel", 14, 13, true},
		{"James Wilson", 14, 13, true},
	}},
	{"Sprint 26", "2024-02-15", "2024-02-29", 95, 89, []devRow{
		{"Sarah Chen", 18, 17, true},
		{"Marcus Johnson", 16, 15, true},
		{"Emily Rodriguez", 16, 15, true},
		{"David Kim", 15, 14, true},
		{"Aisha Patel", 15, 14, true},
		{"James Wilson", 15, 14, true},
	}},
	{"Sprint 27", "2024-03-01", "2024-03-14", 102, 97, []devRow{
		{"Sarah Chen", 19, 18, true},
		{"Marcus Johnson", 17, 16, true},
		{"Emily Rodriguez", 17, 16, true},
		{"David Kim", 17, 16, true},
		{"Aisha Patel", 16, 15, true},
		{"James Wilson", 16, 16, true},
	}},
}

type usageRow struct {
	developer   string
	date        string
	suggestions int
	acceptances int
}

// Usage is recorded on each sprint's start date, only for developers holding a seat.
var usageRows = []usageRow{
	{"Sarah Chen", "2024-01-01", 310, 84},
	{"Marcus Johnson", "2024-01-01", 280, 70},

	{"Sarah Chen", "2024-01-15", 340, 102},
	{"Marcus Johnson", "2024-01-15", 300, 84},
	{"Emily Rodriguez", "2024-01-15", 220, 48},
	{"David Kim", "2024-01-15", 200, 40},

	{"Sarah Chen", "2024-02-01", 360, 115},
	{"Marcus Johnson", "2024-02-01", 330, 96},
	{"Emily Rodriguez", "2024-02-01", 290, 78},
	{"David Kim", "2024-02-01", 260, 65},
	{"Aisha Patel", "2024-02-01", 210, 50},
	{"James Wilson", "2024-02-01", 190, 42},

	{"Sarah Chen", "2024-02-15", 380, 129},
	{"Marcus Johnson", "2024-02-15", 360, 111},
	{"Emily Rodriguez", "2024-02-15", 340, 99},
	{"David Kim", "2024-02-15", 320, 86},
	{"Aisha Patel", "2024-02-15", 300, 87},
	{"James Wilson", "2024-02-15", 280, 78},

	{"Sarah Chen", "2024-03-01", 400, 140},
	{"Marcus Johnson", "2024-03-01", 400, 128},
	{"Emily Rodriguez", "2024-03-01", 400, 120},
	{"David Kim", "2024-03-01", 400, 112},
	{"Aisha Patel", "2024-03-01", 400, 132},
	{"James Wilson", "2024-03-01", 400, 120},
}

// Sprints returns the fixture sprints in chronological order.
func Sprints() []domain.SprintRecord {
	out := make([]domain.SprintRecord, 0, len(sprintRows))
	for _, row := range sprintRows {
		devs := make([]domain.DeveloperMetric, 0, len(row.devs))
		for _, d := range row.devs {
			devs = append(devs, domain.NewDeveloperMetric(d.name, d.assigned, d.completed, d.assist))
		}
		out = append(out, domain.SprintRecord{
			Name:            row.name,
			StartDate:       domain.MustDate(row.start),
			EndDate:         domain.MustDate(row.end),
			TotalPoints:     row.total,
			CompletedPoints: row.completed,
			Developers:      devs,
		})
	}
	return out
}

// Usage returns the fixture usage records.
func Usage() []domain.UsageRecord {
	out := make([]domain.UsageRecord, 0, len(usageRows))
	for _, row := range usageRows {
		r := domain.NewUsageRecord(row.developer, domain.MustDate(row.date), row.suggestions, row.acceptances)
		r.LinesSuggested = row.suggestions * 3
		r.LinesAccepted = row.acceptances * 2
		out = append(out, r)
	}
	return out
}
