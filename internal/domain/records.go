// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar-day layout used for sprint and usage dates.
const DateLayout = "2006-01-02"

// ErrInvalidSprint is returned by SprintRecord.Validate for malformed sprints.
var ErrInvalidSprint = errors.New("invalid sprint")

// DeveloperMetric holds a single developer's point totals within one sprint.
type DeveloperMetric struct {
	Developer       string  `json:"developer"`
	AssignedPoints  float64 `json:"assigned_points"`
	CompletedPoints float64 `json:"completed_points"`
	CompletionRate  float64 `json:"completion_rate"`
	HasAssist       bool    `json:"has_assist"`
}

// NewDeveloperMetric builds a DeveloperMetric and derives its completion rate.
func NewDeveloperMetric(developer string, assigned, completed float64, hasAssist bool) DeveloperMetric {
	return DeveloperMetric{
		Developer:       developer,
		AssignedPoints:  assigned,
		CompletedPoints: completed,
		CompletionRate:  CompletionRate(assigned, completed),
		HasAssist:       hasAssist,
	}
}

// CompletionRate returns completed/assigned as a whole percentage in [0,100].
// Zero assigned points yield 0.
func CompletionRate(assigned, completed float64) float64 {
	if assigned <= 0 {
		return 0
	}
	rate := math.Round(completed / assigned * 100)
	return math.Max(0, math.Min(100, rate))
}

// SprintRecord represents one closed iteration.
type SprintRecord struct {
	Name            string            `json:"name"`
	StartDate       time.Time         `json:"start_date"`
	EndDate         time.Time         `json:"end_date"`
	TotalPoints     float64           `json:"total_points"`
	CompletedPoints float64           `json:"completed_points"`
	Developers      []DeveloperMetric `json:"developers"`
}

// Validate checks the invariants a sprint must hold before it is aggregated.
func (s SprintRecord) Validate() error {
	if !validPoints(s.TotalPoints) || !validPoints(s.CompletedPoints) {
		return fmt.Errorf("%w: %q has non-finite or negative point totals", ErrInvalidSprint, s.Name)
	}
	if s.CompletedPoints > s.TotalPoints {
		return fmt.Errorf("%w: %q completed %.1f exceeds total %.1f", ErrInvalidSprint, s.Name, s.CompletedPoints, s.TotalPoints)
	}
	if len(s.Developers) == 0 {
		return fmt.Errorf("%w: %q has no developers", ErrInvalidSprint, s.Name)
	}
	seen := make(map[string]struct{}, len(s.Developers))
	for _, d := range s.Developers {
		if _, dup := seen[d.Developer]; dup {
			return fmt.Errorf("%w: %q lists %q twice", ErrInvalidSprint, s.Name, d.Developer)
		}
		seen[d.Developer] = struct{}{}
		if !validPoints(d.AssignedPoints) || !validPoints(d.CompletedPoints) {
			return fmt.Errorf("%w: %q has invalid points for %q", ErrInvalidSprint, s.Name, d.Developer)
		}
	}
	return nil
}

func validPoints(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}

// Developer returns the metric for the named developer, if present.
func (s SprintRecord) Developer(name string) (DeveloperMetric, bool) {
	for _, d := range s.Developers {
		if d.Developer == name {
			return d, true
		}
	}
	return DeveloperMetric{}, false
}

// UsageRecord is one developer's assistant usage for one observation period.
type UsageRecord struct {
	Developer        string    `json:"developer"`
	Date             time.Time `json:"date"`
	SuggestionsCount int       `json:"suggestions_count"`
	AcceptancesCount int       `json:"acceptances_count"`
	AcceptanceRate   float64   `json:"acceptance_rate"`
	LinesSuggested   int       `json:"lines_suggested,omitempty"`
	LinesAccepted    int       `json:"lines_accepted,omitempty"`
	ChatTurns        int       `json:"chat_turns,omitempty"`
}

// NewUsageRecord builds a UsageRecord and derives its acceptance rate.
func NewUsageRecord(developer string, date time.Time, suggestions, acceptances int) UsageRecord {
	rate := 0.0
	if suggestions > 0 {
		rate = float64(acceptances) / float64(suggestions) * 100
	}
	return UsageRecord{
		Developer:        developer,
		Date:             Day(date),
		SuggestionsCount: suggestions,
		AcceptancesCount: acceptances,
		AcceptanceRate:   rate,
	}
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MustDate parses a YYYY-MM-DD literal and panics on failure. Intended for fixtures.
func MustDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}
