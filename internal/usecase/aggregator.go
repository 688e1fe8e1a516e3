// Package usecase contains the business logic of the application.
package usecase

import (
	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/copilot-velocity/internal/domain"
)

// Aggregator turns sprint and usage records into the dashboard views.
// It holds no mutable state; every method is a pure function of its arguments
// and is safe to call concurrently.
type Aggregator struct {
	baseline Baseline
}

// NewAggregator creates a new Aggregator. A nil baseline defaults to FirstLast.
func NewAggregator(baseline Baseline) *Aggregator {
	if baseline == nil {
		baseline = FirstLast{}
	}
	return &Aggregator{baseline: baseline}
}

// CombinedMetrics emits one row per (developer, sprint), joined with the usage record
// recorded on the sprint's start date. Missing usage leaves the usage fields at zero.
func (a *Aggregator) CombinedMetrics(sprints []domain.SprintRecord, usage []domain.UsageRecord) []domain.CombinedMetric {
	rows := make([]domain.CombinedMetric, 0)
	for _, sprint := range sprints {
		for _, dev := range sprint.Developers {
			row := domain.CombinedMetric{
				Developer:       dev.Developer,
				Period:          sprint.Name,
				PointsCompleted: dev.CompletedPoints,
				HasAssist:       dev.HasAssist,
				Velocity:        dev.CompletedPoints,
			}
			if u, ok := findUsage(usage, dev.Developer, sprint); ok {
				row.AcceptanceRate = u.AcceptanceRate
				row.SuggestionsCount = u.SuggestionsCount
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// DashboardSummary computes the headline numbers. Empty inputs and zero denominators
// yield zero rather than NaN or infinity.
func (a *Aggregator) DashboardSummary(sprints []domain.SprintRecord, usage []domain.UsageRecord) domain.DashboardSummary {
	baseline, current, ok := a.baseline.Select(sprints)
	if !ok {
		return domain.DashboardSummary{}
	}
	rows := a.CombinedMetrics(sprints, usage)

	var summary domain.DashboardSummary
	// Counted by name; unvalidated input may list a developer more than once.
	assistedByDev := make(map[string]bool, len(current.Developers))
	for _, d := range current.Developers {
		assistedByDev[d.Developer] = assistedByDev[d.Developer] || d.HasAssist
	}
	summary.TotalDevelopers = len(assistedByDev)
	for _, assisted := range assistedByDev {
		if assisted {
			summary.DevelopersWithAssist++
		}
	}

	var currentAcceptance, withAssist, withoutAssist []float64
	for _, r := range rows {
		if r.HasAssist {
			withAssist = append(withAssist, r.Velocity)
			if r.Period == current.Name {
				currentAcceptance = append(currentAcceptance, r.AcceptanceRate)
			}
		} else {
			withoutAssist = append(withoutAssist, r.Velocity)
		}
	}

	summary.AverageAcceptanceRate = mean(currentAcceptance)
	summary.AverageVelocityWithAssist = mean(withAssist)
	if len(withoutAssist) > 0 {
		summary.AverageVelocityWithoutAssist = mean(withoutAssist)
	} else {
		// Everyone had the assistant in every sprint; the baseline sprint stands in.
		summary.AverageVelocityWithoutAssist = mean(completedPoints(baseline.Developers))
	}
	summary.ProductivityIncreasePct = percentChange(summary.AverageVelocityWithoutAssist, summary.AverageVelocityWithAssist)
	return summary
}

// VelocityTrend reports per-sprint velocity split by assistant use.
func (a *Aggregator) VelocityTrend(sprints []domain.SprintRecord) []domain.VelocityPoint {
	points := make([]domain.VelocityPoint, 0, len(sprints))
	for _, sprint := range sprints {
		var with, without []float64
		for _, d := range sprint.Developers {
			if d.HasAssist {
				with = append(with, d.CompletedPoints)
			} else {
				without = append(without, d.CompletedPoints)
			}
		}
		points = append(points, domain.VelocityPoint{
			SprintName:               sprint.Name,
			Date:                     sprint.StartDate,
			AvgVelocityWithAssist:    mean(with),
			AvgVelocityWithoutAssist: mean(without),
			TotalCompleted:           sprint.CompletedPoints,
			TotalAssigned:            sprint.TotalPoints,
			CompletionRatePct:        ratioPct(sprint.CompletedPoints, sprint.TotalPoints),
		})
	}
	return points
}

// AdoptionTrend reports how many developers used the assistant in each sprint.
func (a *Aggregator) AdoptionTrend(sprints []domain.SprintRecord) []domain.AdoptionPoint {
	points := make([]domain.AdoptionPoint, 0, len(sprints))
	for _, sprint := range sprints {
		count := 0
		for _, d := range sprint.Developers {
			if d.HasAssist {
				count++
			}
		}
		total := len(sprint.Developers)
		points = append(points, domain.AdoptionPoint{
			SprintName:      sprint.Name,
			Date:            sprint.StartDate,
			CountWithAssist: count,
			TotalCount:      total,
			AdoptionRatePct: ratioPct(float64(count), float64(total)),
		})
	}
	return points
}

// DeveloperComparison compares each baseline-sprint developer with their current sprint.
// Developers missing from the current sprint, and developers with a zero baseline,
// report a zero improvement.
func (a *Aggregator) DeveloperComparison(sprints []domain.SprintRecord, usage []domain.UsageRecord) []domain.DeveloperComparison {
	baseline, current, ok := a.baseline.Select(sprints)
	if !ok {
		return []domain.DeveloperComparison{}
	}

	out := make([]domain.DeveloperComparison, 0, len(baseline.Developers))
	seen := make(map[string]struct{}, len(baseline.Developers))
	for _, before := range baseline.Developers {
		if _, dup := seen[before.Developer]; dup {
			continue
		}
		seen[before.Developer] = struct{}{}

		c := domain.DeveloperComparison{
			Developer: before.Developer,
			Before:    before.CompletedPoints,
		}
		if after, found := current.Developer(before.Developer); found {
			c.After = after.CompletedPoints
			c.CurrentVelocity = after.CompletedPoints
			c.PresentInCurrent = true
			c.ImprovementPct = percentChange(c.Before, c.After)
		}
		if latest, found := latestUsage(usage, before.Developer); found {
			c.AcceptanceRate = latest.AcceptanceRate
		}
		out = append(out, c)
	}
	return out
}

func findUsage(usage []domain.UsageRecord, developer string, sprint domain.SprintRecord) (domain.UsageRecord, bool) {
	for _, u := range usage {
		if u.Developer == developer && domain.SameDay(u.Date, sprint.StartDate) {
			return u, true
		}
	}
	return domain.UsageRecord{}, false
}

// latestUsage returns the developer's most recent record; ties keep the earliest in input order.
func latestUsage(usage []domain.UsageRecord, developer string) (domain.UsageRecord, bool) {
	var best domain.UsageRecord
	found := false
	for _, u := range usage {
		if u.Developer != developer {
			continue
		}
		if !found || u.Date.After(best.Date) {
			best, found = u, true
		}
	}
	return best, found
}

func completedPoints(devs []domain.DeveloperMetric) []float64 {
	out := make([]float64, 0, len(devs))
	for _, d := range devs {
		out = append(out, d.CompletedPoints)
	}
	return out
}

// mean returns 0 for an empty sample.
func mean(values []float64) float64 {
	m, err := stats.Mean(stats.Float64Data(values))
	if err != nil {
		return 0
	}
	return m
}

func ratioPct(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func percentChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100
}
