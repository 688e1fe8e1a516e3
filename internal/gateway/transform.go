package gateway

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/naka-gawa/copilot-velocity/internal/domain"
)

// IssueStatus is the simplified workflow state of an issue.
type IssueStatus string

const (
	StatusToDo       IssueStatus = "To Do"
	StatusInProgress IssueStatus = "In Progress"
	StatusDone       IssueStatus = "Done"
)

const unassigned = "Unassigned"

// Issue is a Jira issue reduced to what sprint aggregation needs.
type Issue struct {
	Key         string
	Summary     string
	StoryPoints float64
	Status      IssueStatus
	Assignee    string
	Sprint      string
}

// MapStatus folds an arbitrary workflow status name onto To Do / In Progress / Done.
func MapStatus(name string) IssueStatus {
	s := strings.ToLower(name)
	switch {
	case strings.Contains(s, "done"), strings.Contains(s, "complete"), strings.Contains(s, "closed"):
		return StatusDone
	case strings.Contains(s, "progress"), strings.Contains(s, "review"), strings.Contains(s, "testing"):
		return StatusInProgress
	default:
		return StatusToDo
	}
}

// storyPoints reads an estimate that may be a JSON number or a numeric string.
// Negative and non-finite estimates count as zero.
func storyPoints(v any) float64 {
	var points float64
	switch p := v.(type) {
	case float64:
		points = p
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0
		}
		points = f
	default:
		return 0
	}
	if math.IsNaN(points) || math.IsInf(points, 0) || points < 0 {
		return 0
	}
	return points
}

func toIssue(raw jira.Issue, pointsField, sprintName string) Issue {
	issue := Issue{
		Key:      raw.Key,
		Status:   StatusToDo,
		Assignee: unassigned,
		Sprint:   sprintName,
	}
	f := raw.Fields
	if f == nil {
		return issue
	}
	issue.Summary = f.Summary
	if f.Assignee != nil && f.Assignee.DisplayName != "" {
		issue.Assignee = f.Assignee.DisplayName
	}
	if f.Status != nil {
		issue.Status = MapStatus(f.Status.Name)
	}
	issue.StoryPoints = storyPoints(f.Unknowns[pointsField])
	return issue
}

// developerMetrics groups issues by assignee in order of first appearance.
// Unassigned issues are excluded.
func developerMetrics(issues []Issue, assisted func(string) bool) []domain.DeveloperMetric {
	type totals struct{ assigned, completed float64 }
	var order []string
	byDev := make(map[string]*totals)
	for _, issue := range issues {
		if issue.Assignee == unassigned {
			continue
		}
		t, ok := byDev[issue.Assignee]
		if !ok {
			t = &totals{}
			byDev[issue.Assignee] = t
			order = append(order, issue.Assignee)
		}
		t.assigned += issue.StoryPoints
		if issue.Status == StatusDone {
			t.completed += issue.StoryPoints
		}
	}

	metrics := make([]domain.DeveloperMetric, 0, len(order))
	for _, dev := range order {
		t := byDev[dev]
		metrics = append(metrics, domain.NewDeveloperMetric(dev, t.assigned, t.completed, assisted(dev)))
	}
	return metrics
}

// BuildSprintRecord aggregates a sprint's issues into a SprintRecord.
// Sprint totals include unassigned issues.
func BuildSprintRecord(sprint jira.Sprint, issues []Issue, assisted func(string) bool) domain.SprintRecord {
	var total, completed float64
	for _, issue := range issues {
		total += issue.StoryPoints
		if issue.Status == StatusDone {
			completed += issue.StoryPoints
		}
	}
	end := sprint.EndDate
	if end == nil {
		end = sprint.CompleteDate
	}
	return domain.SprintRecord{
		Name:            sprint.Name,
		StartDate:       day(sprint.StartDate),
		EndDate:         day(end),
		TotalPoints:     total,
		CompletedPoints: completed,
		Developers:      developerMetrics(issues, assisted),
	}
}

// RecentClosed returns the last n closed sprints ordered by start date ascending.
// Sprints without a start date sort first.
func RecentClosed(sprints []jira.Sprint, n int) []jira.Sprint {
	closed := make([]jira.Sprint, 0, len(sprints))
	for _, s := range sprints {
		if s.State == "closed" {
			closed = append(closed, s)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return instant(closed[i].StartDate).Before(instant(closed[j].StartDate))
	})
	if n > 0 && len(closed) > n {
		closed = closed[len(closed)-n:]
	}
	return closed
}

func instant(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// day returns the calendar day of a Jira timestamp, or the zero time.
func day(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return domain.Day(*t)
}
