package domain

import "time"

// CombinedMetric joins one developer's sprint result with their usage for that sprint.
type CombinedMetric struct {
	Developer        string  `json:"developer"`
	Period           string  `json:"period"`
	PointsCompleted  float64 `json:"points_completed"`
	AcceptanceRate   float64 `json:"acceptance_rate"`
	SuggestionsCount int     `json:"suggestions_count"`
	HasAssist        bool    `json:"has_assist"`
	Velocity         float64 `json:"velocity"`
}

// DashboardSummary is recomputed from the current record set whenever it is consumed.
type DashboardSummary struct {
	TotalDevelopers              int     `json:"total_developers"`
	DevelopersWithAssist         int     `json:"developers_with_assist"`
	AverageAcceptanceRate        float64 `json:"average_acceptance_rate"`
	AverageVelocityWithAssist    float64 `json:"average_velocity_with_assist"`
	AverageVelocityWithoutAssist float64 `json:"average_velocity_without_assist"`
	ProductivityIncreasePct      float64 `json:"productivity_increase_pct"`
}

// VelocityPoint is one sprint on the velocity trend.
type VelocityPoint struct {
	SprintName               string    `json:"sprint_name"`
	Date                     time.Time `json:"date"`
	AvgVelocityWithAssist    float64   `json:"avg_velocity_with_assist"`
	AvgVelocityWithoutAssist float64   `json:"avg_velocity_without_assist"`
	TotalCompleted           float64   `json:"total_completed"`
	TotalAssigned            float64   `json:"total_assigned"`
	CompletionRatePct        float64   `json:"completion_rate_pct"`
}

// AdoptionPoint is one sprint on the adoption trend.
type AdoptionPoint struct {
	SprintName      string    `json:"sprint_name"`
	Date            time.Time `json:"date"`
	CountWithAssist int       `json:"count_with_assist"`
	TotalCount      int       `json:"total_count"`
	AdoptionRatePct float64   `json:"adoption_rate_pct"`
}

// DeveloperComparison pairs a developer's baseline and current sprint velocity.
type DeveloperComparison struct {
	Developer        string  `json:"developer"`
	Before           float64 `json:"before"`
	After            float64 `json:"after"`
	ImprovementPct   float64 `json:"improvement_pct"`
	AcceptanceRate   float64 `json:"acceptance_rate"`
	CurrentVelocity  float64 `json:"current_velocity"`
	PresentInCurrent bool    `json:"present_in_current"`
}

// InsightLevel grades an insight message.
type InsightLevel string

const (
	LevelHigh     InsightLevel = "high"
	LevelModerate InsightLevel = "moderate"
	LevelLow      InsightLevel = "low"
)

// Insight is a human-readable observation about one developer.
type Insight struct {
	Developer string       `json:"developer"`
	Level     InsightLevel `json:"level"`
	Message   string       `json:"message"`
}

// TeamImpact rolls developer comparisons up to the team.
type TeamImpact struct {
	TeamSize               int     `json:"team_size"`
	AvgImprovementPct      float64 `json:"avg_improvement_pct"`
	DevelopersImproved     int     `json:"developers_improved"`
	ImprovementRatePct     float64 `json:"improvement_rate_pct"`
	AvgAcceptanceRate      float64 `json:"avg_acceptance_rate"`
	HighEngagementCount    int     `json:"high_engagement_count"`
	PositiveCorrelationCnt int     `json:"positive_correlation_count"`
}
