package usecase

import (
	"fmt"
	"math"

	"github.com/naka-gawa/copilot-velocity/internal/domain"
)

const (
	highAcceptance        = 70.0
	moderateAcceptance    = 40.0
	correlatingAcceptance = 60.0

	significantImprovement = 20.0
	moderateImprovement    = 10.0
	correlatingImprovement = 15.0
)

// Insights turns developer comparisons into readable observations, in input order.
func (a *Aggregator) Insights(comparisons []domain.DeveloperComparison) []domain.Insight {
	out := make([]domain.Insight, 0, len(comparisons)*2)
	for _, c := range comparisons {
		out = append(out, acceptanceInsight(c), improvementInsight(c))
		if c.AcceptanceRate >= correlatingAcceptance && c.ImprovementPct >= correlatingImprovement {
			out = append(out, domain.Insight{
				Developer: c.Developer,
				Level:     domain.LevelHigh,
				Message:   "Strong correlation: high assistant engagement coincides with a significant velocity gain.",
			})
		}
	}
	return out
}

func acceptanceInsight(c domain.DeveloperComparison) domain.Insight {
	switch {
	case c.AcceptanceRate >= highAcceptance:
		return domain.Insight{Developer: c.Developer, Level: domain.LevelHigh,
			Message: fmt.Sprintf("High acceptance rate (%.1f%%): suggestions are relevant and widely kept.", c.AcceptanceRate)}
	case c.AcceptanceRate >= moderateAcceptance:
		return domain.Insight{Developer: c.Developer, Level: domain.LevelModerate,
			Message: fmt.Sprintf("Moderate acceptance rate (%.1f%%): room to improve suggestion quality.", c.AcceptanceRate)}
	default:
		return domain.Insight{Developer: c.Developer, Level: domain.LevelLow,
			Message: fmt.Sprintf("Low acceptance rate (%.1f%%): limited usage or suggestions rarely fit.", c.AcceptanceRate)}
	}
}

func improvementInsight(c domain.DeveloperComparison) domain.Insight {
	span := fmt.Sprintf("from %.1f to %.1f points per sprint", c.Before, c.After)
	switch {
	case !c.PresentInCurrent:
		return domain.Insight{Developer: c.Developer, Level: domain.LevelLow,
			Message: "Not present in the current sprint; no comparison available."}
	case c.ImprovementPct >= significantImprovement:
		return domain.Insight{Developer: c.Developer, Level: domain.LevelHigh,
			Message: fmt.Sprintf("Significant velocity increase of %.1f%% (%s).", c.ImprovementPct, span)}
	case c.ImprovementPct >= moderateImprovement:
		return domain.Insight{Developer: c.Developer, Level: domain.LevelModerate,
			Message: fmt.Sprintf("Moderate velocity increase of %.1f%% (%s).", c.ImprovementPct, span)}
	case c.ImprovementPct >= 0:
		return domain.Insight{Developer: c.Developer, Level: domain.LevelLow,
			Message: fmt.Sprintf("Slight velocity increase of %.1f%% (%s).", c.ImprovementPct, span)}
	default:
		return domain.Insight{Developer: c.Developer, Level: domain.LevelLow,
			Message: fmt.Sprintf("Velocity decreased by %.1f%% (%s); other factors or an adjustment period may apply.", math.Abs(c.ImprovementPct), span)}
	}
}

// TeamImpact rolls comparisons up to team level. An empty team yields zeroes.
func (a *Aggregator) TeamImpact(comparisons []domain.DeveloperComparison) domain.TeamImpact {
	impact := domain.TeamImpact{TeamSize: len(comparisons)}
	if len(comparisons) == 0 {
		return impact
	}
	improvements := make([]float64, 0, len(comparisons))
	acceptance := make([]float64, 0, len(comparisons))
	for _, c := range comparisons {
		improvements = append(improvements, c.ImprovementPct)
		acceptance = append(acceptance, c.AcceptanceRate)
		if c.ImprovementPct > 0 {
			impact.DevelopersImproved++
		}
		if c.AcceptanceRate >= correlatingAcceptance {
			impact.HighEngagementCount++
			if c.ImprovementPct >= moderateImprovement {
				impact.PositiveCorrelationCnt++
			}
		}
	}
	impact.AvgImprovementPct = mean(improvements)
	impact.AvgAcceptanceRate = mean(acceptance)
	impact.ImprovementRatePct = ratioPct(float64(impact.DevelopersImproved), float64(len(comparisons)))
	return impact
}
