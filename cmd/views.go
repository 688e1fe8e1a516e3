package cmd

import (
	"github.com/spf13/cobra"

	"github.com/naka-gawa/copilot-velocity/internal/domain"
	"github.com/naka-gawa/copilot-velocity/internal/source"
	"github.com/naka-gawa/copilot-velocity/internal/usecase"
)

// developersView is the developer comparison with its derived insights.
type developersView struct {
	Comparisons []domain.DeveloperComparison `json:"comparisons"`
	Insights    []domain.Insight             `json:"insights"`
	TeamImpact  domain.TeamImpact            `json:"team_impact"`
}

// reportView combines every view computed from a single load.
type reportView struct {
	Summary    domain.DashboardSummary `json:"summary"`
	Velocity   []domain.VelocityPoint  `json:"velocity_trend"`
	Adoption   []domain.AdoptionPoint  `json:"adoption_trend"`
	Developers developersView          `json:"developers"`
	Metrics    []domain.CombinedMetric `json:"metrics"`
}

type viewFunc func(agg *usecase.Aggregator, data source.Result) any

func summaryView(agg *usecase.Aggregator, data source.Result) any {
	return agg.DashboardSummary(data.Sprints, data.Usage)
}

func velocityView(agg *usecase.Aggregator, data source.Result) any {
	return agg.VelocityTrend(data.Sprints)
}

func adoptionView(agg *usecase.Aggregator, data source.Result) any {
	return agg.AdoptionTrend(data.Sprints)
}

func metricsView(agg *usecase.Aggregator, data source.Result) any {
	return agg.CombinedMetrics(data.Sprints, data.Usage)
}

func buildDevelopersView(agg *usecase.Aggregator, data source.Result) developersView {
	comparisons := agg.DeveloperComparison(data.Sprints, data.Usage)
	return developersView{
		Comparisons: comparisons,
		Insights:    agg.Insights(comparisons),
		TeamImpact:  agg.TeamImpact(comparisons),
	}
}

func developerView(agg *usecase.Aggregator, data source.Result) any {
	return buildDevelopersView(agg, data)
}

func fullReport(agg *usecase.Aggregator, data source.Result) any {
	return reportView{
		Summary:    agg.DashboardSummary(data.Sprints, data.Usage),
		Velocity:   agg.VelocityTrend(data.Sprints),
		Adoption:   agg.AdoptionTrend(data.Sprints),
		Developers: buildDevelopersView(agg, data),
		Metrics:    agg.CombinedMetrics(data.Sprints, data.Usage),
	}
}

// newViewCommand builds a command that loads records once and prints one view as JSON.
func newViewCommand(use, short string, view viewFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			data := a.provider.Load(cmd.Context())
			return writeJSON(cmd.OutOrStdout(), envelope{
				Source:  data.Origin,
				Warning: data.Warning(),
				Data:    view(a.aggregator, data),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(
		newViewCommand("summary", "Dashboard summary of adoption and velocity", summaryView),
		newViewCommand("velocity", "Per-sprint velocity split by Copilot usage", velocityView),
		newViewCommand("adoption", "Per-sprint Copilot adoption rate", adoptionView),
		newViewCommand("developers", "Baseline versus current velocity per developer, with insights", developerView),
		newViewCommand("metrics", "Per-developer, per-sprint combined rows", metricsView),
		newViewCommand("report", "Every view computed from a single load", fullReport),
	)
}
