package usecase

import (
	"fmt"
	"sort"

	"github.com/naka-gawa/copilot-velocity/internal/domain"
)

// Baseline picks the sprint that acts as "before" and the one that acts as "after".
type Baseline interface {
	Select(sprints []domain.SprintRecord) (baseline, current domain.SprintRecord, ok bool)
	Name() string
}

// FirstLast uses the first and last sprint in the order they were given.
type FirstLast struct{}

func (FirstLast) Name() string { return "first-last" }

func (FirstLast) Select(sprints []domain.SprintRecord) (domain.SprintRecord, domain.SprintRecord, bool) {
	if len(sprints) == 0 {
		return domain.SprintRecord{}, domain.SprintRecord{}, false
	}
	return sprints[0], sprints[len(sprints)-1], true
}

// Chronological orders sprints by start date before taking the earliest and latest,
// so an unsorted input does not silently swap baseline and current.
type Chronological struct{}

func (Chronological) Name() string { return "chronological" }

func (Chronological) Select(sprints []domain.SprintRecord) (domain.SprintRecord, domain.SprintRecord, bool) {
	if len(sprints) == 0 {
		return domain.SprintRecord{}, domain.SprintRecord{}, false
	}
	sorted := make([]domain.SprintRecord, len(sprints))
	copy(sorted, sprints)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})
	return sorted[0], sorted[len(sorted)-1], true
}

// Named selects the baseline and current sprints by name.
type Named struct {
	BaselineSprint string
	CurrentSprint  string
}

func (n Named) Name() string { return "named" }

func (n Named) Select(sprints []domain.SprintRecord) (domain.SprintRecord, domain.SprintRecord, bool) {
	var baseline, current domain.SprintRecord
	var foundBaseline, foundCurrent bool
	for _, s := range sprints {
		if !foundBaseline && s.Name == n.BaselineSprint {
			baseline, foundBaseline = s, true
		}
		if !foundCurrent && s.Name == n.CurrentSprint {
			current, foundCurrent = s, true
		}
	}
	return baseline, current, foundBaseline && foundCurrent
}

// ParseBaseline maps a configuration value onto a Baseline strategy.
// The "named" strategy requires both sprint names.
func ParseBaseline(kind, baselineSprint, currentSprint string) (Baseline, error) {
	switch kind {
	case "", "first-last":
		return FirstLast{}, nil
	case "chronological":
		return Chronological{}, nil
	case "named":
		if baselineSprint == "" || currentSprint == "" {
			return nil, fmt.Errorf("named baseline requires both baseline and current sprint names")
		}
		return Named{BaselineSprint: baselineSprint, CurrentSprint: currentSprint}, nil
	default:
		return nil, fmt.Errorf("unknown baseline strategy %q (must be: first-last, chronological, named)", kind)
	}
}
