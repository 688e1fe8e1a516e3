package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionRate(t *testing.T) {
	testCases := []struct {
		name      string
		assigned  float64
		completed float64
		expected  float64
	}{
		{name: "rounds to nearest whole percent", assigned: 15, completed: 13, expected: 87},
		{name: "zero assigned yields zero", assigned: 0, completed: 5, expected: 0},
		{name: "over-completion is clamped", assigned: 10, completed: 12, expected: 100},
		{name: "full completion", assigned: 16, completed: 16, expected: 100},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CompletionRate(tc.assigned, tc.completed))
		})
	}
}

func TestNewDeveloperMetric(t *testing.T) {
	m := NewDeveloperMetric("David Kim", 13, 9, false)
	assert.Equal(t, "David Kim", m.Developer)
	assert.Equal(t, 69.0, m.CompletionRate)
	assert.False(t, m.HasAssist)
}

func TestNewUsageRecord(t *testing.T) {
	at := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	r := NewUsageRecord("Sarah Chen", at, 400, 140)
	assert.InDelta(t, 35.0, r.AcceptanceRate, 1e-9)
	assert.Equal(t, MustDate("2024-03-01"), r.Date)

	empty := NewUsageRecord("Sarah Chen", at, 0, 0)
	assert.Equal(t, 0.0, empty.AcceptanceRate)
}

func TestSprintRecord_Validate(t *testing.T) {
	dev := NewDeveloperMetric("Aisha Patel", 12, 10, false)
	testCases := []struct {
		name        string
		sprint      SprintRecord
		expectError bool
	}{
		{
			name:   "valid sprint",
			sprint: SprintRecord{Name: "Sprint 1", TotalPoints: 12, CompletedPoints: 10, Developers: []DeveloperMetric{dev}},
		},
		{
			name:        "completed exceeds total",
			sprint:      SprintRecord{Name: "Sprint 1", TotalPoints: 5, CompletedPoints: 10, Developers: []DeveloperMetric{dev}},
			expectError: true,
		},
		{
			name:        "no developers",
			sprint:      SprintRecord{Name: "Sprint 1", TotalPoints: 5, CompletedPoints: 1},
			expectError: true,
		},
		{
			name:        "duplicate developer",
			sprint:      SprintRecord{Name: "Sprint 1", TotalPoints: 30, CompletedPoints: 20, Developers: []DeveloperMetric{dev, dev}},
			expectError: true,
		},
		{
			name:        "NaN total",
			sprint:      SprintRecord{Name: "Sprint 1", TotalPoints: math.NaN(), CompletedPoints: 10, Developers: []DeveloperMetric{dev}},
			expectError: true,
		},
		{
			name:        "infinite totals",
			sprint:      SprintRecord{Name: "Sprint 1", TotalPoints: math.Inf(1), CompletedPoints: math.Inf(1), Developers: []DeveloperMetric{dev}},
			expectError: true,
		},
		{
			name:        "negative completed",
			sprint:      SprintRecord{Name: "Sprint 1", TotalPoints: 12, CompletedPoints: -1, Developers: []DeveloperMetric{dev}},
			expectError: true,
		},
		{
			name: "NaN developer points",
			sprint: SprintRecord{Name: "Sprint 1", TotalPoints: 12, CompletedPoints: 10, Developers: []DeveloperMetric{
				{Developer: "Aisha Patel", AssignedPoints: math.NaN(), CompletedPoints: 10},
			}},
			expectError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sprint.Validate()
			if tc.expectError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidSprint))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)
	assert.True(t, SameDay(a, MustDate("2024-01-15")))
	assert.False(t, SameDay(a, MustDate("2024-01-16")))
}
