package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/naka-gawa/copilot-velocity/internal/cache"
	"github.com/naka-gawa/copilot-velocity/internal/config"
	"github.com/naka-gawa/copilot-velocity/internal/domain"
	"github.com/naka-gawa/copilot-velocity/internal/fixture"
)

// mockSprintFetcher is a mock implementation of the gateway.SprintFetcher interface.
type mockSprintFetcher struct {
	mock.Mock
}

func (m *mockSprintFetcher) FetchSprints(ctx context.Context, assisted func(string) bool) ([]domain.SprintRecord, error) {
	args := m.Called(ctx, assisted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	records := args.Get(0).([]domain.SprintRecord)
	// Apply the assist predicate the way the Jira gateway does.
	for i := range records {
		for j := range records[i].Developers {
			records[i].Developers[j].HasAssist = assisted(records[i].Developers[j].Developer)
		}
	}
	return records, args.Error(1)
}

// mockSeatFetcher is a mock implementation of the gateway.SeatFetcher interface.
type mockSeatFetcher struct {
	mock.Mock
}

func (m *mockSeatFetcher) FetchSeatHolders(ctx context.Context, org string) ([]string, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockSeatFetcher) ResolveNames(ctx context.Context, logins []string) map[string]string {
	args := m.Called(ctx, logins)
	return args.Get(0).(map[string]string)
}

func liveConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Source.Live = true
	cfg.Jira = config.JiraConfig{BaseURL: "https://example.atlassian.net", Email: "bot@example.com", APIToken: "t", BoardID: "7", RecentSprints: 5}
	cfg.GitHub = config.GitHubConfig{Token: "gh", Org: "acme", Developers: map[string]string{"schen": "Sarah Chen"}}
	return cfg
}

func liveSprints() []domain.SprintRecord {
	return []domain.SprintRecord{
		{
			Name: "Sprint 40", StartDate: domain.MustDate("2024-05-01"), EndDate: domain.MustDate("2024-05-14"),
			TotalPoints: 20, CompletedPoints: 15,
			Developers: []domain.DeveloperMetric{
				domain.NewDeveloperMetric("Sarah Chen", 10, 8, false),
				domain.NewDeveloperMetric("David Kim", 10, 7, false),
			},
		},
		{
			// Invalid: no developers.
			Name: "Sprint 41", StartDate: domain.MustDate("2024-05-15"), TotalPoints: 3, CompletedPoints: 3,
		},
	}
}

func TestProvider_Load_FixtureWhenLiveDisabled(t *testing.T) {
	sprints := new(mockSprintFetcher)
	p := NewProvider(config.DefaultConfig(), sprints, nil, zap.NewNop().Sugar())

	result := p.Load(context.Background())
	assert.Equal(t, Fixture, result.Origin)
	assert.NoError(t, result.Reason)
	assert.Empty(t, result.Warning())
	assert.Equal(t, fixture.Sprints(), result.Sprints)
	assert.Equal(t, fixture.Usage(), result.Usage)
	sprints.AssertNotCalled(t, "FetchSprints", mock.Anything, mock.Anything)
}

func TestProvider_Load_Live(t *testing.T) {
	sprints := new(mockSprintFetcher)
	seats := new(mockSeatFetcher)
	sprints.On("FetchSprints", mock.Anything, mock.Anything).Return(liveSprints(), nil)
	seats.On("FetchSeatHolders", mock.Anything, "acme").Return([]string{"schen", "dkim"}, nil)
	seats.On("ResolveNames", mock.Anything, []string{"dkim"}).Return(map[string]string{"dkim": "David Kim"})

	p := NewProvider(liveConfig(), sprints, seats, zap.NewNop().Sugar())
	result := p.Load(context.Background())

	require.Equal(t, Live, result.Origin)
	assert.NoError(t, result.Reason)
	assert.Empty(t, result.Warning())
	require.Len(t, result.Sprints, 1, "invalid sprints are skipped")
	assert.True(t, result.Sprints[0].Developers[0].HasAssist)
	assert.True(t, result.Sprints[0].Developers[1].HasAssist)
	assert.NotNil(t, result.Usage)
	assert.Empty(t, result.Usage)
	sprints.AssertExpectations(t)
	seats.AssertExpectations(t)
}

func TestProvider_Load_LiveWithoutGitHub(t *testing.T) {
	sprints := new(mockSprintFetcher)
	sprints.On("FetchSprints", mock.Anything, mock.Anything).Return(liveSprints()[:1], nil)

	p := NewProvider(liveConfig(), sprints, nil, zap.NewNop().Sugar())
	result := p.Load(context.Background())

	require.Equal(t, Live, result.Origin)
	for _, d := range result.Sprints[0].Developers {
		assert.False(t, d.HasAssist, d.Developer)
	}
}

func TestProvider_Load_Fallback(t *testing.T) {
	errJira := errors.New("jira is down")
	errSeats := errors.New("seat listing forbidden")

	testCases := []struct {
		name        string
		configure   func(cfg *config.Config)
		sprintErr   error
		seatErr     error
		noFetcher   bool
		expectedErr error
	}{
		{name: "jira not configured", noFetcher: true, configure: func(cfg *config.Config) { cfg.Jira.APIToken = "" }, expectedErr: ErrNotConfigured},
		{name: "sprint fetch fails", sprintErr: errJira, expectedErr: errJira},
		{name: "seat fetch fails", seatErr: errSeats, expectedErr: errSeats},
		{name: "usage file missing", configure: func(cfg *config.Config) { cfg.Source.UsageFile = filepath.Join(t.TempDir(), "nope.json") }, expectedErr: os.ErrNotExist},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := liveConfig()
			if tc.configure != nil {
				tc.configure(&cfg)
			}
			seats := new(mockSeatFetcher)
			if tc.seatErr != nil {
				seats.On("FetchSeatHolders", mock.Anything, "acme").Return(nil, tc.seatErr)
			} else {
				seats.On("FetchSeatHolders", mock.Anything, "acme").Return([]string{"schen"}, nil)
			}

			var p *Provider
			if tc.noFetcher {
				p = NewProvider(cfg, nil, seats, zap.NewNop().Sugar())
			} else {
				sprints := new(mockSprintFetcher)
				if tc.sprintErr != nil {
					sprints.On("FetchSprints", mock.Anything, mock.Anything).Return(nil, tc.sprintErr)
				} else {
					sprints.On("FetchSprints", mock.Anything, mock.Anything).Return(liveSprints(), nil)
				}
				p = NewProvider(cfg, sprints, seats, zap.NewNop().Sugar())
			}

			result := p.Load(context.Background())
			assert.Equal(t, Fallback, result.Origin)
			assert.ErrorIs(t, result.Reason, tc.expectedErr)
			assert.Contains(t, result.Warning(), "live data unavailable")
			assert.Equal(t, fixture.Sprints(), result.Sprints)
			assert.Equal(t, fixture.Usage(), result.Usage)
		})
	}
}

func TestProvider_Load_NotConfiguredNamesMissingSettings(t *testing.T) {
	cfg := liveConfig()
	cfg.Jira.Email = ""
	cfg.Jira.BoardID = ""

	result := NewProvider(cfg, nil, nil, zap.NewNop().Sugar()).Load(context.Background())
	require.Equal(t, Fallback, result.Origin)
	assert.Contains(t, result.Reason.Error(), "JIRA_EMAIL, JIRA_BOARD_ID")
}

func TestProvider_Load_NoUsableSprints(t *testing.T) {
	sprints := new(mockSprintFetcher)
	sprints.On("FetchSprints", mock.Anything, mock.Anything).Return(liveSprints()[1:], nil)

	result := NewProvider(liveConfig(), sprints, nil, zap.NewNop().Sugar()).Load(context.Background())
	assert.Equal(t, Fallback, result.Origin)
	assert.Contains(t, result.Reason.Error(), "no usable sprints")
}

func TestNew_LiveDisabledBuildsNoGateways(t *testing.T) {
	p := New(config.DefaultConfig(), nil, zap.NewNop().Sugar())
	assert.Nil(t, p.sprints)
	assert.Nil(t, p.seats)
}

func TestNew_BuildsConfiguredGateways(t *testing.T) {
	p := New(liveConfig(), nil, zap.NewNop().Sugar())
	assert.NotNil(t, p.sprints)
	assert.NotNil(t, p.seats)

	cfg := liveConfig()
	cfg.GitHub.Token = ""
	p = New(cfg, nil, zap.NewNop().Sugar())
	assert.NotNil(t, p.sprints)
	assert.Nil(t, p.seats)
}

func TestNew_ReusesCachedJiraResponsesAcrossLoads(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/agile/1.0/board/7/sprint":
			fmt.Fprint(w, `{"isLast": true, "values": [{"id": 23, "state": "closed", "name": "Sprint 23", "startDate": "2024-01-01T09:00:00.000Z", "endDate": "2024-01-14T17:00:00.000Z"}]}`)
		case "/rest/agile/1.0/sprint/23/issue":
			fmt.Fprint(w, `{"startAt": 0, "maxResults": 100, "total": 1, "issues": [{"key": "P-1", "fields": {"status": {"name": "Done"}, "assignee": {"displayName": "Sarah Chen"}, "customfield_10016": 5}}]}`)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := liveConfig()
	cfg.Jira.BaseURL = server.URL
	cfg.Jira.StoryPointsField = "customfield_10016"
	cfg.GitHub.Token = ""
	p := New(cfg, cache.New(nil), zap.NewNop().Sugar())

	first := p.Load(context.Background())
	require.Equal(t, Live, first.Origin, "%v", first.Reason)
	require.Len(t, first.Sprints, 1)
	assert.Equal(t, 5.0, first.Sprints[0].CompletedPoints)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	second := p.Load(context.Background())
	require.Equal(t, Live, second.Origin)
	assert.Equal(t, first.Sprints, second.Sprints)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "the second load is served from the cache")
}
