package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/copilot-velocity/internal/cache"
	"github.com/naka-gawa/copilot-velocity/internal/config"
	"github.com/naka-gawa/copilot-velocity/internal/domain"
)

var (
	// ErrNoClosedSprints is returned when the board has no closed sprints to analyse.
	ErrNoClosedSprints = errors.New("no closed sprints found")
	// ErrStoryPointsField is returned when the estimate field cannot be determined.
	ErrStoryPointsField = errors.New("could not determine story points field")
)

// Cache lifetimes per resource kind.
const (
	SprintDataTTL  = 5 * time.Minute
	BoardConfigTTL = time.Hour
	FieldsTTL      = time.Hour
	BoardsTTL      = 30 * time.Minute
)

// DefaultRetryInterval is the first backoff wait after a transient failure.
const DefaultRetryInterval = 500 * time.Millisecond

const (
	sprintPageSize = 50
	boardPageSize  = 50
	issuePageSize  = 100
	maxPages       = 10
	issueFetchers  = 4
)

var storyPointsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)story\s*points?`),
	regexp.MustCompile(`(?i)story\s*point\s*estimate`),
	regexp.MustCompile(`(?i)points?`),
	regexp.MustCompile(`(?i)estimate`),
}

// SprintFetcher defines the behavior of a gateway for fetching closed sprints.
type SprintFetcher interface {
	FetchSprints(ctx context.Context, assisted func(developer string) bool) ([]domain.SprintRecord, error)
}

// StatusError reports a non-2xx response. The body is never included since it
// may echo request details.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jira API request failed: %s: %d %s", e.Path, e.Code, http.StatusText(e.Code))
}

// JiraGateway is the concrete implementation of the SprintFetcher interface.
type JiraGateway struct {
	client        *jira.Client
	boardID       int
	pointsField   string
	recentSprints int

	httpClient    *http.Client
	cache         *cache.Cache
	maxRetries    int
	retryInterval time.Duration
	logger        *zap.SugaredLogger
}

// JiraOption customises a JiraGateway.
type JiraOption func(*JiraGateway)

// WithHTTPClient replaces the client whose transport carries the authenticated requests.
func WithHTTPClient(c *http.Client) JiraOption {
	return func(g *JiraGateway) { g.httpClient = c }
}

// WithRetry sets the retry budget and initial backoff interval for transient failures.
func WithRetry(maxRetries int, initial time.Duration) JiraOption {
	return func(g *JiraGateway) {
		g.maxRetries = maxRetries
		g.retryInterval = initial
	}
}

// NewJiraGateway is a constructor that creates a new instance of JiraGateway.
// The cache is owned by the caller so it can be shared and purged.
func NewJiraGateway(cfg config.JiraConfig, c *cache.Cache, logger *zap.SugaredLogger, opts ...JiraOption) (*JiraGateway, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid Jira base URL %q", cfg.BaseURL)
	}
	var boardID int
	if cfg.BoardID != "" {
		if boardID, err = strconv.Atoi(cfg.BoardID); err != nil {
			return nil, fmt.Errorf("invalid Jira board ID %q", cfg.BoardID)
		}
	}
	if c == nil {
		c = cache.New(nil)
	}
	g := &JiraGateway{
		boardID:       boardID,
		pointsField:   cfg.StoryPointsField,
		recentSprints: cfg.RecentSprints,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		cache:         c,
		maxRetries:    3,
		retryInterval: DefaultRetryInterval,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(g)
	}

	auth := &jira.BasicAuthTransport{
		Username:  cfg.Email,
		Password:  cfg.APIToken,
		Transport: g.httpClient.Transport,
	}
	httpClient := auth.Client()
	httpClient.Timeout = g.httpClient.Timeout
	if g.client, err = jira.NewClient(httpClient, base.String()); err != nil {
		return nil, fmt.Errorf("failed to create Jira client: %w", err)
	}
	return g, nil
}

// FetchSprints returns the most recent closed sprints of the configured board,
// oldest first, with per-developer metrics.
func (g *JiraGateway) FetchSprints(ctx context.Context, assisted func(string) bool) ([]domain.SprintRecord, error) {
	field := g.pointsField
	if field == "" {
		var err error
		if field, err = g.StoryPointsField(ctx, g.boardID); err != nil {
			return nil, err
		}
	}

	all, err := g.ListSprints(ctx, g.boardID)
	if err != nil {
		return nil, err
	}
	recent := RecentClosed(all, g.recentSprints)
	if len(recent) == 0 {
		return nil, ErrNoClosedSprints
	}
	g.logger.Debugw("fetching sprint issues", "board", g.boardID, "sprints", len(recent), "field", field)

	records := make([]domain.SprintRecord, len(recent))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(issueFetchers)
	for i, sprint := range recent {
		eg.Go(func() error {
			raw, err := g.SprintIssues(egCtx, sprint.ID)
			if err != nil {
				return err
			}
			issues := make([]Issue, 0, len(raw))
			for _, r := range raw {
				issues = append(issues, toIssue(r, field, sprint.Name))
			}
			records[i] = BuildSprintRecord(sprint, issues, assisted)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	g.logger.Debugw("fetched sprints", "count", len(records))
	return records, nil
}

// ListBoards returns every board visible to the configured account.
func (g *JiraGateway) ListBoards(ctx context.Context) ([]Board, error) {
	var boards []Board
	for page, startAt := 0, 0; page < maxPages; page++ {
		key := fmt.Sprintf("boards:%d", startAt)
		list, err := cache.Fetch(g.cache, key, BoardsTTL, func() (*jira.BoardsList, error) {
			var list *jira.BoardsList
			err := g.retry(ctx, "boards", func() (*jira.Response, error) {
				var resp *jira.Response
				var err error
				list, resp, err = g.client.Board.GetAllBoardsWithContext(ctx, &jira.BoardListOptions{
					SearchOptions: jira.SearchOptions{StartAt: startAt, MaxResults: boardPageSize},
				})
				return resp, err
			})
			return list, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list boards: %w", err)
		}
		for _, b := range list.Values {
			boards = append(boards, Board{ID: b.ID, Name: b.Name, Type: b.Type})
		}
		if list.IsLast || len(list.Values) < boardPageSize {
			break
		}
		startAt += boardPageSize
	}
	return boards, nil
}

// ClearCache drops cached responses whose key contains pattern, or all of them
// when pattern is empty.
func (g *JiraGateway) ClearCache(pattern string) {
	g.cache.Purge(pattern)
}

// ListSprints returns every sprint of a board, following pagination.
func (g *JiraGateway) ListSprints(ctx context.Context, boardID int) ([]jira.Sprint, error) {
	var sprints []jira.Sprint
	for page, startAt := 0, 0; page < maxPages; page++ {
		key := fmt.Sprintf("sprints:%d:%d", boardID, startAt)
		list, err := cache.Fetch(g.cache, key, SprintDataTTL, func() (*jira.SprintsList, error) {
			var list *jira.SprintsList
			err := g.retry(ctx, "sprints", func() (*jira.Response, error) {
				var resp *jira.Response
				var err error
				list, resp, err = g.client.Board.GetAllSprintsWithOptionsWithContext(ctx, boardID, &jira.GetAllSprintsOptions{
					SearchOptions: jira.SearchOptions{StartAt: startAt, MaxResults: sprintPageSize},
				})
				return resp, err
			})
			return list, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list sprints: %w", err)
		}
		sprints = append(sprints, list.Values...)
		if list.IsLast || len(list.Values) < sprintPageSize {
			break
		}
		startAt += sprintPageSize
	}
	return sprints, nil
}

// SprintIssues returns every issue of a sprint, following pagination.
func (g *JiraGateway) SprintIssues(ctx context.Context, sprintID int) ([]jira.Issue, error) {
	var issues []jira.Issue
	for page, startAt := 0, 0; page < maxPages; page++ {
		key := fmt.Sprintf("sprint-issues:%d:%d", sprintID, startAt)
		path := fmt.Sprintf("rest/agile/1.0/sprint/%d/issue?startAt=%d&maxResults=%d", sprintID, startAt, issuePageSize)
		resp, err := cache.Fetch(g.cache, key, SprintDataTTL, func() (jiraIssuePage, error) {
			var p jiraIssuePage
			err := g.get(ctx, path, &p)
			return p, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch issues for sprint %d: %w", sprintID, err)
		}
		issues = append(issues, resp.Issues...)
		if len(resp.Issues) < issuePageSize || startAt+len(resp.Issues) >= resp.Total {
			break
		}
		startAt += issuePageSize
	}
	return issues, nil
}

// StoryPointsField reads the estimation field from the board configuration and
// falls back to matching custom field names.
func (g *JiraGateway) StoryPointsField(ctx context.Context, boardID int) (string, error) {
	key := fmt.Sprintf("board-config:%d", boardID)
	cfg, err := cache.Fetch(g.cache, key, BoardConfigTTL, func() (jiraBoardConfiguration, error) {
		var c jiraBoardConfiguration
		err := g.get(ctx, fmt.Sprintf("rest/agile/1.0/board/%d/configuration", boardID), &c)
		return c, err
	})
	if err != nil {
		g.logger.Debugw("board configuration unavailable, detecting field", "board", boardID, "error", err)
	} else if cfg.Estimation != nil && cfg.Estimation.Field != nil && cfg.Estimation.Field.FieldID != "" {
		return cfg.Estimation.Field.FieldID, nil
	}
	return g.detectStoryPointsField(ctx)
}

// Fields returns every field definition of the Jira instance.
func (g *JiraGateway) Fields(ctx context.Context) ([]jira.Field, error) {
	return cache.Fetch(g.cache, "fields", FieldsTTL, func() ([]jira.Field, error) {
		var fields []jira.Field
		err := g.retry(ctx, "fields", func() (*jira.Response, error) {
			var resp *jira.Response
			var err error
			fields, resp, err = g.client.Field.GetListWithContext(ctx)
			return resp, err
		})
		return fields, err
	})
}

func (g *JiraGateway) detectStoryPointsField(ctx context.Context) (string, error) {
	fields, err := g.Fields(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStoryPointsField, err)
	}
	for _, pattern := range storyPointsPatterns {
		for _, f := range fields {
			if f.Custom && pattern.MatchString(f.Name) {
				return f.ID, nil
			}
		}
	}
	return "", ErrStoryPointsField
}

// get decodes a GET of a path relative to the Jira base URL into out, for
// endpoints the client's services do not model.
func (g *JiraGateway) get(ctx context.Context, path string, out any) error {
	return g.retry(ctx, path, func() (*jira.Response, error) {
		req, err := g.client.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return g.client.Do(req, out)
	})
}

// retry runs a Jira call with exponential backoff. Transport errors, 429 and 5xx
// responses are retried; other failures are permanent.
func (g *JiraGateway) retry(ctx context.Context, what string, call func() (*jira.Response, error)) error {
	op := func() error {
		resp, err := call()
		if err == nil {
			return nil
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}
		if resp == nil || resp.Response == nil {
			return fmt.Errorf("jira request %s: %w", what, err)
		}
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		switch code := resp.StatusCode; {
		case code == http.StatusTooManyRequests || code >= 500:
			return &StatusError{Path: what, Code: code}
		case code >= 400:
			return backoff.Permanent(&StatusError{Path: what, Code: code})
		}
		return backoff.Permanent(fmt.Errorf("decoding %s: %w", what, err))
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.retryInterval
	retries := uint64(0)
	if g.maxRetries > 0 {
		retries = uint64(g.maxRetries)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		g.logger.Debugw("retrying Jira request", "request", what, "wait", wait, "error", err)
	})
}
