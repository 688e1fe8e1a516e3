// Package gateway provides gateways to the Jira and GitHub APIs,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// SeatFetcher defines the behavior of a gateway for fetching assistant seat data from GitHub.
type SeatFetcher interface {
	FetchSeatHolders(ctx context.Context, org string) ([]string, error)
	ResolveNames(ctx context.Context, logins []string) map[string]string
}

// GitHubGateway is the concrete implementation of the SeatFetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *zap.SugaredLogger
}

// userNameQuery looks up the profile name of a single login.
type userNameQuery struct {
	User struct {
		Login githubv4.String
		Name  githubv4.String
	} `graphql:"user(login: $login)"`
}

// nameLookupConcurrency bounds parallel GraphQL lookups.
const nameLookupConcurrency = 4

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *zap.SugaredLogger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// FetchSeatHolders returns the logins of every user holding a Copilot seat in org.
// Seats assigned to teams or organizations are skipped.
func (g *GitHubGateway) FetchSeatHolders(ctx context.Context, org string) ([]string, error) {
	g.logger.Debugw("fetching Copilot seats", "org", org)
	opts := &github.ListOptions{PerPage: 100}
	var logins []string
	for {
		result, resp, err := g.restClient.Copilot.ListCopilotSeats(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list Copilot seats: %w", err)
		}
		for _, seat := range result.Seats {
			user, ok := seat.GetUser()
			if !ok || user.GetLogin() == "" {
				continue
			}
			logins = append(logins, user.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debug("fetching next page of Copilot seats")
	}
	g.logger.Debugw("fetched Copilot seats", "org", org, "users", len(logins))
	return logins, nil
}

// ResolveNames maps logins to profile names. Lookups that fail or return
// an empty name map the login to itself.
func (g *GitHubGateway) ResolveNames(ctx context.Context, logins []string) map[string]string {
	names := make(map[string]string, len(logins))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(nameLookupConcurrency)
	for _, login := range logins {
		eg.Go(func() error {
			name := login
			var q userNameQuery
			variables := map[string]interface{}{"login": githubv4.String(login)}
			if err := g.graphqlClient.Query(egCtx, &q, variables); err != nil {
				g.logger.Debugw("name lookup failed, using login", "login", login, "error", err)
			} else if n := string(q.User.Name); n != "" {
				name = n
			}
			mu.Lock()
			names[login] = name
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return names
}
