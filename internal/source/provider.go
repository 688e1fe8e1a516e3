// Package source supplies sprint and usage records to the aggregator, either live
// from Jira and GitHub or from the static fixture set.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/copilot-velocity/internal/cache"
	"github.com/naka-gawa/copilot-velocity/internal/config"
	"github.com/naka-gawa/copilot-velocity/internal/domain"
	"github.com/naka-gawa/copilot-velocity/internal/fixture"
	"github.com/naka-gawa/copilot-velocity/internal/gateway"
)

// ErrNotConfigured is the fallback reason when live data is requested without Jira settings.
var ErrNotConfigured = errors.New("jira configuration is incomplete")

// Origin tags where a Result's records came from.
type Origin string

const (
	// Live records were fetched from the remote services.
	Live Origin = "live"
	// Fallback records are the fixture set, substituted after a live failure.
	Fallback Origin = "fallback"
	// Fixture records are the fixture set because live data is disabled.
	Fixture Origin = "fixture"
)

// Result is the outcome of a load. Reason is set only when Origin is Fallback.
type Result struct {
	Origin  Origin
	Sprints []domain.SprintRecord
	Usage   []domain.UsageRecord
	Reason  error
}

// Warning returns a message suitable for surfacing to users, or "".
func (r Result) Warning() string {
	if r.Origin != Fallback || r.Reason == nil {
		return ""
	}
	return "live data unavailable, showing sample data: " + r.Reason.Error()
}

// Provider loads records. It never returns an error: failures become a Fallback result.
type Provider struct {
	cfg     config.Config
	sprints gateway.SprintFetcher
	seats   gateway.SeatFetcher
	logger  *zap.SugaredLogger
}

// NewProvider wires a provider from explicit fetchers. Either fetcher may be nil:
// a nil sprint fetcher makes live loads fall back, a nil seat fetcher marks nobody as assisted.
func NewProvider(cfg config.Config, sprints gateway.SprintFetcher, seats gateway.SeatFetcher, logger *zap.SugaredLogger) *Provider {
	return &Provider{cfg: cfg, sprints: sprints, seats: seats, logger: logger}
}

// New builds the gateways described by cfg. The Jira gateway reads through c, so a
// Provider kept alive across loads (a long-running service, say) reuses sprint,
// issue and field responses until their TTLs expire.
func New(cfg config.Config, c *cache.Cache, logger *zap.SugaredLogger) *Provider {
	p := &Provider{cfg: cfg, logger: logger}
	if !cfg.Source.Live {
		return p
	}
	if len(cfg.Jira.Missing()) == 0 {
		jira, err := gateway.NewJiraGateway(cfg.Jira, c, logger,
			gateway.WithRetry(cfg.Source.MaxRetries, gateway.DefaultRetryInterval))
		if err != nil {
			logger.Warnw("jira gateway unavailable", "error", err)
		} else {
			p.sprints = jira
		}
	}
	if cfg.GitHub.Enabled() {
		gh, err := gateway.NewGitHubGateway(cfg.GitHub.Token, logger)
		if err != nil {
			logger.Warnw("github gateway unavailable", "error", err)
		} else {
			p.seats = gh
		}
	}
	return p
}

// Load returns live records when enabled and reachable, otherwise the fixture set.
func (p *Provider) Load(ctx context.Context) Result {
	if !p.cfg.Source.Live {
		p.logger.Debug("live data disabled, using fixture data")
		return Result{Origin: Fixture, Sprints: fixture.Sprints(), Usage: fixture.Usage()}
	}

	result, err := p.loadLive(ctx)
	if err != nil {
		p.logger.Warnw("falling back to fixture data", "reason", err)
		return Result{Origin: Fallback, Sprints: fixture.Sprints(), Usage: fixture.Usage(), Reason: err}
	}
	return result
}

func (p *Provider) loadLive(ctx context.Context) (Result, error) {
	if p.sprints == nil {
		missing := p.cfg.Jira.Missing()
		if len(missing) == 0 {
			return Result{}, ErrNotConfigured
		}
		return Result{}, fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}

	if timeout := p.cfg.Source.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var assisted map[string]bool
	usage := []domain.UsageRecord{}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		assisted, err = p.assistedDevelopers(egCtx)
		return err
	})
	if path := p.cfg.Source.UsageFile; path != "" {
		eg.Go(func() error {
			var err error
			usage, err = LoadUsageFile(path)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	records, err := p.sprints.FetchSprints(ctx, func(dev string) bool { return assisted[dev] })
	if err != nil {
		return Result{}, err
	}

	valid := make([]domain.SprintRecord, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			p.logger.Warnw("skipping sprint", "sprint", r.Name, "error", err)
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return Result{}, fmt.Errorf("no usable sprints among %d fetched", len(records))
	}
	p.logger.Debugw("loaded live data", "sprints", len(valid), "usage_records", len(usage))
	return Result{Origin: Live, Sprints: valid, Usage: usage}, nil
}

// assistedDevelopers returns the display names of seat holders. Configured login
// mappings take precedence over profile lookups.
func (p *Provider) assistedDevelopers(ctx context.Context) (map[string]bool, error) {
	assisted := make(map[string]bool)
	if p.seats == nil {
		p.logger.Warn("github is not configured, no developer is marked as assisted")
		return assisted, nil
	}

	logins, err := p.seats.FetchSeatHolders(ctx, p.cfg.GitHub.Org)
	if err != nil {
		return nil, err
	}

	var unresolved []string
	for _, login := range logins {
		if name, ok := p.cfg.GitHub.Developers[login]; ok {
			assisted[name] = true
			continue
		}
		unresolved = append(unresolved, login)
	}
	if len(unresolved) > 0 {
		for _, name := range p.seats.ResolveNames(ctx, unresolved) {
			assisted[name] = true
		}
	}
	return assisted, nil
}
