// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/netresearch/org-watch/internal/domain"
	"github.com/netresearch/org-watch/internal/gateway"
	"github.com/netresearch/org-watch/internal/notify"
	"github.com/netresearch/org-watch/internal/store"
)

// Report summarizes one differ run. Per-repository fetch failures and
// notification delivery failures are counted, not fatal.
type Report struct {
	Bootstrap        bool           `json:"bootstrap"`
	ReposSeen        int            `json:"repos_seen"`
	ReposSkipped     int            `json:"repos_skipped"`
	EventsEmitted    int            `json:"events_emitted"`
	DeliveriesFailed int            `json:"deliveries_failed"`
	Events           []domain.Event `json:"events,omitempty"`
}

// Differ is the use case for one scheduled run: fetch current metrics for
// every repository, diff against the stored snapshot, notify new entries and
// persist the replacement snapshot.
type Differ struct {
	fetcher     gateway.Fetcher
	store       store.Store
	notifier    notify.Notifier
	logger      *log.Logger
	concurrency int

	// DryRun computes the diff but skips delivery and persistence.
	DryRun bool
}

// NewDiffer creates a new Differ instance. Concurrency bounds the number of
// repositories whose metrics are fetched in parallel.
func NewDiffer(fetcher gateway.Fetcher, st store.Store, notifier notify.Notifier, concurrency int, logger *log.Logger) *Differ {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Differ{
		fetcher:     fetcher,
		store:       st,
		notifier:    notifier,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run performs one complete run. It is fatal if the prior snapshot cannot be
// loaded, the organization cannot be listed, or the new snapshot cannot be
// persisted; everything else is logged and skipped.
func (d *Differ) Run(ctx context.Context, org string) (*Report, error) {
	d.logger.Println("Usecase: Starting snapshot diff run...")

	prev, err := d.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load prior snapshot: %w", err)
	}
	bootstrap := prev == nil
	if bootstrap {
		d.logger.Println("No prior snapshot found; bootstrap run, notifications suppressed.")
		prev = domain.Snapshot{}
	}

	repos, err := d.fetcher.ListRepositories(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	observations, skipped := d.fetchAll(ctx, repos)

	// Assemble the replacement snapshot as one consistent batch: fresh data
	// for every fetched repository, the prior entry carried forward for
	// repositories whose fetch failed this run.
	next := make(domain.Snapshot, len(repos))
	for _, obs := range observations {
		next[obs.Repo.FullName] = obs.Metrics()
	}
	for _, repo := range skipped {
		if known, ok := prev[repo.FullName]; ok {
			next[repo.FullName] = known
		}
	}

	report := &Report{
		Bootstrap:    bootstrap,
		ReposSeen:    len(observations),
		ReposSkipped: len(skipped),
	}

	if !bootstrap {
		report.Events = domain.Diff(prev, observations)
		report.EventsEmitted = len(report.Events)
		report.DeliveriesFailed = d.deliver(ctx, report.Events)
	}

	if d.DryRun {
		d.logger.Println("Dry run: snapshot not persisted.")
		return report, nil
	}
	if err := d.store.Save(next); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}
	d.logger.Printf("Usecase: Run complete (%d events, %d repos skipped).", report.EventsEmitted, report.ReposSkipped)
	return report, nil
}

// fetchAll fetches metrics for all repositories with bounded parallelism.
// A failed fetch is logged and the repository reported as skipped; it never
// aborts the remaining repositories.
func (d *Differ) fetchAll(ctx context.Context, repos []domain.Repo) ([]domain.RepoObservation, []domain.Repo) {
	results := make([]*domain.RepoObservation, len(repos))
	errs := make([]error, len(repos))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(d.concurrency)
	for i, repo := range repos {
		i, repo := i, repo
		eg.Go(func() error {
			obs, err := d.fetcher.FetchMetrics(egCtx, repo)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = &obs
			return nil
		})
	}
	// Goroutines only record errors, so Wait cannot fail.
	_ = eg.Wait()

	var observations []domain.RepoObservation
	var skipped []domain.Repo
	for i, repo := range repos {
		if errs[i] != nil {
			d.logger.Printf("Skipping %s this run: %v", repo.FullName, errs[i])
			skipped = append(skipped, repo)
			continue
		}
		observations = append(observations, *results[i])
	}
	return observations, skipped
}

// deliver sends each event in order. Failures are logged and counted; there
// is no in-run retry, the snapshot persists regardless (at-most-once).
func (d *Differ) deliver(ctx context.Context, events []domain.Event) int {
	if d.DryRun {
		return 0
	}
	failed := 0
	for _, event := range events {
		if err := d.notifier.Notify(ctx, event); err != nil {
			d.logger.Printf("Failed to deliver %s event for %s: %v", event.Kind, event.Repo.FullName, err)
			failed++
		}
	}
	return failed
}
