package usecase

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/netresearch/org-watch/internal/domain"
)

// Summary holds org-wide totals and star-count distribution figures computed
// from a persisted snapshot.
type Summary struct {
	Repos           int     `json:"repos"`
	TotalStars      int     `json:"total_stars"`
	TotalForks      int     `json:"total_forks"`
	TotalWatchers   int     `json:"total_watchers"`
	TotalDependents int     `json:"total_dependents"`
	MeanStars       float64 `json:"mean_stars"`
	MedianStars     float64 `json:"median_stars"`
	P90Stars        float64 `json:"p90_stars"`
	TopRepo         string  `json:"top_repo,omitempty"`
}

// Summarize computes the summary of a snapshot. An empty snapshot yields a
// zero summary.
func Summarize(snapshot domain.Snapshot) (*Summary, error) {
	summary := &Summary{Repos: len(snapshot)}
	if len(snapshot) == 0 {
		return summary, nil
	}

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	starCounts := make([]float64, 0, len(snapshot))
	topStars := -1
	for _, name := range names {
		metrics := snapshot[name]
		summary.TotalStars += len(metrics.Stargazers)
		summary.TotalForks += len(metrics.Forkers)
		summary.TotalWatchers += len(metrics.Watchers)
		summary.TotalDependents += len(metrics.Dependents)
		starCounts = append(starCounts, float64(len(metrics.Stargazers)))
		if len(metrics.Stargazers) > topStars {
			topStars = len(metrics.Stargazers)
			summary.TopRepo = name
		}
	}

	var err error
	if summary.MeanStars, err = stats.Mean(starCounts); err != nil {
		return nil, fmt.Errorf("failed to compute mean: %w", err)
	}
	if summary.MedianStars, err = stats.Median(starCounts); err != nil {
		return nil, fmt.Errorf("failed to compute median: %w", err)
	}
	// stats.Percentile rejects single-element inputs.
	if len(starCounts) == 1 {
		summary.P90Stars = starCounts[0]
	} else if summary.P90Stars, err = stats.Percentile(starCounts, 90); err != nil {
		return nil, fmt.Errorf("failed to compute percentile: %w", err)
	}
	return summary, nil
}
