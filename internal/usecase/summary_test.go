package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/org-watch/internal/domain"
)

func TestSummarize(t *testing.T) {
	snapshot := domain.Snapshot{
		"acme/repo-a": {
			Stargazers: []string{"a", "b", "c", "d"},
			Forkers:    []string{"e"},
			Watchers:   []string{"f", "g"},
			Dependents: []string{"x/one", "x/two"},
		},
		"acme/repo-b": {
			Stargazers: []string{"h", "i"},
		},
		"acme/repo-c": {},
	}

	summary, err := Summarize(snapshot)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Repos)
	assert.Equal(t, 6, summary.TotalStars)
	assert.Equal(t, 1, summary.TotalForks)
	assert.Equal(t, 2, summary.TotalWatchers)
	assert.Equal(t, 2, summary.TotalDependents)
	assert.InDelta(t, 2.0, summary.MeanStars, 1e-9)
	assert.InDelta(t, 2.0, summary.MedianStars, 1e-9)
	assert.Equal(t, "acme/repo-a", summary.TopRepo)
}

func TestSummarize_Empty(t *testing.T) {
	summary, err := Summarize(domain.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, &Summary{}, summary)
}

func TestSummarize_SingleRepo(t *testing.T) {
	summary, err := Summarize(domain.Snapshot{
		"acme/only": {Stargazers: []string{"a", "b", "c"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalStars)
	assert.InDelta(t, 3.0, summary.MeanStars, 1e-9)
	assert.InDelta(t, 3.0, summary.P90Stars, 1e-9)
}
