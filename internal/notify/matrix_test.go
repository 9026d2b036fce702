package notify

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/org-watch/internal/domain"
)

func TestMatrixNotifier_Notify(t *testing.T) {
	var received payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewMatrixNotifier(server.URL, log.New(io.Discard, "", 0))
	event := domain.Event{
		Kind:       domain.EventStar,
		Repo:       domain.Repo{Name: "repo-a", FullName: "acme/repo-a", URL: "https://github.com/acme/repo-a"},
		Actor:      "bob",
		TotalCount: 12,
	}

	err := notifier.Notify(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, "⭐ [bob](https://github.com/bob) starred [repo-a](https://github.com/acme/repo-a) (12 ⭐)", received.Text)
	assert.Equal(t, "https://github.com/bob.png", received.AvatarURL)
	assert.Equal(t, "bob", received.DisplayName)
}

func TestMatrixNotifier_NotifyErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	notifier := NewMatrixNotifier(server.URL, log.New(io.Discard, "", 0))

	err := notifier.Notify(context.Background(), domain.Event{Kind: domain.EventStar})
	assert.ErrorContains(t, err, "403")
}

func TestFormatEvent(t *testing.T) {
	repo := domain.Repo{Name: "repo-a", FullName: "acme/repo-a", URL: "https://github.com/acme/repo-a"}

	testCases := []struct {
		name     string
		event    domain.Event
		expected string
	}{
		{
			name:     "fork",
			event:    domain.Event{Kind: domain.EventFork, Repo: repo, Actor: "carol", TotalCount: 5},
			expected: "🍴 [carol](https://github.com/carol) forked [repo-a](https://github.com/acme/repo-a) (5 🍴)",
		},
		{
			name:     "watch",
			event:    domain.Event{Kind: domain.EventWatch, Repo: repo, Actor: "dave", TotalCount: 3},
			expected: "👀 [dave](https://github.com/dave) is now watching [repo-a](https://github.com/acme/repo-a) (3 👀)",
		},
		{
			name: "dependent carries star and fork counts",
			event: domain.Event{
				Kind:  domain.EventDependent,
				Repo:  repo,
				Actor: "other/consumer",
				Dependent: &domain.Dependent{
					FullName: "other/consumer",
					URL:      "https://github.com/other/consumer",
					Stars:    42,
					Forks:    7,
				},
			},
			expected: "📦 [other/consumer](https://github.com/other/consumer) now depends on [repo-a](https://github.com/acme/repo-a) (⭐ 42 · 🍴 7)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, formatEvent(tc.event))
		})
	}
}
