// Package notify delivers notification events to a Matrix webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/netresearch/org-watch/internal/domain"
)

// Notifier delivers one event as a human-readable message.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event) error
}

// MatrixNotifier posts events to a Matrix webhook endpoint.
type MatrixNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *log.Logger
}

// payload is the webhook's expected body.
type payload struct {
	Text        string `json:"text"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	DisplayName string `json:"displayName"`
}

// NewMatrixNotifier creates a notifier posting to the given webhook URL.
func NewMatrixNotifier(webhookURL string, logger *log.Logger) *MatrixNotifier {
	return &MatrixNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Notify posts one message. Failures are returned to the caller, which logs
// and moves on; delivery is at-most-once by design.
func (n *MatrixNotifier) Notify(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(payload{
		Text:        formatEvent(event),
		AvatarURL:   avatarURL(event),
		DisplayName: event.Actor,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	n.logger.Printf("Notified: %s %s %s", event.Actor, event.Kind, event.Repo.FullName)
	return nil
}

// formatEvent renders the chat message for one event.
func formatEvent(event domain.Event) string {
	repoLink := fmt.Sprintf("[%s](%s)", event.Repo.Name, event.Repo.URL)
	switch event.Kind {
	case domain.EventFork:
		return fmt.Sprintf("🍴 %s forked %s (%d 🍴)", actorLink(event.Actor), repoLink, event.TotalCount)
	case domain.EventWatch:
		return fmt.Sprintf("👀 %s is now watching %s (%d 👀)", actorLink(event.Actor), repoLink, event.TotalCount)
	case domain.EventDependent:
		dep := event.Dependent
		return fmt.Sprintf("📦 [%s](%s) now depends on %s (⭐ %d · 🍴 %d)",
			dep.FullName, dep.URL, repoLink, dep.Stars, dep.Forks)
	default:
		return fmt.Sprintf("⭐ %s starred %s (%d ⭐)", actorLink(event.Actor), repoLink, event.TotalCount)
	}
}

func actorLink(login string) string {
	return fmt.Sprintf("[%s](https://github.com/%s)", login, login)
}

func avatarURL(event domain.Event) string {
	if event.Kind == domain.EventDependent {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s.png", event.Actor)
}
