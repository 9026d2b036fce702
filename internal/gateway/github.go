// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/netresearch/org-watch/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// ListRepositories returns all public, non-archived repositories of the
	// organization.
	ListRepositories(ctx context.Context, org string) ([]domain.Repo, error)
	// FetchMetrics returns the current stargazer, forker, watcher and
	// dependent sets of one repository.
	FetchMetrics(ctx context.Context, repo domain.Repo) (domain.RepoObservation, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	htmlClient    *http.Client
	// htmlBaseURL is where the dependency-graph dependents pages live.
	// Dependents have no JSON API, so they are read from the rendered page.
	htmlBaseURL string
	logger      *log.Logger
}

// watchersQuery pages through a repository's watchers connection.
type watchersQuery struct {
	Repository struct {
		Watchers struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Login string
			}
		} `graphql:"watchers(first: 100, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
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
		htmlClient:    &http.Client{Timeout: 30 * time.Second},
		htmlBaseURL:   "https://github.com",
		logger:        logger,
	}, nil
}

// ListRepositories enumerates the organization's public repositories,
// following pagination without a page limit. Archived repositories are
// filtered out.
func (g *GitHubGateway) ListRepositories(ctx context.Context, org string) ([]domain.Repo, error) {
	g.logger.Printf("Listing public repositories for org %s...", org)
	opts := &github.RepositoryListByOrgOptions{
		Type:        "public",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var repos []domain.Repo
	for {
		page, resp, err := g.restClient.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories for org %s: %w", org, err)
		}
		for _, r := range page {
			if r.GetArchived() {
				continue
			}
			repos = append(repos, domain.Repo{
				Name:     r.GetName(),
				FullName: r.GetFullName(),
				URL:      r.GetHTMLURL(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of repositories...")
	}
	g.logger.Printf("Found %d repositories.", len(repos))
	return repos, nil
}

// FetchMetrics fetches all four tracked sets for one repository.
func (g *GitHubGateway) FetchMetrics(ctx context.Context, repo domain.Repo) (domain.RepoObservation, error) {
	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return domain.RepoObservation{}, err
	}

	obs := domain.RepoObservation{Repo: repo}

	if obs.Stargazers, err = g.fetchStargazers(ctx, owner, name); err != nil {
		return domain.RepoObservation{}, err
	}
	if obs.Forkers, err = g.fetchForkers(ctx, owner, name); err != nil {
		return domain.RepoObservation{}, err
	}
	if obs.Watchers, err = g.fetchWatchers(ctx, owner, name); err != nil {
		return domain.RepoObservation{}, err
	}
	if obs.Dependents, err = g.fetchDependents(ctx, repo.FullName); err != nil {
		return domain.RepoObservation{}, err
	}
	return obs, nil
}

func (g *GitHubGateway) fetchStargazers(ctx context.Context, owner, name string) ([]string, error) {
	opts := &github.ListOptions{PerPage: 100}
	var logins []string
	for {
		stargazers, resp, err := g.restClient.Activity.ListStargazers(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list stargazers of %s/%s: %w", owner, name, err)
		}
		for _, s := range stargazers {
			if login := s.GetUser().GetLogin(); login != "" {
				logins = append(logins, login)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return logins, nil
}

func (g *GitHubGateway) fetchForkers(ctx context.Context, owner, name string) ([]string, error) {
	opts := &github.RepositoryListForksOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var logins []string
	for {
		forks, resp, err := g.restClient.Repositories.ListForks(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list forks of %s/%s: %w", owner, name, err)
		}
		for _, f := range forks {
			if login := f.GetOwner().GetLogin(); login != "" {
				logins = append(logins, login)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return logins, nil
}

func (g *GitHubGateway) fetchWatchers(ctx context.Context, owner, name string) ([]string, error) {
	variables := map[string]interface{}{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(name),
		"cursor": (*githubv4.String)(nil),
	}
	var logins []string
	for {
		var q watchersQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for watchers of %s/%s: %w", owner, name, err)
		}
		for _, node := range q.Repository.Watchers.Nodes {
			logins = append(logins, node.Login)
		}
		if !q.Repository.Watchers.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Repository.Watchers.PageInfo.EndCursor)
	}
	return logins, nil
}

var (
	dependentRowRE   = regexp.MustCompile(`(?s)<div class="Box-row[^"]*">.*?</div>`)
	dependentRepoRE  = regexp.MustCompile(`data-hovercard-type="repository"[^>]*href="/([^/"]+/[^/"]+)"`)
	dependentStarRE  = regexp.MustCompile(`(?s)octicon-star[^>]*>.*?</svg>\s*([\d,]+)`)
	dependentForkRE  = regexp.MustCompile(`(?s)octicon-repo-forked[^>]*>.*?</svg>\s*([\d,]+)`)
	dependentsNextRE = regexp.MustCompile(`<a[^>]*href="([^"]+)"[^>]*>\s*Next`)
)

// fetchDependents reads the repository's dependents from the dependency
// graph page. The platform exposes no JSON API for reverse dependencies, so
// the server-rendered list is parsed directly, following the Next cursor.
func (g *GitHubGateway) fetchDependents(ctx context.Context, fullName string) ([]domain.Dependent, error) {
	url := fmt.Sprintf("%s/%s/network/dependents", g.htmlBaseURL, fullName)
	var dependents []domain.Dependent
	for url != "" {
		page, err := g.fetchDependentsPage(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch dependents of %s: %w", fullName, err)
		}
		dependents = append(dependents, page.dependents...)
		url = page.next
	}
	return dependents, nil
}

type dependentsPage struct {
	dependents []domain.Dependent
	next       string
}

func (g *GitHubGateway) fetchDependentsPage(ctx context.Context, url string) (dependentsPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dependentsPage{}, err
	}
	resp, err := g.htmlClient.Do(req)
	if err != nil {
		return dependentsPage{}, err
	}
	defer resp.Body.Close()
	// A 404 means the dependency graph is disabled for this repository;
	// treat it as an empty dependent set.
	if resp.StatusCode == http.StatusNotFound {
		return dependentsPage{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return dependentsPage{}, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return dependentsPage{}, err
	}
	return parseDependentsPage(string(body), g.htmlBaseURL), nil
}

func parseDependentsPage(html, baseURL string) dependentsPage {
	var page dependentsPage
	for _, row := range dependentRowRE.FindAllString(html, -1) {
		repoMatch := dependentRepoRE.FindStringSubmatch(row)
		if repoMatch == nil {
			continue
		}
		fullName := repoMatch[1]
		page.dependents = append(page.dependents, domain.Dependent{
			FullName: fullName,
			URL:      baseURL + "/" + fullName,
			Stars:    parseCount(dependentStarRE, row),
			Forks:    parseCount(dependentForkRE, row),
		})
	}
	if next := dependentsNextRE.FindStringSubmatch(html); next != nil {
		page.next = next[1]
	}
	return page
}

func parseCount(re *regexp.Regexp, row string) int {
	match := re.FindStringSubmatch(row)
	if match == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func splitFullName(fullName string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository full name %q", fullName)
	}
	return owner, name, nil
}
