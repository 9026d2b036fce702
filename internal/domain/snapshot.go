// Package domain contains the core data structures and domain logic for the application.
package domain

import "sort"

// EventKind identifies which of the four tracked sets an event belongs to.
type EventKind string

const (
	EventStar      EventKind = "star"
	EventFork      EventKind = "fork"
	EventWatch     EventKind = "watch"
	EventDependent EventKind = "dependent"
)

// eventKindOrder fixes the emission order of kinds within one repository.
var eventKindOrder = []EventKind{EventStar, EventFork, EventWatch, EventDependent}

// Repo identifies one organization repository.
type Repo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	URL      string `json:"url"`
}

// Dependent is a repository registered as depending on one of ours,
// with its star/fork counts at observation time.
type Dependent struct {
	FullName string `json:"full_name"`
	URL      string `json:"url"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
}

// RepoMetrics holds the persisted member lists of the four tracked sets for
// one repository. Slice order is the discovery order returned by the API.
type RepoMetrics struct {
	Stargazers []string `json:"stargazers"`
	Forkers    []string `json:"forkers"`
	Watchers   []string `json:"watchers"`
	Dependents []string `json:"dependents"`
}

// Snapshot maps a repository's full name to its last observed metrics.
// It is the sole durable state between runs and is replaced wholesale,
// never merged.
type Snapshot map[string]RepoMetrics

// RepoObservation is one repository's freshly fetched metrics, including the
// auxiliary dependent data that is carried on events but not persisted.
type RepoObservation struct {
	Repo       Repo
	Stargazers []string
	Forkers    []string
	Watchers   []string
	Dependents []Dependent
}

// Metrics reduces the observation to its persistable form.
func (o RepoObservation) Metrics() RepoMetrics {
	deps := make([]string, 0, len(o.Dependents))
	for _, d := range o.Dependents {
		deps = append(deps, d.FullName)
	}
	return RepoMetrics{
		Stargazers: o.Stargazers,
		Forkers:    o.Forkers,
		Watchers:   o.Watchers,
		Dependents: deps,
	}
}

// Event is one newly observed entry in any of the four sets. Events are
// ephemeral: produced by Diff, delivered once, never persisted.
type Event struct {
	Kind EventKind `json:"kind"`
	Repo Repo      `json:"repo"`
	// Actor is the login of the stargazer/forker/watcher, or the full name
	// of the dependent repository.
	Actor string `json:"actor"`
	// TotalCount is the size of the set the actor joined, at detection time.
	TotalCount int `json:"total_count"`
	// Dependent carries star/fork counts for EventDependent only.
	Dependent *Dependent `json:"dependent,omitempty"`
}

// Diff compares freshly observed metrics against the prior snapshot and
// returns one event per entry present in the observation but absent from the
// snapshot's corresponding set. Entries that disappeared are dropped
// silently. The result is deterministic: observations are grouped by
// repository full name (ascending), kinds in star/fork/watch/dependent
// order, and entries within a kind keep their discovery order.
func Diff(prev Snapshot, observations []RepoObservation) []Event {
	sorted := make([]RepoObservation, len(observations))
	copy(sorted, observations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Repo.FullName < sorted[j].Repo.FullName
	})

	var events []Event
	for _, obs := range sorted {
		known := prev[obs.Repo.FullName]
		for _, kind := range eventKindOrder {
			switch kind {
			case EventStar:
				for _, login := range newEntries(obs.Stargazers, known.Stargazers) {
					events = append(events, Event{
						Kind:       EventStar,
						Repo:       obs.Repo,
						Actor:      login,
						TotalCount: len(obs.Stargazers),
					})
				}
			case EventFork:
				for _, login := range newEntries(obs.Forkers, known.Forkers) {
					events = append(events, Event{
						Kind:       EventFork,
						Repo:       obs.Repo,
						Actor:      login,
						TotalCount: len(obs.Forkers),
					})
				}
			case EventWatch:
				for _, login := range newEntries(obs.Watchers, known.Watchers) {
					events = append(events, Event{
						Kind:       EventWatch,
						Repo:       obs.Repo,
						Actor:      login,
						TotalCount: len(obs.Watchers),
					})
				}
			case EventDependent:
				knownDeps := toSet(known.Dependents)
				for _, dep := range obs.Dependents {
					if _, ok := knownDeps[dep.FullName]; ok {
						continue
					}
					d := dep
					events = append(events, Event{
						Kind:       EventDependent,
						Repo:       obs.Repo,
						Actor:      dep.FullName,
						TotalCount: len(obs.Dependents),
						Dependent:  &d,
					})
				}
			}
		}
	}
	return events
}

// newEntries returns the members of curr absent from prev, preserving the
// order of curr.
func newEntries(curr, prev []string) []string {
	known := toSet(prev)
	var fresh []string
	for _, entry := range curr {
		if _, ok := known[entry]; !ok {
			fresh = append(fresh, entry)
		}
	}
	return fresh
}

func toSet(entries []string) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e] = struct{}{}
	}
	return set
}
