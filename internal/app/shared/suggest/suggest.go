// Package suggest finds the closest known name for a mistyped one.
package suggest

import (
	"errors"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"villagelife/internal/domain/issue"
	"villagelife/internal/domain/resource"
	"villagelife/internal/domain/task"
	"villagelife/internal/domain/world"
)

func limit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func normalise(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, " ", "_")))
}

// Closest returns up to max candidates within edit distance of name, best
// first. Ties break alphabetically.
func Closest(name string, candidates []string, max int) []string {
	in := normalise(name)
	if in == "" || max <= 0 {
		return nil
	}
	type scored struct {
		name string
		dist int
	}
	var hits []scored
	for _, c := range candidates {
		cn := normalise(c)
		d := levenshtein.ComputeDistance(in, cn)
		if d > limit(len(cn)) {
			continue
		}
		hits = append(hits, scored{name: c, dist: d})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist == hits[j].dist {
			return hits[i].name < hits[j].name
		}
		return hits[i].dist < hits[j].dist
	})
	out := make([]string, 0, max)
	for _, h := range hits {
		out = append(out, h.name)
		if len(out) == max {
			break
		}
	}
	return out
}

// Best is the single closest candidate, or "".
func Best(name string, candidates []string) string {
	if hits := Closest(name, candidates, 1); len(hits) == 1 {
		return hits[0]
	}
	return ""
}

// Vocabulary returns the closed name set for an issue.UnknownName kind.
func Vocabulary(kind string) []string {
	var out []string
	switch kind {
	case "resource type":
		for _, t := range resource.Types() {
			out = append(out, string(t))
		}
	case "season":
		for _, s := range world.Seasons() {
			out = append(out, string(s))
		}
	case "weather type":
		for _, w := range world.WeatherTypes() {
			out = append(out, string(w))
		}
	case "task type":
		for _, t := range task.Types() {
			out = append(out, string(t))
		}
	case "task status":
		out = []string{
			string(task.StatusLocked), string(task.StatusAvailable), string(task.StatusInProgress),
			string(task.StatusCompleted), string(task.StatusFailed),
		}
	}
	return out
}

// ForError suggests a replacement when err carries an unknown enum name.
// extra is consulted for kinds without a fixed vocabulary, such as ids.
func ForError(err error, extra map[string][]string) string {
	var unknown *issue.UnknownName
	if !errors.As(err, &unknown) {
		return ""
	}
	vocab := Vocabulary(unknown.Kind)
	if vocab == nil {
		vocab = extra[unknown.Kind]
	}
	return Best(unknown.Name, vocab)
}
