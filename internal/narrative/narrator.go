// Package narrative asks a text generator for commentary on a finished
// analysis, one section at a time.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/types"
)

// MaxRecommendations caps the parsed recommendation list.
const MaxRecommendations = 10

// SectionError lists the sections a generator failed to produce.
type SectionError struct {
	Failed map[string]error
}

func (e *SectionError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for n := range e.Failed {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %v", n, e.Failed[n])
	}
	return "narrative sections failed: " + strings.Join(parts, "; ")
}

// Narrator builds a Narrative from a Generator.
type Narrator struct {
	gen interfaces.Generator
}

var _ interfaces.Narrator = (*Narrator)(nil)

func New(gen interfaces.Generator) *Narrator {
	return &Narrator{gen: gen}
}

// Narrate generates every section. A failed section is left empty and
// reported through *SectionError; when every section fails the error also
// wraps types.ErrNarrativeUnavailable.
func (n *Narrator) Narrate(ctx context.Context, in types.NarrativeInput) (types.Narrative, error) {
	out := types.Narrative{Provider: n.gen.Name(), Model: n.gen.Model()}
	facts := BuildContext(in)
	failed := map[string]error{}

	for _, s := range sections {
		text, err := n.gen.Generate(ctx, s.system, s.prompt(facts))
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty response")
		}
		if err != nil {
			logger.Degraded(ctx, "narrative", err, "section", s.name, "provider", out.Provider)
			failed[s.name] = err
			continue
		}
		text = strings.TrimSpace(text)
		switch s.name {
		case SectionTraderProfile:
			out.TraderProfile = text
		case SectionRiskAssessment:
			out.RiskAssessment = text
		case SectionBehavior:
			out.BehavioralInsights = text
		case SectionRecommendations:
			out.Recommendations = ParseRecommendations(text)
		case SectionPerformance:
			out.PerformanceSummary = text
		}
	}

	if len(failed) == 0 {
		return out, nil
	}
	err := &SectionError{Failed: failed}
	if out.Empty() {
		return types.Narrative{}, fmt.Errorf("%w: %w", types.ErrNarrativeUnavailable, err)
	}
	return out, err
}

var (
	bulletRe   = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)
	headingEnd = regexp.MustCompile(`:\s*$`)
)

// ParseRecommendations extracts bullet and numbered lines, skipping lines that
// only introduce a group (ending in a colon). Bold markers are removed.
func ParseRecommendations(text string) []string {
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		m := bulletRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		item := strings.TrimSpace(strings.ReplaceAll(m[1], "**", ""))
		if item == "" || headingEnd.MatchString(item) {
			continue
		}
		recs = append(recs, item)
		if len(recs) == MaxRecommendations {
			break
		}
	}
	return recs
}
