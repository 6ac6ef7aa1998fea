package analysis

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/deepcrawl/internal/model"
)

// Assess classifies category counts into a feasibility assessment.
//
// The result depends only on its arguments:
//   - Strong/High: totalSources ≥ MinSources and every category meets its
//     strong threshold
//   - Partial/Medium: totalSources ≥ MinSources and strictly more than half
//     of the categories meet their partial threshold
//   - Minimal/Low: any category count is above zero
//   - Unresolved/Low: otherwise
//
// One recommendation is produced per category in declaration order: the
// affirmative text when the count exceeds the presence threshold, the gap
// text otherwise.
func Assess(counts []model.CategoryCount, totalSources int, categories []model.Category, policy Policy) model.FeasibilityAssessment {
	byName := make(map[string]int, len(counts))
	for _, c := range counts {
		byName[c.Category] = c.Count
	}

	a := model.FeasibilityAssessment{
		Tier:            model.TierUnresolved,
		Confidence:      model.ConfidenceLow,
		Recommendations: make([]string, 0, len(categories)),
	}

	strong, partial, anyEvidence := 0, 0, false
	for _, c := range categories {
		n := byName[c.Name]
		if n >= c.Strong() {
			strong++
		}
		if n >= c.Partial() {
			partial++
		}
		if n > 0 {
			anyEvidence = true
		}

		if n > c.PresenceThreshold {
			a.Recommendations = append(a.Recommendations, affirmativeText(c))
		} else {
			a.Recommendations = append(a.Recommendations, gapText(c))
		}
	}

	enough := totalSources >= policy.MinSources && len(categories) > 0
	switch {
	case enough && strong == len(categories):
		a.Tier, a.Confidence = model.TierStrong, model.ConfidenceHigh
	case enough && partial*2 > len(categories):
		a.Tier, a.Confidence = model.TierPartial, model.ConfidenceMedium
	case anyEvidence:
		a.Tier = model.TierMinimal
	}

	if anyEvidence {
		a.MostResolved, a.LeastResolved = extremes(categories, byName)
	}
	return a
}

// extremes returns the first-declared categories with the highest and the
// lowest count.
func extremes(categories []model.Category, counts map[string]int) (most, least string) {
	maxN, minN := -1, -1
	for _, c := range categories {
		n := counts[c.Name]
		if maxN < 0 || n > maxN {
			maxN, most = n, c.Name
		}
		if minN < 0 || n < minN {
			minN, least = n, c.Name
		}
	}
	return most, least
}

func affirmativeText(c model.Category) string {
	if c.Affirmative != "" {
		return c.Affirmative
	}
	return DisplayName(c.Name) + " has supporting evidence - investigate further"
}

func gapText(c model.Category) string {
	if c.GapMessage != "" {
		return c.GapMessage
	}
	return DisplayName(c.Name) + " needs more research - evidence gap"
}

// DisplayName turns a category identifier such as "case_study" into
// "Case Study".
func DisplayName(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return cases.Title(language.English).String(name)
}
