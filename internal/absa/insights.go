package absa

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spacesedan/aspectflow/internal/models"
)

const (
	praisedPositivePct   = 65
	concernNegativePct   = 40
	recommendPositivePct = 70
	concernsPositivePct  = 40
)

var titleCaser = cases.Title(language.English)

// GenerateInsights turns the retained aspects and overall counts into short
// human-readable findings. aspects must be in first-encountered order; ties
// go to the earlier aspect.
func GenerateInsights(aspects []models.AspectSummary, overall models.SentimentCounts, reviewCount int) []string {
	if len(aspects) == 0 {
		return []string{fmt.Sprintf("Analyzed %d reviews. No prominent aspects detected.", reviewCount)}
	}

	var insights []string

	mostDiscussed := aspects[0]
	for _, a := range aspects[1:] {
		if a.Mentions > mostDiscussed.Mentions {
			mostDiscussed = a
		}
	}
	insights = append(insights, fmt.Sprintf("Most discussed: %s (mentioned in %s%% of reviews)",
		titleCaser.String(mostDiscussed.Aspect), formatPercent(mostDiscussed.PercentageMentioned)))

	if best, ok := strongest(aspects, reviewCount, func(a models.AspectSummary) float64 {
		return a.Percentages.Positive
	}, praisedPositivePct); ok {
		insights = append(insights, fmt.Sprintf("Most praised: %s (%d%% positive)",
			titleCaser.String(best.Aspect), int(best.Percentages.Positive)))
	}

	if worst, ok := strongest(aspects, reviewCount, func(a models.AspectSummary) float64 {
		return a.Percentages.Negative
	}, concernNegativePct); ok {
		insights = append(insights, fmt.Sprintf("Needs improvement: %s (%d%% negative)",
			titleCaser.String(worst.Aspect), int(worst.Percentages.Negative)))
	}

	positivePct := 0.0
	if reviewCount > 0 {
		positivePct = float64(overall.Positive) / float64(reviewCount) * 100
	}
	switch {
	case positivePct > recommendPositivePct:
		insights = append(insights, fmt.Sprintf("Overall: Highly recommended (%d%% positive reviews)", int(positivePct)))
	case positivePct < concernsPositivePct:
		insights = append(insights, fmt.Sprintf("Overall: Significant concerns (%d%% positive reviews)", int(positivePct)))
	default:
		insights = append(insights, fmt.Sprintf("Overall: Mixed feedback (%d%% positive reviews)", int(positivePct)))
	}

	insights = append(insights, fmt.Sprintf("Detected %d key aspects using adaptive filtering", len(aspects)))
	return insights
}

// strongest picks the aspect with the highest pct above threshold among those
// mentioned in at least 5% of reviews.
func strongest(aspects []models.AspectSummary, reviewCount int, pct func(models.AspectSummary) float64, threshold float64) (models.AspectSummary, bool) {
	var best models.AspectSummary
	found := false
	for _, a := range aspects {
		if pct(a) <= threshold || a.Mentions*20 < reviewCount {
			continue
		}
		if !found || pct(a) > pct(best) {
			best = a
			found = true
		}
	}
	return best, found
}

func formatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
