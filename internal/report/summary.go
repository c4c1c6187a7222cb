package report

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/sitemaps/internal/model"
)

// frequencyOrder lists change frequencies from most to least volatile,
// with unspecified last.
var frequencyOrder = []model.ChangeFrequency{
	model.ChangeFrequencyAlways,
	model.ChangeFrequencyHourly,
	model.ChangeFrequencyDaily,
	model.ChangeFrequencyWeekly,
	model.ChangeFrequencyMonthly,
	model.ChangeFrequencyYearly,
	model.ChangeFrequencyNever,
	model.ChangeFrequencyNone,
}

// frequencyCount is the number of entries declaring one change frequency.
type frequencyCount struct {
	Label string
	Count int
}

// frequencySummary counts entries per change frequency, skipping zero counts.
func frequencySummary(s *model.Sitemap) []frequencyCount {
	counts := make(map[model.ChangeFrequency]int)
	for _, e := range s.Entries {
		counts[e.ChangeFrequency]++
	}

	var summary []frequencyCount
	for _, freq := range frequencyOrder {
		if counts[freq] == 0 {
			continue
		}
		summary = append(summary, frequencyCount{Label: frequencyLabel(freq), Count: counts[freq]})
	}
	return summary
}

// frequencyLabel returns a display name such as "Weekly".
func frequencyLabel(freq model.ChangeFrequency) string {
	if !freq.IsSet() {
		return "Unspecified"
	}
	return cases.Title(language.English).String(freq.String())
}

// formatTime formats an optional timestamp for display.
func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}
