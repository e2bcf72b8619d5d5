// Package streak derives consecutive-day streaks and activity distributions
// from a user's activity records. It is pure computation: records are loaded
// elsewhere and handed in as a slice.
package streak

import (
	"sort"
	"time"

	"example.com/codetrack/internal/domain"
)

// Result is the derived streak state for one user. It is never persisted;
// every query recomputes it from the current record set.
type Result struct {
	Current    int
	Longest    int
	LastActive *time.Time
}

// Distribution groups activity counts by language and by calendar month.
type Distribution struct {
	ByLanguage map[string]int
	ByMonth    map[string]int
}

// Compute walks the record set and returns the current and longest
// consecutive-day streaks. The current streak counts only while the most
// recent active day is today or yesterday relative to the supplied day;
// otherwise the chain is broken and the current streak is zero.
func Compute(records []domain.ActivityRecord, today time.Time) Result {
	if len(records) == 0 {
		return Result{}
	}

	days := distinctDays(records)
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	latest := days[0]
	longest := 1
	firstRun := 1
	run := 1
	firstRunOpen := true

	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, -1)) {
			run++
		} else {
			firstRunOpen = false
			run = 1
		}
		if firstRunOpen {
			firstRun = run
		}
		if run > longest {
			longest = run
		}
	}

	today = domain.Day(today)
	yesterday := today.AddDate(0, 0, -1)

	current := 0
	if latest.Equal(today) || latest.Equal(yesterday) {
		current = firstRun
	}

	return Result{Current: current, Longest: longest, LastActive: &latest}
}

// Distributions tallies records per language and per calendar month.
// Records without a language contribute to the month counts only.
func Distributions(records []domain.ActivityRecord) Distribution {
	dist := Distribution{
		ByLanguage: make(map[string]int),
		ByMonth:    make(map[string]int),
	}
	for _, record := range records {
		if record.Language != "" {
			dist.ByLanguage[record.Language]++
		}
		dist.ByMonth[record.Date.Format("2006-01")]++
	}
	return dist
}

func distinctDays(records []domain.ActivityRecord) []time.Time {
	seen := make(map[time.Time]struct{}, len(records))
	days := make([]time.Time, 0, len(records))
	for _, record := range records {
		day := domain.Day(record.Date)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	return days
}
