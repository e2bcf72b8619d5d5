package streak

import (
	"testing"
	"time"

	"example.com/codetrack/internal/domain"
)

var today = time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)

func recordsOn(days ...time.Time) []domain.ActivityRecord {
	records := make([]domain.ActivityRecord, 0, len(days))
	for i, day := range days {
		records = append(records, domain.ActivityRecord{
			ID:          string(rune('a' + i)),
			UserID:      "user-1",
			Date:        day,
			CommitCount: 1,
			Source:      domain.ActivitySourceManual,
		})
	}
	return records
}

func daysAgo(n int) time.Time {
	return today.AddDate(0, 0, -n)
}

func TestComputeEmptySet(t *testing.T) {
	result := Compute(nil, today)
	if result.Current != 0 || result.Longest != 0 {
		t.Fatalf("expected zero result, got %+v", result)
	}
	if result.LastActive != nil {
		t.Fatalf("expected nil last active, got %v", result.LastActive)
	}
}

func TestComputeUnbrokenRunEndingToday(t *testing.T) {
	result := Compute(recordsOn(daysAgo(0), daysAgo(1), daysAgo(2)), today)
	if result.Current != 3 {
		t.Fatalf("expected current 3, got %d", result.Current)
	}
	if result.Longest != 3 {
		t.Fatalf("expected longest 3, got %d", result.Longest)
	}
	if !result.LastActive.Equal(today) {
		t.Fatalf("expected last active %v, got %v", today, result.LastActive)
	}
}

func TestComputeGapAtYesterday(t *testing.T) {
	// today active, yesterday missed, then a three-day run further back.
	result := Compute(recordsOn(daysAgo(0), daysAgo(2), daysAgo(3), daysAgo(4)), today)
	if result.Current != 1 {
		t.Fatalf("expected current 1, got %d", result.Current)
	}
	if result.Longest != 3 {
		t.Fatalf("expected longest 3, got %d", result.Longest)
	}
	if !result.LastActive.Equal(today) {
		t.Fatalf("expected last active today, got %v", result.LastActive)
	}
}

func TestComputeStreakEndingYesterdayStillCounts(t *testing.T) {
	result := Compute(recordsOn(daysAgo(1), daysAgo(2)), today)
	if result.Current != 2 {
		t.Fatalf("expected current 2, got %d", result.Current)
	}
	if !result.LastActive.Equal(daysAgo(1)) {
		t.Fatalf("expected last active yesterday, got %v", result.LastActive)
	}
}

func TestComputeStaleChainBreaksCurrent(t *testing.T) {
	result := Compute(recordsOn(daysAgo(2), daysAgo(3), daysAgo(4)), today)
	if result.Current != 0 {
		t.Fatalf("expected current 0 when most recent day is before yesterday, got %d", result.Current)
	}
	if result.Longest != 3 {
		t.Fatalf("expected longest 3, got %d", result.Longest)
	}
	if !result.LastActive.Equal(daysAgo(2)) {
		t.Fatalf("expected last active preserved, got %v", result.LastActive)
	}
}

func TestComputeSingleRecord(t *testing.T) {
	result := Compute(recordsOn(daysAgo(0)), today)
	if result.Current != 1 || result.Longest != 1 {
		t.Fatalf("expected 1/1, got %d/%d", result.Current, result.Longest)
	}

	stale := Compute(recordsOn(daysAgo(10)), today)
	if stale.Current != 0 || stale.Longest != 1 {
		t.Fatalf("expected 0/1 for stale single record, got %d/%d", stale.Current, stale.Longest)
	}
}

func TestComputeLongestNeverBelowCurrent(t *testing.T) {
	sets := [][]domain.ActivityRecord{
		recordsOn(daysAgo(0)),
		recordsOn(daysAgo(0), daysAgo(1)),
		recordsOn(daysAgo(0), daysAgo(2), daysAgo(3)),
		recordsOn(daysAgo(1), daysAgo(2), daysAgo(5), daysAgo(6), daysAgo(7), daysAgo(8)),
		recordsOn(daysAgo(4), daysAgo(9)),
	}
	for i, records := range sets {
		result := Compute(records, today)
		if result.Longest < result.Current {
			t.Fatalf("set %d: longest %d < current %d", i, result.Longest, result.Current)
		}
	}
}

func TestComputeLongerHistoricRun(t *testing.T) {
	// current run of two, historic run of four
	records := recordsOn(daysAgo(0), daysAgo(1), daysAgo(5), daysAgo(6), daysAgo(7), daysAgo(8))
	result := Compute(records, today)
	if result.Current != 2 {
		t.Fatalf("expected current 2, got %d", result.Current)
	}
	if result.Longest != 4 {
		t.Fatalf("expected longest 4, got %d", result.Longest)
	}
}

func TestComputeNormalizesTimestamps(t *testing.T) {
	// Same calendar days expressed with stray time-of-day components must not
	// produce phantom gaps or duplicate days.
	records := []domain.ActivityRecord{
		{Date: today.Add(23 * time.Hour)},
		{Date: daysAgo(1).Add(5 * time.Minute)},
		{Date: daysAgo(1).Add(18 * time.Hour)},
		{Date: daysAgo(2)},
	}
	result := Compute(records, today.Add(9*time.Hour))
	if result.Current != 3 || result.Longest != 3 {
		t.Fatalf("expected 3/3, got %d/%d", result.Current, result.Longest)
	}
}

func TestDistributions(t *testing.T) {
	records := []domain.ActivityRecord{
		{Date: time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC), Language: "go"},
		{Date: time.Date(2026, time.January, 9, 0, 0, 0, 0, time.UTC), Language: "go"},
		{Date: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), Language: "rust"},
		{Date: time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC)},
	}

	dist := Distributions(records)

	if dist.ByLanguage["go"] != 2 || dist.ByLanguage["rust"] != 1 {
		t.Fatalf("unexpected language distribution: %v", dist.ByLanguage)
	}
	if _, ok := dist.ByLanguage[""]; ok {
		t.Fatalf("empty language must not be counted")
	}
	if dist.ByMonth["2026-01"] != 2 || dist.ByMonth["2026-02"] != 2 {
		t.Fatalf("unexpected month distribution: %v", dist.ByMonth)
	}
}
