package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeck/studydeck/pkg/timeutil"
)

func daysFromKeys(keys ...string) []time.Time {
	days := make([]time.Time, 0, len(keys))
	for _, k := range keys {
		days = append(days, timeutil.MustDay(k))
	}
	return days
}

func TestRatioSingleDailyTask(t *testing.T) {
	tasks := []Task{{ID: "t1", Name: "revise", RecurrenceRule: Daily()}}
	progress := Progress{"t1": {"2024-01-01"}}

	assert.Equal(t, 100, Ratio(tasks, progress, daysFromKeys("2024-01-01")))
	assert.Equal(t, 0, Ratio(tasks, progress, daysFromKeys("2024-01-02")))
	// Aggregated over both days: 1 of 2.
	assert.Equal(t, 50, Ratio(tasks, progress, daysFromKeys("2024-01-01", "2024-01-02")))
}

func TestRatioNoApplicableTasksIsZero(t *testing.T) {
	tasks := []Task{{ID: "t1", RecurrenceRule: Once("2030-01-01")}}
	progress := Progress{}

	for _, key := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		assert.Equal(t, 0, Ratio(tasks, progress, daysFromKeys(key)))
	}
	assert.Equal(t, 0, Ratio(nil, nil, daysFromKeys("2024-01-01")))
}

func TestRatioRounds(t *testing.T) {
	// Three daily tasks, two done: 66.67 rounds to 67.
	tasks := []Task{
		{ID: "a", RecurrenceRule: Daily()},
		{ID: "b", RecurrenceRule: Daily()},
		{ID: "c", RecurrenceRule: Daily()},
	}
	progress := Progress{"a": {"2024-01-01"}, "b": {"2024-01-01"}}
	assert.Equal(t, 67, Ratio(tasks, progress, daysFromKeys("2024-01-01")))
}

func TestDailyPoints(t *testing.T) {
	today := timeutil.MustDay("2024-01-07")
	tasks := []Task{{ID: "t1", RecurrenceRule: Daily()}}
	progress := Progress{"t1": {"2024-01-07", "2024-01-05"}}

	points := DailyPoints(tasks, progress, today)
	require.Len(t, points, 7)

	// Oldest first: Jan 1 .. Jan 7.
	assert.Equal(t, "01-01", points[0].Label)
	assert.Equal(t, "01-07", points[6].Label)
	assert.Equal(t, 100, points[6].Ratio)
	assert.Equal(t, 100, points[4].Ratio)
	assert.Equal(t, 0, points[5].Ratio)
	assert.Equal(t, 0, points[0].Ratio)
}

func TestWeeklyPointsLabels(t *testing.T) {
	today := timeutil.MustDay("2024-02-12") // Monday, ISO week 7
	points := WeeklyPoints(nil, nil, today)
	require.Len(t, points, 6)

	// Oldest window starts 5 weeks back (2024-01-08, week 2).
	assert.Equal(t, "W2", points[0].Label)
	assert.Equal(t, "W7", points[5].Label)
	for _, p := range points {
		assert.Equal(t, 0, p.Ratio)
	}
}

func TestWeeklyPointsAggregateWholeWindow(t *testing.T) {
	today := timeutil.MustDay("2024-01-08")
	tasks := []Task{{ID: "t1", RecurrenceRule: Weekly(0)}} // Mondays

	// Done on the Monday of the current window only.
	progress := Progress{"t1": {"2024-01-08"}}
	points := WeeklyPoints(tasks, progress, today)
	require.Len(t, points, 6)

	// Each 7-day window contains exactly one or two Mondays depending on
	// alignment; the current window starts on a Monday, so one applies.
	assert.Equal(t, 100, points[5].Ratio)
	assert.Equal(t, 0, points[4].Ratio)
}

func TestMonthlyPointsLabels(t *testing.T) {
	today := timeutil.MustDay("2024-06-15")
	points := MonthlyPoints(nil, nil, today)
	require.Len(t, points, 6)
	assert.Equal(t, "Jan", points[0].Label)
	assert.Equal(t, "Jun", points[5].Label)
}

func TestMonthlyPointsRatio(t *testing.T) {
	today := timeutil.MustDay("2024-02-10")
	tasks := []Task{{ID: "t1", RecurrenceRule: Once("2024-02-03")}}
	progress := Progress{"t1": {"2024-02-03"}}

	points := MonthlyPoints(tasks, progress, today)
	require.Len(t, points, 6)
	// Only February has an applicable day, and it was completed.
	assert.Equal(t, "Feb", points[5].Label)
	assert.Equal(t, 100, points[5].Ratio)
	assert.Equal(t, 0, points[4].Ratio)
}

func TestPointsDispatch(t *testing.T) {
	today := timeutil.MustDay("2024-06-15")
	assert.Len(t, Points(GranularityDaily, nil, nil, today), 7)
	assert.Len(t, Points(GranularityWeekly, nil, nil, today), 6)
	assert.Len(t, Points(GranularityMonthly, nil, nil, today), 6)
	assert.Len(t, Points("bogus", nil, nil, today), 7)
}

func TestUpcomingByDateWeeklyMonday(t *testing.T) {
	tasks := []Task{{ID: "t1", Name: "gym", RecurrenceRule: Weekly(0)}}
	wednesday := timeutil.MustDay("2024-01-03")

	upcoming := UpcomingByDate(tasks, wednesday, 7)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "2024-01-08", upcoming[0].Date) // next Monday only
	assert.Equal(t, []string{"gym"}, upcoming[0].Tasks)
}

func TestUpcomingByDateExcludesDaily(t *testing.T) {
	tasks := []Task{
		{ID: "d", Name: "drill", RecurrenceRule: Daily()},
		{ID: "o", Name: "essay", RecurrenceRule: Once("2024-01-05")},
	}
	upcoming := UpcomingByDate(tasks, timeutil.MustDay("2024-01-03"), 7)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "2024-01-05", upcoming[0].Date)
	assert.Equal(t, []string{"essay"}, upcoming[0].Tasks)
}

func TestUpcomingByDatePreservesTaskOrder(t *testing.T) {
	tasks := []Task{
		{ID: "b", Name: "second", RecurrenceRule: Once("2024-01-04")},
		{ID: "a", Name: "first", RecurrenceRule: OnDates("2024-01-04")},
	}
	upcoming := UpcomingByDate(tasks, timeutil.MustDay("2024-01-03"), 3)
	require.Len(t, upcoming, 1)
	assert.Equal(t, []string{"second", "first"}, upcoming[0].Tasks)
}

func TestTasksForTodayIncludesDaily(t *testing.T) {
	tasks := []Task{
		{ID: "d", Name: "drill", RecurrenceRule: Daily()},
		{ID: "w", Name: "gym", RecurrenceRule: Weekly(0)},
		{ID: "o", Name: "essay", RecurrenceRule: Once("2024-01-02")},
	}
	monday := timeutil.MustDay("2024-01-01")

	today := TasksForToday(tasks, monday)
	require.Len(t, today, 2)
	assert.Equal(t, "d", today[0].ID)
	assert.Equal(t, "w", today[1].ID)
}
