package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/studydeck/studydeck/pkg/timeutil"
)

// Granularity selects the consistency window size.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// Window point counts per granularity.
const (
	DailyPointCount   = 7
	WeeklyPointCount  = 6
	MonthlyPointCount = 6
)

// Point is one bar of the consistency graph: a label and a completion
// ratio in percent (0..100).
type Point struct {
	Label string `json:"label"`
	Ratio int    `json:"ratio"`
}

// Ratio computes the completion ratio over a window of calendar days.
// For every day, every task whose rule applies counts toward the
// denominator; applied tasks marked done on that day count toward the
// numerator. Returns round(numerator/denominator*100), or 0 for an empty
// denominator - never a division by zero.
func Ratio(tasks []Task, progress Progress, days []time.Time) int {
	numer, denom := 0, 0
	for _, day := range days {
		key := timeutil.DayKey(day)
		for _, t := range tasks {
			if !t.AppliesOn(day) {
				continue
			}
			denom++
			if progress.IsDone(t.ID, key) {
				numer++
			}
		}
	}
	if denom == 0 {
		return 0
	}
	return int(math.Round(float64(numer) / float64(denom) * 100))
}

// DailyPoints returns one point per day for the most recent 7 calendar
// days ending today, oldest first. Labels are MM-DD.
func DailyPoints(tasks []Task, progress Progress, today time.Time) []Point {
	today = timeutil.StartOfDay(today)
	points := make([]Point, 0, DailyPointCount)
	for i := DailyPointCount - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		points = append(points, Point{
			Label: day.Format(timeutil.FormatMonthDay),
			Ratio: Ratio(tasks, progress, []time.Time{day}),
		})
	}
	return points
}

// WeeklyPoints returns 6 points, each covering 7 consecutive days starting
// at today minus 7*weeksAgo, oldest first. Labels carry the ISO week
// number of the window's first day.
func WeeklyPoints(tasks []Task, progress Progress, today time.Time) []Point {
	today = timeutil.StartOfDay(today)
	points := make([]Point, 0, WeeklyPointCount)
	for w := WeeklyPointCount - 1; w >= 0; w-- {
		start := today.AddDate(0, 0, -7*w)
		days := make([]time.Time, 0, 7)
		for i := 0; i < 7; i++ {
			days = append(days, start.AddDate(0, 0, i))
		}
		points = append(points, Point{
			Label: fmt.Sprintf("W%d", timeutil.ISOWeek(start)),
			Ratio: Ratio(tasks, progress, days),
		})
	}
	return points
}

// MonthlyPoints returns 6 points, each covering every calendar day of one
// month, from five months back through the current month. Labels are month
// abbreviations.
func MonthlyPoints(tasks []Task, progress Progress, today time.Time) []Point {
	month := timeutil.StartOfMonth(today)
	points := make([]Point, 0, MonthlyPointCount)
	for m := MonthlyPointCount - 1; m >= 0; m-- {
		ref := month.AddDate(0, -m, 0)
		days := make([]time.Time, 0, 31)
		for d := 0; d < timeutil.DaysInMonth(ref); d++ {
			days = append(days, ref.AddDate(0, 0, d))
		}
		points = append(points, Point{
			Label: ref.Format(timeutil.FormatMonthAbbrev),
			Ratio: Ratio(tasks, progress, days),
		})
	}
	return points
}

// Points dispatches on granularity. Unknown granularities fall back to daily.
func Points(g Granularity, tasks []Task, progress Progress, today time.Time) []Point {
	switch g {
	case GranularityWeekly:
		return WeeklyPoints(tasks, progress, today)
	case GranularityMonthly:
		return MonthlyPoints(tasks, progress, today)
	default:
		return DailyPoints(tasks, progress, today)
	}
}

// UpcomingDay groups the names of tasks scheduled on one future date.
type UpcomingDay struct {
	Date  string   `json:"date"`
	Tasks []string `json:"tasks"`
}

// UpcomingByDate scans the next days calendar dates starting at from
// (inclusive) and groups non-daily tasks by the dates their rules apply.
// Daily tasks are excluded: they belong to the "today" view, not the
// upcoming one. Dates without applicable tasks are omitted; task order is
// preserved within each date.
func UpcomingByDate(tasks []Task, from time.Time, days int) []UpcomingDay {
	from = timeutil.StartOfDay(from)
	var upcoming []UpcomingDay
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		var names []string
		for _, t := range tasks {
			if t.Freq == FreqDaily {
				continue
			}
			if t.AppliesOn(day) {
				names = append(names, t.Name)
			}
		}
		if len(names) > 0 {
			upcoming = append(upcoming, UpcomingDay{
				Date:  timeutil.DayKey(day),
				Tasks: names,
			})
		}
	}
	return upcoming
}

// TasksForToday filters the tasks scheduled on the given day, daily tasks
// included. Shared by the home and overview views.
func TasksForToday(tasks []Task, today time.Time) []Task {
	var out []Task
	for _, t := range tasks {
		if t.AppliesOn(today) {
			out = append(out, t)
		}
	}
	return out
}
