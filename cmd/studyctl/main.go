// Command studyctl is a local CLI for the study dashboard. It works
// against a SQLite copy of the document so commands run offline.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/studydeck/studydeck/internal/application/dashboard"
	"github.com/studydeck/studydeck/internal/domain/academics"
	"github.com/studydeck/studydeck/internal/domain/planner"
	"github.com/studydeck/studydeck/internal/infrastructure/docstore/sqlite"
	"github.com/studydeck/studydeck/internal/infrastructure/repository"
	"github.com/studydeck/studydeck/pkg/logger"
)

var (
	// Persistent flags.
	dbPath   string
	userName string

	// Task flags.
	taskFreq     string
	taskDate     string
	taskWeekdays []int
	taskDates    []string
	doneDate     string

	rootCmd = &cobra.Command{
		Use:   "studyctl",
		Short: "Manage tasks, attendance and marks from the terminal.",
		Long:  `studyctl reads and writes the same dashboard document the server does, stored in a local SQLite file.`,
		SilenceUsage: true,
	}

	overviewCmd = &cobra.Command{
		Use:   "overview",
		Short: "Show today's tasks, classes, events and exams.",
		RunE:  runOverview,
	}

	taskCmd = &cobra.Command{
		Use:   "task",
		Short: "Manage recurring tasks.",
	}

	taskListCmd = &cobra.Command{
		Use:   "list",
		Short: "List every task with its streak.",
		RunE:  runTaskList,
	}

	taskAddCmd = &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task with a recurrence rule.",
		Args:  cobra.ExactArgs(1),
		RunE:  runTaskAdd,
	}

	taskDoneCmd = &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task done for a date (default today).",
		Args:  cobra.ExactArgs(1),
		RunE:  runTaskDone,
	}

	taskUndoneCmd = &cobra.Command{
		Use:   "undone <task-id>",
		Short: "Clear a task's completion for a date (default today).",
		Args:  cobra.ExactArgs(1),
		RunE:  runTaskUndone,
	}

	taskRmCmd = &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task and its history.",
		Args:  cobra.ExactArgs(1),
		RunE:  runTaskRm,
	}

	consistencyCmd = &cobra.Command{
		Use:   "consistency [daily|weekly|monthly]",
		Short: "Show completion ratios over recent periods.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConsistency,
	}

	subjectCmd = &cobra.Command{
		Use:   "subject",
		Short: "Manage subjects and marks.",
	}

	subjectListCmd = &cobra.Command{
		Use:   "list",
		Short: "List subjects with mark totals.",
		RunE:  runSubjectList,
	}

	subjectAddCmd = &cobra.Command{
		Use:   "add <name>",
		Short: "Add a subject.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubjectAdd,
	}

	subjectScoreCmd = &cobra.Command{
		Use:   "score <subject-id> <slot> <obtained> <total>",
		Short: "Record a mark for a slot (ut1, ut2, ta1, ta2, end).",
		Args:  cobra.ExactArgs(4),
		RunE:  runSubjectScore,
	}

	attendanceCmd = &cobra.Command{
		Use:   "attendance",
		Short: "Show and record attendance.",
		RunE:  runAttendanceReport,
	}

	attendanceMarkCmd = &cobra.Command{
		Use:   "mark <subject-id> <present|absent|noclass>",
		Short: "Record attendance for a date (default today).",
		Args:  cobra.ExactArgs(2),
		RunE:  runAttendanceMark,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "studydeck.db", "Path to the SQLite document file.")
	rootCmd.PersistentFlags().StringVar(&userName, "user", "me", "User whose record to operate on.")

	taskAddCmd.Flags().StringVar(&taskFreq, "freq", "daily", "Recurrence: daily, once, weekly or specific.")
	taskAddCmd.Flags().StringVar(&taskDate, "date", "", "Date (YYYY-MM-DD) for once tasks.")
	taskAddCmd.Flags().IntSliceVar(&taskWeekdays, "weekday", nil, "Weekday indexes (0=Monday) for weekly tasks.")
	taskAddCmd.Flags().StringSliceVar(&taskDates, "on", nil, "Dates (YYYY-MM-DD) for specific tasks.")
	taskDoneCmd.Flags().StringVar(&doneDate, "date", "", "Date (YYYY-MM-DD), defaults to today.")
	taskUndoneCmd.Flags().StringVar(&doneDate, "date", "", "Date (YYYY-MM-DD), defaults to today.")
	attendanceMarkCmd.Flags().StringVar(&doneDate, "date", "", "Date (YYYY-MM-DD), defaults to today.")

	taskCmd.AddCommand(taskListCmd, taskAddCmd, taskDoneCmd, taskUndoneCmd, taskRmCmd)
	subjectCmd.AddCommand(subjectListCmd, subjectAddCmd, subjectScoreCmd)
	attendanceCmd.AddCommand(attendanceMarkCmd)
	rootCmd.AddCommand(overviewCmd, taskCmd, consistencyCmd, subjectCmd, attendanceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openService builds a dashboard service on top of the local SQLite
// document store.
func openService() (*dashboard.Service, error) {
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	opts := logger.DefaultOptions()
	opts.Level = logger.LevelWarn
	opts.Output = os.Stderr
	log := logger.New(opts)
	repo := repository.New(store, userName, log)
	return dashboard.NewService(repo, log), nil
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func runOverview(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	ov, err := svc.Overview(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("%s (%s)\n", ov.DayLabel, ov.Date)
	if len(ov.Tasks) == 0 {
		cmd.Println("No tasks for today.")
	}
	for _, t := range ov.Tasks {
		mark := " "
		if t.Done {
			mark = "x"
		}
		cmd.Printf("  [%s] %s  (%s)\n", mark, t.Name, t.ID)
	}
	if len(ov.Classes) > 0 {
		cmd.Println("Classes:")
		for _, c := range ov.Classes {
			line := fmt.Sprintf("  %s  %s", c.Time, c.Subject)
			if c.Room != "" {
				line += "  (" + c.Room + ")"
			}
			cmd.Println(line)
		}
	}
	if len(ov.Exams) > 0 {
		cmd.Println("Upcoming exams:")
		for _, e := range ov.Exams {
			cmd.Printf("  %s  %s\n", e.Date, e.Subject)
		}
	}
	if len(ov.Events) > 0 {
		cmd.Println("Upcoming events:")
		for _, e := range ov.Events {
			cmd.Printf("  %s  %s\n", e.Date, e.Name)
		}
	}
	if ov.Attendance.Total > 0 {
		cmd.Printf("Attendance: %d%%\n", ov.Attendance.Percent)
	}
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	tasks, err := svc.ListTasks(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		cmd.Println("No tasks yet.")
		return nil
	}
	for _, t := range tasks {
		line := fmt.Sprintf("%s  %s  [%s]", t.ID, t.Name, t.Freq)
		if t.Streak != nil && t.Streak.Current > 0 {
			line += fmt.Sprintf("  streak %d (best %d)", t.Streak.Current, t.Streak.Best)
		}
		cmd.Println(line)
	}
	return nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	rule, err := buildRule()
	if err != nil {
		return err
	}
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	task, err := svc.AddTask(ctx, args[0], rule)
	if err != nil {
		return err
	}
	cmd.Printf("Added %q (%s)\n", task.Name, task.ID)
	return nil
}

func buildRule() (planner.RecurrenceRule, error) {
	switch planner.Frequency(taskFreq) {
	case planner.FreqDaily:
		return planner.Daily(), nil
	case planner.FreqOnce:
		if taskDate == "" {
			return planner.RecurrenceRule{}, fmt.Errorf("--date is required for once tasks")
		}
		return planner.Once(taskDate), nil
	case planner.FreqWeekly:
		if len(taskWeekdays) == 0 {
			return planner.RecurrenceRule{}, fmt.Errorf("--weekday is required for weekly tasks")
		}
		return planner.Weekly(taskWeekdays...), nil
	case planner.FreqSpecific:
		if len(taskDates) == 0 {
			return planner.RecurrenceRule{}, fmt.Errorf("--on is required for specific tasks")
		}
		return planner.OnDates(taskDates...), nil
	default:
		return planner.RecurrenceRule{}, fmt.Errorf("unknown frequency %q", taskFreq)
	}
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	return toggleTask(cmd, args[0], true)
}

func runTaskUndone(cmd *cobra.Command, args []string) error {
	return toggleTask(cmd, args[0], false)
}

func toggleTask(cmd *cobra.Command, taskID string, done bool) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	if done {
		err = svc.MarkDone(ctx, taskID, doneDate)
	} else {
		err = svc.UnmarkDone(ctx, taskID, doneDate)
	}
	if err != nil {
		return err
	}
	if done {
		cmd.Println("Done.")
	} else {
		cmd.Println("Cleared.")
	}
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	if err := svc.DeleteTask(ctx, args[0]); err != nil {
		return err
	}
	cmd.Println("Deleted.")
	return nil
}

func runConsistency(cmd *cobra.Command, args []string) error {
	granularity := planner.GranularityDaily
	if len(args) == 1 {
		granularity = planner.Granularity(args[0])
	}
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	points, err := svc.Consistency(ctx, granularity)
	if err != nil {
		return err
	}
	for _, p := range points {
		bar := strings.Repeat("#", p.Ratio/5)
		cmd.Printf("%-12s %3d%%  %s\n", p.Label, p.Ratio, bar)
	}
	return nil
}

func runSubjectList(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	subjects, err := svc.ListSubjects(ctx)
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		cmd.Println("No subjects yet.")
		return nil
	}
	for _, s := range subjects {
		cmd.Printf("%s  %s  %.0f/%.0f (%d%%)\n", s.ID, s.Name, s.Obtained, s.Total, s.Percent)
	}
	return nil
}

func runSubjectAdd(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	subject, err := svc.AddSubject(ctx, args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Added %q (%s)\n", subject.Name, subject.ID)
	return nil
}

func runSubjectScore(cmd *cobra.Command, args []string) error {
	obtained, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("obtained must be a number: %w", err)
	}
	total, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("total must be a number: %w", err)
	}
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	if err := svc.SetScore(ctx, args[0], academics.SlotKey(args[1]), obtained, total); err != nil {
		return err
	}
	cmd.Println("Recorded.")
	return nil
}

func runAttendanceReport(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	report, err := svc.AttendanceStats(ctx)
	if err != nil {
		return err
	}
	if len(report.Subjects) == 0 {
		cmd.Println("No subjects yet.")
		return nil
	}
	for _, s := range report.Subjects {
		warn := ""
		if s.Stats.Total > 0 && !s.Stats.Good() {
			warn = "  (below 75%)"
		}
		cmd.Printf("%-20s %d/%d  %d%%%s\n", s.Subject.Name, s.Stats.Present, s.Stats.Total, s.Stats.Percent, warn)
	}
	cmd.Printf("Overall: %d/%d  %d%%\n", report.Overall.Present, report.Overall.Total, report.Overall.Percent)
	return nil
}

func runAttendanceMark(cmd *cobra.Command, args []string) error {
	status, err := academics.ParseStatus(args[1])
	if err != nil {
		return err
	}
	svc, err := openService()
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext()
	defer cancel()

	if err := svc.AddAttendance(ctx, args[0], doneDate, status); err != nil {
		return err
	}
	cmd.Println("Recorded.")
	return nil
}
