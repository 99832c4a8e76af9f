package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/schedule"
	"alcyxob/strength-academy/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const displayLayout = "Mon 02 Jan 2006"

// defaultPreviewDays is how far an open-ended schedule is listed when --to is omitted.
const defaultPreviewDays = 28

var (
	okColor      = color.New(color.FgGreen, color.Bold)
	workoutColor = color.New(color.FgGreen)
	trainColor   = color.New(color.FgCyan)
	restColor    = color.New(color.FgHiBlack)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgHiWhite, color.Bold)
)

// scheduleFlags are the enrollment parameters shared by the preview commands.
type scheduleFlags struct {
	start string
	weeks int
}

func (f *scheduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "Enrollment start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.weeks, "weeks", 0, "Program length in weeks, 0 for open-ended")
	_ = cmd.MarkFlagRequired("start")
}

// enrollment builds the active enrollment the flags describe.
func (f *scheduleFlags) enrollment(programID primitive.ObjectID) (*domain.Enrollment, error) {
	start, ok := schedule.ParseFlexibleDate(f.start)
	if !ok {
		return nil, fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", f.start)
	}
	if f.weeks < 0 {
		return nil, fmt.Errorf("--weeks must not be negative")
	}
	e := &domain.Enrollment{
		ID:        primitive.NewObjectID(),
		ProgramID: programID,
		Status:    domain.EnrollmentActive,
		StartDate: &start,
	}
	if f.weeks > 0 {
		weeks := f.weeks
		e.DurationWeeks = &weeks
	}
	return e, nil
}

func (f *scheduleFlags) schedule() (schedule.Schedule, error) {
	e, err := f.enrollment(primitive.NilObjectID)
	if err != nil {
		return schedule.Schedule{}, err
	}
	s, _ := schedule.DeriveProgramSchedule(e, app.now())
	return s, nil
}

func loadProgramDocument(path string) (*service.ProgramDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open program: %w", err)
	}
	defer f.Close()
	return service.ParseProgramDocument(f)
}

// checkProgramCmd validates a TOML program document the way the import endpoint does.
func checkProgramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-program <file.toml>",
		Short: "Validate a program document and list its training days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadProgramDocument(args[0])
			if err != nil {
				return err
			}
			app.logger.Debug("program document parsed", zap.String("file", args[0]), zap.Int("days", len(doc.Days)))

			out := cmd.OutOrStdout()
			okColor.Fprintf(out, "OK %s\n", doc.String())
			for _, w := range doc.Workouts(doc.Program(primitive.NilObjectID)) {
				day := *w.DayNumber
				week := (day-1)/schedule.TrainingDaysPerWeek + 1
				weekday := time.Weekday((int(schedule.ProgramWeekStart) + (day-1)%schedule.TrainingDaysPerWeek) % 7)
				fmt.Fprintf(out, "  day %3d  week %2d %s  %-28s %d exercises\n",
					day, week, weekday.String()[:3], w.Title, len(w.Exercises))
			}
			return nil
		},
	}
}

// scheduleCmd lists the training dates of an enrollment.
func scheduleCmd() *cobra.Command {
	var (
		flags    scheduleFlags
		from, to string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "List the training dates of an enrollment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.schedule()
			if err != nil {
				return err
			}

			rangeFrom, rangeTo := s.Start, s.End
			if s.OpenEnded() {
				rangeTo = schedule.AddDays(s.Start, defaultPreviewDays-1)
			}
			if from != "" {
				if rangeFrom, err = parseFlag("from", from); err != nil {
					return err
				}
			}
			if to != "" {
				if rangeTo, err = parseFlag("to", to); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			writeScheduleSummary(out, s)
			for _, date := range s.TrainingDates(rangeFrom, rangeTo) {
				day, _ := s.DayForDate(date)
				fmt.Fprintf(out, "  day %3d  %s\n", day, date.Format(displayLayout))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "First date to list (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last date to list (YYYY-MM-DD)")
	return cmd
}

// dayNumberCmd maps a date back to its day-number.
func dayNumberCmd() *cobra.Command {
	var flags scheduleFlags
	cmd := &cobra.Command{
		Use:   "day-number <date>",
		Short: "Show which program day falls on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.schedule()
			if err != nil {
				return err
			}
			date, err := parseFlag("date", args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch day, ok := s.DayForDate(date); {
			case ok:
				fmt.Fprintf(out, "%s is day %d\n", date.Format(displayLayout), day)
			case date.Before(s.Start):
				fmt.Fprintf(out, "%s is before the program starts on %s\n", date.Format(displayLayout), s.Start.Format(displayLayout))
			case !s.Contains(date):
				fmt.Fprintf(out, "%s is after the program ends on %s\n", date.Format(displayLayout), s.End.Format(displayLayout))
			default:
				fmt.Fprintf(out, "%s is a rest day\n", date.Format(displayLayout))
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// calendarCmd renders a month grid in the layout athletes see in the app.
func calendarCmd() *cobra.Command {
	var (
		flags       scheduleFlags
		programFile string
		month       string
		details     bool
	)
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Preview a month of an enrollment, optionally with a program's workouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var workouts []domain.Workout
			programID := primitive.NewObjectID()
			if programFile != "" {
				doc, err := loadProgramDocument(programFile)
				if err != nil {
					return err
				}
				program := doc.Program(primitive.NilObjectID)
				program.ID = programID
				workouts = doc.Workouts(program)
				if flags.weeks == 0 && program.DurationWeeks != nil {
					flags.weeks = *program.DurationWeeks
				}
			}

			enrollment, err := flags.enrollment(programID)
			if err != nil {
				return err
			}
			s, _ := schedule.DeriveProgramSchedule(enrollment, app.now())

			anchor := s.Start
			if month != "" {
				if anchor, err = parseFlag("month", month+"-01"); err != nil {
					return err
				}
			}
			grid := schedule.BuildMonthGrid(anchor)

			result := schedule.Reconcile(schedule.ReconcileInput{
				Workouts:    workouts,
				Enrollments: []domain.Enrollment{*enrollment},
				Range:       &schedule.DateRange{From: grid[0], To: grid[len(grid)-1]},
				Now:         app.now(),
			})
			app.logger.Debug("calendar reconciled",
				zap.Int("placed", len(result.Workouts)), zap.Int("omitted", len(result.Omitted)))

			out := cmd.OutOrStdout()
			writeMonth(out, anchor, grid, s, schedule.GroupByDateKey(result.Workouts))
			writeOmissions(out, result.Omitted)
			if details {
				writeDetails(out, s, result.Workouts, anchor)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&programFile, "program", "p", "", "Program document to place on the calendar")
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to show (YYYY-MM), defaults to the start month")
	cmd.Flags().BoolVarP(&details, "details", "d", false, "List the month's workouts below the grid")
	return cmd
}

func parseFlag(name, value string) (time.Time, error) {
	date, ok := schedule.ParseFlexibleDate(value)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", name, value)
	}
	return date, nil
}

func writeScheduleSummary(out io.Writer, s schedule.Schedule) {
	end := "open-ended"
	if !s.OpenEnded() {
		end = s.End.Format(displayLayout)
	}
	headerColor.Fprintf(out, "Start %s, end %s", s.Start.Format(displayLayout), end)
	if s.TotalTrainingDays > 0 {
		headerColor.Fprintf(out, ", %d training days", s.TotalTrainingDays)
	}
	fmt.Fprintln(out)
}

// writeMonth prints a six week grid. Days with a workout are marked with an
// asterisk; other training days and rest days get their own colors.
func writeMonth(out io.Writer, anchor time.Time, grid [schedule.MonthGridCells]time.Time, s schedule.Schedule, byDate map[string][]schedule.ResolvedWorkout) {
	const cellWidth = 4
	title := anchor.Format("January 2006")
	headerColor.Fprintln(out, center(title, cellWidth*schedule.DaysPerWeek))

	var header strings.Builder
	for i := 0; i < schedule.DaysPerWeek; i++ {
		day := time.Weekday((int(schedule.CalendarWeekStart) + i) % 7)
		fmt.Fprintf(&header, "%-*s", cellWidth, day.String()[:2])
	}
	fmt.Fprintln(out, strings.TrimRight(header.String(), " "))

	for row := 0; row < len(grid)/schedule.DaysPerWeek; row++ {
		var line strings.Builder
		for col := 0; col < schedule.DaysPerWeek; col++ {
			date := grid[row*schedule.DaysPerWeek+col]
			key, _ := schedule.DateKey(date)

			mark := " "
			if len(byDate[key]) > 0 {
				mark = "*"
			}
			cell := fmt.Sprintf("%2d%s", date.Day(), mark)

			switch _, training := s.DayForDate(date); {
			case date.Month() != anchor.Month():
				cell = restColor.Sprint(cell)
			case mark == "*":
				cell = workoutColor.Sprint(cell)
			case training:
				cell = trainColor.Sprint(cell)
			}
			line.WriteString(cell)
			if col < schedule.DaysPerWeek-1 {
				line.WriteString(" ")
			}
		}
		fmt.Fprintln(out, line.String())
	}

	fmt.Fprintf(out, "\n%s workout  %s training day  %s outside month\n",
		workoutColor.Sprint("*"), trainColor.Sprint("##"), restColor.Sprint("##"))
}

func writeOmissions(out io.Writer, omitted []schedule.Omission) {
	counts := make(map[schedule.OmitReason]int)
	var order []schedule.OmitReason
	for _, o := range omitted {
		if o.Reason == schedule.ReasonOutOfRange {
			continue
		}
		if counts[o.Reason] == 0 {
			order = append(order, o.Reason)
		}
		counts[o.Reason]++
	}
	for _, reason := range order {
		warnColor.Fprintf(out, "%d workout(s) left off the calendar: %s\n", counts[reason], reason)
	}
}

func writeDetails(out io.Writer, s schedule.Schedule, resolved []schedule.ResolvedWorkout, anchor time.Time) {
	fmt.Fprintln(out)
	for _, rw := range resolved {
		if rw.Date.Month() != anchor.Month() || rw.Date.Year() != anchor.Year() {
			continue
		}
		day, _ := s.DayForDate(rw.Date)
		fmt.Fprintf(out, "%s  day %3d  %s\n", rw.Date.Format(displayLayout), day, rw.Workout.Title)
	}
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
