// Command academyctl is an offline companion to the server: it checks program
// documents before import and previews the calendars they produce.
package main

import (
	"os"
	"time"

	"alcyxob/strength-academy/internal/config"
	"alcyxob/strength-academy/internal/logging"
	"alcyxob/strength-academy/internal/schedule"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds the command dependencies
type App struct {
	logger *zap.Logger
	now    func() time.Time
}

var (
	env string
	tz  string
	app *App
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "academyctl",
		Short:        "Strength Academy tools - check programs and preview schedules",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "dev", "Environment (dev logs verbosely)")
	rootCmd.PersistentFlags().StringVar(&tz, "tz", "Local", "Calendar timezone as an IANA name")

	rootCmd.AddCommand(checkProgramCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(dayNumberCmd())
	rootCmd.AddCommand(calendarCmd())
	return rootCmd
}

// initApp sets up the logger and the calendar timezone
func initApp() error {
	logger, err := logging.New(env)
	if err != nil {
		return err
	}
	loc, err := config.CalendarConfig{Location: tz}.LoadLocation()
	if err != nil {
		return err
	}
	schedule.SetLocation(loc)

	app = &App{logger: logger, now: time.Now}
	app.logger.Debug("academyctl ready", zap.String("env", env), zap.String("tz", loc.String()))
	return nil
}
