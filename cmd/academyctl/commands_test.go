package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseStrengthTOML = `
name = "Base Strength"
description = "Two weeks of heavy basics"
duration_weeks = 2

[[day]]
number = 1
title = "Squat focus"
duration_minutes = 60

  [[day.exercise]]
  name = "Back squat"
  sets = 5
  reps = "5"

  [[day.exercise]]
  name = "Romanian deadlift"
  sets = 3
  reps = "8"

[[day]]
number = 8
title = "Bench focus"

  [[day.exercise]]
  name = "Bench press"
  sets = 5
  reps = "3"
  rpe = 8.5
`

func writeProgram(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env", "prod", "--tz", "UTC"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckProgram(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		out, err := execute(t, "check-program", writeProgram(t, baseStrengthTOML))
		require.NoError(t, err)

		assert.Contains(t, out, "OK Base Strength (2 weeks, 2 days)")
		assert.Contains(t, out, "day   1  week  1 Mon  Squat focus")
		assert.Contains(t, out, "day   8  week  2 Tue  Bench focus")
		assert.Contains(t, out, "2 exercises")
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := execute(t, "check-program", writeProgram(t, baseStrengthTOML+"\ncolour = \"red\"\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown keys")
	})

	t.Run("day beyond duration", func(t *testing.T) {
		doc := strings.Replace(baseStrengthTOML, "number = 8", "number = 13", 1)
		_, err := execute(t, "check-program", writeProgram(t, doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside 1..12")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "check-program", filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})
}

func TestSchedule(t *testing.T) {
	t.Run("bounded week", func(t *testing.T) {
		// Wednesday start snaps back to Monday.
		out, err := execute(t, "schedule", "--start", "2024-01-03", "--weeks", "1")
		require.NoError(t, err)

		assert.Contains(t, out, "Start Mon 01 Jan 2024, end Sun 07 Jan 2024, 6 training days")
		assert.Contains(t, out, "day   1  Mon 01 Jan 2024")
		assert.Contains(t, out, "day   6  Sat 06 Jan 2024")
		assert.NotContains(t, out, "Sun 07 Jan 2024\n")
		assert.Equal(t, 6, strings.Count(out, "  day "))
	})

	t.Run("open-ended with range", func(t *testing.T) {
		out, err := execute(t, "schedule", "--start", "2024-01-01", "--from", "2024-01-07", "--to", "2024-01-09")
		require.NoError(t, err)

		assert.Contains(t, out, "end open-ended")
		assert.Contains(t, out, "day   7  Mon 08 Jan 2024")
		assert.Contains(t, out, "day   8  Tue 09 Jan 2024")
		assert.Equal(t, 2, strings.Count(out, "  day "))
	})

	t.Run("start is required", func(t *testing.T) {
		_, err := execute(t, "schedule", "--weeks", "2")
		assert.Error(t, err)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := execute(t, "schedule", "--start", "2024-02-30")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid start date")
	})
}

func TestDayNumber(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{"second week tuesday", "2024-01-09", "Tue 09 Jan 2024 is day 8"},
		{"sunday", "2024-01-07", "Sun 07 Jan 2024 is a rest day"},
		{"before start", "2023-12-25", "is before the program starts on Mon 01 Jan 2024"},
		{"after end", "2024-02-05", "is after the program ends on Sun 28 Jan 2024"},
		{"last sunday inside window", "2024-01-28", "is a rest day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "day-number", "--start", "2024-01-01", "--weeks", "4", tt.date)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	t.Run("bad date", func(t *testing.T) {
		_, err := execute(t, "day-number", "--start", "2024-01-01", "not-a-date")
		assert.Error(t, err)
	})
}

func TestCalendar(t *testing.T) {
	t.Run("program month with details", func(t *testing.T) {
		out, err := execute(t, "calendar", "--start", "2024-01-01", "--program", writeProgram(t, baseStrengthTOML), "--details")
		require.NoError(t, err)

		assert.Contains(t, out, "January 2024")
		assert.Contains(t, out, "Su  Mo  Tu  We  Th  Fr  Sa")
		// Grid opens on Sunday 31 December.
		assert.Contains(t, out, "31   1*  2 ")
		assert.Contains(t, out, " 9*")
		assert.Contains(t, out, "Mon 01 Jan 2024  day   1  Squat focus")
		assert.Contains(t, out, "Tue 09 Jan 2024  day   8  Bench focus")
		assert.NotContains(t, out, "left off the calendar")
	})

	t.Run("workout past the enrollment length", func(t *testing.T) {
		doc := strings.Replace(baseStrengthTOML, "duration_weeks = 2", "duration_weeks = 0", 1)
		out, err := execute(t, "calendar", "--start", "2024-01-01", "--weeks", "1", "--program", writeProgram(t, doc))
		require.NoError(t, err)

		assert.Contains(t, out, "1 workout(s) left off the calendar: beyond_duration")
		assert.NotContains(t, out, " 9*")
	})

	t.Run("other month", func(t *testing.T) {
		out, err := execute(t, "calendar", "--start", "2024-01-01", "--weeks", "8", "--month", "2024-02")
		require.NoError(t, err)
		assert.Contains(t, out, "February 2024")
		assert.NotContains(t, out, "*  ")
	})

	t.Run("bad month", func(t *testing.T) {
		_, err := execute(t, "calendar", "--start", "2024-01-01", "--month", "2024-13")
		assert.Error(t, err)
	})
}
