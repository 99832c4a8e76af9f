package service

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/schedule"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramDocument is the TOML layout accepted by program import:
//
//	name = "Base Strength"
//	duration_weeks = 4
//
//	[[day]]
//	number = 1
//	title = "Squat focus"
//
//	  [[day.exercise]]
//	  name = "Back squat"
//	  sets = 5
//	  reps = "5"
type ProgramDocument struct {
	Name          string        `toml:"name"`
	Description   string        `toml:"description"`
	DurationWeeks int           `toml:"duration_weeks"`
	Days          []DayDocument `toml:"day"`
}

type DayDocument struct {
	Number          int                `toml:"number"`
	Title           string             `toml:"title"`
	DurationMinutes int                `toml:"duration_minutes"`
	Notes           string             `toml:"notes"`
	Exercises       []ExerciseDocument `toml:"exercise"`
}

type ExerciseDocument struct {
	Name        string   `toml:"name"`
	Sets        int      `toml:"sets"`
	Reps        string   `toml:"reps"`
	Weight      string   `toml:"weight"`
	RPE         *float64 `toml:"rpe"`
	RestSeconds int      `toml:"rest_seconds"`
	Notes       string   `toml:"notes"`
}

// ParseProgramDocument decodes and validates a program document. Unknown keys
// are rejected so that typos do not silently drop data.
func ParseProgramDocument(r io.Reader) (*ProgramDocument, error) {
	var doc ProgramDocument
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, validationError("invalid program TOML: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, validationError("unknown keys in program TOML: %s", strings.Join(keys, ", "))
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the program header and that day numbers are unique and
// within the program's length.
func (d *ProgramDocument) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return validationError("program name is required")
	}
	if d.DurationWeeks < 0 {
		return validationError("duration_weeks cannot be negative")
	}
	maxDay := d.DurationWeeks * schedule.TrainingDaysPerWeek

	seen := make(map[int]bool, len(d.Days))
	for i, day := range d.Days {
		if day.Number < 1 || (maxDay > 0 && day.Number > maxDay) {
			if maxDay > 0 {
				return validationError("day %d: number %d outside 1..%d", i+1, day.Number, maxDay)
			}
			return validationError("day %d: number must be at least 1", i+1)
		}
		if seen[day.Number] {
			return validationError("day number %d appears more than once", day.Number)
		}
		seen[day.Number] = true
		if strings.TrimSpace(day.Title) == "" {
			return validationError("day %d: title is required", day.Number)
		}
		for _, ex := range day.Exercises {
			if strings.TrimSpace(ex.Name) == "" {
				return validationError("day %d: exercise name is required", day.Number)
			}
		}
	}
	return nil
}

// Program builds the domain program for coachID.
func (d *ProgramDocument) Program(coachID primitive.ObjectID) *domain.Program {
	p := &domain.Program{
		CoachID:     coachID,
		Name:        strings.TrimSpace(d.Name),
		Description: d.Description,
	}
	if d.DurationWeeks > 0 {
		weeks := d.DurationWeeks
		p.DurationWeeks = &weeks
	}
	return p
}

// Workouts builds one program-linked workout per day, ordered by day-number.
func (d *ProgramDocument) Workouts(program *domain.Program) []domain.Workout {
	days := make([]DayDocument, len(d.Days))
	copy(days, d.Days)
	sort.Slice(days, func(i, j int) bool { return days[i].Number < days[j].Number })

	out := make([]domain.Workout, 0, len(days))
	for _, day := range days {
		programID := program.ID
		number := day.Number
		w := domain.Workout{
			CoachID:         program.CoachID,
			ProgramID:       &programID,
			DayNumber:       &number,
			Title:           day.Title,
			DurationMinutes: day.DurationMinutes,
			CoachNotes:      day.Notes,
		}
		for _, ex := range day.Exercises {
			w.Exercises = append(w.Exercises, domain.ExercisePrescription{
				Name:        ex.Name,
				Sets:        ex.Sets,
				Reps:        ex.Reps,
				Weight:      ex.Weight,
				RPE:         ex.RPE,
				RestSeconds: ex.RestSeconds,
				Notes:       ex.Notes,
			})
		}
		out = append(out, w)
	}
	return out
}

func (d *ProgramDocument) String() string {
	return fmt.Sprintf("%s (%d weeks, %d days)", d.Name, d.DurationWeeks, len(d.Days))
}
