// Package descriptor models a single LSF batch job submission: the
// scheduler directives, the working directory, the runtime environment
// and the command line. A descriptor is built once, validated, rendered
// to a bsub script and never mutated afterwards.
package descriptor

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DefaultCommand is the command line used when a submission does not
// name one: the unbuffered Python entry point.
var DefaultCommand = []string{"python", "-u", "main.py"}

var (
	ErrWorkDirMissing = errors.New("working directory does not exist")
	ErrWorkDirNotDir  = errors.New("working directory is not a directory")
	ErrBadWallClock   = errors.New("wall clock must be [hour:]minute")
	ErrBadPlaceholder = errors.New("output path may only use %J and %I placeholders")
	ErrBadDirective   = errors.New("directive value must not contain whitespace or control characters")
)

// JobDescriptor declares one serial batch job for the LSF scheduler.
// WallClock is optional: the empty string omits the -W directive and the
// scheduler applies its own limit.
type JobDescriptor struct {
	Name       string   `json:"name" validate:"required"`
	Project    string   `json:"project"`
	Queue      string   `json:"queue"`
	OutputPath string   `json:"output_path" validate:"required"`
	WallClock  string   `json:"wall_clock"`
	MemoryMB   int      `json:"memory_mb" validate:"required,gt=0"`
	WorkDir    string   `json:"work_dir" validate:"required"`
	CondaEnv   string   `json:"conda_env" validate:"required"`
	Command    []string `json:"command" validate:"required,min=1,dive,required"`
}

// wallClockRe matches the LSF -W grammar: minutes, or hour:minute.
var wallClockRe = regexp.MustCompile(`^(?:(\d+):)?(\d+)$`)

// checkDirectiveValue guards the fields that land unquoted on a #BSUB
// line. Whitespace splits the directive; a newline ends the comment and
// the remainder becomes an executable script line.
func checkDirectiveValue(field, s string) error {
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %s %q", ErrBadDirective, field, s)
		}
	}
	return nil
}

// ParseWallClock parses an LSF [hour:]minute limit into a duration.
// "90" is ninety minutes, "24:00" is twenty-four hours. The minute part
// of the two-field form must stay below 60.
func ParseWallClock(s string) (time.Duration, error) {
	m := wallClockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrBadWallClock, s)
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadWallClock, s)
	}
	if m[1] != "" {
		hours, err := strconv.Atoi(m[1])
		if err != nil || minutes > 59 {
			return 0, fmt.Errorf("%w: %q", ErrBadWallClock, s)
		}
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadWallClock, s)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// CheckOutputPath verifies that the output file template uses only the
// placeholders the scheduler substitutes: %J (job ID) and %I (array
// task index).
func CheckOutputPath(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+1 >= len(path) {
			return fmt.Errorf("%w: trailing %% in %q", ErrBadPlaceholder, path)
		}
		switch path[i+1] {
		case 'J', 'I':
			i++
		default:
			return fmt.Errorf("%w: %%%c in %q", ErrBadPlaceholder, path[i+1], path)
		}
	}
	return nil
}

// Validate checks descriptor well-formedness: required fields, positive
// memory, directive values free of whitespace and control characters,
// the wall-clock grammar when the limit is enabled, the output template
// placeholders, and that the working directory is reachable.
func (d *JobDescriptor) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(d); err != nil {
		return err
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", d.Name},
		{"project", d.Project},
		{"queue", d.Queue},
		{"output_path", d.OutputPath},
	} {
		if f.value == "" {
			continue
		}
		if err := checkDirectiveValue(f.name, f.value); err != nil {
			return err
		}
	}
	if err := CheckOutputPath(d.OutputPath); err != nil {
		return err
	}
	if d.WallClock != "" {
		if _, err := ParseWallClock(d.WallClock); err != nil {
			return err
		}
	}
	fi, err := os.Stat(d.WorkDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrWorkDirMissing, d.WorkDir)
		}
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrWorkDirNotDir, d.WorkDir)
	}
	return nil
}
