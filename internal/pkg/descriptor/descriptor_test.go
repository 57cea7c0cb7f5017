package descriptor

import (
	"errors"
	"testing"
	"time"
)

func TestParseWallClock(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"90", 90 * time.Minute, true},
		{"120", 120 * time.Minute, true},
		{"15", 15 * time.Minute, true},
		{"24:00", 24 * time.Hour, true},
		{"1:30", 90 * time.Minute, true},
		{"0:45", 45 * time.Minute, true},
		{"", 0, false},
		{"0", 0, false},
		{"1:75", 0, false},
		{"24h", 0, false},
		{"1:2:3", 0, false},
		{"-5", 0, false},
	}
	for _, c := range cases {
		got, err := ParseWallClock(c.in)
		if c.ok {
			if err != nil {
				t.Errorf("ParseWallClock(%q) unexpected error: %v", c.in, err)
				continue
			}
			if got != c.want {
				t.Errorf("ParseWallClock(%q) = %v, want %v", c.in, got, c.want)
			}
			continue
		}
		if err == nil {
			t.Errorf("ParseWallClock(%q) expected error, got %v", c.in, got)
		} else if !errors.Is(err, ErrBadWallClock) {
			t.Errorf("ParseWallClock(%q) error = %v, want ErrBadWallClock", c.in, err)
		}
	}
}

func TestCheckOutputPath(t *testing.T) {
	valid := []string{
		"SERIALJOB.%J.%I",
		"out/%J.log",
		"plain.log",
		"%J%I",
	}
	for _, p := range valid {
		if err := CheckOutputPath(p); err != nil {
			t.Errorf("CheckOutputPath(%q) unexpected error: %v", p, err)
		}
	}
	invalid := []string{
		"out.%j",
		"out.%K",
		"out.%",
		"%J.%i",
	}
	for _, p := range invalid {
		err := CheckOutputPath(p)
		if err == nil {
			t.Errorf("CheckOutputPath(%q) expected error", p)
		} else if !errors.Is(err, ErrBadPlaceholder) {
			t.Errorf("CheckOutputPath(%q) error = %v, want ErrBadPlaceholder", p, err)
		}
	}
}

func validDescriptor(t *testing.T) *JobDescriptor {
	t.Helper()
	return &JobDescriptor{
		Name:       "SERIALJOB",
		Project:    "eeg_thesis",
		OutputPath: "SERIALJOB.%J.%I",
		MemoryMB:   15000,
		WorkDir:    t.TempDir(),
		CondaEnv:   "eeg",
		Command:    DefaultCommand,
	}
}

func TestValidate(t *testing.T) {
	d := validDescriptor(t)
	if err := d.Validate(); err != nil {
		t.Fatalf("valid descriptor rejected: %v", err)
	}

	d = validDescriptor(t)
	d.WallClock = "24:00"
	if err := d.Validate(); err != nil {
		t.Fatalf("descriptor with wall clock rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*JobDescriptor)
		want   error // nil means any error is fine (validator tag failure)
	}{
		{"missing name", func(d *JobDescriptor) { d.Name = "" }, nil},
		{"zero memory", func(d *JobDescriptor) { d.MemoryMB = 0 }, nil},
		{"negative memory", func(d *JobDescriptor) { d.MemoryMB = -1 }, nil},
		{"empty command", func(d *JobDescriptor) { d.Command = nil }, nil},
		{"missing workdir", func(d *JobDescriptor) { d.WorkDir = "/nonexistent/lsfd/workdir" }, ErrWorkDirMissing},
		{"bad wall clock", func(d *JobDescriptor) { d.WallClock = "1h30m" }, ErrBadWallClock},
		{"bad placeholder", func(d *JobDescriptor) { d.OutputPath = "out.%K" }, ErrBadPlaceholder},
		{"name with space", func(d *JobDescriptor) { d.Name = "my job" }, ErrBadDirective},
		{"queue with tab", func(d *JobDescriptor) { d.Queue = "nor\tmal" }, ErrBadDirective},
		{"project with newline", func(d *JobDescriptor) { d.Project = "eeg\nthesis" }, ErrBadDirective},
		{"output path line injection", func(d *JobDescriptor) { d.OutputPath = "out.log\nrm -rf $HOME" }, ErrBadDirective},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := validDescriptor(t)
			c.mutate(d)
			err := d.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if c.want != nil && !errors.Is(err, c.want) {
				t.Fatalf("error = %v, want %v", err, c.want)
			}
		})
	}
}

func TestValidateWorkDirIsFile(t *testing.T) {
	d := validDescriptor(t)
	d.WorkDir = "descriptor.go" // this source file, definitely not a directory
	err := d.Validate()
	if !errors.Is(err, ErrWorkDirNotDir) {
		t.Fatalf("error = %v, want ErrWorkDirNotDir", err)
	}
}
