package descriptor

import (
	"fmt"
	"strconv"
	"strings"
)

// Render produces the bsub script for the descriptor: the #BSUB
// directive block, a cd into the working directory, environment
// activation, and the command line. An empty WallClock omits the -W
// directive entirely.
//
// Render does not validate; callers run Validate first.
func (d *JobDescriptor) Render() string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&b, "#BSUB -J %s\n", d.Name)
	if d.Project != "" {
		fmt.Fprintf(&b, "#BSUB -P %s\n", d.Project)
	}
	if d.Queue != "" {
		fmt.Fprintf(&b, "#BSUB -q %s\n", d.Queue)
	}
	fmt.Fprintf(&b, "#BSUB -o %s\n", d.OutputPath)
	if d.WallClock != "" {
		fmt.Fprintf(&b, "#BSUB -W %s\n", d.WallClock)
	}
	fmt.Fprintf(&b, "#BSUB -M %d\n", d.MemoryMB)
	b.WriteString("\n")
	fmt.Fprintf(&b, "cd %s\n", shellQuote(d.WorkDir))
	fmt.Fprintf(&b, "source activate %s\n", shellQuote(d.CondaEnv))
	args := make([]string, 0, len(d.Command))
	for _, a := range d.Command {
		args = append(args, shellQuote(a))
	}
	fmt.Fprintf(&b, "exec %s\n", strings.Join(args, " "))
	return b.String()
}

// shellQuote returns s safe for interpolation into the generated script.
// Plain identifier-like tokens pass through unquoted to keep the script
// readable; anything else gets single-quoted.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || r == '-' || r == '.' || r == '/' || r == '=' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Summary is a one-line description used in logs and submission records.
func (d *JobDescriptor) Summary() string {
	return d.Name + " mem=" + strconv.Itoa(d.MemoryMB) + "MB dir=" + d.WorkDir + " env=" + d.CondaEnv
}
