package model

import "testing"

func TestSubmissionTerminal(t *testing.T) {
	cases := []struct {
		state string
		want  bool
	}{
		{"PEND", false},
		{"RUN", false},
		{"PSUSP", false},
		{"DONE", true},
		{"EXIT", true},
		{"ZOMBI", true},
		{"UNKWN", false},
		{"", false},
	}
	for _, c := range cases {
		s := Submission{State: c.state}
		if got := s.Terminal(); got != c.want {
			t.Errorf("Terminal() with state %q = %v, want %v", c.state, got, c.want)
		}
	}
}
